package codegen

import (
	"bytes"
	"fmt"
	"go/types"
	"path"
	"reflect"
	"slices"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/project"
)

var projectPath = reflect.TypeFor[project.Projector]().PkgPath()

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by generic gen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{.}}
{{- end}}
)
{{range .Decls}}
{{.}}
{{- end}}
`))

type fileData struct {
	Package string
	Imports []string
	Decls   []string
}

// emitter renders projection code for the described types of one package.
type emitter struct {
	d       *describer
	imports map[string]string // path -> package name
	vars    int
}

func newEmitter(d *describer) *emitter {
	return &emitter{
		d: d,
		imports: map[string]string{
			"fmt":       "fmt",
			valuePath:   "value",
			projectPath: "project",
		},
	}
}

func (em *emitter) qualifier(p *types.Package) string {
	if p == em.d.pkg.Types {
		return ""
	}
	em.imports[p.Path()] = p.Name()
	return p.Name()
}

// file renders, formats and import-fixes the generated source.
func (em *emitter) file(filename string) ([]byte, error) {
	data := fileData{Package: em.d.pkg.Name}

	for _, obj := range em.d.order {
		desc := em.d.byObj[obj]
		var decl string
		var err error
		if desc.typ.Kind == descriptor.KindEnum {
			decl, err = em.sumDecl(desc)
		} else {
			decl, err = em.structDecl(desc)
		}
		if err != nil {
			return nil, err
		}
		data.Decls = append(data.Decls, decl)
	}

	for p, name := range em.imports {
		if name == path.Base(p) {
			data.Imports = append(data.Imports, fmt.Sprintf("%q", p))
		} else {
			data.Imports = append(data.Imports, fmt.Sprintf("%s %q", name, p))
		}
	}
	slices.Sort(data.Imports)

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", filename, err)
	}

	src, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", filename, err, buf.Bytes())
	}
	return src, nil
}

func (em *emitter) structDecl(desc *described) (string, error) {
	name := desc.obj.Name()
	data, err := em.payload(name, desc.typ.Fields, desc.fields, "x", false)
	if err != nil {
		return "", err
	}

	node := "value.Struct"
	if desc.typ.Fields.Kind == descriptor.FieldsPositional {
		node = "value.TupleStruct"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// GenericValue projects %s into a generic value tree.\n", name)
	fmt.Fprintf(&b, "func (x %s) GenericValue() value.Value {\n", name)
	fmt.Fprintf(&b, "\treturn %s{TypeName: %q, Data: %s}\n", node, name, data)
	b.WriteString("}\n")
	return b.String(), nil
}

func (em *emitter) sumDecl(desc *described) (string, error) {
	name := desc.obj.Name()
	fn := name + "GenericValue"

	binds := false
	for _, v := range desc.variants {
		binds = binds || len(v.fields) > 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s projects a %s variant into a generic value tree.\n", fn, name)
	fmt.Fprintf(&b, "func %s(x %s) value.Value {\n", fn, name)
	if binds {
		b.WriteString("\tswitch v := x.(type) {\n")
	} else {
		b.WriteString("\tswitch x.(type) {\n")
	}

	for i, v := range desc.variants {
		fields := desc.typ.Variants[i].Fields
		fmt.Fprintf(&b, "\tcase %s:\n", types.TypeString(v.typ, em.qualifier))

		if fields.Kind == descriptor.FieldsUnit {
			fmt.Fprintf(&b, "\t\treturn value.UnitVariant{TypeName: %q, VariantName: %q}\n", name, v.name)
			continue
		}

		data, err := em.payload(name, fields, v.fields, "v", v.pointer)
		if err != nil {
			return "", err
		}
		node := "value.StructVariant"
		if fields.Kind == descriptor.FieldsPositional {
			node = "value.TupleVariant"
		}
		fmt.Fprintf(&b, "\t\treturn %s{TypeName: %q, VariantName: %q, Data: %s}\n", node, name, v.name, data)
	}

	b.WriteString("\tdefault:\n")
	fmt.Fprintf(&b, "\t\tpanic(fmt.Sprintf(\"%s: %%T is not a variant of %s\", x))\n", fn, name)
	b.WriteString("\t}\n}\n")
	return b.String(), nil
}

// payload renders the Data literal of a struct or variant read from recv.
func (em *emitter) payload(owner string, fields descriptor.Fields, bindings []goField, recv string, pointer bool) (string, error) {
	var b strings.Builder
	if fields.Kind == descriptor.FieldsNamed {
		b.WriteString("map[string]value.Value{\n")
	} else {
		b.WriteString("[]value.Value{\n")
	}

	for i, bind := range bindings {
		sel := recv + "." + bind.selector
		if bind.selector == "" {
			sel = recv
			if pointer {
				sel = "(*" + recv + ")"
			}
		}
		expr, err := em.expr(owner, bind.typ, sel)
		if err != nil {
			return "", err
		}
		if fields.Kind == descriptor.FieldsNamed {
			fmt.Fprintf(&b, "%q: %s,\n", fields.List[i].Name, expr)
		} else {
			fmt.Fprintf(&b, "%s,\n", expr)
		}
	}
	b.WriteString("}")
	return b.String(), nil
}

var tupleFuncs = map[int]string{2: "Pair", 3: "Triple", 4: "Quad"}

// expr renders the projection of the Go expression e of type t.
func (em *emitter) expr(owner string, t types.Type, e string) (string, error) {
	t = types.Unalias(t)

	if n, ok := t.(*types.Named); ok {
		obj := n.Obj()
		switch {
		case isNamed(n, uuidPath, "UUID"):
			return "project.UUID(" + e + ")", nil
		case isNamed(n, valuePath, "Int128"):
			return "project.Int128(" + e + ")", nil
		case isNamed(n, valuePath, "Uint128"):
			return "project.Uint128(" + e + ")", nil
		case isNamed(n, valuePath, "Value"):
			return e, nil
		case em.d.isTuple(n):
			return em.tuple(owner, n, e)
		}

		if desc, ok := em.d.byObj[obj]; ok {
			if desc.typ.Kind == descriptor.KindEnum {
				return obj.Name() + "GenericValue(" + e + ")", nil
			}
			return e + ".GenericValue()", nil
		}
		if em.d.hasProjector(n) {
			return e + ".GenericValue()", nil
		}
		switch n.Underlying().(type) {
		case *types.Struct:
			return "", derive.MissingDescriptor(owner, "%s has no descriptor", n)
		case *types.Interface:
			return "", derive.MissingDescriptor(owner, "interface %s is not a sum", n)
		}
	}

	switch u := t.Underlying().(type) {
	case *types.Basic:
		info := u.Info()
		switch {
		case info&types.IsBoolean != 0:
			return "project.Bool(bool(" + e + "))", nil
		case info&types.IsInteger != 0 && info&types.IsUnsigned != 0:
			return "project.Uint(" + e + ")", nil
		case info&types.IsInteger != 0:
			return "project.Int(" + e + ")", nil
		case info&types.IsFloat != 0:
			return "project.Float(" + e + ")", nil
		case info&types.IsString != 0:
			return "project.String(" + e + ")", nil
		}
		return "", derive.UnsupportedShape(owner, "%s has no projection", t)

	case *types.Slice:
		return em.collection(owner, "Slice", u.Elem(), e)
	case *types.Array:
		return em.collection(owner, "Slice", u.Elem(), e+"[:]")
	case *types.Pointer:
		return em.collection(owner, "Option", u.Elem(), e)
	case *types.Map:
		if k, ok := u.Key().Underlying().(*types.Basic); !ok || k.Kind() != types.String {
			return "", derive.UnsupportedShape(owner, "map key %s is not a string", u.Key())
		}
		return em.collection(owner, "Map", u.Elem(), e)

	case *types.Struct:
		if u.NumFields() == 0 {
			return "value.Unit{}", nil
		}
		return "", derive.MissingDescriptor(owner, "anonymous struct %s has no type name", t)

	case *types.Interface:
		if em.d.hasProjector(t) {
			return e + ".GenericValue()", nil
		}
		return "", derive.MissingDescriptor(owner, "interface %s is not a sum", t)
	}

	return "", derive.UnsupportedShape(owner, "%s has no projection", t)
}

func (em *emitter) collection(owner, fn string, elem types.Type, e string) (string, error) {
	v := fmt.Sprintf("e%d", em.vars)
	em.vars++

	body, err := em.expr(owner, elem, v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("project.%s(%s, func(%s %s) value.Value { return %s })",
		fn, e, v, types.TypeString(elem, em.qualifier), body), nil
}

func (em *emitter) tuple(owner string, n *types.Named, e string) (string, error) {
	st := n.Underlying().(*types.Struct)
	fn, ok := tupleFuncs[st.NumFields()]
	if !ok {
		return "", derive.UnsupportedShape(owner, "tuple %s has %d elements", n, st.NumFields())
	}

	parts := make([]string, st.NumFields())
	for i := range parts {
		f := st.Field(i)
		p, err := em.expr(owner, f.Type(), e+"."+f.Name())
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return "project." + fn + "(" + strings.Join(parts, ", ") + ")", nil
}
