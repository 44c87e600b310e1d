package descriptor

// Kind classifies a described type.
type Kind string

const (
	// KindStruct is an aggregate with a single field shape.
	KindStruct Kind = "struct"
	// KindEnum is a sum type with an ordered list of variants.
	KindEnum Kind = "enum"
	// KindUnion is a multi-shape aggregate (overlapping members). Describable
	// but never derivable.
	KindUnion Kind = "union"
)

// FieldsKind is the shape of a field list.
type FieldsKind string

const (
	FieldsNamed      FieldsKind = "named"
	FieldsPositional FieldsKind = "positional"
	FieldsUnit       FieldsKind = "unit"
)

// Field is one field of an aggregate or variant payload.
type Field struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"` // empty for positional fields
	Type string `json:"type,omitempty" yaml:"type,omitempty"` // type reference, see ParseTypeRef
}

// Fields is a field shape plus its fields in declaration order.
type Fields struct {
	Kind FieldsKind `json:"kind" yaml:"kind"`
	List []Field    `json:"list,omitempty" yaml:"list,omitempty"`
}

// Variant is one alternative of a sum type.
type Variant struct {
	Name   string `json:"name" yaml:"name"`
	Fields Fields `json:"fields" yaml:"fields"`
}

// Type is the structural descriptor of one type.
type Type struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     Kind      `json:"kind" yaml:"kind"`
	Fields   Fields    `json:"fields,omitempty" yaml:"fields,omitempty"`     // KindStruct
	Variants []Variant `json:"variants,omitempty" yaml:"variants,omitempty"` // KindEnum
	Members  []string  `json:"members,omitempty" yaml:"members,omitempty"`   // KindUnion
}

// Named builds a named field list.
func Named(fields ...Field) Fields {
	return Fields{Kind: FieldsNamed, List: fields}
}

// Positional builds a positional field list. Only Type is meaningful on
// positional fields.
func Positional(fields ...Field) Fields {
	return Fields{Kind: FieldsPositional, List: fields}
}

// NoFields is the field shape of a unit aggregate or payload-less variant.
func NoFields() Fields {
	return Fields{Kind: FieldsUnit}
}

// F is a shorthand for a named field with a type reference.
// Example: Named(F("a", "string"), F("b", "[]u8"))
func F(name, typ string) Field {
	return Field{Name: name, Type: typ}
}

// P is a shorthand for a positional field with a type reference.
func P(typ string) Field {
	return Field{Type: typ}
}

// Names returns the field names in declaration order.
func (f Fields) Names() []string {
	names := make([]string, len(f.List))
	for i, field := range f.List {
		names[i] = field.Name
	}
	return names
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.List)
}

// Struct describes an aggregate.
func Struct(name string, fields Fields) *Type {
	return &Type{Name: name, Kind: KindStruct, Fields: fields}
}

// Enum describes a sum type. Variant order is declaration order.
func Enum(name string, variants ...Variant) *Type {
	return &Type{Name: name, Kind: KindEnum, Variants: variants}
}

// V is a shorthand for a Variant.
func V(name string, fields Fields) Variant {
	return Variant{Name: name, Fields: fields}
}

// Union describes a multi-shape aggregate over the named member types.
func Union(name string, members ...string) *Type {
	return &Type{Name: name, Kind: KindUnion, Members: members}
}

// Variant looks up a variant by name.
func (t *Type) Variant(name string) (Variant, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// AllFields returns every field the type declares, across all variants.
func (t *Type) AllFields() []Field {
	fields := append([]Field(nil), t.Fields.List...)
	for _, v := range t.Variants {
		fields = append(fields, v.Fields.List...)
	}
	return fields
}

// References returns the declared type names this type refers to through
// field type references and union members, deduplicated, in first-seen
// order. Malformed references are skipped; Validate reports them.
func (t *Type) References() []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}

	for _, f := range t.AllFields() {
		if f.Type == "" {
			continue
		}
		ref, err := ParseTypeRef(f.Type)
		if err != nil {
			continue
		}
		for _, name := range ref.Names() {
			add(name)
		}
	}
	for _, m := range t.Members {
		add(m)
	}
	return refs
}
