package value

import (
	"strconv"
	"strings"
)

// Compact debug renderings. Numbers carry their widened kind as a suffix so
// the bucket a value landed in stays visible: 200u64, -5i64, 1.5f64.

func (Unit) String() string            { return render(Unit{}, false) }
func (v Bool) String() string          { return render(v, false) }
func (v String) String() string        { return render(v, false) }
func (v I64) String() string           { return render(v, false) }
func (v I128) String() string          { return render(v, false) }
func (v U64) String() string           { return render(v, false) }
func (v U128) String() string          { return render(v, false) }
func (v F64) String() string           { return render(v, false) }
func (v Map) String() string           { return render(v, false) }
func (v Vec) String() string           { return render(v, false) }
func (v Option) String() string        { return render(v, false) }
func (v Tuple) String() string         { return render(v, false) }
func (v Struct) String() string        { return render(v, false) }
func (v TupleStruct) String() string   { return render(v, false) }
func (v TupleVariant) String() string  { return render(v, false) }
func (v StructVariant) String() string { return render(v, false) }
func (v UnitVariant) String() string   { return render(v, false) }

// Pretty renders v across multiple lines, one element per line, indented by
// four spaces with trailing commas.
func Pretty(v Value) string {
	return render(v, true)
}

func render(v Value, pretty bool) string {
	p := &printer{pretty: pretty}
	p.value(v)
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	pretty bool
	depth  int
}

func (p *printer) value(v Value) {
	switch val := v.(type) {
	case nil:
		p.sb.WriteString("<nil>")
	case Unit:
		p.sb.WriteString("()")
	case Bool:
		p.sb.WriteString(strconv.FormatBool(bool(val)))
	case String:
		p.sb.WriteString(strconv.Quote(string(val)))
	case I64:
		p.sb.WriteString(strconv.FormatInt(int64(val), 10) + "i64")
	case I128:
		p.sb.WriteString(Int128(val).String() + "i128")
	case U64:
		p.sb.WriteString(strconv.FormatUint(uint64(val), 10) + "u64")
	case U128:
		p.sb.WriteString(Uint128(val).String() + "u128")
	case F64:
		p.sb.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 64) + "f64")
	case Option:
		if val.Some == nil {
			p.sb.WriteString("None")
			return
		}
		p.list("Some(", ")", []Value{val.Some})
	case Tuple:
		p.list("(", ")", val)
	case Vec:
		p.list("[", "]", val)
	case Map:
		p.fields("{", "}", val, true)
	case Struct:
		p.fields(val.TypeName+" {", "}", val.Data, false)
	case TupleStruct:
		p.list(val.TypeName+"(", ")", val.Data)
	case TupleVariant:
		p.list(val.TypeName+"::"+val.VariantName+"(", ")", val.Data)
	case StructVariant:
		p.fields(val.TypeName+"::"+val.VariantName+" {", "}", val.Data, false)
	case UnitVariant:
		p.sb.WriteString(val.TypeName + "::" + val.VariantName)
	}
}

func (p *printer) list(open, close string, elems []Value) {
	p.sb.WriteString(open)
	if len(elems) == 0 {
		p.sb.WriteString(close)
		return
	}
	p.depth++
	for i, elem := range elems {
		p.separator(i)
		p.value(elem)
	}
	p.finish(close)
}

func (p *printer) fields(open, close string, data map[string]Value, quoteKeys bool) {
	p.sb.WriteString(open)
	if len(data) == 0 {
		p.sb.WriteString(close)
		return
	}
	p.depth++
	for i, k := range SortedKeys(data) {
		p.separator(i)
		if quoteKeys {
			p.sb.WriteString(strconv.Quote(k))
		} else {
			p.sb.WriteString(k)
		}
		p.sb.WriteString(": ")
		p.value(data[k])
	}
	p.finish(close)
}

func (p *printer) separator(i int) {
	if p.pretty {
		if i > 0 {
			p.sb.WriteByte(',')
		}
		p.sb.WriteByte('\n')
		p.indent()
		return
	}
	if i > 0 {
		p.sb.WriteString(", ")
	}
}

func (p *printer) finish(close string) {
	p.depth--
	if p.pretty {
		p.sb.WriteString(",\n")
		p.indent()
	}
	p.sb.WriteString(close)
}

func (p *printer) indent() {
	p.sb.WriteString(strings.Repeat("    ", p.depth))
}
