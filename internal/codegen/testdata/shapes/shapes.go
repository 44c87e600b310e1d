package shapes

import (
	"github.com/google/uuid"

	"github.com/roach88/generic/internal/project"
	"github.com/roach88/generic/internal/value"
)

//generic:derive
type Test struct {
	A      string `generic:"a"`
	Beta   []Beta `generic:"beta"`
	Skip   int    `generic:"-"`
	hidden int
}

type Beta struct {
	_    struct{} `generic:",positional"`
	Text string
}

//generic:sum
type Alpha interface{ isAlpha() }

type One string

type Two struct{}

type Four struct {
	X uint8
	Y *float32
}

func (One) isAlpha()   {}
func (Two) isAlpha()   {}
func (*Four) isAlpha() {}

//generic:derive
type Everything struct {
	ID      uuid.UUID
	Big     value.Int128
	Pair    project.Tuple2[string, bool]
	Tags    map[string]uint16
	Grid    [2]int8
	Kind    Alpha
	Temp    Celsius
	Raw     value.Value
	Nothing struct{}
}

// Celsius projects itself.
type Celsius float64

func (c Celsius) GenericValue() value.Value {
	return value.F64(c)
}
