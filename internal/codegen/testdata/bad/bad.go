// Package bad declares shapes that have no projection. Nothing here
// carries a directive; tests select types by name.
package bad

import "io"

type Empty struct{}

type A struct{ X int }

type B struct{ Y string }

type Either interface{ A | B }

type Tree struct {
	Children []Tree
}

type Stream struct {
	R io.Reader
}

type Anything struct {
	V any
}

type Pipe struct {
	C chan int
}

type Keyed struct {
	M map[int]string
}

type Anon struct {
	S struct{ X int }
}
