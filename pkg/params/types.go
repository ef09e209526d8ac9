// Package params implements the global parameter store (C1): typed named
// parameters with domains, defaults, change hooks, and text-file I/O.
package params

import "fmt"

// Kind identifies which variant of Value a Parameter holds.
type Kind int

const (
	Bool Kind = iota
	Int
	LongInt
	Real
	Char
	String
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case LongInt:
		return "longint"
	case Real:
		return "real"
	case Char:
		return "char"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ChangeHook runs after a successful Set, before the call returns. Per the
// store's contract, a hook error aborts the set but the new value has
// already been committed, so hooks must be idempotent derivations of
// caches, never validation.
type ChangeHook func(p *Parameter) error

// Parameter is a tagged variant over {bool, int, longint, real, char,
// string}, with an optional domain restriction per kind: min/max for the
// numeric kinds, an allowed-character set for Char, nothing for Bool/String.
type Parameter struct {
	Name        string
	Description string
	Kind        Kind

	boolVal    bool
	boolDef    bool
	intVal     int32
	intDef     int32
	intMin     int32
	intMax     int32
	longVal    int64
	longDef    int64
	longMin    int64
	longMax    int64
	realVal    float64
	realDef    float64
	realMin    float64
	realMax    float64
	hasMin     bool
	hasMax     bool
	charVal    rune
	charDef    rune
	allowedSet map[rune]bool
	strVal     string
	strDef     string

	hook    ChangeHook
	payload interface{}
}

// Payload returns the handler-private payload attached at registration.
func (p *Parameter) Payload() interface{} { return p.payload }
