// Package signal defines the variant value model carried by signals and the
// Signal cell that blocks and buses share.
package signal

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
)

// Kind tags a Value variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindInt
	KindBool
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	}
	return "invalid"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scalar", "":
		return KindScalar, nil
	case "int":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	case "array":
		return KindArray, nil
	}
	return KindInvalid, errors.Wrapf(errdefs.ErrConfig, "unknown signal kind %q", s)
}

// Value is a closed sum type: Scalar, Int, Bool or Array.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	Scalar float64
	Int    int64
	Bool   bool
	Array  []float64
)

func (Scalar) Kind() Kind { return KindScalar }
func (Int) Kind() Kind    { return KindInt }
func (Bool) Kind() Kind   { return KindBool }
func (Array) Kind() Kind  { return KindArray }

func (Scalar) sealed() {}
func (Int) sealed()    {}
func (Bool) sealed()   {}
func (Array) sealed()  {}

// Type is the declared type of a signal or bus leaf. Size is only meaningful
// for arrays.
type Type struct {
	Kind Kind
	Size int
}

var (
	ScalarType = Type{Kind: KindScalar}
	IntType    = Type{Kind: KindInt}
	BoolType   = Type{Kind: KindBool}
)

func ArrayType(size int) Type {
	return Type{Kind: KindArray, Size: size}
}

func (t Type) String() string {
	if t.Kind == KindArray {
		return fmt.Sprintf("array[%d]", t.Size)
	}
	return t.Kind.String()
}

func (t Type) Valid() bool {
	switch t.Kind {
	case KindScalar, KindInt, KindBool:
		return t.Size == 0
	case KindArray:
		return t.Size > 0
	}
	return false
}

// Zero returns the zero value of t.
func (t Type) Zero() Value {
	switch t.Kind {
	case KindScalar:
		return Scalar(0)
	case KindInt:
		return Int(0)
	case KindBool:
		return Bool(false)
	case KindArray:
		return make(Array, t.Size)
	}
	return nil
}

// Check returns an ErrTypeMismatch error if v is not a value of type t.
func (t Type) Check(v Value) error {
	if v == nil {
		return errors.Wrapf(errdefs.ErrTypeMismatch, "nil value for %s", t)
	}
	if v.Kind() != t.Kind {
		return errors.Wrapf(errdefs.ErrTypeMismatch, "%s value for %s", v.Kind(), t)
	}
	if a, ok := v.(Array); ok && len(a) != t.Size {
		return errors.Wrapf(errdefs.ErrTypeMismatch, "array of length %d for %s", len(a), t)
	}
	return nil
}

// TypeOf returns the type of v.
func TypeOf(v Value) Type {
	if a, ok := v.(Array); ok {
		return ArrayType(len(a))
	}
	if v == nil {
		return Type{}
	}
	return Type{Kind: v.Kind()}
}

// Clone returns a copy of v that shares no storage with it.
func Clone(v Value) Value {
	if a, ok := v.(Array); ok {
		c := make(Array, len(a))
		copy(c, a)
		return c
	}
	return v
}

// Scalable reports whether values of kind k support Scale and AddScaled.
func (k Kind) Scalable() bool {
	switch k {
	case KindScalar, KindInt, KindArray:
		return true
	}
	return false
}

// Scale returns k*v.
func Scale(v Value, k float64) (Value, error) {
	switch x := v.(type) {
	case Scalar:
		return Scalar(k * float64(x)), nil
	case Int:
		return Int(math.Round(k * float64(x))), nil
	case Array:
		r := make(Array, len(x))
		for i := range x {
			r[i] = k * x[i]
		}
		return r, nil
	case Bool:
		return nil, errors.Wrap(errdefs.ErrTypeMismatch, "cannot scale a bool value")
	}
	return nil, errors.Wrapf(errdefs.ErrTypeMismatch, "cannot scale %T", v)
}

// AddScaled returns x + k*y. Both values must have the same type.
func AddScaled(x Value, k float64, y Value) (Value, error) {
	if err := TypeOf(x).Check(y); err != nil {
		return nil, err
	}
	switch a := x.(type) {
	case Scalar:
		return a + Scalar(k*float64(y.(Scalar))), nil
	case Int:
		return a + Int(math.Round(k*float64(y.(Int)))), nil
	case Array:
		b := y.(Array)
		r := make(Array, len(a))
		for i := range a {
			r[i] = a[i] + k*b[i]
		}
		return r, nil
	case Bool:
		return nil, errors.Wrap(errdefs.ErrTypeMismatch, "cannot integrate a bool value")
	}
	return nil, errors.Wrapf(errdefs.ErrTypeMismatch, "cannot integrate %T", x)
}

// Floats flattens v into float64 samples: bools map to 0/1, arrays expand.
func Floats(v Value) []float64 {
	switch x := v.(type) {
	case Scalar:
		return []float64{float64(x)}
	case Int:
		return []float64{float64(x)}
	case Bool:
		if x {
			return []float64{1}
		}
		return []float64{0}
	case Array:
		r := make([]float64, len(x))
		copy(r, x)
		return r
	}
	return nil
}

// IsFinite reports whether v holds no NaN or Inf.
func IsFinite(v Value) bool {
	for _, f := range Floats(v) {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
