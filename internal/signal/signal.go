package signal

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
)

// Signal is a value cell of a fixed type. Signals are shared by pointer
// between buses and blocks; exactly one block writes a given signal per step.
type Signal struct {
	name.Entity
	typ Type
	v   Value
}

// New returns a signal of type t holding the zero value.
func New(n name.Name, t Type) *Signal {
	return &Signal{Entity: name.NewEntity(n), typ: t, v: t.Zero()}
}

func (s *Signal) Type() Type   { return s.typ }
func (s *Signal) Value() Value { return s.v }

// Set stores a copy of v after checking its type.
func (s *Signal) Set(v Value) error {
	if err := s.typ.Check(v); err != nil {
		return errors.WithMessagef(err, "signal %s", s.Name())
	}
	s.v = Clone(v)
	return nil
}

// Scalar returns the value of a scalar signal.
func (s *Signal) Scalar() (float64, error) {
	x, ok := s.v.(Scalar)
	if !ok {
		return 0, errors.Wrapf(errdefs.ErrTypeMismatch, "signal %s is %s, not scalar", s.Name(), s.typ)
	}
	return float64(x), nil
}

// SetScalar is a shorthand for Set(Scalar(f)).
func (s *Signal) SetScalar(f float64) error {
	return s.Set(Scalar(f))
}
