package blocks

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// SourceFunc computes a source output from simulated time alone.
type SourceFunc func(t float64) signal.Value

// Source writes fn(t) to its output at every step. Sources have no input.
type Source struct {
	block.SISO[struct{}, *signal.Signal]
	fn SourceFunc
}

func NewSource(n name.Name, fn SourceFunc) *Source {
	return &Source{SISO: block.NewSISO[struct{}, *signal.Signal](n), fn: fn}
}

// Constant emits v forever.
func Constant(n name.Name, v signal.Value) *Source {
	v = signal.Clone(v)
	return NewSource(n, func(float64) signal.Value { return v })
}

// Step emits before until t reaches at, then after.
func Step(n name.Name, at, before, after float64) *Source {
	return NewSource(n, func(t float64) signal.Value {
		if t < at {
			return signal.Scalar(before)
		}
		return signal.Scalar(after)
	})
}

// Ramp emits offset + slope*t.
func Ramp(n name.Name, slope, offset float64) *Source {
	return NewSource(n, func(t float64) signal.Value {
		return signal.Scalar(offset + slope*t)
	})
}

// Sine emits amplitude*sin(2*pi*freq*t + phase).
func Sine(n name.Name, amplitude, freq, phase float64) *Source {
	return NewSource(n, func(t float64) signal.Value {
		return signal.Scalar(amplitude * math.Sin(2*math.Pi*freq*t+phase))
	})
}

func (s *Source) Init(parent block.Container, out *signal.Signal) error {
	if err := s.InitPorts(parent, struct{}{}, out); err != nil {
		return err
	}
	if err := out.Type().Check(s.fn(0)); err != nil {
		return s.Fail(errors.WithMessagef(err, "source %s", s.Name()))
	}
	if err := parent.Attach(s); err != nil {
		return s.Fail(err)
	}
	return nil
}

func (s *Source) Activate(t float64) error {
	if err := s.MarkActive(); err != nil {
		return err
	}
	return s.Output().Set(s.fn(t))
}
