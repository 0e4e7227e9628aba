package blocks

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// Gain computes output = k * input for scalar, int and array signals.
type Gain struct {
	block.SISO[*signal.Signal, *signal.Signal]
	k float64
}

func NewGain(n name.Name, k float64) *Gain {
	return &Gain{SISO: block.NewSISO[*signal.Signal, *signal.Signal](n), k: k}
}

func (g *Gain) K() float64 { return g.k }

func (g *Gain) Init(parent block.Container, in, out *signal.Signal) error {
	if err := g.InitPorts(parent, in, out); err != nil {
		return err
	}
	if err := checkSameType(g.Name(), in, out); err != nil {
		return g.Fail(err)
	}
	if !in.Type().Kind.Scalable() {
		return g.Fail(errors.Wrapf(errdefs.ErrTypeMismatch, "gain %s: cannot scale %s signals", g.Name(), in.Type()))
	}
	if err := parent.Attach(g); err != nil {
		return g.Fail(err)
	}
	return nil
}

func (g *Gain) Activate(t float64) error {
	if err := g.MarkActive(); err != nil {
		return err
	}
	v, err := signal.Scale(g.Input().Value(), g.k)
	if err != nil {
		return err
	}
	return g.Output().Set(v)
}

func checkSameType(n name.Name, in, out *signal.Signal) error {
	if in.Type() != out.Type() {
		return errors.Wrapf(errdefs.ErrTypeMismatch, "block %s: input is %s, output is %s", n, in.Type(), out.Type())
	}
	return nil
}
