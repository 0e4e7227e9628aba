package blocks

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// Integrator holds x with dx/dt = input, advanced with forward Euler. Its
// output is the current x.
type Integrator struct {
	block.SISO[*signal.Signal, *signal.Signal]
	initial signal.Value
	state   signal.Value
}

func NewIntegrator(n name.Name, initial signal.Value) *Integrator {
	return &Integrator{
		SISO:    block.NewSISO[*signal.Signal, *signal.Signal](n),
		initial: signal.Clone(initial),
	}
}

func (g *Integrator) Init(parent block.Container, in, out *signal.Signal) error {
	if err := g.InitPorts(parent, in, out); err != nil {
		return err
	}
	if err := checkSameType(g.Name(), in, out); err != nil {
		return g.Fail(err)
	}
	if !in.Type().Kind.Scalable() {
		return g.Fail(errors.Wrapf(errdefs.ErrTypeMismatch, "integrator %s: cannot integrate %s signals", g.Name(), in.Type()))
	}
	if err := out.Type().Check(g.initial); err != nil {
		return g.Fail(errors.WithMessagef(err, "integrator %s: initial value", g.Name()))
	}
	g.state = signal.Clone(g.initial)
	if err := parent.Attach(g); err != nil {
		return g.Fail(err)
	}
	return nil
}

func (g *Integrator) State() signal.Value { return g.state }

func (g *Integrator) Activate(t float64) error {
	if err := g.MarkActive(); err != nil {
		return err
	}
	return g.Output().Set(g.state)
}

func (g *Integrator) Update(t, dt float64) error {
	next, err := signal.AddScaled(g.state, dt, g.Input().Value())
	if err != nil {
		return errors.WithMessagef(err, "integrator %s", g.Name())
	}
	g.state = next
	return nil
}
