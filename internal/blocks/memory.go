package blocks

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// Memory is a unit delay: its output at step k is its input at step k-1. The
// output at the first step is the initial value.
type Memory struct {
	block.SISO[*signal.Signal, *signal.Signal]
	initial signal.Value
	state   signal.Value
}

func NewMemory(n name.Name, initial signal.Value) *Memory {
	return &Memory{
		SISO:    block.NewSISO[*signal.Signal, *signal.Signal](n),
		initial: signal.Clone(initial),
	}
}

func (m *Memory) Init(parent block.Container, in, out *signal.Signal) error {
	if err := m.InitPorts(parent, in, out); err != nil {
		return err
	}
	if err := checkSameType(m.Name(), in, out); err != nil {
		return m.Fail(err)
	}
	if err := out.Type().Check(m.initial); err != nil {
		return m.Fail(errors.WithMessagef(err, "memory %s: initial value", m.Name()))
	}
	m.state = signal.Clone(m.initial)
	if err := parent.Attach(m); err != nil {
		return m.Fail(err)
	}
	return nil
}

// State returns the value the memory will emit at the next activation.
func (m *Memory) State() signal.Value { return m.state }

func (m *Memory) Activate(t float64) error {
	if err := m.MarkActive(); err != nil {
		return err
	}
	return m.Output().Set(m.state)
}

func (m *Memory) Update(t, dt float64) error {
	m.state = signal.Clone(m.Input().Value())
	return nil
}
