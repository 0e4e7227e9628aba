package blocks

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/bus"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// InitialValues maps dotted leaf paths to initial values.
type InitialValues map[string]signal.Value

// lookup returns the initial value for a leaf, or its type's zero value.
func (iv InitialValues) lookup(label string, w bus.WireInfo) (signal.Value, error) {
	v, ok := iv[label]
	if !ok {
		return w.Type.Zero(), nil
	}
	if err := w.Type.Check(v); err != nil {
		return nil, errors.WithMessagef(err, "initial value for %q", label)
	}
	return v, nil
}

// unmatched returns the labels that name no synthesized leaf, sorted.
func (iv InitialValues) unmatched(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		seen[l] = true
	}
	var out []string
	for l := range iv {
		if !seen[l] {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// BusMemory places a unit delay on every non-excluded wire of a bus.
type BusMemory struct {
	*BusBuilder
	initial InitialValues
}

func NewBusMemory(n name.Name, initial InitialValues, excluded ...string) *BusMemory {
	m := &BusMemory{initial: initial}
	m.BusBuilder = NewBusBuilder(n, m.leaf, excluded...)
	m.outer = m
	return m
}

func (m *BusMemory) leaf(parent block.Container, label string, w bus.WireInfo, in, out *signal.Signal) error {
	v, err := m.initial.lookup(label, w)
	if err != nil {
		return err
	}
	return NewMemory(childName(parent, label), v).Init(parent, in, out)
}

func (m *BusMemory) PostInit() error {
	if err := m.BusBuilder.PostInit(); err != nil {
		return err
	}
	if extra := m.initial.unmatched(m.Labels()); len(extra) > 0 {
		m.Logger().Warn("initial values for unknown or excluded wires", "labels", extra)
	}
	return nil
}

// BusIntegrator places an integrator on every non-excluded wire of a bus: the
// output bus holds the integral of the input bus.
type BusIntegrator struct {
	*BusBuilder
	initial InitialValues
}

func NewBusIntegrator(n name.Name, initial InitialValues, excluded ...string) *BusIntegrator {
	g := &BusIntegrator{initial: initial}
	g.BusBuilder = NewBusBuilder(n, g.leaf, excluded...)
	g.outer = g
	return g
}

func (g *BusIntegrator) leaf(parent block.Container, label string, w bus.WireInfo, in, out *signal.Signal) error {
	v, err := g.initial.lookup(label, w)
	if err != nil {
		return err
	}
	return NewIntegrator(childName(parent, label), v).Init(parent, in, out)
}

func (g *BusIntegrator) PostInit() error {
	if err := g.BusBuilder.PostInit(); err != nil {
		return err
	}
	if extra := g.initial.unmatched(g.Labels()); len(extra) > 0 {
		g.Logger().Warn("initial values for unknown or excluded wires", "labels", extra)
	}
	return nil
}

// NewBusGain places a gain of k on every non-excluded wire of a bus.
func NewBusGain(n name.Name, k float64, excluded ...string) *BusBuilder {
	return NewBusBuilder(n, func(parent block.Container, label string, _ bus.WireInfo, in, out *signal.Signal) error {
		return NewGain(childName(parent, label), k).Init(parent, in, out)
	}, excluded...)
}
