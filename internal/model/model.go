// Package model is the authoring surface: a Model owns named buses, loose
// signals and top-level blocks, and runs the block lifecycle.
package model

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/bus"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

type Model struct {
	name.Entity
	logger *log.Logger

	buses    map[string]*bus.Bus
	busOrder []string
	signals  map[string]*signal.Signal
	blocks   []block.Block
	names    map[name.Name]bool

	initialized bool
}

type Option func(*Model)

// WithLogger sets the logger handed to blocks through Logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

func New(label string, opts ...Option) *Model {
	m := &Model{
		Entity:  name.NewEntity(name.New(label)),
		logger:  log.Default(),
		buses:   make(map[string]*bus.Bus),
		signals: make(map[string]*signal.Signal),
		names:   make(map[name.Name]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("model", m.Name())
	return m
}

func (m *Model) Logger() *log.Logger { return m.logger }

func checkLabel(label string) error {
	if err := name.ValidateSegment(label); err != nil {
		return err
	}
	if strings.Contains(label, bus.PathSeparator) {
		return errors.Wrapf(errdefs.ErrConfig, "label %q contains %q", label, bus.PathSeparator)
	}
	return nil
}

// NewBus creates a bus with fresh signals for every leaf of spec.
func (m *Model) NewBus(label string, spec *bus.Spec) (*bus.Bus, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	b := bus.New(m.Name().Child(label), spec)
	if err := m.AddBus(label, b); err != nil {
		return nil, err
	}
	return b, nil
}

// AddBus registers an explicitly built bus under label.
func (m *Model) AddBus(label string, b *bus.Bus) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	if _, dup := m.buses[label]; dup {
		return errors.Wrapf(errdefs.ErrConfig, "model %s: duplicate bus %q", m.Name(), label)
	}
	if _, dup := m.signals[label]; dup {
		return errors.Wrapf(errdefs.ErrConfig, "model %s: %q is already a signal", m.Name(), label)
	}
	m.buses[label] = b
	m.busOrder = append(m.busOrder, label)
	return nil
}

func (m *Model) Bus(label string) (*bus.Bus, error) {
	b, ok := m.buses[label]
	if !ok {
		return nil, errors.Wrapf(errdefs.ErrLookup, "model %s: no bus %q", m.Name(), label)
	}
	return b, nil
}

// BusLabels returns bus labels in creation order.
func (m *Model) BusLabels() []string {
	return append([]string(nil), m.busOrder...)
}

// NewSignal creates a signal that belongs to no bus.
func (m *Model) NewSignal(label string, t signal.Type) (*signal.Signal, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, errors.Wrapf(errdefs.ErrConfig, "model %s: signal %q has invalid type %s", m.Name(), label, t)
	}
	if _, dup := m.signals[label]; dup {
		return nil, errors.Wrapf(errdefs.ErrConfig, "model %s: duplicate signal %q", m.Name(), label)
	}
	if _, dup := m.buses[label]; dup {
		return nil, errors.Wrapf(errdefs.ErrConfig, "model %s: %q is already a bus", m.Name(), label)
	}
	s := signal.New(m.Name().Child(label), t)
	m.signals[label] = s
	return s, nil
}

// Signal resolves a reference: either a loose signal label, or a bus label
// followed by a dotted leaf path ("state.Z.z3").
func (m *Model) Signal(ref string) (*signal.Signal, error) {
	if s, ok := m.signals[ref]; ok {
		return s, nil
	}
	label, path, found := strings.Cut(ref, bus.PathSeparator)
	b, ok := m.buses[label]
	if !ok {
		return nil, errors.Wrapf(errdefs.ErrLookup, "model %s: no signal or bus %q", m.Name(), label)
	}
	if !found {
		return nil, errors.Wrapf(errdefs.ErrLookup, "model %s: %q is a bus, not a signal", m.Name(), ref)
	}
	return b.At(path)
}

// Attach registers a top-level block. It is called by the block's Init.
func (m *Model) Attach(b block.Block) error {
	if m.initialized {
		return errors.Wrapf(errdefs.ErrLifecycle, "model %s: cannot attach %s after Init", m.Name(), b.Name())
	}
	if m.names[b.Name()] {
		return errors.Wrapf(errdefs.ErrConfig, "model %s: duplicate block %s", m.Name(), b.Name())
	}
	m.names[b.Name()] = true
	m.blocks = append(m.blocks, b)
	return nil
}

// Blocks returns the top-level blocks in attachment order.
func (m *Model) Blocks() []block.Block { return m.blocks }

// Leaves returns every leaf block, composites expanded in place.
func (m *Model) Leaves() []block.Block {
	return block.Flatten(m.blocks...)
}

// Init post-initializes every block in attachment order. It runs once.
func (m *Model) Init() error {
	if m.initialized {
		return nil
	}
	for _, b := range m.blocks {
		if err := b.PostInit(); err != nil {
			return errors.WithMessagef(err, "model %s", m.Name())
		}
	}
	m.initialized = true
	m.logger.Debug("model initialized", "blocks", len(m.blocks), "leaves", len(m.Leaves()))
	return nil
}

func (m *Model) Initialized() bool { return m.initialized }
