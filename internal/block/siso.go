package block

import (
	"github.com/charmbracelet/log"

	"github.com/san-kum/blocksim/internal/name"
)

// SISO is the base of single-input single-output blocks. I and O are the port
// types, typically *signal.Signal or *bus.Bus.
type SISO[I, O any] struct {
	name.Entity
	Lifecycle
	parent Container
	in     I
	out    O
}

func NewSISO[I, O any](n name.Name) SISO[I, O] {
	return SISO[I, O]{Entity: name.NewEntity(n)}
}

// InitPorts binds the ports. It must be called from the Init of the
// embedding block, which then validates the ports and attaches itself.
func (s *SISO[I, O]) InitPorts(parent Container, in I, out O) error {
	if err := s.Advance(Created, Initialized); err != nil {
		return err
	}
	s.parent = parent
	s.in = in
	s.out = out
	return nil
}

func (s *SISO[I, O]) Input() I          { return s.in }
func (s *SISO[I, O]) Output() O         { return s.out }
func (s *SISO[I, O]) Parent() Container { return s.parent }

// Logger returns the parent's logger tagged with the block name.
func (s *SISO[I, O]) Logger() *log.Logger {
	if s.parent == nil {
		return log.Default().With("block", s.Name())
	}
	return s.parent.Logger().With("block", s.Name())
}

// PostInit is the default for blocks with nothing to allocate.
func (s *SISO[I, O]) PostInit() error {
	return s.Advance(Initialized, PostInitialized)
}
