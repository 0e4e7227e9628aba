package bus

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// Element is what a caller supplies for one wire when building a Bus
// explicitly: a signal for a leaf wire, a sub-bus for a nested wire.
type Element struct {
	sig *signal.Signal
	bus *Bus
}

func SignalElement(s *signal.Signal) Element { return Element{sig: s} }
func BusElement(b *Bus) Element              { return Element{bus: b} }

// Labeled pairs an Element with the label of the wire it binds.
type Labeled struct {
	Label string
	Element
}

func LabeledSignal(label string, s *signal.Signal) Labeled {
	return Labeled{Label: label, Element: SignalElement(s)}
}

func LabeledBus(label string, b *Bus) Labeled {
	return Labeled{Label: label, Element: BusElement(b)}
}

// Bus binds concrete signals to every leaf of a Spec.
type Bus struct {
	name.Entity
	spec  *Spec
	wires []Element
}

// New allocates a fresh signal for every leaf of spec. Nested buses are named
// n/label.
func New(n name.Name, spec *Spec) *Bus {
	b := &Bus{
		Entity: name.NewEntity(n),
		spec:   spec,
		wires:  make([]Element, spec.Len()),
	}
	for i, w := range spec.wires {
		if w.IsBus() {
			b.wires[i] = BusElement(New(n.Child(w.Label), w.Spec))
		} else {
			b.wires[i] = SignalElement(signal.New(n.Child(w.Label), w.Type))
		}
	}
	return b
}

// FromElements binds caller-supplied elements positionally. The number and
// order of elements must match the spec exactly.
func FromElements(n name.Name, spec *Spec, elems ...Element) (*Bus, error) {
	if len(elems) != spec.Len() {
		return nil, errors.Wrapf(errdefs.ErrConfig, "bus %s: %d elements for %d wires", n, len(elems), spec.Len())
	}
	b := &Bus{Entity: name.NewEntity(n), spec: spec, wires: make([]Element, spec.Len())}
	for i, e := range elems {
		if err := bind(spec.wires[i], e); err != nil {
			return nil, errors.WithMessagef(err, "bus %s", n)
		}
		b.wires[i] = e
	}
	if err := b.checkWriters(); err != nil {
		return nil, err
	}
	return b, nil
}

// FromLabeled binds caller-supplied elements by label, in any order. Every
// top-level wire must be bound exactly once.
func FromLabeled(n name.Name, spec *Spec, pairs ...Labeled) (*Bus, error) {
	if len(pairs) != spec.Len() {
		return nil, errors.Wrapf(errdefs.ErrConfig, "bus %s: %d labeled elements for %d wires", n, len(pairs), spec.Len())
	}
	b := &Bus{Entity: name.NewEntity(n), spec: spec, wires: make([]Element, spec.Len())}
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		i, ok := spec.Index(p.Label)
		if !ok {
			return nil, errors.Wrapf(errdefs.ErrConfig, "bus %s: unknown label %q", n, p.Label)
		}
		if seen[p.Label] {
			return nil, errors.Wrapf(errdefs.ErrConfig, "bus %s: duplicate label %q", n, p.Label)
		}
		seen[p.Label] = true
		if err := bind(spec.wires[i], p.Element); err != nil {
			return nil, errors.WithMessagef(err, "bus %s", n)
		}
		b.wires[i] = p.Element
	}
	if err := b.checkWriters(); err != nil {
		return nil, err
	}
	return b, nil
}

func bind(w WireInfo, e Element) error {
	switch {
	case e.sig == nil && e.bus == nil:
		return errors.Wrapf(errdefs.ErrConfig, "wire %q: nil element", w.Label)
	case w.IsBus() && e.bus == nil:
		return errors.Wrapf(errdefs.ErrConfig, "wire %q: expected a bus, got a signal", w.Label)
	case !w.IsBus() && e.sig == nil:
		return errors.Wrapf(errdefs.ErrConfig, "wire %q: expected a signal, got a bus", w.Label)
	case w.IsBus() && !w.Spec.Equal(e.bus.spec):
		return errors.Wrapf(errdefs.ErrConfig, "wire %q: sub-bus %s has a different spec", w.Label, e.bus.Name())
	case !w.IsBus() && w.Type != e.sig.Type():
		return errors.Wrapf(errdefs.ErrConfig, "wire %q: signal %s is %s, want %s", w.Label, e.sig.Name(), e.sig.Type(), w.Type)
	}
	return nil
}

// checkWriters rejects a bus that binds the same signal to two leaves, which
// would give that signal two writers once blocks are attached per leaf.
func (b *Bus) checkWriters() error {
	seen := make(map[*signal.Signal]string, b.spec.TotalSize())
	var err error
	b.Walk(func(path string, s *signal.Signal) bool {
		if prev, dup := seen[s]; dup {
			err = errors.Wrapf(errdefs.ErrConfig, "bus %s: signal %s bound to both %q and %q", b.Name(), s.Name(), prev, path)
			return false
		}
		seen[s] = path
		return true
	})
	return err
}

func (b *Bus) Spec() *Spec { return b.spec }

// Len returns the number of leaf signals, which always equals Spec().TotalSize().
func (b *Bus) Len() int { return b.spec.TotalSize() }

// At resolves a dotted path such as "Z.z3" to its leaf signal.
func (b *Bus) At(path string) (*signal.Signal, error) {
	if path == "" {
		return nil, errors.Wrapf(errdefs.ErrLookup, "bus %s: empty path", b.Name())
	}
	cur := b
	segs := strings.Split(path, PathSeparator)
	for i, seg := range segs {
		j, ok := cur.spec.Index(seg)
		if !ok {
			return nil, errors.Wrapf(errdefs.ErrLookup, "bus %s: no wire %q in path %q", b.Name(), seg, path)
		}
		e := cur.wires[j]
		last := i == len(segs)-1
		switch {
		case last && e.bus != nil:
			return nil, errors.Wrapf(errdefs.ErrLookup, "bus %s: path %q addresses a nested bus, not a leaf", b.Name(), path)
		case last:
			return e.sig, nil
		case e.bus == nil:
			return nil, errors.Wrapf(errdefs.ErrLookup, "bus %s: wire %q in path %q is a leaf", b.Name(), seg, path)
		}
		cur = e.bus
	}
	panic("unreachable")
}

// Element returns what is bound to the i-th top-level wire: a signal for a
// leaf wire, a sub-bus for a nested wire.
func (b *Bus) Element(i int) (*signal.Signal, *Bus) {
	e := b.wires[i]
	return e.sig, e.bus
}

// ScalarAt is At restricted to scalar leaves.
func (b *Bus) ScalarAt(path string) (*signal.Signal, error) {
	s, err := b.At(path)
	if err != nil {
		return nil, err
	}
	if s.Type().Kind != signal.KindScalar {
		return nil, errors.Wrapf(errdefs.ErrTypeMismatch, "bus %s: %q is %s, not scalar", b.Name(), path, s.Type())
	}
	return s, nil
}

// Sub resolves a dotted path to a nested bus.
func (b *Bus) Sub(path string) (*Bus, error) {
	cur := b
	for _, seg := range strings.Split(path, PathSeparator) {
		j, ok := cur.spec.Index(seg)
		if !ok {
			return nil, errors.Wrapf(errdefs.ErrLookup, "bus %s: no wire %q in path %q", b.Name(), seg, path)
		}
		if cur.wires[j].bus == nil {
			return nil, errors.Wrapf(errdefs.ErrLookup, "bus %s: %q is not a nested bus", b.Name(), path)
		}
		cur = cur.wires[j].bus
	}
	return cur, nil
}

// Walk calls fn for every leaf in pre-order with its dotted path. Walking
// stops when fn returns false.
func (b *Bus) Walk(fn func(path string, s *signal.Signal) bool) {
	b.walk("", fn)
}

func (b *Bus) walk(prefix string, fn func(string, *signal.Signal) bool) bool {
	for i, w := range b.spec.wires {
		e := b.wires[i]
		if e.bus != nil {
			if !e.bus.walk(prefix+w.Label+PathSeparator, fn) {
				return false
			}
			continue
		}
		if !fn(prefix+w.Label, e.sig) {
			return false
		}
	}
	return true
}

// Leaves returns every leaf signal in pre-order.
func (b *Bus) Leaves() []*signal.Signal {
	leaves := make([]*signal.Signal, 0, b.Len())
	b.Walk(func(_ string, s *signal.Signal) bool {
		leaves = append(leaves, s)
		return true
	})
	return leaves
}
