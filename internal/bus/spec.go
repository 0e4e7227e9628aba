// Package bus implements bus schemas (Spec) and bus instances (Bus): ordered,
// possibly nested sets of labeled signal wires addressed by dotted paths.
package bus

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/signal"
)

// PathSeparator joins wire labels into a dotted path.
const PathSeparator = "."

// WireInfo describes one wire of a Spec: a typed leaf, or a nested bus when
// Spec is not nil.
type WireInfo struct {
	Label string
	Type  signal.Type
	Spec  *Spec
}

// Leaf returns a leaf wire of type t.
func Leaf(label string, t signal.Type) WireInfo {
	return WireInfo{Label: label, Type: t}
}

// Scalar returns a scalar leaf wire.
func Scalar(label string) WireInfo {
	return Leaf(label, signal.ScalarType)
}

// Nested returns a wire carrying a nested bus of the given spec.
func Nested(label string, spec *Spec) WireInfo {
	return WireInfo{Label: label, Spec: spec}
}

func (w WireInfo) IsBus() bool { return w.Spec != nil }

func (w WireInfo) equal(o WireInfo) bool {
	if w.Label != o.Label || w.IsBus() != o.IsBus() {
		return false
	}
	if w.IsBus() {
		return w.Spec.Equal(o.Spec)
	}
	return w.Type == o.Type
}

// Spec is an immutable, ordered bus schema. Since a Spec can only nest specs
// that already exist, the tree is always finite and acyclic.
type Spec struct {
	wires []WireInfo
	index map[string]int
	size  int
}

// NewSpec builds a spec from ordered wires. Labels must be non-empty, unique
// among siblings and free of the path separator.
func NewSpec(wires ...WireInfo) (*Spec, error) {
	s := &Spec{
		wires: make([]WireInfo, len(wires)),
		index: make(map[string]int, len(wires)),
	}
	for i, w := range wires {
		switch {
		case w.Label == "":
			return nil, errors.Wrapf(errdefs.ErrConfig, "wire %d: empty label", i)
		case strings.Contains(w.Label, PathSeparator):
			return nil, errors.Wrapf(errdefs.ErrConfig, "wire %q: label contains %q", w.Label, PathSeparator)
		case !w.IsBus() && !w.Type.Valid():
			return nil, errors.Wrapf(errdefs.ErrConfig, "wire %q: invalid leaf type %s", w.Label, w.Type)
		}
		if _, dup := s.index[w.Label]; dup {
			return nil, errors.Wrapf(errdefs.ErrConfig, "duplicate wire label %q", w.Label)
		}
		s.index[w.Label] = i
		s.wires[i] = w
		if w.IsBus() {
			s.wires[i].Type = signal.Type{}
			s.size += w.Spec.TotalSize()
		} else {
			s.size++
		}
	}
	return s, nil
}

// MustSpec is like NewSpec but panics on error. Intended for specs known at
// compile time.
func MustSpec(wires ...WireInfo) *Spec {
	s, err := NewSpec(wires...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of top-level wires.
func (s *Spec) Len() int { return len(s.wires) }

// Wire returns the i-th top-level wire.
func (s *Spec) Wire(i int) WireInfo { return s.wires[i] }

// Wires returns a copy of the top-level wires.
func (s *Spec) Wires() []WireInfo {
	w := make([]WireInfo, len(s.wires))
	copy(w, s.wires)
	return w
}

// Index returns the position of the top-level wire with the given label.
func (s *Spec) Index(label string) (int, bool) {
	i, ok := s.index[label]
	return i, ok
}

// TotalSize returns the number of leaf wires in the whole tree.
func (s *Spec) TotalSize() int { return s.size }

// Equal reports structural equality: same ordered labels, same kinds and leaf
// types, recursively equal nested specs.
func (s *Spec) Equal(o *Spec) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.wires) != len(o.wires) {
		return false
	}
	for i := range s.wires {
		if !s.wires[i].equal(o.wires[i]) {
			return false
		}
	}
	return true
}

// Lookup resolves a dotted path to its wire, leaf or nested.
func (s *Spec) Lookup(path string) (WireInfo, error) {
	if path == "" {
		return WireInfo{}, errors.Wrap(errdefs.ErrLookup, "empty path")
	}
	cur := s
	segs := strings.Split(path, PathSeparator)
	for i, seg := range segs {
		j, ok := cur.index[seg]
		if !ok {
			return WireInfo{}, errors.Wrapf(errdefs.ErrLookup, "no wire %q in path %q", seg, path)
		}
		w := cur.wires[j]
		if i == len(segs)-1 {
			return w, nil
		}
		if !w.IsBus() {
			return WireInfo{}, errors.Wrapf(errdefs.ErrLookup, "wire %q in path %q is a leaf", seg, path)
		}
		cur = w.Spec
	}
	panic("unreachable")
}

// Paths returns the dotted path of every leaf in pre-order.
func (s *Spec) Paths() []string {
	paths := make([]string, 0, s.size)
	s.walk("", func(path string, _ WireInfo) {
		paths = append(paths, path)
	})
	return paths
}

func (s *Spec) walk(prefix string, fn func(path string, w WireInfo)) {
	for _, w := range s.wires {
		if w.IsBus() {
			w.Spec.walk(prefix+w.Label+PathSeparator, fn)
			continue
		}
		fn(prefix+w.Label, w)
	}
}
