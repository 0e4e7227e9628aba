package blocks

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/bus"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
)

// LeafFunc builds the block for one leaf wire. label is the dotted path of the
// wire, in and out are the matching leaf signals of the input and output
// buses. The function must construct exactly one block and Init it against
// parent with in and out as its ports; Init attaches it to the builder.
type LeafFunc func(parent block.Container, label string, w bus.WireInfo, in, out *signal.Signal) error

// BusBuilder is a composite block connecting an input bus to an output bus of
// the same spec through one synthesized leaf block per wire. Wires or whole
// nested buses can be excluded by their exact dotted path.
type BusBuilder struct {
	block.SISO[*bus.Bus, *bus.Bus]
	leaf     LeafFunc
	outer    block.Block // attached to the parent instead of the builder when set
	excluded map[string]struct{}
	children []block.Block
	labels   []string
	building bool
}

func NewBusBuilder(n name.Name, leaf LeafFunc, excluded ...string) *BusBuilder {
	b := &BusBuilder{
		SISO:     block.NewSISO[*bus.Bus, *bus.Bus](n),
		leaf:     leaf,
		excluded: make(map[string]struct{}, len(excluded)),
	}
	for _, e := range excluded {
		b.excluded[e] = struct{}{}
	}
	return b
}

// Init binds the buses and attaches the builder to parent. The input and
// output specs must be structurally equal.
func (b *BusBuilder) Init(parent block.Container, in, out *bus.Bus) error {
	if err := b.InitPorts(parent, in, out); err != nil {
		return err
	}
	if !in.Spec().Equal(out.Spec()) {
		return b.Fail(errors.Wrapf(errdefs.ErrConfig, "block %s: bus specs don't match (%s, %s)", b.Name(), in.Name(), out.Name()))
	}
	var self block.Block = b
	if b.outer != nil {
		self = b.outer
	}
	if err := parent.Attach(self); err != nil {
		return b.Fail(err)
	}
	return nil
}

// PostInit synthesizes the children in pre-order of the spec, then
// post-initializes them.
func (b *BusBuilder) PostInit() error {
	if err := b.Advance(block.Initialized, block.PostInitialized); err != nil {
		return err
	}
	b.children = make([]block.Block, 0, b.Input().Spec().TotalSize())
	b.labels = make([]string, 0, b.Input().Spec().TotalSize())

	b.building = true
	err := b.traverse("", b.Input(), b.Output())
	b.building = false
	if err != nil {
		b.children, b.labels = nil, nil
		return b.Fail(err)
	}

	for _, c := range b.children {
		if err := c.PostInit(); err != nil {
			return b.Fail(errors.WithMessagef(err, "block %s", b.Name()))
		}
	}
	b.Logger().Debug("synthesized leaf blocks",
		"children", len(b.children),
		"skipped", b.Input().Len()-len(b.children))
	return nil
}

func (b *BusBuilder) traverse(prefix string, in, out *bus.Bus) error {
	if b.isExcluded(strings.TrimSuffix(prefix, bus.PathSeparator)) {
		return nil
	}
	spec := in.Spec()
	for i := 0; i < spec.Len(); i++ {
		w := spec.Wire(i)
		inSig, inSub := in.Element(i)
		outSig, outSub := out.Element(i)
		if w.IsBus() {
			if err := b.traverse(prefix+w.Label+bus.PathSeparator, inSub, outSub); err != nil {
				return err
			}
			continue
		}
		label := prefix + w.Label
		if b.isExcluded(label) {
			continue
		}
		n := len(b.children)
		if err := b.leaf(b, label, w, inSig, outSig); err != nil {
			return errors.WithMessagef(err, "block %s: wire %q", b.Name(), label)
		}
		if got := len(b.children) - n; got != 1 {
			return errors.Wrapf(errdefs.ErrConfig, "block %s: wire %q produced %d blocks, want 1", b.Name(), label, got)
		}
		b.labels = append(b.labels, label)
	}
	return nil
}

// isExcluded matches exact dotted paths only, never prefixes or patterns.
func (b *BusBuilder) isExcluded(path string) bool {
	_, ok := b.excluded[path]
	return ok
}

// Attach is called by the leaf blocks' Init during PostInit.
func (b *BusBuilder) Attach(child block.Block) error {
	if !b.building {
		return errors.Wrapf(errdefs.ErrLifecycle, "block %s: cannot attach %s outside of PostInit", b.Name(), child.Name())
	}
	b.children = append(b.children, child)
	return nil
}

// Children returns the synthesized blocks in spec pre-order.
func (b *BusBuilder) Children() []block.Block { return b.children }

// Labels returns the dotted path of each child, aligned with Children.
func (b *BusBuilder) Labels() []string { return b.labels }

func (b *BusBuilder) Activate(t float64) error {
	return b.MarkActive()
}

// childName names the block built for a wire.
func childName(parent block.Container, label string) name.Name {
	return parent.Name().Child(label)
}
