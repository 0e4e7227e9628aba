package block

import (
	"github.com/charmbracelet/log"

	"github.com/san-kum/blocksim/internal/name"
)

type Block interface {
	Name() name.Name
	PostInit() error
	Activate(t float64) error
}

// Stateful blocks hold state across steps. Their output does not depend on
// their input within a step, and Update commits the next state once every
// block has been activated.
type Stateful interface {
	Block
	Update(t, dt float64) error
}

// Composite blocks own the children they synthesize.
type Composite interface {
	Block
	Children() []Block
}

// Container is the parent context a block is initialized against.
type Container interface {
	Name() name.Name
	Logger() *log.Logger
	Attach(b Block) error
}

// Flatten returns the leaf blocks under bs in pre-order, descending into
// composites.
func Flatten(bs ...Block) []Block {
	var leaves []Block
	for _, b := range bs {
		if c, ok := b.(Composite); ok {
			leaves = append(leaves, Flatten(c.Children()...)...)
			continue
		}
		leaves = append(leaves, b)
	}
	return leaves
}
