package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/blocksim/internal/bus"
)

// Spec renders spec as a wire tree under title, one wire per line.
func (s Styles) Spec(title string, spec *bus.Spec) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(title))
	b.WriteString(" ")
	b.WriteString(s.Subtle.Render(fmt.Sprintf("(%d leaves)", spec.TotalSize())))
	b.WriteString("\n")
	s.writeWires(&b, spec, "")
	return b.String()
}

func (s Styles) writeWires(b *strings.Builder, spec *bus.Spec, indent string) {
	for i, w := range spec.Wires() {
		branch, next := "├── ", "│   "
		if i == spec.Len()-1 {
			branch, next = "└── ", "    "
		}
		b.WriteString(s.Border.Render(indent + branch))
		if w.IsBus() {
			b.WriteString(s.Bus.Render(w.Label))
			b.WriteString("\n")
			s.writeWires(b, w.Spec, indent+next)
			continue
		}
		b.WriteString(s.Label.Render(w.Label))
		b.WriteString(" ")
		b.WriteString(s.Subtle.Render(w.Type.String()))
		b.WriteString("\n")
	}
}
