package name

import (
	"errors"
	"testing"

	"github.com/san-kum/blocksim/internal/errdefs"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x0", "x0"},
		{"", "_"},
		{"  ", "_"},
		{"a/b", "a_b"},
		{"a b", "a_b"},
		{`a\b`, "a_b"},
		{"Z.z3", "Z.z3"},
		{" padded ", "padded"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChild(t *testing.T) {
	n := New("plant")
	if got := n.Child("in").Child("Z"); got != "plant/in/Z" {
		t.Errorf("Child = %q, want plant/in/Z", got)
	}
	if got := n.Child("evil/segment"); got != "plant/evil_segment" {
		t.Errorf("Child with separator = %q, want plant/evil_segment", got)
	}
	if got := Name("").Child("root"); got != "root" {
		t.Errorf("Child of empty = %q, want root", got)
	}
}

func TestBaseParentSegments(t *testing.T) {
	n := New("a", "b", "c")
	if n.Base() != "c" {
		t.Errorf("Base() = %q, want c", n.Base())
	}
	if n.Parent() != "a/b" {
		t.Errorf("Parent() = %q, want a/b", n.Parent())
	}
	if segs := n.Segments(); len(segs) != 3 || segs[1] != "b" {
		t.Errorf("Segments() = %v", segs)
	}
	if Name("solo").Parent() != "" {
		t.Error("Parent of single segment should be empty")
	}
	if Name("").Segments() != nil {
		t.Error("Segments of empty name should be nil")
	}
}

func TestParse(t *testing.T) {
	if n, err := Parse("plant/in"); err != nil || n != "plant/in" {
		t.Errorf("Parse(plant/in) = %q, %v", n, err)
	}

	for _, bad := range []string{"", "a//b", "a/b c", "/a"} {
		if _, err := Parse(bad); !errors.Is(err, errdefs.ErrConfig) {
			t.Errorf("Parse(%q) error = %v, want ErrConfig", bad, err)
		}
	}
}

func TestEntity(t *testing.T) {
	e := NewEntity(New("m", "mem"))
	if e.Name() != "m/mem" {
		t.Errorf("Name() = %q, want m/mem", e.Name())
	}
}
