// Package name implements hierarchical, slash-delimited names for model objects.
package name

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
)

// Separator joins the segments of a qualified name.
const Separator = "/"

// Name is a sanitized qualified name such as "plant/in/Z".
type Name string

// Sanitize rewrites a single path segment so that it can be joined safely:
// separators, whitespace and control characters become '_'. An empty segment
// becomes "_".
func Sanitize(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return '_'
		}
		return r
	}, segment)
}

// ValidateSegment reports whether segment can be used as-is, without rewriting.
func ValidateSegment(segment string) error {
	if segment == "" {
		return errors.Wrap(errdefs.ErrConfig, "empty name segment")
	}
	if s := Sanitize(segment); s != segment {
		return errors.Wrapf(errdefs.ErrConfig, "illegal character in name segment %q", segment)
	}
	return nil
}

// New joins the given segments, sanitizing each of them.
func New(segments ...string) Name {
	var n Name
	for _, s := range segments {
		n = n.Child(s)
	}
	return n
}

// Parse splits a qualified name and validates every segment.
func Parse(qualified string) (Name, error) {
	segs := strings.Split(qualified, Separator)
	for _, s := range segs {
		if err := ValidateSegment(s); err != nil {
			return "", errors.WithMessagef(err, "name %q", qualified)
		}
	}
	return Name(qualified), nil
}

// Child returns n + "/" + sanitized segment.
func (n Name) Child(segment string) Name {
	segment = Sanitize(segment)
	if n == "" {
		return Name(segment)
	}
	return n + Separator + Name(segment)
}

// Base returns the last segment.
func (n Name) Base() string {
	s := string(n)
	if i := strings.LastIndex(s, Separator); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Parent returns n without its last segment.
func (n Name) Parent() Name {
	s := string(n)
	if i := strings.LastIndex(s, Separator); i >= 0 {
		return Name(s[:i])
	}
	return ""
}

func (n Name) Segments() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), Separator)
}

func (n Name) String() string { return string(n) }

// Entity gives a model object an immutable qualified name. It is meant to be
// embedded.
type Entity struct {
	name Name
}

func NewEntity(n Name) Entity {
	return Entity{name: n}
}

func (e Entity) Name() Name { return e.name }
