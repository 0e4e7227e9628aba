// Package errdefs holds the error taxonomy shared by the modeling packages.
// Callers wrap these with context and test them with errors.Is.
package errdefs

import "errors"

var (
	// ErrConfig indicates a malformed model: duplicate labels, mismatched bus
	// specs, bad positional or label-keyed bus construction.
	ErrConfig = errors.New("configuration error")

	// ErrLookup indicates a dotted path or name that does not resolve.
	ErrLookup = errors.New("lookup error")

	// ErrTypeMismatch indicates a value or leaf of the wrong variant type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrLifecycle indicates a block lifecycle hook called out of order.
	ErrLifecycle = errors.New("lifecycle error")
)
