package block

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
)

type Phase uint8

const (
	Created Phase = iota
	Initialized
	PostInitialized
	Active
	Failed
)

func (p Phase) String() string {
	switch p {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case PostInitialized:
		return "post-initialized"
	case Active:
		return "active"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Lifecycle tracks the phase of a block. The zero value is Created.
type Lifecycle struct {
	phase Phase
}

func (l *Lifecycle) Phase() Phase { return l.phase }

// Advance moves from the expected phase to the next one.
func (l *Lifecycle) Advance(from, to Phase) error {
	if l.phase != from {
		return errors.Wrapf(errdefs.ErrLifecycle, "cannot go to %s from %s (want %s)", to, l.phase, from)
	}
	if to <= from || to == Failed {
		return errors.Wrapf(errdefs.ErrLifecycle, "invalid transition %s -> %s", from, to)
	}
	l.phase = to
	return nil
}

// Fail moves to the terminal Failed phase and returns err.
func (l *Lifecycle) Fail(err error) error {
	l.phase = Failed
	return err
}

// MarkActive moves PostInitialized to Active on first activation and rejects
// activation in any phase other than Active.
func (l *Lifecycle) MarkActive() error {
	if l.phase == PostInitialized {
		l.phase = Active
	}
	if l.phase != Active {
		return errors.Wrapf(errdefs.ErrLifecycle, "activate in phase %s", l.phase)
	}
	return nil
}
