// Package sim steps a model through simulated time with a fixed step.
//
// Each step activates every leaf block once, stateful blocks first since their
// outputs do not depend on their inputs within a step, then the remaining
// blocks in model order. Observers then sample signals, and stateful blocks
// commit their next state.
package sim

import (
	"context"
	"math"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/signal"
)

type Simulator struct {
	model     *model.Model
	observers []Observer
	logger    *log.Logger
	ran       bool
}

func New(m *model.Model) *Simulator {
	return &Simulator{
		model:     m,
		observers: make([]Observer, 0),
		logger:    m.Logger(),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Model() *model.Model { return s.model }

// Run initializes the model and steps it from t=0 to cfg.Duration,
// producing round(Duration/Dt)+1 samples. Block state is not reset, so a
// Simulator runs once; build a new model for another run.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.start(cfg); err != nil {
		return nil, err
	}

	order, stateful := schedule(s.model.Leaves())
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:  make([]float64, 0, steps+1),
		Errors: make([]error, 0),
	}
	s.logger.Debug("run started", "steps", steps, "dt", cfg.Dt, "blocks", len(order))

	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		if err := activate(order, t); err != nil {
			return result, SimError{Time: t, Step: i, Message: err.Error(), Err: err}
		}
		if cfg.ValidateState {
			if err := validate(order); err != nil {
				result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: err.Error(), Err: err})
				break
			}
		}
		for _, obs := range s.observers {
			obs.OnStep(i, t)
		}
		result.Times = append(result.Times, t)

		if i == steps {
			break
		}
		for _, b := range stateful {
			if err := b.Update(t, cfg.Dt); err != nil {
				return result, SimError{Time: t, Step: i, Message: err.Error(), Err: err}
			}
		}
		result.StepsTaken++
	}

	s.logger.Debug("run finished", "steps", result.StepsTaken, "errors", len(result.Errors))
	return result, nil
}

// RunWithCallback steps like Run but calls callback after each step instead
// of collecting a result. Returning false from callback stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(step int, t float64) bool) error {
	if err := s.start(cfg); err != nil {
		return err
	}

	order, stateful := schedule(s.model.Leaves())
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		if err := activate(order, t); err != nil {
			return SimError{Time: t, Step: i, Message: err.Error(), Err: err}
		}
		if !callback(i, t) {
			return nil
		}
		for _, b := range stateful {
			if err := b.Update(t, cfg.Dt); err != nil {
				return SimError{Time: t, Step: i, Message: err.Error(), Err: err}
			}
		}
	}
	return nil
}

func (s *Simulator) start(cfg Config) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	if s.ran {
		return errors.Wrapf(errdefs.ErrLifecycle, "model %s has already been run", s.model.Name())
	}
	s.ran = true
	return s.model.Init()
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

// schedule puts stateful blocks first, keeping model order within each group.
func schedule(leaves []block.Block) (order []block.Block, stateful []block.Stateful) {
	order = make([]block.Block, 0, len(leaves))
	var rest []block.Block
	for _, b := range leaves {
		if st, ok := b.(block.Stateful); ok {
			stateful = append(stateful, st)
			order = append(order, b)
			continue
		}
		rest = append(rest, b)
	}
	return append(order, rest...), stateful
}

func activate(order []block.Block, t float64) error {
	for _, b := range order {
		if err := b.Activate(t); err != nil {
			return errors.WithMessagef(err, "block %s", b.Name())
		}
	}
	return nil
}

type outputter interface {
	Output() *signal.Signal
}

func validate(order []block.Block) error {
	for _, b := range order {
		o, ok := b.(outputter)
		if !ok {
			continue
		}
		if !signal.IsFinite(o.Output().Value()) {
			return errors.Wrapf(ErrInvalidState, "output of %s", b.Name())
		}
	}
	return nil
}
