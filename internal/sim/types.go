package sim

import "fmt"

// Observer is notified after every block has been activated for a step, when
// all signals hold their values for time t.
type Observer interface {
	OnStep(step int, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	// ValidateState stops the run at the first non-finite block output.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		ValidateState: true,
	}
}

type Result struct {
	Times      []float64
	StepsTaken int
	Errors     []error
}

type SimError struct {
	Time    float64
	Step    int
	Message string
	Err     error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error { return e.Err }
