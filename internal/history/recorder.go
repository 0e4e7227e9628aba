// Package history samples signals during a run. A Recorder holds the same
// signal pointers the model exposes and only ever reads them.
package history

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/signal"
)

type probe struct {
	label string
	sig   *signal.Signal
}

// Recorder is a sim.Observer storing one row of samples per step. Scalar,
// int and bool signals take one column; arrays take one column per element,
// named label[i].
type Recorder struct {
	probes  []probe
	columns []string
	index   map[string]int
	times   []float64
	rows    [][]float64
}

func NewRecorder() *Recorder {
	return &Recorder{index: make(map[string]int)}
}

// Add registers a signal under label. Probes must be added before the run.
func (r *Recorder) Add(label string, s *signal.Signal) error {
	for _, p := range r.probes {
		if p.label == label {
			return errors.Wrapf(errdefs.ErrConfig, "duplicate probe %q", label)
		}
	}
	r.probes = append(r.probes, probe{label: label, sig: s})
	if t := s.Type(); t.Kind == signal.KindArray {
		for i := 0; i < t.Size; i++ {
			r.addColumn(fmt.Sprintf("%s[%d]", label, i))
		}
	} else {
		r.addColumn(label)
	}
	return nil
}

func (r *Recorder) addColumn(c string) {
	r.index[c] = len(r.columns)
	r.columns = append(r.columns, c)
}

func (r *Recorder) OnStep(step int, t float64) {
	row := make([]float64, 0, len(r.columns))
	for _, p := range r.probes {
		row = append(row, signal.Floats(p.sig.Value())...)
	}
	r.times = append(r.times, t)
	r.rows = append(r.rows, row)
}

func (r *Recorder) Columns() []string { return r.columns }
func (r *Recorder) Times() []float64  { return r.times }
func (r *Recorder) Rows() [][]float64 { return r.rows }
func (r *Recorder) Len() int          { return len(r.times) }

// Series returns every sample of one column.
func (r *Recorder) Series(column string) ([]float64, error) {
	c, ok := r.index[column]
	if !ok {
		return nil, errors.Wrapf(errdefs.ErrLookup, "no column %q", column)
	}
	out := make([]float64, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[c]
	}
	return out, nil
}

// Reset drops recorded samples and keeps the probes.
func (r *Recorder) Reset() {
	r.times = nil
	r.rows = nil
}
