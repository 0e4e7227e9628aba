// Package storage persists recorded runs under a base directory, one
// directory per run holding metadata.json and signals.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/name"
)

const (
	metadataFile = "metadata.json"
	signalsFile  = "signals.csv"
	timeColumn   = "time"
)

// Table is the sampled output of a run, one row per time.
type Table interface {
	Columns() []string
	Times() []float64
	Rows() [][]float64
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Dt        float64   `json:"dt"`
	Duration  float64   `json:"duration"`
	Steps     int       `json:"steps"`
	Blocks    int       `json:"blocks"`
	Columns   []string  `json:"columns"`
	Errors    []string  `json:"errors,omitempty"`
}

// Signals is a run table read back from disk. It is itself a Table.
type Signals struct {
	columns []string
	times   []float64
	rows    [][]float64
}

func (sg *Signals) Columns() []string { return sg.columns }
func (sg *Signals) Times() []float64  { return sg.times }
func (sg *Signals) Rows() [][]float64 { return sg.rows }

// Series returns one column of a loaded table.
func (sg *Signals) Series(column string) ([]float64, error) {
	for c, col := range sg.columns {
		if col != column {
			continue
		}
		out := make([]float64, len(sg.rows))
		for i, row := range sg.rows {
			if c < len(row) {
				out[i] = row[c]
			}
		}
		return out, nil
	}
	return nil, errors.Wrapf(errdefs.ErrLookup, "no column %q", column)
}

// Save writes meta and table as a new run and returns its id. meta.ID,
// meta.Timestamp and meta.Columns are filled in by Save.
func (s *Store) Save(meta RunMetadata, table Table) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(meta.Model, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Columns = table.Columns()

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, signalsFile), table); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

// newRunDir creates <model>_<unix> directly under the base directory, adding
// a counter when two runs of the same model land in the same second. The
// model name is sanitized into a single path segment.
func (s *Store) newRunDir(model string, now time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name.Sanitize(model), now.Unix())
	runID := base
	for n := 1; ; n++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Wrapf(err, "create run %s", runID)
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, table Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{timeColumn}, table.Columns()...)
	if err := w.Write(header); err != nil {
		return err
	}

	times, rows := table.Times(), table.Rows()
	if len(times) != len(rows) {
		return errors.Wrapf(errdefs.ErrConfig, "%d times for %d rows", len(times), len(rows))
	}
	for i := range rows {
		record := make([]string, 0, len(rows[i])+1)
		record = append(record, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, val := range rows[i] {
			record = append(record, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// checkRunID rejects ids that would resolve outside the base directory.
func checkRunID(runID string) error {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return errors.Wrapf(errdefs.ErrLookup, "invalid run id %q", runID)
	}
	return nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errdefs.ErrLookup, "no run %q", runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s: metadata", runID)
	}
	return &meta, nil
}

func (s *Store) LoadSignals(runID string) (*Signals, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, signalsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errdefs.ErrLookup, "no run %q", runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s: signals", runID)
	}

	out := &Signals{columns: []string{}, times: []float64{}, rows: [][]float64{}}
	if len(records) == 0 {
		return out, nil
	}
	out.columns = records[0][1:]

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "run %s: row %d", runID, i+1)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "run %s: row %d", runID, i+1)
			}
		}
		out.times = append(out.times, t)
		out.rows = append(out.rows, row)
	}
	return out, nil
}
