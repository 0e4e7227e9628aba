package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Model    string      `json:"model"`
	Dt       float64     `json:"dt"`
	Duration float64     `json:"duration"`
	Steps    int         `json:"steps"`
	Columns  []string    `json:"columns"`
	Times    []float64   `json:"times"`
	Rows     [][]float64 `json:"rows"`
}

func newExportData(model string, dt, duration float64, table Table) ExportData {
	return ExportData{
		Model:    model,
		Dt:       dt,
		Duration: duration,
		Steps:    len(table.Times()),
		Columns:  table.Columns(),
		Times:    table.Times(),
		Rows:     table.Rows(),
	}
}

// WriteJSON writes a whole run as a single JSON document.
func WriteJSON(w io.Writer, model string, dt, duration float64, table Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newExportData(model, dt, duration, table))
}

func ExportJSON(path string, model string, dt, duration float64, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, model, dt, duration, table)
}
