package viz

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/blocksim/internal/storage"
)

const sparkWidth = 24

func (s Styles) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// Runs renders stored runs as a table, one row per run.
func (s Styles) Runs(runs []storage.RunMetadata) string {
	t := s.newTable("ID", "MODEL", "TIME", "DURATION", "DT", "STEPS", "COLUMNS")
	for _, run := range runs {
		t.Row(
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2fs", run.Duration),
			fmt.Sprintf("%.4fs", run.Dt),
			strconv.Itoa(run.Steps),
			strconv.Itoa(len(run.Columns)),
		)
	}
	return t.Render()
}

// Summary renders min, max and final value of every column with a sparkline.
func (s Styles) Summary(columns []string, rows [][]float64) string {
	t := s.newTable("SIGNAL", "MIN", "MAX", "FINAL", "")
	for c, col := range columns {
		series := make([]float64, 0, len(rows))
		for _, row := range rows {
			if c < len(row) {
				series = append(series, row[c])
			}
		}
		if len(series) == 0 {
			t.Row(col, "-", "-", "-", s.Sparkline(nil, sparkWidth))
			continue
		}
		lo, hi := minMax(series)
		t.Row(
			col,
			formatValue(lo),
			formatValue(hi),
			formatValue(series[len(series)-1]),
			s.Sparkline(series, sparkWidth),
		)
	}
	return t.Render()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
