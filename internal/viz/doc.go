// Package viz renders bus specs, run listings and recorded signals for the
// terminal with lipgloss.
//
//   - [Styles.Spec]: a bus spec as an indented wire tree with leaf types
//   - [Styles.Runs]: a table of stored runs
//   - [Styles.Summary]: per-column statistics with a sparkline
//
// Colors come from a [Theme]; [GetTheme] falls back to the minimal theme for
// unknown names.
package viz
