package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != DefaultName {
		t.Errorf("expected name %s, got %s", DefaultName, cfg.Name)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if !cfg.Validate {
		t.Error("validation should be on by default")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("delay_line")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Dt != 0.1 {
		t.Errorf("expected dt 0.1, got %f", cfg.Dt)
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("delay_line")
	cfg.Dt = 1
	cfg.Name = "changed"
	cfg.Specs["Z"][0].Label = "changed"
	cfg.Blocks[4].Initial["Z.z3"] = 9.0
	cfg.Probes[0] = "changed"

	fresh := GetPreset("delay_line")
	if fresh.Dt != 0.1 || fresh.Name != "delay_line" {
		t.Errorf("preset settings changed through a returned copy: %+v", fresh)
	}
	if fresh.Specs["Z"][0].Label != "z3" {
		t.Errorf("preset spec changed through a returned copy: %v", fresh.Specs["Z"])
	}
	if fresh.Blocks[4].Initial["Z.z3"] != 1.0 {
		t.Errorf("preset initial values changed through a returned copy: %v", fresh.Blocks[4].Initial)
	}
	if fresh.Probes[0] != "in" {
		t.Errorf("preset probes changed through a returned copy: %v", fresh.Probes)
	}
}

func TestCloneArrayValue(t *testing.T) {
	orig := GetPreset("gain_stage")
	clone := orig.Clone()
	clone.Blocks[2].Value.([]any)[0] = 42.0
	if orig.Blocks[2].Value.([]any)[0] != 1.0 {
		t.Errorf("array value shared between clones: %v", orig.Blocks[2].Value)
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsRun(t *testing.T) {
	for _, p := range ListPresets() {
		t.Run(p, func(t *testing.T) {
			rt, err := GetPreset(p).Build()
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			s := sim.New(rt.Model)
			s.AddObserver(rt.Recorder)
			result, err := s.Run(context.Background(), rt.Sim)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if len(result.Errors) != 0 {
				t.Errorf("unexpected errors: %v", result.Errors)
			}
			if rt.Recorder.Len() != len(result.Times) {
				t.Errorf("recorded %d rows for %d samples", rt.Recorder.Len(), len(result.Times))
			}
			if len(rt.Recorder.Columns()) == 0 {
				t.Error("no probe columns")
			}
		})
	}
}

func runPreset(t *testing.T, preset string) *Runtime {
	t.Helper()
	rt, err := GetPreset(preset).Build()
	if err != nil {
		t.Fatal(err)
	}
	s := sim.New(rt.Model)
	s.AddObserver(rt.Recorder)
	if _, err := s.Run(context.Background(), rt.Sim); err != nil {
		t.Fatal(err)
	}
	return rt
}

func TestDelayLine(t *testing.T) {
	rt := runPreset(t, "delay_line")

	wantCols := []string{"in.x0", "in.x1", "in.Z.z3", "in.x2", "out.x0", "out.x1", "out.Z.z3", "out.x2"}
	if diff := cmp.Diff(wantCols, rt.Recorder.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	z3, err := rt.Recorder.Series("out.Z.z3")
	if err != nil {
		t.Fatal(err)
	}
	if z3[0] != 1.0 {
		t.Errorf("out.Z.z3 seeded with %f, want 1", z3[0])
	}

	in1, _ := rt.Recorder.Series("in.x1")
	out1, _ := rt.Recorder.Series("out.x1")
	if out1[0] != 0 {
		t.Errorf("out.x1 seeded with %f, want 0", out1[0])
	}
	for i := 1; i < len(out1); i++ {
		if out1[i] != in1[i-1] {
			t.Errorf("out.x1[%d] = %f, want in.x1[%d] = %f", i, out1[i], i-1, in1[i-1])
		}
	}
}

func TestPartialDelay(t *testing.T) {
	rt := runPreset(t, "partial_delay")

	var labels []string
	for _, b := range rt.Model.Blocks() {
		if l, ok := b.(interface{ Labels() []string }); ok {
			labels = l.Labels()
		}
	}
	if diff := cmp.Diff([]string{"x0", "x1", "x2"}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	z3, _ := rt.Recorder.Series("out.Z.z3")
	if z3[0] != 3.0 {
		t.Errorf("out.Z.z3[0] = %f, want undelayed 3", z3[0])
	}
}

func TestGainStage(t *testing.T) {
	rt := runPreset(t, "gain_stage")

	count, _ := rt.Recorder.Series("out.count")
	if count[0] != 30 {
		t.Errorf("out.count = %f, want 30", count[0])
	}
	s2, _ := rt.Recorder.Series("out.samples[2]")
	if s2[0] != 30 {
		t.Errorf("out.samples[2] = %f, want 30", s2[0])
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := Save(path, GetPreset("delay_line")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Name != "delay_line" || len(cfg.Blocks) != 5 {
		t.Fatalf("unexpected config after round trip: %+v", cfg)
	}

	rt, err := cfg.Build()
	if err != nil {
		t.Fatalf("build after round trip failed: %v", err)
	}
	s := sim.New(rt.Model)
	s.AddObserver(rt.Recorder)
	if _, err := s.Run(context.Background(), rt.Sim); err != nil {
		t.Fatal(err)
	}
	z3, _ := rt.Recorder.Series("out.Z.z3")
	if z3[0] != 1.0 {
		t.Errorf("out.Z.z3 seeded with %f after round trip, want 1", z3[0])
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("name: tiny\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != DefaultDt || cfg.Duration != DefaultDuration {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

const header = `
name: bad
specs:
  pair:
    - {label: a}
    - {label: b, kind: int}
  single:
    - {label: a}
buses:
  - {label: p, spec: pair}
  - {label: q, spec: pair}
  - {label: s, spec: single}
`

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown spec reference",
			yaml: "specs:\n  outer:\n    - {label: n, spec: missing}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "cyclic specs",
			yaml: "specs:\n  a:\n    - {label: b, spec: b}\n  b:\n    - {label: a, spec: a}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "duplicate wire label",
			yaml: "specs:\n  a:\n    - {label: x}\n    - {label: x}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "unknown kind",
			yaml: "specs:\n  a:\n    - {label: x, kind: complex}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "array without size",
			yaml: "signals:\n  - {label: v, kind: array}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "bus with unknown spec",
			yaml: "buses:\n  - {label: b, spec: nope}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "unknown block type",
			yaml: header + "blocks:\n  - {type: pid, label: c, input: p.a, output: q.a}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "mismatched bus specs",
			yaml: header + "blocks:\n  - {type: bus_memory, label: m, input: p, output: s}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "unknown signal",
			yaml: header + "blocks:\n  - {type: gain, label: g, input: p.c, output: q.a, k: 2}\n",
			want: errdefs.ErrLookup,
		},
		{
			name: "initial value of wrong type",
			yaml: header + "blocks:\n  - {type: bus_memory, label: m, input: p, output: q, initial: {b: true}}\n",
			want: errdefs.ErrTypeMismatch,
		},
		{
			name: "fractional int initial value",
			yaml: header + "blocks:\n  - {type: bus_memory, label: m, input: p, output: q, initial: {b: 1.5}}\n",
			want: errdefs.ErrTypeMismatch,
		},
		{
			name: "initial value for unknown wire",
			yaml: header + "blocks:\n  - {type: bus_memory, label: m, input: p, output: q, initial: {c: 1}}\n",
			want: errdefs.ErrLookup,
		},
		{
			name: "source with input",
			yaml: header + "blocks:\n  - {type: constant, label: c, input: p.a, output: q.a}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "step into int signal",
			yaml: header + "blocks:\n  - {type: step, label: st, output: p.b}\n",
			want: errdefs.ErrTypeMismatch,
		},
		{
			name: "duplicate block label",
			yaml: header + "blocks:\n  - {type: gain, label: g, input: p.a, output: q.a, k: 1}\n  - {type: gain, label: g, input: p.b, output: q.b, k: 1}\n",
			want: errdefs.ErrConfig,
		},
		{
			name: "unknown probe",
			yaml: header + "probes: [r]\n",
			want: errdefs.ErrLookup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if _, err := cfg.Build(); !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildProbesAndInitial(t *testing.T) {
	cfg, err := Parse([]byte(header + `
blocks:
  - {type: constant, label: src, output: p.b, value: 7}
  - {type: bus_memory, label: m, input: p, output: q, initial: {a: 2, b: 5}}
probes: [q, p.b]
`))
	if err != nil {
		t.Fatal(err)
	}
	rt, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"q.a", "q.b", "p.b"}, rt.Recorder.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	s := sim.New(rt.Model)
	s.AddObserver(rt.Recorder)
	if _, err := s.Run(context.Background(), sim.Config{Dt: 1, Duration: 1}); err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{2, 5, 7}, {0, 7, 7}}
	if diff := cmp.Diff(want, rt.Recorder.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
