package config

import "sort"

// scenarioSpecs is the {x0, x1, Z:{z3}, x2} layout shared by several presets.
func scenarioSpecs() map[string][]WireConfig {
	return map[string][]WireConfig{
		"Z": {{Label: "z3"}},
		"state": {
			{Label: "x0"},
			{Label: "x1"},
			{Label: "Z", Spec: "Z"},
			{Label: "x2"},
		},
	}
}

var Presets = map[string]*Config{
	"delay_line": {
		Name: "delay_line", Dt: 0.1, Duration: 2.0, Validate: true,
		Specs: scenarioSpecs(),
		Buses: []BusConfig{{Label: "in", Spec: "state"}, {Label: "out", Spec: "state"}},
		Blocks: []BlockConfig{
			{Type: BlockSine, Label: "src0", Output: "in.x0", Amplitude: 1, Freq: 0.5},
			{Type: BlockRamp, Label: "src1", Output: "in.x1", Slope: 1},
			{Type: BlockStep, Label: "src2", Output: "in.Z.z3", At: 1, Before: 0, After: 2},
			{Type: BlockConstant, Label: "src3", Output: "in.x2", Value: 0.5},
			{Type: BlockBusMemory, Label: "delay", Input: "in", Output: "out", Initial: map[string]any{"Z.z3": 1.0}},
		},
		Probes: []string{"in", "out"},
	},
	"partial_delay": {
		Name: "partial_delay", Dt: 0.1, Duration: 1.0, Validate: true,
		Specs: scenarioSpecs(),
		Buses: []BusConfig{{Label: "in", Spec: "state"}, {Label: "out", Spec: "state"}},
		Blocks: []BlockConfig{
			{Type: BlockRamp, Label: "src0", Output: "in.x0", Slope: 1},
			{Type: BlockRamp, Label: "src1", Output: "in.x1", Slope: -1},
			{Type: BlockConstant, Label: "src2", Output: "in.Z.z3", Value: 3.0},
			{Type: BlockConstant, Label: "src3", Output: "in.x2", Value: 4.0},
			{Type: BlockBusMemory, Label: "delay", Input: "in", Output: "out", Exclude: []string{"Z"}},
			{Type: BlockGain, Label: "pass", Input: "in.Z.z3", Output: "out.Z.z3", K: 1},
		},
		Probes: []string{"out"},
	},
	"decay": {
		Name: "decay", Dt: 0.01, Duration: 5.0, Validate: true,
		Signals: []SignalConfig{{Label: "x"}, {Label: "dx"}},
		Blocks: []BlockConfig{
			{Type: BlockGain, Label: "feedback", Input: "x", Output: "dx", K: -1},
			{Type: BlockIntegrator, Label: "integrate", Input: "dx", Output: "x", Value: 1.0},
		},
		Probes: []string{"x"},
	},
	"oscillator": {
		Name: "oscillator", Dt: 0.001, Duration: 10.0, Validate: true,
		Specs: map[string][]WireConfig{
			"phase": {{Label: "x"}, {Label: "v"}},
		},
		Buses: []BusConfig{{Label: "state", Spec: "phase"}, {Label: "deriv", Spec: "phase"}},
		Blocks: []BlockConfig{
			{Type: BlockBusIntegrator, Label: "integrate", Input: "deriv", Output: "state", Initial: map[string]any{"x": 1.0}},
			{Type: BlockGain, Label: "velocity", Input: "state.v", Output: "deriv.x", K: 1},
			{Type: BlockGain, Label: "spring", Input: "state.x", Output: "deriv.v", K: -1},
		},
		Probes: []string{"state"},
	},
	"gain_stage": {
		Name: "gain_stage", Dt: 0.1, Duration: 1.0, Validate: true,
		Specs: map[string][]WireConfig{
			"mixed": {
				{Label: "level"},
				{Label: "count", Kind: "int"},
				{Label: "samples", Kind: "array", Size: 3},
			},
		},
		Buses: []BusConfig{{Label: "in", Spec: "mixed"}, {Label: "out", Spec: "mixed"}},
		Blocks: []BlockConfig{
			{Type: BlockSine, Label: "level", Output: "in.level", Amplitude: 2, Freq: 1},
			{Type: BlockConstant, Label: "count", Output: "in.count", Value: 3},
			{Type: BlockConstant, Label: "samples", Output: "in.samples", Value: []any{1.0, 2.0, 3.0}},
			{Type: BlockBusGain, Label: "amp", Input: "in", Output: "out", K: 10},
		},
		Probes: []string{"out"},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(preset string) *Config {
	cfg, ok := Presets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
