// Package config reads and writes YAML model files and builds them into
// runnable models.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/blocksim/internal/errdefs"
)

const (
	DefaultName     = "model"
	DefaultDt       = 0.01
	DefaultDuration = 10.0
)

// Config is a complete model description.
type Config struct {
	Name     string                  `yaml:"name"`
	Dt       float64                 `yaml:"dt"`
	Duration float64                 `yaml:"duration"`
	Validate bool                    `yaml:"validate"`
	Specs    map[string][]WireConfig `yaml:"specs,omitempty"`
	Buses    []BusConfig             `yaml:"buses,omitempty"`
	Signals  []SignalConfig          `yaml:"signals,omitempty"`
	Blocks   []BlockConfig           `yaml:"blocks,omitempty"`
	Probes   []string                `yaml:"probes,omitempty"`
}

// WireConfig is one wire of a named spec. Spec names another entry of
// Config.Specs and makes the wire a nested bus; otherwise Kind and Size give
// the leaf type, scalar when Kind is empty.
type WireConfig struct {
	Label string `yaml:"label"`
	Kind  string `yaml:"kind,omitempty"`
	Size  int    `yaml:"size,omitempty"`
	Spec  string `yaml:"spec,omitempty"`
}

type BusConfig struct {
	Label string `yaml:"label"`
	Spec  string `yaml:"spec"`
}

type SignalConfig struct {
	Label string `yaml:"label"`
	Kind  string `yaml:"kind,omitempty"`
	Size  int    `yaml:"size,omitempty"`
}

// BlockConfig describes one top-level block. Input and Output are signal
// references ("u", "state.Z.z3") for leaf blocks and bus labels for bus
// blocks. Only the parameters of the block's type are read.
type BlockConfig struct {
	Type   string `yaml:"type"`
	Label  string `yaml:"label"`
	Input  string `yaml:"input,omitempty"`
	Output string `yaml:"output"`

	K         float64 `yaml:"k,omitempty"`
	Value     any     `yaml:"value,omitempty"`
	At        float64 `yaml:"at,omitempty"`
	Before    float64 `yaml:"before,omitempty"`
	After     float64 `yaml:"after,omitempty"`
	Slope     float64 `yaml:"slope,omitempty"`
	Offset    float64 `yaml:"offset,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty"`
	Freq      float64 `yaml:"freq,omitempty"`
	Phase     float64 `yaml:"phase,omitempty"`

	Initial map[string]any `yaml:"initial,omitempty"`
	Exclude []string       `yaml:"exclude,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     DefaultName,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Validate: true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a model file, starting from DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(errdefs.ErrConfig, "decode model: %v", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Specs != nil {
		out.Specs = make(map[string][]WireConfig, len(c.Specs))
		for k, wires := range c.Specs {
			out.Specs[k] = append([]WireConfig(nil), wires...)
		}
	}
	out.Buses = append([]BusConfig(nil), c.Buses...)
	out.Signals = append([]SignalConfig(nil), c.Signals...)
	out.Probes = append([]string(nil), c.Probes...)
	if c.Blocks != nil {
		out.Blocks = make([]BlockConfig, len(c.Blocks))
		for i, bc := range c.Blocks {
			bc.Value = cloneValue(bc.Value)
			if bc.Initial != nil {
				initial := make(map[string]any, len(bc.Initial))
				for k, v := range bc.Initial {
					initial[k] = cloneValue(v)
				}
				bc.Initial = initial
			}
			bc.Exclude = append([]string(nil), bc.Exclude...)
			out.Blocks[i] = bc
		}
	}
	return &out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		c := make([]any, len(x))
		for i, item := range x {
			c[i] = cloneValue(item)
		}
		return c
	case []float64:
		return append([]float64(nil), x...)
	case map[string]any:
		c := make(map[string]any, len(x))
		for k, item := range x {
			c[k] = cloneValue(item)
		}
		return c
	}
	return v
}
