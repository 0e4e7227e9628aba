package config

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/bus"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/history"
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/name"
	"github.com/san-kum/blocksim/internal/signal"
	"github.com/san-kum/blocksim/internal/sim"
)

// Block types accepted in BlockConfig.Type.
const (
	BlockConstant      = "constant"
	BlockStep          = "step"
	BlockRamp          = "ramp"
	BlockSine          = "sine"
	BlockGain          = "gain"
	BlockMemory        = "memory"
	BlockIntegrator    = "integrator"
	BlockBusMemory     = "bus_memory"
	BlockBusGain       = "bus_gain"
	BlockBusIntegrator = "bus_integrator"
)

// Runtime is a built model together with its probes and run settings.
type Runtime struct {
	Model    *model.Model
	Recorder *history.Recorder
	Sim      sim.Config
}

// Build constructs the model described by c. Blocks are initialized in file
// order; probes are registered on a fresh recorder.
func (c *Config) Build(opts ...model.Option) (*Runtime, error) {
	specs, err := c.BuildSpecs()
	if err != nil {
		return nil, err
	}

	m := model.New(c.Name, opts...)
	for _, bc := range c.Buses {
		spec, ok := specs[bc.Spec]
		if !ok {
			return nil, errors.Wrapf(errdefs.ErrConfig, "bus %q: unknown spec %q", bc.Label, bc.Spec)
		}
		if _, err := m.NewBus(bc.Label, spec); err != nil {
			return nil, err
		}
	}
	for _, sc := range c.Signals {
		t, err := parseType(sc.Kind, sc.Size)
		if err != nil {
			return nil, errors.WithMessagef(err, "signal %q", sc.Label)
		}
		if _, err := m.NewSignal(sc.Label, t); err != nil {
			return nil, err
		}
	}
	for _, bc := range c.Blocks {
		if err := buildBlock(m, bc); err != nil {
			return nil, errors.WithMessagef(err, "block %q", bc.Label)
		}
	}

	rec := history.NewRecorder()
	for _, ref := range c.Probes {
		if err := addProbe(m, rec, ref); err != nil {
			return nil, errors.WithMessagef(err, "probe %q", ref)
		}
	}

	return &Runtime{
		Model:    m,
		Recorder: rec,
		Sim:      sim.Config{Dt: c.Dt, Duration: c.Duration, ValidateState: c.Validate},
	}, nil
}

// BuildSpecs resolves every named spec. References to unknown specs and
// specs that nest themselves are configuration errors.
func (c *Config) BuildSpecs() (map[string]*bus.Spec, error) {
	r := &specResolver{
		defs:     c.Specs,
		built:    make(map[string]*bus.Spec, len(c.Specs)),
		visiting: make(map[string]bool),
	}
	names := make([]string, 0, len(c.Specs))
	for n := range c.Specs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, err := r.resolve(n); err != nil {
			return nil, err
		}
	}
	return r.built, nil
}

type specResolver struct {
	defs     map[string][]WireConfig
	built    map[string]*bus.Spec
	visiting map[string]bool
}

func (r *specResolver) resolve(specName string) (*bus.Spec, error) {
	if s, ok := r.built[specName]; ok {
		return s, nil
	}
	defs, ok := r.defs[specName]
	if !ok {
		return nil, errors.Wrapf(errdefs.ErrConfig, "unknown spec %q", specName)
	}
	if r.visiting[specName] {
		return nil, errors.Wrapf(errdefs.ErrConfig, "spec %q contains itself", specName)
	}
	r.visiting[specName] = true
	defer delete(r.visiting, specName)

	wires := make([]bus.WireInfo, 0, len(defs))
	for _, w := range defs {
		if w.Spec != "" {
			if w.Kind != "" || w.Size != 0 {
				return nil, errors.Wrapf(errdefs.ErrConfig, "spec %q: wire %q has both a spec and a kind", specName, w.Label)
			}
			nested, err := r.resolve(w.Spec)
			if err != nil {
				return nil, errors.WithMessagef(err, "spec %q", specName)
			}
			wires = append(wires, bus.Nested(w.Label, nested))
			continue
		}
		t, err := parseType(w.Kind, w.Size)
		if err != nil {
			return nil, errors.WithMessagef(err, "spec %q: wire %q", specName, w.Label)
		}
		wires = append(wires, bus.Leaf(w.Label, t))
	}

	s, err := bus.NewSpec(wires...)
	if err != nil {
		return nil, errors.WithMessagef(err, "spec %q", specName)
	}
	r.built[specName] = s
	return s, nil
}

func parseType(kind string, size int) (signal.Type, error) {
	k, err := signal.ParseKind(kind)
	if err != nil {
		return signal.Type{}, err
	}
	t := signal.Type{Kind: k}
	if k == signal.KindArray {
		t.Size = size
	}
	if !t.Valid() || (k != signal.KindArray && size != 0) {
		return signal.Type{}, errors.Wrapf(errdefs.ErrConfig, "invalid type %s with size %d", k, size)
	}
	return t, nil
}

func buildBlock(m *model.Model, bc BlockConfig) error {
	if bc.Label == "" {
		return errors.Wrap(errdefs.ErrConfig, "missing label")
	}
	n := m.Name().Child(bc.Label)

	switch bc.Type {
	case BlockConstant, BlockStep, BlockRamp, BlockSine:
		if bc.Input != "" {
			return errors.Wrapf(errdefs.ErrConfig, "%s block takes no input", bc.Type)
		}
		out, err := m.Signal(bc.Output)
		if err != nil {
			return err
		}
		src, err := newSource(n, bc, out.Type())
		if err != nil {
			return err
		}
		return src.Init(m, out)

	case BlockGain, BlockMemory, BlockIntegrator:
		in, err := m.Signal(bc.Input)
		if err != nil {
			return err
		}
		out, err := m.Signal(bc.Output)
		if err != nil {
			return err
		}
		if bc.Type == BlockGain {
			return blocks.NewGain(n, bc.K).Init(m, in, out)
		}
		v, err := toValue(bc.Value, out.Type())
		if err != nil {
			return err
		}
		if bc.Type == BlockMemory {
			return blocks.NewMemory(n, v).Init(m, in, out)
		}
		return blocks.NewIntegrator(n, v).Init(m, in, out)

	case BlockBusMemory, BlockBusGain, BlockBusIntegrator:
		in, err := m.Bus(bc.Input)
		if err != nil {
			return err
		}
		out, err := m.Bus(bc.Output)
		if err != nil {
			return err
		}
		if bc.Type == BlockBusGain {
			return blocks.NewBusGain(n, bc.K, bc.Exclude...).Init(m, in, out)
		}
		iv, err := initialValues(bc.Initial, out.Spec())
		if err != nil {
			return err
		}
		if bc.Type == BlockBusMemory {
			return blocks.NewBusMemory(n, iv, bc.Exclude...).Init(m, in, out)
		}
		return blocks.NewBusIntegrator(n, iv, bc.Exclude...).Init(m, in, out)
	}
	return errors.Wrapf(errdefs.ErrConfig, "unknown block type %q", bc.Type)
}

func newSource(n name.Name, bc BlockConfig, t signal.Type) (*blocks.Source, error) {
	switch bc.Type {
	case BlockConstant:
		v, err := toValue(bc.Value, t)
		if err != nil {
			return nil, err
		}
		return blocks.Constant(n, v), nil
	case BlockStep:
		return blocks.Step(n, bc.At, bc.Before, bc.After), nil
	case BlockRamp:
		return blocks.Ramp(n, bc.Slope, bc.Offset), nil
	}
	return blocks.Sine(n, bc.Amplitude, bc.Freq, bc.Phase), nil
}

// initialValues types each entry by the leaf it names. Paths missing from
// the spec cannot be typed and are rejected here.
func initialValues(raw map[string]any, spec *bus.Spec) (blocks.InitialValues, error) {
	iv := make(blocks.InitialValues, len(raw))
	for path, r := range raw {
		w, err := spec.Lookup(path)
		if err != nil {
			return nil, errors.WithMessagef(err, "initial value %q", path)
		}
		if w.IsBus() {
			return nil, errors.Wrapf(errdefs.ErrLookup, "initial value %q names a nested bus", path)
		}
		v, err := toValue(r, w.Type)
		if err != nil {
			return nil, errors.WithMessagef(err, "initial value %q", path)
		}
		iv[path] = v
	}
	return iv, nil
}

// toValue converts a decoded YAML value to a value of type t. nil yields the
// zero value.
func toValue(raw any, t signal.Type) (signal.Value, error) {
	if raw == nil {
		return t.Zero(), nil
	}
	switch t.Kind {
	case signal.KindScalar:
		if f, ok := toFloat(raw); ok {
			return signal.Scalar(f), nil
		}
	case signal.KindInt:
		if f, ok := toFloat(raw); ok && f == math.Trunc(f) {
			return signal.Int(int64(f)), nil
		}
	case signal.KindBool:
		if b, ok := raw.(bool); ok {
			return signal.Bool(b), nil
		}
	case signal.KindArray:
		if arr, ok := toArray(raw); ok && len(arr) == t.Size {
			return arr, nil
		}
	}
	return nil, errors.Wrapf(errdefs.ErrTypeMismatch, "%v is not a %s value", raw, t)
}

func toFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toArray(raw any) (signal.Array, bool) {
	switch x := raw.(type) {
	case []float64:
		return append(signal.Array(nil), x...), true
	case []any:
		arr := make(signal.Array, len(x))
		for i, item := range x {
			f, ok := toFloat(item)
			if !ok {
				return nil, false
			}
			arr[i] = f
		}
		return arr, true
	}
	return nil, false
}

func addProbe(m *model.Model, rec *history.Recorder, ref string) error {
	if b, err := m.Bus(ref); err == nil {
		var addErr error
		b.Walk(func(path string, s *signal.Signal) bool {
			addErr = rec.Add(ref+bus.PathSeparator+path, s)
			return addErr == nil
		})
		return addErr
	}
	s, err := m.Signal(ref)
	if err != nil {
		return err
	}
	return rec.Add(ref, s)
}
