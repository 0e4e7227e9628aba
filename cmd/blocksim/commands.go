package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/storage"
)

type runOptions struct {
	preset   string
	dt       float64
	duration float64
	noSave   bool
	jsonPath string
}

// loadConfig reads a model file, or a preset when no file is given.
func loadConfig(args []string, preset string) (*config.Config, error) {
	if len(args) > 0 {
		if preset != "" {
			return nil, errors.Wrap(errdefs.ErrConfig, "give either a model file or --preset, not both")
		}
		return config.Load(args[0])
	}
	if preset == "" {
		return nil, errors.Wrap(errdefs.ErrConfig, "no model file or --preset given")
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, errors.Wrapf(errdefs.ErrConfig, "unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	return cfg, nil
}

func (a *app) runCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [model.yaml]",
		Short: "run a model file or preset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.preset, "preset", "", "run a built-in preset")
	cmd.Flags().Float64Var(&opts.dt, "dt", 0, "override timestep")
	cmd.Flags().Float64Var(&opts.duration, "time", 0, "override duration")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "also export the run as JSON to this path")
	return cmd
}

func (a *app) run(cmd *cobra.Command, args []string, opts *runOptions) error {
	cfg, err := loadConfig(args, opts.preset)
	if err != nil {
		return err
	}

	rt, err := cfg.Build(model.WithLogger(a.logger))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dt") {
		rt.Sim.Dt = opts.dt
	}
	if cmd.Flags().Changed("time") {
		rt.Sim.Duration = opts.duration
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := sim.New(rt.Model)
	s.AddObserver(rt.Recorder)

	a.logger.Info("running", "model", cfg.Name, "dt", rt.Sim.Dt, "duration", rt.Sim.Duration)
	start := time.Now()
	result, err := s.Run(ctx, rt.Sim)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		a.logger.Warn("run stopped early", "err", e)
	}
	a.logger.Info("completed", "elapsed", time.Since(start), "steps", result.StepsTaken)

	if !opts.noSave {
		st := storage.New(a.dataDir())
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Model:    cfg.Name,
			Dt:       rt.Sim.Dt,
			Duration: rt.Sim.Duration,
			Steps:    result.StepsTaken,
			Blocks:   len(rt.Model.Leaves()),
		}
		for _, e := range result.Errors {
			meta.Errors = append(meta.Errors, e.Error())
		}
		runID, err := st.Save(meta, rt.Recorder)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if opts.jsonPath != "" {
		if err := storage.ExportJSON(opts.jsonPath, cfg.Name, rt.Sim.Dt, rt.Sim.Duration, rt.Recorder); err != nil {
			return err
		}
		a.logger.Info("exported", "path", opts.jsonPath)
	}

	if len(rt.Recorder.Columns()) > 0 {
		fmt.Println(a.styles().Summary(rt.Recorder.Columns(), rt.Recorder.Rows()))
	}
	return nil
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(a.dataDir()).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}
			fmt.Println(a.styles().Runs(runs))
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize the signals of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(a.dataDir())
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			sg, err := st.LoadSignals(args[0])
			if err != nil {
				return err
			}
			styles := a.styles()
			fmt.Println(styles.Title.Render(meta.ID))
			fmt.Printf("model: %s  dt: %.4fs  duration: %.2fs  steps: %d\n", meta.Model, meta.Dt, meta.Duration, meta.Steps)
			for _, e := range meta.Errors {
				fmt.Printf("error: %s\n", e)
			}
			fmt.Println(styles.Summary(sg.Columns(), sg.Rows()))
			return nil
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "describe [model.yaml]",
		Short: "show the specs, buses and blocks of a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args, preset)
			if err != nil {
				return err
			}
			specs, err := cfg.BuildSpecs()
			if err != nil {
				return err
			}

			styles := a.styles()
			names := make([]string, 0, len(specs))
			for n := range specs {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Print(styles.Spec(n, specs[n]))
			}

			for _, b := range cfg.Buses {
				fmt.Printf("bus %s: %s\n", styles.Label.Render(b.Label), b.Spec)
			}
			for _, b := range cfg.Blocks {
				fmt.Printf("block %s: %s %s -> %s\n", styles.Label.Render(b.Label), b.Type, b.Input, b.Output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "describe a built-in preset")
	return cmd
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}
}

func (a *app) exportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "export a stored run as JSON (stdout without path)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(a.dataDir())
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			sg, err := st.LoadSignals(args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return storage.WriteJSON(os.Stdout, meta.Model, meta.Dt, meta.Duration, sg)
			}
			return storage.ExportJSON(args[1], meta.Model, meta.Dt, meta.Duration, sg)
		},
	}
}
