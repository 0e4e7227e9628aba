package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/blocksim/internal/viz"
)

type app struct {
	settings *viper.Viper
	logger   *log.Logger
}

func newApp(logOutput io.Writer) *app {
	a := &app{
		settings: viper.New(),
		logger: log.NewWithOptions(logOutput, log.Options{
			Prefix: "blocksim",
		}),
	}
	a.settings.SetDefault("data", ".blocksim")
	a.settings.SetDefault("theme", viz.ThemeMinimal.Name)
	a.settings.SetDefault("verbose", false)
	a.settings.SetEnvPrefix("BLOCKSIM")
	a.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.settings.AutomaticEnv()
	return a
}

func (a *app) dataDir() string { return a.settings.GetString("data") }

func (a *app) styles() viz.Styles {
	return viz.NewStyles(viz.GetTheme(a.settings.GetString("theme")))
}

// rootCmd builds the command tree and binds the persistent flags to the
// viper settings.
func (a *app) rootCmd() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "blocksim",
		Short:         "block diagram simulation with signal buses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.settings.GetBool("verbose") {
				a.logger.SetLevel(log.DebugLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("data", ".blocksim", "data directory")
	flags.String("theme", viz.ThemeMinimal.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	flags.BoolP("verbose", "v", false, "debug logging")
	for _, key := range []string{"data", "theme", "verbose"} {
		if err := a.settings.BindPFlag(key, flags.Lookup(key)); err != nil {
			return nil, errors.Wrapf(err, "bind flag %s", key)
		}
	}

	rootCmd.AddCommand(
		a.runCmd(),
		a.listCmd(),
		a.showCmd(),
		a.describeCmd(),
		a.presetsCmd(),
		a.exportJSONCmd(),
	)
	return rootCmd, nil
}

// main runs the blocksim command tree and exits with status 1 when a command
// fails.
func main() {
	a := newApp(os.Stderr)
	rootCmd, err := a.rootCmd()
	if err != nil {
		a.logger.Fatal(err)
	}
	if err := rootCmd.Execute(); err != nil {
		a.logger.Error(err)
		os.Exit(1)
	}
}
