package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/hwctl/stepperd/internal/adapters/log"
	"github.com/hwctl/stepperd/internal/cliconfig"
	"github.com/hwctl/stepperd/internal/ports"
	"github.com/hwctl/stepperd/pkg/stepperd"
)

const longHelp = `stepperd drives a 4-phase stepper motor (28BYJ-48 class) through a
ULN2003 driver board. Hold the push button to turn the motor; release
it to stop and reset the coil sequence.

The motor advances one full step every 2.048ms while the button is
held; the button is sampled every millisecond. With no flags and no
config file the daemon runs entirely on these built-in defaults.`

var exampleUsage = `  stepperd
  stepperd --driver sim --status-addr 127.0.0.1:8080
  stepperd --config /etc/stepperd/config.toml --debug`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var coilPins []int

	log := logAdapter.NewZerologAdapter()

	root := &cobra.Command{
		Use:     "stepperd",
		Short:   "Drive a button-gated 4-phase stepper motor",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default ~/.stepperd/config.toml), then apply flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if changed["coil-pins"] {
				if len(coilPins) != len(cfg.CoilPins) {
					return fmt.Errorf("--coil-pins needs %d entries, got %d", len(cfg.CoilPins), len(coilPins))
				}
				copy(cfg.CoilPins[:], coilPins)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if !cfg.Debug {
				log = logAdapter.NewZerologAdapterWithLogger(
					log.Logger().Level(zerolog.InfoLevel),
				)
			}
			log.Info("configuration",
				ports.String("driver", cfg.Driver),
				ports.Int("button_pin", cfg.ButtonPin),
				ports.Int("indicator_pin", cfg.IndicatorPin),
				ports.Any("coil_pins", cfg.CoilPins),
				ports.Duration("button_poll_interval", cfg.ButtonPollInterval),
				ports.Duration("step_interval", cfg.StepInterval),
			)

			d, err := stepperd.New(cfg, stepperd.WithLogger(log))
			if err != nil {
				return fmt.Errorf("create drive: %w", err)
			}

			// SIGINT/SIGTERM request termination; the loop observes it
			// between dispatch calls and shuts down gracefully.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return d.Run(ctx)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: ~/.stepperd/config.toml)")
	root.Flags().StringVar(&cfg.Driver, "driver", cfg.Driver, "gpio driver: periph, rpio or sim")
	root.Flags().IntVar(&cfg.ButtonPin, "button-pin", cfg.ButtonPin, "button input pin (BCM)")
	root.Flags().IntVar(&cfg.IndicatorPin, "indicator-pin", cfg.IndicatorPin, "indicator LED output pin (BCM)")
	root.Flags().IntSliceVar(&coilPins, "coil-pins", cfg.CoilPins[:], "driver board inputs IN1..IN4 (BCM)")
	root.Flags().DurationVar(&cfg.ButtonPollInterval, "button-poll-interval", cfg.ButtonPollInterval, "button sampling period")
	root.Flags().DurationVar(&cfg.StepInterval, "step-interval", cfg.StepInterval, "motor full-step period")
	root.Flags().StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "serve HTTP status on this address (disabled when empty)")
	root.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "log every step and button transition")

	if err := root.Execute(); err != nil {
		log.Error("stepperd", ports.Err(err))
		os.Exit(1)
	}
}
