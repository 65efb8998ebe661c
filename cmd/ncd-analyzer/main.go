package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/config"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

var (
	logLevel   = "info"
	configPath = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCommand()
	err := cmd.ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "\nInterrupted: partial results were written")
	case errors.Is(err, common.ErrLoad):
		fmt.Fprintln(os.Stderr, "\nError: input could not be read, check archive_root, manifest and config paths")
	case errors.Is(err, common.ErrorInvalidValue):
		fmt.Fprintln(os.Stderr, "\nError: invalid configuration")
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ncd-analyzer",
		Short: "ncd-analyzer extracts cycles-per-1%-SOH degradation samples from battery cycling data",
		Long: `ncd-analyzer turns per-cycle discharge capacity logs into an SOH curve,
estimates how many cycles each percentage point of health took (NCD1%),
fits a normal distribution to that sample and tests it with one-sample KS.
The time-weighted charge and discharge currents are checked against the
nameplate values as a data quality signal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := utils.SetLogLevel(logLevel); err != nil {
				return errors.Wrapf(common.ErrorInvalidValue, "log level %q: %v", logLevel, err)
			}
			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (debug, info, warn, error)")
	globalFlags.StringVar(&configPath, "config", configPath, "YAML config file path")

	cmd.AddCommand(
		NewRunCommand(),
		NewFitCommand(),
	)
	return cmd
}

// loadConfig reads the config file and the environment, applies the flag
// overrides, then validates. The log level follows the config unless
// --log-level was given.
func loadConfig(cmd *cobra.Command, apply func(cfg *config.Config) error) (*config.Config, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadUnvalidated(ctx, configPath)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		if err := apply(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}

	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" && cfg.LogLevel != logLevel {
		if err := utils.SetLogLevel(cfg.LogLevel); err != nil {
			return nil, errors.Wrapf(common.ErrorInvalidValue, "log_level %q: %v", cfg.LogLevel, err)
		}
	}
	return cfg, nil
}
