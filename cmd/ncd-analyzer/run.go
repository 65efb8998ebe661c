package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/uyouii/cycle-life-analysis/batch"
	"github.com/uyouii/cycle-life-analysis/config"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/report"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

func NewRunCommand() *cobra.Command {
	var (
		archiveRoot     string
		manifest        string
		nominalSource   string
		workers         int
		alpha           float64
		smoothing       string
		noChangePoints  bool
		output          string
		fitsJSON        string
		sqlitePath      string
		metricsTextfile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze every series file of an archive",
		Long: `Analyze every series file of an archive.

Cells come from the manifest (nominal_capacity_source: manifest) or from the
*timeseries*.csv files found under the archive root, with the nominal
capacity read from the "<capacity>_" file name prefix (filename_prefix) or
from the largest discharge capacity of each file (dataset_max).

Per-file failures are recorded in the result table and never stop the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := utils.GetLogger(ctx)
			flags := cmd.Flags()

			cfg, err := loadConfig(cmd, func(cfg *config.Config) error {
				if flags.Changed("archive-root") {
					cfg.ArchiveRoot = archiveRoot
				}
				if flags.Changed("manifest") {
					cfg.Manifest = manifest
				}
				if flags.Changed("nominal-source") {
					cfg.NominalCapacitySource = nominalSource
				}
				if flags.Changed("workers") {
					cfg.Workers = workers
				}
				if flags.Changed("alpha") {
					cfg.Alpha = alpha
				}
				if flags.Changed("smoothing") {
					cfg.Smoothing.Method = smoothing
				}
				if noChangePoints {
					cfg.ChangePoints.Enabled = false
				}
				if flags.Changed("output") {
					cfg.Output.CSV = output
				}
				if flags.Changed("fits-json") {
					cfg.Output.FitsJSON = fitsJSON
				}
				if flags.Changed("sqlite") {
					cfg.Output.SQLite = sqlitePath
				}
				if flags.Changed("metrics-textfile") {
					cfg.Output.MetricsTextfile = metricsTextfile
				}
				return nil
			})
			if err != nil {
				return err
			}

			cells, err := batch.ResolveCells(ctx, cfg)
			if err != nil {
				logger.Error("resolve cells failed", zap.Error(err))
				return err
			}

			metrics := batch.NewMetrics()
			runner, err := batch.NewRunner(cfg, metrics)
			if err != nil {
				return err
			}

			startedAt := time.Now()
			rows, runErr := runner.Run(ctx, cells)
			logger.Info("batch finished",
				zap.Int("rows", len(rows)),
				zap.Duration("elapsed", time.Since(startedAt)),
				zap.Error(runErr))

			if err := writeOutputs(cmd, cfg, metrics, startedAt, rows); err != nil {
				return err
			}

			report.PrintSummary(cmd.OutOrStdout(), batch.Summarize(rows), rows)
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&archiveRoot, "archive-root", "", "directory holding the series files")
	flags.StringVar(&manifest, "manifest", "", "cell manifest CSV (file name, capacity, rates or currents)")
	flags.StringVar(&nominalSource, "nominal-source", "", "nominal capacity source: manifest, filename_prefix or dataset_max")
	flags.IntVar(&workers, "workers", 0, "number of files analyzed concurrently")
	flags.Float64Var(&alpha, "alpha", 0.05, "KS significance level")
	flags.StringVar(&smoothing, "smoothing", "none", "SOH pre-smoothing: none, kernel or isotonic")
	flags.BoolVar(&noChangePoints, "no-change-points", false, "skip the fade rate change point diagnostic")
	flags.StringVarP(&output, "output", "o", "", "result table CSV path")
	flags.StringVar(&fitsJSON, "fits-json", "", "per-file distribution fit JSON path")
	flags.StringVar(&sqlitePath, "sqlite", "", "SQLite database recording the run")
	flags.StringVar(&metricsTextfile, "metrics-textfile", "", "write run metrics in the Prometheus textfile format")

	return cmd
}

// writeOutputs also runs after an interrupted run, so partial results are kept.
func writeOutputs(cmd *cobra.Command, cfg *config.Config, metrics *batch.Metrics, startedAt time.Time, rows []*model.ResultRow) error {
	ctx := context.WithoutCancel(cmd.Context())

	if cfg.Output.CSV != "" {
		if err := report.WriteTableFile(ctx, cfg.Output.CSV, rows); err != nil {
			return err
		}
	}
	if cfg.Output.FitsJSON != "" {
		if err := report.WriteFitsFile(ctx, cfg.Output.FitsJSON, rows); err != nil {
			return err
		}
	}
	if cfg.Output.SQLite != "" {
		store, err := report.NewSQLiteStore(cfg.Output.SQLite)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.SaveRun(ctx, cfg.ArchiveRoot, startedAt, rows); err != nil {
			return err
		}
	}
	if cfg.Output.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}
