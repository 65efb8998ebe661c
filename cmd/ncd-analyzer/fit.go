package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/uyouii/cycle-life-analysis/batch"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/config"
	"github.com/uyouii/cycle-life-analysis/metadata"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/report"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

func NewFitCommand() *cobra.Command {
	var (
		nominalCapacity  float64
		chargeCurrent    float64
		dischargeCurrent float64
		smoothing        string
		noProfile        bool
	)

	cmd := &cobra.Command{
		Use:   "fit [series file]",
		Short: "Analyze one series file and print its distribution summary as JSON",
		Long: `Analyze one series file and print its distribution summary as JSON.

The nominal capacity is taken from --nominal-capacity when given, otherwise
from the configured nominal_capacity_source. The output holds the threshold
estimates, the NCD1% sample, the normal fit with its KS decision, a kernel
density profile of the sample and the current quality check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := utils.GetLogger(ctx)
			path := args[0]
			flags := cmd.Flags()

			explicit := flags.Changed("nominal-capacity")
			cfg, err := loadConfig(cmd, func(cfg *config.Config) error {
				if cfg.ArchiveRoot == "" {
					cfg.ArchiveRoot = filepath.Dir(path)
				}
				if explicit && cfg.NominalCapacitySource == config.NominalFromDatasetMax {
					cfg.NominalCapacitySource = config.NominalFromFilenamePrefix
				}
				if explicit && cfg.NominalCapacitySource == config.NominalFromManifest && cfg.Manifest == "" {
					cfg.NominalCapacitySource = config.NominalFromFilenamePrefix
				}
				if flags.Changed("smoothing") {
					cfg.Smoothing.Method = smoothing
				}
				return nil
			})
			if err != nil {
				return err
			}

			cell, err := resolveCell(cmd, cfg, path)
			if err != nil {
				return err
			}
			if explicit {
				cell.NominalCapacity = nominalCapacity
			}
			if flags.Changed("charge-current") {
				cell.ChargeCurrent = chargeCurrent
			}
			if flags.Changed("discharge-current") {
				cell.DischargeCurrent = dischargeCurrent
			}
			logger.Debug("fit cell", zap.String("cell", cell.DebugString()))

			runner, err := batch.NewRunner(cfg, nil)
			if err != nil {
				return err
			}
			analysis := runner.Analyze(ctx, cell)
			fileReport := report.NewFileReport(ctx, analysis, !noProfile)
			return report.WriteFileReport(cmd.OutOrStdout(), fileReport)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&nominalCapacity, "nominal-capacity", 0, "nominal capacity in Ah")
	flags.Float64Var(&chargeCurrent, "charge-current", 0, "nameplate charge current in A")
	flags.Float64Var(&dischargeCurrent, "discharge-current", 0, "nameplate discharge current in A")
	flags.StringVar(&smoothing, "smoothing", "none", "SOH pre-smoothing: none, kernel or isotonic")
	flags.BoolVar(&noProfile, "no-profile", false, "skip the kernel density profile")

	return cmd
}

// resolveCell looks the file up the same way a batch run would.
func resolveCell(cmd *cobra.Command, cfg *config.Config, path string) (*model.CellRecord, error) {
	cell := &model.CellRecord{
		FileIdentifier: metadata.FileIdentifier(path),
		Path:           path,
	}

	switch cfg.NominalCapacitySource {
	case config.NominalFromManifest:
		records, err := metadata.LoadManifest(cmd.Context(), cfg.Manifest, cfg.ArchiveRoot)
		if err != nil {
			return nil, err
		}
		for i := range records {
			if records[i].FileIdentifier == cell.FileIdentifier {
				records[i].Path = path
				return &records[i], nil
			}
		}
		if !cmd.Flags().Changed("nominal-capacity") {
			return nil, errors.Wrapf(common.ErrInvalidNominalCapacity, "%v is not in manifest %v", cell.FileIdentifier, cfg.Manifest)
		}
	case config.NominalFromFilenamePrefix:
		capacity, err := metadata.CapacityFromFilename(path)
		if err != nil && !cmd.Flags().Changed("nominal-capacity") {
			return nil, err
		}
		cell.NominalCapacity = capacity
	}
	return cell, nil
}
