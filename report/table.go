package report

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

var tableHeader = []string{
	"file_identifier", "status", "reason",
	"nominal_capacity_ah", "cycles", "thresholds", "mean_temperature_c",
	"mean_ncd1pct", "std_ncd1pct", "ks_statistic", "p_value", "alpha", "ks_conclusion",
	"charge_weighted_avg", "discharge_weighted_avg",
	"charge_deviation_pct", "discharge_deviation_pct",
	"soh_change_points",
}

// WriteTable writes one CSV line per row. Missing values are written as NaN.
func WriteTable(w io.Writer, rows []*model.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, row := range rows {
		ks, pValue, alpha, conclusion := "NaN", "NaN", "NaN", ""
		if row.Fit != nil {
			ks = formatFloat(row.Fit.KSStatistic)
			pValue = formatFloat(row.Fit.PValue)
			alpha = formatFloat(row.Fit.Alpha)
			conclusion = row.Fit.Conclusion()
		}
		record := []string{
			row.FileIdentifier, string(row.Status), row.Reason,
			formatFloat(row.NominalCapacity),
			strconv.Itoa(row.Cycles),
			strconv.Itoa(row.Thresholds),
			formatFloat(row.MeanTemperature),
			formatFloat(row.MeanNCD1Pct),
			formatFloat(row.StdNCD1Pct),
			ks, pValue, alpha, conclusion,
			formatFloat(row.ChargeWeightedAvg),
			formatFloat(row.DischargeWeightedAvg),
			formatFloat(row.ChargeDeviationPct),
			formatFloat(row.DischargeDeviationPct),
			strconv.Itoa(row.SOHChangePoints),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTableFile(ctx context.Context, path string, rows []*model.ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(common.ErrLoad, "create %v: %v", path, err)
	}
	if err := WriteTable(f, rows); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %v", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %v", path)
	}
	utils.GetLogger(ctx).Info("write result table", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
