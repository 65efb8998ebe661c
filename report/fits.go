package report

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/batch"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/fit"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

// Float marshals NaN and infinities as null, which encoding/json rejects.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type FitRecord struct {
	FileIdentifier string                 `json:"file_identifier"`
	Status         common.Status          `json:"status"`
	Reason         string                 `json:"reason,omitempty"`
	Fit            *model.DistributionFit `json:"fit"`
	Conclusion     string                 `json:"conclusion,omitempty"`
}

// WriteFits writes the distribution summary of every row as a JSON array.
func WriteFits(w io.Writer, rows []*model.ResultRow) error {
	records := make([]FitRecord, 0, len(rows))
	for _, row := range rows {
		record := FitRecord{
			FileIdentifier: row.FileIdentifier,
			Status:         row.Status,
			Reason:         row.Reason,
			Fit:            row.Fit,
		}
		if row.Fit != nil {
			record.Conclusion = row.Fit.Conclusion()
		}
		records = append(records, record)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func WriteFitsFile(ctx context.Context, path string, rows []*model.ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(common.ErrLoad, "create %v: %v", path, err)
	}
	if err := WriteFits(f, rows); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %v", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %v", path)
	}
	utils.GetLogger(ctx).Info("write fits", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

// FileReport is the single file view: the row, the estimates behind it and
// a density profile of its degradation sample.
type FileReport struct {
	FileIdentifier string                    `json:"file_identifier"`
	Status         common.Status             `json:"status"`
	Reason         string                    `json:"reason,omitempty"`
	NominalCap     Float                     `json:"nominal_capacity_ah"`
	Cycles         int                       `json:"cycles"`
	MeanTemp       Float                     `json:"mean_temperature_c"`
	Fit            *model.DistributionFit    `json:"fit"`
	Conclusion     string                    `json:"conclusion,omitempty"`
	Estimates      []model.ThresholdEstimate `json:"estimates,omitempty"`
	NCD1Pct        []float64                 `json:"ncd1pct,omitempty"`
	Profile        *model.DensityProfile     `json:"profile,omitempty"`
	Currents       CurrentReport             `json:"currents"`
	ChangePoints   []model.ChangePoint       `json:"soh_change_points,omitempty"`
	FadeForecast   []model.FadePrediction    `json:"fade_rate_forecast,omitempty"`
}

type CurrentReport struct {
	ChargeAvg          Float `json:"charge_weighted_avg"`
	DischargeAvg       Float `json:"discharge_weighted_avg"`
	ChargeDeviationPct Float `json:"charge_deviation_pct"`
	DischargeDevPct    Float `json:"discharge_deviation_pct"`
}

// NewFileReport assembles the single file view. The profile is skipped when
// the sample is too small or degenerate for a density estimate.
func NewFileReport(ctx context.Context, analysis *batch.Analysis, withProfile bool) *FileReport {
	logger := utils.GetLogger(ctx)

	row := analysis.Row
	res := &FileReport{
		FileIdentifier: row.FileIdentifier,
		Status:         row.Status,
		Reason:         row.Reason,
		NominalCap:     Float(row.NominalCapacity),
		Cycles:         row.Cycles,
		MeanTemp:       Float(row.MeanTemperature),
		Fit:            row.Fit,
		Estimates:      analysis.Estimates,
		NCD1Pct:        analysis.Sample,
		ChangePoints:   analysis.ChangePoints,
		FadeForecast:   analysis.FadeForecast,
		Currents: CurrentReport{
			ChargeAvg:          Float(row.ChargeWeightedAvg),
			DischargeAvg:       Float(row.DischargeWeightedAvg),
			ChargeDeviationPct: Float(row.ChargeDeviationPct),
			DischargeDevPct:    Float(row.DischargeDeviationPct),
		},
	}
	if row.Fit != nil {
		res.Conclusion = row.Fit.Conclusion()
	}

	if withProfile && row.IsOK() {
		profile, err := fit.Profile(ctx, analysis.Sample)
		if err != nil {
			logger.Warn("density profile skipped", zap.String("file", row.FileIdentifier), zap.Error(err))
		} else {
			res.Profile = profile
		}
	}
	return res
}

func WriteFileReport(w io.Writer, report *FileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
