package model

import (
	"math"

	"github.com/uyouii/cycle-life-analysis/common"
)

type DistributionFit struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	KSStatistic float64 `json:"ks_statistic"`
	PValue      float64 `json:"p_value"`
	Alpha       float64 `json:"alpha"`
	Accepted    bool    `json:"accepted"`
	N           int     `json:"n"`
}

// Conclusion renders the KS decision. Failing to reject is not a proof of normality.
func (f *DistributionFit) Conclusion() string {
	if f.Accepted {
		return "normality not rejected"
	}
	return "normality rejected"
}

// WeightedAverageResult holds the time-weighted currents per branch.
// An average is NaN when its branch never occurred.
type WeightedAverageResult struct {
	ChargeAvg        float64 `json:"charge_avg"`
	DischargeAvg     float64 `json:"discharge_avg"`
	ChargeSeconds    float64 `json:"charge_seconds"`
	DischargeSeconds float64 `json:"discharge_seconds"`
}

type CurrentDeviation struct {
	ChargeAbs    float64 `json:"charge_abs"`
	ChargePct    float64 `json:"charge_pct"`
	DischargeAbs float64 `json:"discharge_abs"`
	DischargePct float64 `json:"discharge_pct"`
}

type QuantileValue struct {
	Quantile float64 `json:"q"`
	Value    float64 `json:"v"`
}

type Density struct {
	X     float64 `json:"x"`
	Value float64 `json:"v"`
}

// DensityProfile is a kernel density view of a degradation sample.
type DensityProfile struct {
	Bandwidth float64         `json:"bandwidth"`
	Density   []Density       `json:"density,omitempty"`
	Quantiles []QuantileValue `json:"quantiles,omitempty"`
}

// ResultRow is the per-file output of a batch run.
type ResultRow struct {
	FileIdentifier        string        `json:"file_identifier"`
	NominalCapacity       float64       `json:"nominal_capacity"`
	Cycles                int           `json:"cycles"`
	MeanTemperature       float64       `json:"mean_temperature_c"`
	Thresholds            int           `json:"thresholds"`
	MeanNCD1Pct           float64       `json:"mean_ncd1pct"`
	StdNCD1Pct            float64       `json:"std_ncd1pct"`
	ChargeWeightedAvg     float64       `json:"charge_weighted_avg"`
	DischargeWeightedAvg  float64       `json:"discharge_weighted_avg"`
	ChargeDeviationPct    float64       `json:"charge_deviation_pct"`
	DischargeDeviationPct float64       `json:"discharge_deviation_pct"`
	SOHChangePoints       int           `json:"soh_change_points"`
	Status                common.Status `json:"status"`
	Reason                string        `json:"reason,omitempty"`

	Fit *DistributionFit `json:"fit,omitempty"`
}

// NewFailedRow returns a row with every metric set to NaN.
func NewFailedRow(fileIdentifier string) *ResultRow {
	nan := math.NaN()
	return &ResultRow{
		FileIdentifier:        fileIdentifier,
		NominalCapacity:       nan,
		MeanTemperature:       nan,
		MeanNCD1Pct:           nan,
		StdNCD1Pct:            nan,
		ChargeWeightedAvg:     nan,
		DischargeWeightedAvg:  nan,
		ChargeDeviationPct:    nan,
		DischargeDeviationPct: nan,
	}
}

func (r *ResultRow) IsOK() bool {
	return r != nil && r.Status == common.StatusOK
}
