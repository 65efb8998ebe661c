package model

import "fmt"

// MeasurementSample is one logged reading of a cell test.
// Current is signed: positive charge, negative discharge, zero rest.
type MeasurementSample struct {
	TestTime          float64 // seconds
	Current           float64 // A
	DischargeCapacity float64 // Ah, cumulative within the running discharge
	CycleIndex        int
	CellTemperature   float64 // C, NaN when not logged
}

func (s *MeasurementSample) IsCharge() bool {
	return s.Current > 0
}

func (s *MeasurementSample) IsDischarge() bool {
	return s.Current < 0
}

type CycleSummary struct {
	CycleIndex           int
	MaxDischargeCapacity float64
	MeanTemperature      float64
	SampleCount          int
}

type SOHPoint struct {
	CycleIndex int
	SOH        float64
}

// SOHCurve is ordered by ascending cycle index.
type SOHCurve []SOHPoint

func (c SOHCurve) Cycles() []float64 {
	res := make([]float64, len(c))
	for i, p := range c {
		res[i] = float64(p.CycleIndex)
	}
	return res
}

func (c SOHCurve) Values() []float64 {
	res := make([]float64, len(c))
	for i, p := range c {
		res[i] = p.SOH
	}
	return res
}

func (c SOHCurve) DistinctCycles() int {
	seen := make(map[int]struct{}, len(c))
	for _, p := range c {
		seen[p.CycleIndex] = struct{}{}
	}
	return len(seen)
}

type ThresholdEstimate struct {
	Threshold      float64 `json:"soh_threshold"`
	EstimatedCycle float64 `json:"estimated_cycle"`
}

// DegradationSample holds the cycles consumed per 1% of health lost,
// in ladder order.
type DegradationSample []float64

type CellRecord struct {
	FileIdentifier   string
	Path             string
	NominalCapacity  float64 // Ah
	ChargeCurrent    float64 // A, 0 when the nameplate value is unknown
	DischargeCurrent float64 // A, 0 when the nameplate value is unknown
}

func (c *CellRecord) DebugString() string {
	return fmt.Sprintf("file: %v, nominal: %v, path: %v", c.FileIdentifier, c.NominalCapacity, c.Path)
}

type ChangePointType int

const (
	IncreaseChangePoint ChangePointType = 1
	DecreaseChangePoint ChangePointType = 2
)

func (t ChangePointType) String() string {
	switch t {
	case IncreaseChangePoint:
		return "increase"
	case DecreaseChangePoint:
		return "decrease"
	}
	return "unknown"
}

// ChangePoint marks the first observation of a new regime in a series.
type ChangePoint struct {
	Index           int             `json:"index"`
	Value           float64         `json:"value"`
	ChangePointType ChangePointType `json:"type"`
}

// FadePrediction is the one step predictive distribution of the SOH fade
// rate into the curve point at CycleIndex.
type FadePrediction struct {
	CycleIndex int     `json:"cycle_index"`
	Mean       float64 `json:"mean"`
	Variance   float64 `json:"variance"`
}
