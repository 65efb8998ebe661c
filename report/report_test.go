package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/batch"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

func sampleRows() []*model.ResultRow {
	ok := &model.ResultRow{
		FileIdentifier:        "a_timeseries.csv",
		NominalCapacity:       3,
		Cycles:                151,
		Thresholds:            32,
		MeanTemperature:       26.5,
		MeanNCD1Pct:           4.5,
		StdNCD1Pct:            0.25,
		ChargeWeightedAvg:     1.5,
		DischargeWeightedAvg:  -3,
		ChargeDeviationPct:    math.NaN(),
		DischargeDeviationPct: 0,
		SOHChangePoints:       1,
		Status:                common.StatusOK,
		Fit: &model.DistributionFit{
			Mean: 4.5, Std: 0.25, KSStatistic: 0.12, PValue: 0.7, Alpha: 0.05, Accepted: true, N: 31,
		},
	}
	failed := model.NewFailedRow("b_timeseries.csv")
	failed.Status, failed.Reason = common.StatusInvalidInput, "invalid_nominal_capacity"
	return []*model.ResultRow{ok, failed}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, tableHeader, records[0])

	assert.Equal(t, "a_timeseries.csv", records[1][0])
	assert.Equal(t, "ok", records[1][1])
	assert.Equal(t, "4.5", records[1][7])
	assert.Equal(t, "normality not rejected", records[1][12])
	assert.Equal(t, "NaN", records[1][15])

	assert.Equal(t, "invalid_input", records[2][1])
	assert.Equal(t, "invalid_nominal_capacity", records[2][2])
	assert.Equal(t, "NaN", records[2][7])
	assert.Equal(t, "NaN", records[2][8])
}

func TestWriteFits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFits(&buf, sampleRows()))

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "normality not rejected", records[0]["conclusion"])
	assert.Equal(t, 0.7, records[0]["fit"].(map[string]interface{})["p_value"])
	assert.Nil(t, records[1]["fit"])
}

func TestFloatMarshal(t *testing.T) {
	data, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(1))})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,null]", string(data))
}

func TestFileReport(t *testing.T) {
	rows := sampleRows()
	analysis := &batch.Analysis{
		Row:       rows[0],
		Estimates: []model.ThresholdEstimate{{Threshold: 1, EstimatedCycle: 0}, {Threshold: 0.99, EstimatedCycle: 4}},
		Sample:    model.DegradationSample{4, 4.2, 4.9, 4.4, 4.6, 4.1, 5.0, 4.3},
		ChangePoints: []model.ChangePoint{
			{Index: 2, Value: -0.004, ChangePointType: model.DecreaseChangePoint},
		},
		FadeForecast: []model.FadePrediction{
			{CycleIndex: 1, Mean: -0.001, Variance: 0.25},
			{CycleIndex: 2, Mean: -0.001, Variance: 0.5},
		},
	}

	report := NewFileReport(context.Background(), analysis, true)
	require.NotNil(t, report.Profile)
	assert.Len(t, report.Profile.Quantiles, 7)

	var buf bytes.Buffer
	require.NoError(t, WriteFileReport(&buf, report))
	assert.Contains(t, buf.String(), `"charge_deviation_pct": null`)
	assert.Contains(t, buf.String(), `"conclusion": "normality not rejected"`)
	assert.Contains(t, buf.String(), `"fade_rate_forecast"`)
	assert.Contains(t, buf.String(), `"variance": 0.5`)
	assert.Contains(t, buf.String(), `"soh_change_points"`)

	report = NewFileReport(context.Background(), &batch.Analysis{Row: rows[1]}, true)
	assert.Nil(t, report.Profile)
	buf.Reset()
	require.NoError(t, WriteFileReport(&buf, report))
	assert.Contains(t, buf.String(), `"nominal_capacity_ah": null`)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	rows := sampleRows()
	runID, err := store.SaveRun(ctx, "/archive", time.Now(), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(1), runID)

	loaded, err := store.LoadRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, rows[0].FileIdentifier, loaded[0].FileIdentifier)
	assert.Equal(t, common.StatusOK, loaded[0].Status)
	assert.Equal(t, 4.5, loaded[0].MeanNCD1Pct)
	assert.True(t, math.IsNaN(loaded[0].ChargeDeviationPct))
	require.NotNil(t, loaded[0].Fit)
	assert.Equal(t, *rows[0].Fit, *loaded[0].Fit)

	assert.Equal(t, "invalid_nominal_capacity", loaded[1].Reason)
	assert.True(t, math.IsNaN(loaded[1].MeanNCD1Pct))
	assert.Nil(t, loaded[1].Fit)

	second, err := store.SaveRun(ctx, "/archive", time.Now(), rows[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	rows := sampleRows()

	var buf bytes.Buffer
	PrintSummary(&buf, batch.Summarize(rows), rows)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Analyzed 2 files"))
	assert.Contains(t, out, "invalid_nominal_capacity")
	assert.Contains(t, out, "b_timeseries.csv  invalid_input (invalid_nominal_capacity)")
}
