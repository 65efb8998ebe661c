package series

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

const (
	ColumnTestTime          = "Test_Time (s)"
	ColumnCurrent           = "Current (A)"
	ColumnDischargeCapacity = "Discharge_Capacity (Ah)"
	ColumnCycleIndex        = "Cycle_Index"
	ColumnCellTemperature   = "Cell_Temperature (C)"
)

// accepted spellings per column, compared after NormalizeHeader
var aliases = map[string][]string{
	ColumnTestTime:          {"test_time_s", "test_time", "time_s"},
	ColumnCurrent:           {"current_a", "current"},
	ColumnDischargeCapacity: {"discharge_capacity_ah", "discharge_capacity"},
	ColumnCycleIndex:        {"cycle_index", "cycle"},
	ColumnCellTemperature:   {"cell_temperature_c", "cell_temperature", "temperature_c"},
}

var requiredColumns = []string{ColumnTestTime, ColumnCurrent, ColumnDischargeCapacity, ColumnCycleIndex}

// ReadFile loads the raw series of one cell test.
func ReadFile(ctx context.Context, path string) ([]model.MeasurementSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "open %v: %v", path, err)
	}
	defer f.Close()

	samples, err := Read(ctx, f)
	if err != nil {
		return nil, errors.WithMessagef(err, "read %v", path)
	}
	return samples, nil
}

// Read parses a CSV series. The temperature column is optional, blank
// temperatures become NaN. Any other blank or malformed field is invalid.
func Read(ctx context.Context, r io.Reader) ([]model.MeasurementSample, error) {
	logger := utils.GetLogger(ctx)

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, common.ErrEmptyDataset
	}
	if err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "read header: %v", err)
	}

	index, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	samples := []model.MeasurementSample{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(common.ErrLoad, "%v", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		sample, err := parseRecord(record, index)
		if err != nil {
			return nil, errors.WithMessagef(err, "line %d", line)
		}
		samples = append(samples, sample)
	}

	logger.Debug("read series", zap.Int("samples", len(samples)))
	return samples, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[NormalizeHeader(h)] = i
	}

	index := map[string]int{}
	for column, names := range aliases {
		for _, name := range names {
			if pos, ok := positions[name]; ok {
				index[column] = pos
				break
			}
		}
	}

	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, errors.Wrapf(common.ErrMissingColumn, "%q", column)
		}
	}
	return index, nil
}

// NormalizeHeader maps "Test_Time (s)" and "test time s" alike to "test_time_s".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			sb.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

func parseRecord(record []string, index map[string]int) (model.MeasurementSample, error) {
	sample := model.MeasurementSample{CellTemperature: math.NaN()}

	var err error
	if sample.TestTime, err = parseField(record, index, ColumnTestTime); err != nil {
		return sample, err
	}
	if sample.Current, err = parseField(record, index, ColumnCurrent); err != nil {
		return sample, err
	}
	if sample.DischargeCapacity, err = parseField(record, index, ColumnDischargeCapacity); err != nil {
		return sample, err
	}

	cycle, err := parseField(record, index, ColumnCycleIndex)
	if err != nil {
		return sample, err
	}
	if cycle != math.Trunc(cycle) {
		return sample, errors.Wrapf(common.ErrorInvalidValue, "%v: %v is not an integer", ColumnCycleIndex, cycle)
	}
	sample.CycleIndex = int(cycle)

	if pos, ok := index[ColumnCellTemperature]; ok && pos < len(record) && strings.TrimSpace(record[pos]) != "" {
		if sample.CellTemperature, err = parseField(record, index, ColumnCellTemperature); err != nil {
			return sample, err
		}
	}
	return sample, nil
}

func parseField(record []string, index map[string]int, column string) (float64, error) {
	pos := index[column]
	if pos >= len(record) {
		return 0, errors.Wrapf(common.ErrorInvalidValue, "%v: field missing", column)
	}
	raw := strings.TrimSpace(record[pos])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !utils.IsFinite(v) {
		return 0, errors.Wrapf(common.ErrorInvalidValue, "%v: %q", column, raw)
	}
	return v, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
