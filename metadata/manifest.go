package metadata

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/series"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

// manifest columns, compared after series.NormalizeHeader
var (
	fileColumns             = []string{"full_filename", "file", "filename"}
	capacityColumns         = []string{"capacity_ah", "nominal_capacity_ah", "nominal_capacity"}
	chargeCurrentColumns    = []string{"charge_current_a", "charge_current"}
	dischargeCurrentColumns = []string{"discharge_current_a", "discharge_current"}
	chargeRateColumns       = []string{"charge_rate_c", "charge_rate"}
	dischargeRateColumns    = []string{"discharge_rate_c", "discharge_rate"}
)

// LoadManifest reads the cell list with the nominal capacity of each file.
// Relative file names are resolved against archiveRoot. A blank or malformed
// capacity is kept as NaN so that only that cell fails later.
func LoadManifest(ctx context.Context, path, archiveRoot string) ([]model.CellRecord, error) {
	logger := utils.GetLogger(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "open manifest %v: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(common.ErrEmptyDataset, "manifest %v", path)
	}
	if err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "manifest %v: %v", path, err)
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[series.NormalizeHeader(h)] = i
	}
	fileCol, ok := lookup(positions, fileColumns)
	if !ok {
		return nil, errors.Wrapf(common.ErrMissingColumn, "manifest %v: file name", path)
	}
	capacityCol, ok := lookup(positions, capacityColumns)
	if !ok {
		return nil, errors.Wrapf(common.ErrMissingColumn, "manifest %v: capacity", path)
	}
	chargeCol, hasCharge := lookup(positions, chargeCurrentColumns)
	dischargeCol, hasDischarge := lookup(positions, dischargeCurrentColumns)
	chargeRateCol, hasChargeRate := lookup(positions, chargeRateColumns)
	dischargeRateCol, hasDischargeRate := lookup(positions, dischargeRateColumns)

	records := []model.CellRecord{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(common.ErrLoad, "manifest %v: %v", path, err)
		}

		name := field(row, fileCol)
		if name == "" {
			continue
		}
		record := model.CellRecord{
			FileIdentifier:  FileIdentifier(name),
			Path:            resolve(archiveRoot, name),
			NominalCapacity: parseOrNaN(field(row, capacityCol)),
		}

		// nameplate currents, either given directly or as C-rate times capacity
		switch {
		case hasCharge:
			record.ChargeCurrent = parseOrZero(field(row, chargeCol))
		case hasChargeRate:
			record.ChargeCurrent = currentFromRate(field(row, chargeRateCol), record.NominalCapacity)
		}
		switch {
		case hasDischarge:
			record.DischargeCurrent = parseOrZero(field(row, dischargeCol))
		case hasDischargeRate:
			record.DischargeCurrent = currentFromRate(field(row, dischargeRateCol), record.NominalCapacity)
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FileIdentifier < records[j].FileIdentifier
	})

	logger.Info("load manifest success", zap.String("path", path), zap.Int("cells", len(records)))
	return records, nil
}

// CapacityFromFilename parses the leading "<capacity>_" token of a renamed
// archive file, e.g. "3.00_SNL_18650_NMC_25C_0-100_0.5-1C_a_timeseries.csv".
func CapacityFromFilename(path string) (float64, error) {
	base := filepath.Base(path)
	token, _, found := strings.Cut(base, "_")
	if !found {
		return 0, errors.Wrapf(common.ErrInvalidNominalCapacity, "no capacity prefix in %q", base)
	}
	capacity, err := strconv.ParseFloat(token, 64)
	if err != nil || !utils.IsFinite(capacity) || capacity <= 0 {
		return 0, errors.Wrapf(common.ErrInvalidNominalCapacity, "bad capacity prefix %q in %q", token, base)
	}
	return capacity, nil
}

// FileIdentifier is the base name of a series file.
func FileIdentifier(path string) string {
	return filepath.Base(filepath.FromSlash(path))
}

func resolve(root, name string) string {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) || root == "" {
		return name
	}
	return filepath.Join(root, name)
}

func lookup(positions map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if pos, ok := positions[name]; ok {
			return pos, true
		}
	}
	return 0, false
}

func field(row []string, pos int) string {
	if pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func parseOrNaN(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseOrZero(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !utils.IsFinite(v) {
		return 0
	}
	return v
}

func currentFromRate(raw string, capacity float64) float64 {
	rate := parseOrZero(raw)
	if rate == 0 || !utils.IsFinite(capacity) {
		return 0
	}
	return utils.FormatFloat(rate*capacity, 2)
}
