package common

import "github.com/pkg/errors"

// Status is the single outcome recorded for one input file.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusInvalidInput     Status = "invalid_input"
	StatusLoadError        Status = "load_error"
)

var AllStatuses = []Status{StatusOK, StatusInsufficientData, StatusInvalidInput, StatusLoadError}

// StatusOf maps a per-file pipeline error to its row status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrLoad):
		return StatusLoadError
	case errors.Is(err, ErrMissingColumn),
		errors.Is(err, ErrInvalidNominalCapacity),
		errors.Is(err, ErrorInvalidValue):
		return StatusInvalidInput
	case errors.Is(err, ErrEmptyDataset),
		errors.Is(err, ErrInsufficientCurveData),
		errors.Is(err, ErrInsufficientSamples),
		errors.Is(err, ErrDegenerateSample):
		return StatusInsufficientData
	}
	return StatusInvalidInput
}

// ReasonOf returns a stable failure kind label, empty for nil.
func ReasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLoad):
		return "load_error"
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrInvalidNominalCapacity):
		return "invalid_nominal_capacity"
	case errors.Is(err, ErrEmptyDataset):
		return "empty_dataset"
	case errors.Is(err, ErrInsufficientCurveData):
		return "insufficient_curve_data"
	case errors.Is(err, ErrInsufficientSamples):
		return "insufficient_samples"
	case errors.Is(err, ErrDegenerateSample):
		return "degenerate_sample"
	case errors.Is(err, ErrorInvalidValue):
		return "invalid_value"
	}
	return "unknown"
}
