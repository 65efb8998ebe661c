package common

import "github.com/pkg/errors"

var (
	ErrorInvalidValue = errors.New("invalid value")

	// ErrLoad means a file or the archive root could not be read.
	ErrLoad = errors.New("load error")
	// ErrMissingColumn means a required field is absent in a raw series.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidNominalCapacity means the capacity is <= 0 or not finite.
	ErrInvalidNominalCapacity = errors.New("invalid nominal capacity")
	// ErrEmptyDataset means no usable samples remained after filtering.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInsufficientCurveData means the SOH curve has fewer than 2 distinct cycles.
	ErrInsufficientCurveData = errors.New("insufficient curve data")
	// ErrInsufficientSamples means fewer than 2 points for differencing or fitting.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrDegenerateSample means the sample has zero variance and cannot be tested.
	ErrDegenerateSample = errors.New("degenerate sample")
)
