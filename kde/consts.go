package kde

const (
	// DefaultCut is how many bandwidths the grid extends past the sample range.
	DefaultCut = 3.0

	MinGridSize = 100

	// ClipZScore drops points further than this many standard deviations
	// from the mean before a profile is estimated.
	ClipZScore = 3.0
)

var (
	// ProfileQuantiles are reported for every degradation sample profile.
	ProfileQuantiles = []float64{0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95}
)
