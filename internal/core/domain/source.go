package domain

// TimeRange is a window in seconds relative to now. Negative values lie in
// the past, positive values in the future.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Source selects which data feed serves a time range.
type Source int

const (
	SourcePast Source = iota
	SourcePredicted
	SourceCombined
)

func (s Source) String() string {
	switch s {
	case SourcePast:
		return "past"
	case SourcePredicted:
		return "predicted"
	case SourceCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// SelectSource maps the sign of a time range to a data feed: entirely in the
// past reads history, entirely in the future reads predictions, and a range
// that touches or spans now reads both.
func SelectSource(tr TimeRange) Source {
	switch {
	case tr.Start < 0 && tr.End < 0:
		return SourcePast
	case tr.Start > 0 && tr.End > 0:
		return SourcePredicted
	default:
		return SourceCombined
	}
}
