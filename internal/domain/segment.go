package domain

// ProbSegment is a half-open time interval [StartMs, EndMs) during which the
// market's believed probability was constant.
// Invariant: StartMs < EndMs and Prob in [0,1].
// A validated sequence is sorted ascending by StartMs, mutually
// non-overlapping, and exactly touching: segments[i].EndMs == segments[i+1].StartMs.
type ProbSegment struct {
	MarketID string  // FK to markets
	StartMs  int64   // Unix timestamp in milliseconds, inclusive
	EndMs    int64   // Unix timestamp in milliseconds, exclusive
	Prob     float64 // probability in [0,1]
}

// DurationMs returns the segment length in milliseconds.
func (s *ProbSegment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}
