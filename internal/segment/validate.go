package segment

import (
	"errors"
	"fmt"

	"forecast-lab/internal/domain"
)

// Validation errors. Overlap and gap are distinct kinds so callers can report
// them separately.
var (
	ErrNonPositiveDuration = errors.New("segment has non-positive duration")
	ErrOverlap             = errors.New("segments overlap")
	ErrGap                 = errors.New("gap between segments")
)

// Validate checks a segment list for the timeline invariants:
// every segment has positive duration, and adjacent segments (in array order,
// which must already be time-sorted) touch exactly.
//
// Lists of length <= 1 are trivially valid. Validate fails fast on the first
// violation and never mutates its input.
func Validate(segments []*domain.ProbSegment) error {
	for i, s := range segments {
		if s.StartMs >= s.EndMs {
			return fmt.Errorf("segment %d [%d, %d): %w", i, s.StartMs, s.EndMs, ErrNonPositiveDuration)
		}
	}

	for i := 0; i < len(segments)-1; i++ {
		prev, next := segments[i], segments[i+1]
		if next.StartMs < prev.EndMs {
			return fmt.Errorf("segments %d and %d: next starts at %d before previous ends at %d: %w",
				i, i+1, next.StartMs, prev.EndMs, ErrOverlap)
		}
		if next.StartMs > prev.EndMs {
			return fmt.Errorf("segments %d and %d: next starts at %d after previous ends at %d: %w",
				i, i+1, next.StartMs, prev.EndMs, ErrGap)
		}
	}

	return nil
}
