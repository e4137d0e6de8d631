package pipeline

import (
	"context"
	"fmt"
	"sort"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/segment"
	"forecast-lab/internal/storage"
)

// DefaultMinMarkets is the minimum market count for a meaningful report.
const DefaultMinMarkets = 10

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all 4 checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates data sufficiency before scoring output is
// trusted.
type SufficiencyChecker struct {
	marketStore  storage.MarketStore
	eventStore   storage.ProbabilityEventStore
	segmentStore storage.SegmentStore
	minMarkets   int
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(
	marketStore storage.MarketStore,
	eventStore storage.ProbabilityEventStore,
	segmentStore storage.SegmentStore,
) *SufficiencyChecker {
	return &SufficiencyChecker{
		marketStore:  marketStore,
		eventStore:   eventStore,
		segmentStore: segmentStore,
		minMarkets:   DefaultMinMarkets,
	}
}

// WithMinMarkets overrides the minimum market count threshold.
func (c *SufficiencyChecker) WithMinMarkets(n int) *SufficiencyChecker {
	c.minMarkets = n
	return c
}

// Check performs all 4 sufficiency checks.
func (c *SufficiencyChecker) Check(ctx context.Context) (*SufficiencyResult, error) {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 4),
		AllPass: true,
		Errors:  []string{},
	}

	markets, err := c.marketStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load markets: %w", err)
	}

	// Sort by ID for deterministic error output
	sorted := make([]*domain.Market, len(markets))
	copy(sorted, markets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	// Check 1: Total market count >= threshold
	check1 := c.checkMarketCount(sorted)
	result.Checks = append(result.Checks, check1)
	if !check1.Pass {
		result.AllPass = false
	}

	// Check 2: Every market has >= 2 probability events
	check2, eventErrors := c.checkEventCoverage(ctx, sorted)
	result.Checks = append(result.Checks, check2)
	if !check2.Pass {
		result.AllPass = false
		result.Errors = append(result.Errors, eventErrors...)
	}

	// Check 3: Every resolution within [0, 1]
	check3, resolutionErrors := c.checkResolutions(sorted)
	result.Checks = append(result.Checks, check3)
	if !check3.Pass {
		result.AllPass = false
		result.Errors = append(result.Errors, resolutionErrors...)
	}

	// Check 4: Every stored timeline validates (contiguous, in range)
	check4, timelineErrors := c.checkTimelines(ctx, sorted)
	result.Checks = append(result.Checks, check4)
	if !check4.Pass {
		result.AllPass = false
		result.Errors = append(result.Errors, timelineErrors...)
	}

	return result, nil
}

// checkMarketCount: total markets >= minMarkets.
func (c *SufficiencyChecker) checkMarketCount(markets []*domain.Market) SufficiencyCheck {
	count := len(markets)
	return SufficiencyCheck{
		Name:      "Total markets",
		Threshold: fmt.Sprintf(">= %d", c.minMarkets),
		Actual:    fmt.Sprintf("%d", count),
		Pass:      count >= c.minMarkets,
	}
}

// checkEventCoverage: every market has >= 2 probability events. A timeline
// cannot be reconstructed from fewer.
func (c *SufficiencyChecker) checkEventCoverage(ctx context.Context, markets []*domain.Market) (SufficiencyCheck, []string) {
	if c.eventStore == nil {
		return SufficiencyCheck{
			Name:      "Markets with >= 2 events",
			Threshold: "= 100%",
			Actual:    "NOT CONFIGURED (event store required)",
			Pass:      false,
		}, []string{"event store not configured - cannot verify event coverage"}
	}

	thinCount := 0
	var errors []string
	for _, m := range markets {
		events, err := c.eventStore.GetByMarketID(ctx, m.ID)
		if err != nil {
			thinCount++
			errors = append(errors, fmt.Sprintf("error fetching events for market %s: %v", m.ID, err))
			continue
		}
		if len(events) < 2 {
			thinCount++
			errors = append(errors, fmt.Sprintf("market %s has %d probability events, need >= 2", m.ID, len(events)))
		}
	}

	total := len(markets)
	covered := total - thinCount
	actual := "0/0 (no markets)"
	if total > 0 {
		actual = fmt.Sprintf("%.1f%% (%d/%d)", float64(covered)/float64(total)*100, covered, total)
	}

	return SufficiencyCheck{
		Name:      "Markets with >= 2 events",
		Threshold: "= 100%",
		Actual:    actual,
		Pass:      thinCount == 0,
	}, errors
}

// checkResolutions: every resolution within [0, 1].
func (c *SufficiencyChecker) checkResolutions(markets []*domain.Market) (SufficiencyCheck, []string) {
	badCount := 0
	var errors []string
	for _, m := range markets {
		if m.Resolution < 0 || m.Resolution > 1 {
			badCount++
			errors = append(errors, fmt.Sprintf("market %s has resolution %g outside [0, 1]", m.ID, m.Resolution))
		}
	}

	return SufficiencyCheck{
		Name:      "Resolutions outside [0, 1]",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", badCount),
		Pass:      badCount == 0,
	}, errors
}

// checkTimelines: every market's stored segment timeline validates.
func (c *SufficiencyChecker) checkTimelines(ctx context.Context, markets []*domain.Market) (SufficiencyCheck, []string) {
	if c.segmentStore == nil {
		return SufficiencyCheck{
			Name:      "Valid timelines",
			Threshold: "= 100%",
			Actual:    "NOT CONFIGURED (segment store required)",
			Pass:      false,
		}, []string{"segment store not configured - cannot verify timelines"}
	}

	total := len(markets)
	if total == 0 {
		return SufficiencyCheck{
			Name:      "Valid timelines",
			Threshold: "= 100%",
			Actual:    "0/0 (no markets)",
			Pass:      true,
		}, nil
	}

	failedCount := 0
	var errors []string
	for _, m := range markets {
		segments, err := c.segmentStore.GetByMarketID(ctx, m.ID)
		if err != nil {
			failedCount++
			errors = append(errors, fmt.Sprintf("error fetching segments for market %s: %v", m.ID, err))
			continue
		}
		if err := segment.Validate(segments); err != nil {
			failedCount++
			errors = append(errors, fmt.Sprintf("invalid timeline for market %s: %v", m.ID, err))
		}
	}

	validCount := total - failedCount
	pct := float64(validCount) / float64(total) * 100

	return SufficiencyCheck{
		Name:      "Valid timelines",
		Threshold: "= 100%",
		Actual:    fmt.Sprintf("%.1f%% (%d/%d)", pct, validCount, total),
		Pass:      failedCount == 0,
	}, errors
}
