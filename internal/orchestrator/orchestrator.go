// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: segment reconstruction → probability extraction → scoring → aggregation
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"forecast-lab/internal/criteria"
	"forecast-lab/internal/domain"
	"forecast-lab/internal/grading"
	"forecast-lab/internal/observability"
	"forecast-lab/internal/scoring"
	"forecast-lab/internal/segment"
	"forecast-lab/internal/storage"
	"forecast-lab/internal/timeline"
)

// Orchestrator coordinates the E2E pipeline execution.
// Flow: segments → daily/criterion probabilities → absolute scores →
// relative scores → platform aggregates.
type Orchestrator struct {
	// Stores
	marketStore               storage.MarketStore
	eventStore                storage.ProbabilityEventStore
	segmentStore              storage.SegmentStore
	dailyProbabilityStore     storage.DailyProbabilityStore
	criterionProbabilityStore storage.CriterionProbabilityStore
	marketScoreStore          storage.MarketScoreStore
	platformScoreStore        storage.PlatformScoreStore

	// Configs
	criteria []domain.CriterionType

	// Options
	skipSegments bool
	verbose      bool
	nowMs        func() int64
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	MarketStore               storage.MarketStore
	ProbabilityEventStore     storage.ProbabilityEventStore
	SegmentStore              storage.SegmentStore
	DailyProbabilityStore     storage.DailyProbabilityStore
	CriterionProbabilityStore storage.CriterionProbabilityStore
	MarketScoreStore          storage.MarketScoreStore
	PlatformScoreStore        storage.PlatformScoreStore

	// Criteria to score absolutely; defaults to the full catalogue.
	Criteria []domain.CriterionType

	// Options
	SkipSegments bool // Skip reconstruction if segments already exist
	Verbose      bool
	NowMs        func() int64 // injectable clock for record timestamps
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	crit := opts.Criteria
	if len(crit) == 0 {
		crit = domain.AllCriteria
	}
	return &Orchestrator{
		marketStore:               opts.MarketStore,
		eventStore:                opts.ProbabilityEventStore,
		segmentStore:              opts.SegmentStore,
		dailyProbabilityStore:     opts.DailyProbabilityStore,
		criterionProbabilityStore: opts.CriterionProbabilityStore,
		marketScoreStore:          opts.MarketScoreStore,
		platformScoreStore:        opts.PlatformScoreStore,
		criteria:                  crit,
		skipSegments:              opts.SkipSegments,
		verbose:                   opts.Verbose,
		nowMs:                     opts.NowMs,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	MarketsProcessed      int
	SegmentsBuilt         int
	MarketScoresCreated   int
	PlatformScoresCreated int
	Errors                []string
}

// Run executes the full E2E pipeline.
// Phases:
//  1. Load markets
//  2. Rebuild each market's segment timeline
//  3. Extract daily and criterion probabilities
//  4. Score each market absolutely, grade, and store
//  5. Score each question group relatively, grade, and store
//  6. Aggregate platform scores
//
// Per-market and per-group failures are collected in RunResult.Errors and do
// not abort the run; store and phase-level failures do.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	start := time.Now()
	status := "error"
	defer func() {
		observability.RecordPipelineRun("batch", status, time.Since(start).Seconds())
	}()

	// Phase 1: Load all markets
	o.log("Phase 1: Loading markets...")
	markets, err := o.marketStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load markets) failed: %w", err)
	}
	result.MarketsProcessed = len(markets)
	o.log("  Found %d markets", len(markets))

	if len(markets) == 0 {
		status = "success"
		return result, nil
	}

	// Phase 2: Segment reconstruction
	segmentsByMarket := make(map[string][]*domain.ProbSegment, len(markets))
	if !o.skipSegments {
		o.log("Phase 2: Rebuilding segment timelines...")
		built, segErrors := o.runSegmentation(ctx, markets, segmentsByMarket)
		result.SegmentsBuilt = built
		result.Errors = append(result.Errors, segErrors...)
		o.log("  Built %d segments (%d errors)", built, len(segErrors))
	} else {
		o.log("Phase 2: Loading existing segments (skipSegments=true)")
		if err := o.loadSegments(ctx, markets, segmentsByMarket); err != nil {
			return nil, fmt.Errorf("phase 2 (load segments) failed: %w", err)
		}
	}

	// Phase 3: Probability extraction
	o.log("Phase 3: Extracting daily and criterion probabilities...")
	dailies, criterionSamples, extractErrors := o.runExtraction(ctx, segmentsByMarket)
	result.Errors = append(result.Errors, extractErrors...)
	o.log("  Extracted probabilities for %d markets (%d errors)", len(dailies), len(extractErrors))

	// Phase 4: Absolute scoring
	o.log("Phase 4: Computing absolute scores...")
	absScores, absErrors := o.runAbsoluteScoring(markets, criterionSamples)
	result.Errors = append(result.Errors, absErrors...)
	o.log("  Computed %d absolute scores (%d errors)", len(absScores), len(absErrors))

	// Phase 5: Relative scoring
	o.log("Phase 5: Computing relative scores...")
	relScores, relErrors := o.runRelativeScoring(ctx, markets, dailies)
	result.Errors = append(result.Errors, relErrors...)
	o.log("  Computed %d relative scores (%d errors)", len(relScores), len(relErrors))

	allScores := append(absScores, relScores...)
	if err := o.marketScoreStore.InsertBulk(ctx, allScores); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, fmt.Errorf("phase 5 (store market scores) failed: %w", err)
	}
	result.MarketScoresCreated = len(allScores)
	for _, s := range allScores {
		observability.RecordMarketScore(string(s.ScoreType))
	}

	// Phase 6: Platform aggregation
	o.log("Phase 6: Aggregating platform scores...")
	marketsPerPlatform := make(map[domain.Platform]int, 4)
	for _, m := range markets {
		marketsPerPlatform[m.Platform]++
	}
	platformScores := scoring.PlatformScores(allScores, marketsPerPlatform, o.now())
	if err := o.platformScoreStore.InsertBulk(ctx, platformScores); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, fmt.Errorf("phase 6 (store platform scores) failed: %w", err)
	}
	result.PlatformScoresCreated = len(platformScores)
	o.log("  Computed %d platform aggregates", len(platformScores))

	o.log("Pipeline completed: %d markets, %d market scores, %d platform scores",
		result.MarketsProcessed, result.MarketScoresCreated, result.PlatformScoresCreated)

	status = "success"
	return result, nil
}

// runSegmentation rebuilds and validates every market's timeline, storing the
// result and keeping it in memory for the later phases.
func (o *Orchestrator) runSegmentation(ctx context.Context, markets []*domain.Market, out map[string][]*domain.ProbSegment) (int, []string) {
	var built int
	var errs []string

	for _, m := range markets {
		events, err := o.eventStore.GetByMarketID(ctx, m.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("load events %s: %v", m.ID, err))
			continue
		}

		builder, err := segment.BuilderFor(m.Platform)
		if err != nil {
			errs = append(errs, fmt.Sprintf("segment %s: %v", m.ID, err))
			continue
		}

		segments, err := builder.BuildSegments(m.ID, events)
		if err != nil {
			errs = append(errs, fmt.Sprintf("segment %s: %v", m.ID, err))
			continue
		}
		if err := segment.Validate(segments); err != nil {
			errs = append(errs, fmt.Sprintf("validate %s: %v", m.ID, err))
			observability.RecordValidationFailure(validationKind(err))
			continue
		}
		if len(segments) == 0 {
			continue
		}

		if err := o.segmentStore.InsertBulk(ctx, segments); err != nil {
			// Already reconstructed on a previous run.
			if !errors.Is(err, storage.ErrDuplicateKey) {
				errs = append(errs, fmt.Sprintf("store segments %s: %v", m.ID, err))
				continue
			}
		}
		out[m.ID] = segments
		built += len(segments)
		observability.RecordSegmentsBuilt(len(segments))
	}

	return built, errs
}

// validationKind maps a validator error to its metric label.
func validationKind(err error) string {
	switch {
	case errors.Is(err, segment.ErrOverlap):
		return "overlap"
	case errors.Is(err, segment.ErrGap):
		return "gap"
	case errors.Is(err, segment.ErrNonPositiveDuration):
		return "duration"
	default:
		return "other"
	}
}

// loadSegments fills the in-memory timeline map from the segment store.
func (o *Orchestrator) loadSegments(ctx context.Context, markets []*domain.Market, out map[string][]*domain.ProbSegment) error {
	for _, m := range markets {
		segments, err := o.segmentStore.GetByMarketID(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("load segments %s: %w", m.ID, err)
		}
		if len(segments) > 0 {
			out[m.ID] = segments
		}
	}
	return nil
}

// runExtraction derives daily and criterion probabilities from each timeline
// and stores them.
func (o *Orchestrator) runExtraction(ctx context.Context, segmentsByMarket map[string][]*domain.ProbSegment) (map[string][]*domain.DailyProbability, map[string][]*domain.CriterionProbability, []string) {
	dailies := make(map[string][]*domain.DailyProbability, len(segmentsByMarket))
	samples := make(map[string][]*domain.CriterionProbability, len(segmentsByMarket))
	var errs []string

	for marketID, segments := range segmentsByMarket {
		daily := timeline.DailyProbabilities(marketID, segments)
		if len(daily) > 0 {
			if err := o.dailyProbabilityStore.InsertBulk(ctx, daily); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				errs = append(errs, fmt.Sprintf("store daily probabilities %s: %v", marketID, err))
				continue
			}
			dailies[marketID] = daily
		}

		sampled, sampleErrs := criteria.Evaluate(marketID, segments)
		for _, err := range sampleErrs {
			errs = append(errs, fmt.Sprintf("criteria %s: %v", marketID, err))
		}
		if len(sampled) > 0 {
			if err := o.criterionProbabilityStore.InsertBulk(ctx, sampled); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				errs = append(errs, fmt.Sprintf("store criterion probabilities %s: %v", marketID, err))
				continue
			}
			samples[marketID] = sampled
		}
	}

	return dailies, samples, errs
}

// runAbsoluteScoring scores every market against its criterion samples and
// grades the results.
func (o *Orchestrator) runAbsoluteScoring(markets []*domain.Market, samples map[string][]*domain.CriterionProbability) ([]*domain.MarketScore, []string) {
	var scores []*domain.MarketScore
	var errs []string
	now := o.now()

	for _, m := range markets {
		marketSamples, ok := samples[m.ID]
		if !ok {
			continue
		}
		marketScores, scoreErrs := scoring.AbsoluteScores(m, marketSamples, o.criteria, now)
		for _, err := range scoreErrs {
			errs = append(errs, err.Error())
		}
		o.applyGrades(marketScores, &errs)
		scores = append(scores, marketScores...)
	}

	return scores, errs
}

// runRelativeScoring scores every question group against its own median
// baseline and grades the results. A failing group is skipped whole.
func (o *Orchestrator) runRelativeScoring(ctx context.Context, markets []*domain.Market, dailies map[string][]*domain.DailyProbability) ([]*domain.MarketScore, []string) {
	var scores []*domain.MarketScore
	var errs []string
	now := o.now()

	byQuestion := make(map[string][]*domain.Market)
	for _, m := range markets {
		if m.QuestionID == nil {
			continue
		}
		byQuestion[*m.QuestionID] = append(byQuestion[*m.QuestionID], m)
	}

	questionIDs, err := o.marketStore.ListQuestionIDs(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("list question ids: %v", err))
		return nil, errs
	}

	for _, questionID := range questionIDs {
		group := byQuestion[questionID]
		for _, metric := range domain.AllMetrics {
			groupScores, err := scoring.RelativeScores(questionID, group, dailies, metric, now)
			if err != nil {
				// A group of one is the common case, not a fault.
				if errors.Is(err, scoring.ErrTooFewMarkets) {
					observability.RecordGroupSkipped("too_few_markets")
					continue
				}
				errs = append(errs, fmt.Sprintf("relative %s/%s: %v", questionID, metric, err))
				continue
			}
			o.applyGrades(groupScores, &errs)
			scores = append(scores, groupScores...)
		}
	}

	return scores, errs
}

// applyGrades fills in the Grade of each score in place. Grading failures
// leave the "?" sentinel and are recorded, never fatal.
func (o *Orchestrator) applyGrades(scores []*domain.MarketScore, errs *[]string) {
	for _, s := range scores {
		metric, ok := s.ScoreType.Metric()
		if !ok {
			s.Grade = grading.GradeError
			*errs = append(*errs, fmt.Sprintf("grade %s/%s: unrecognized score type", s.MarketID, s.ScoreType))
			continue
		}

		var grade string
		var err error
		if s.ScoreType.IsRelative() {
			grade, err = grading.Relative(metric, s.Score)
		} else {
			grade, err = grading.Absolute(metric, s.Score)
		}
		s.Grade = grade
		if err != nil {
			*errs = append(*errs, fmt.Sprintf("grade %s/%s: %v", s.MarketID, s.ScoreType, err))
		}
	}
}

func (o *Orchestrator) now() int64 {
	if o.nowMs != nil {
		return o.nowMs()
	}
	return time.Now().UnixMilli()
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
