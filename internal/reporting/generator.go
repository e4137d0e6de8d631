package reporting

import (
	"context"
	"sort"
	"time"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

// gradeOrder lists every grade best to worst, with the error sentinel last.
var gradeOrder = []string{"S", "A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F", "?"}

// Generator produces reports from stored data.
type Generator struct {
	marketStore        storage.MarketStore
	marketScoreStore   storage.MarketScoreStore
	platformScoreStore storage.PlatformScoreStore
	dailyStore         storage.DailyProbabilityStore
	criterionStore     storage.CriterionProbabilityStore
	now                func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	marketStore storage.MarketStore,
	marketScoreStore storage.MarketScoreStore,
	platformScoreStore storage.PlatformScoreStore,
) *Generator {
	return &Generator{
		marketStore:        marketStore,
		marketScoreStore:   marketScoreStore,
		platformScoreStore: platformScoreStore,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTimeseriesStores adds the stores backing the date range and calibration
// sections. Without them those sections are left empty.
func (g *Generator) WithTimeseriesStores(
	dailyStore storage.DailyProbabilityStore,
	criterionStore storage.CriterionProbabilityStore,
) *Generator {
	g.dailyStore = dailyStore
	g.criterionStore = criterionStore
	return g
}

// Generate produces a complete score report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	markets, err := g.marketStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	marketScores, err := g.marketScoreStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	platformScores, err := g.platformScoreStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	dataSummary, err := g.generateDataSummary(ctx, markets, marketScores)
	if err != nil {
		return nil, err
	}

	calibration, err := g.generateCalibration(ctx, markets)
	if err != nil {
		return nil, err
	}

	// Count distinct platforms and score types
	platformSet := make(map[domain.Platform]struct{})
	scoreTypeSet := make(map[domain.ScoreType]struct{})
	for _, s := range marketScores {
		platformSet[s.Platform] = struct{}{}
		scoreTypeSet[s.ScoreType] = struct{}{}
	}

	return &Report{
		GeneratedAt:       g.now(),
		PlatformCount:     len(platformSet),
		ScoreTypeCount:    len(scoreTypeSet),
		DataSummary:       *dataSummary,
		PlatformScores:    generatePlatformRows(platformScores),
		GradeDistribution: generateGradeDistribution(marketScores),
		MarketScores:      generateMarketRows(marketScores),
		Calibration:       calibration,
	}, nil
}

// generateDataSummary computes data summary from markets and scores.
func (g *Generator) generateDataSummary(ctx context.Context, markets []*domain.Market, scores []*domain.MarketScore) (*DataSummary, error) {
	perPlatform := make(map[domain.Platform]int)
	for _, m := range markets {
		perPlatform[m.Platform]++
	}
	platforms := make([]domain.Platform, 0, len(perPlatform))
	for p := range perPlatform {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	rows := make([]PlatformCountRow, 0, len(platforms))
	for _, p := range platforms {
		rows = append(rows, PlatformCountRow{Platform: string(p), Markets: perPlatform[p]})
	}

	questionIDs, err := g.marketStore.ListQuestionIDs(ctx)
	if err != nil {
		return nil, err
	}

	// Date range across every market's daily series
	var rangeStart, rangeEnd int64
	if g.dailyStore != nil {
		for _, m := range markets {
			daily, err := g.dailyStore.GetByMarketID(ctx, m.ID)
			if err != nil {
				return nil, err
			}
			if len(daily) == 0 {
				continue
			}
			first, last := daily[0].TimestampMs, daily[len(daily)-1].TimestampMs
			if rangeStart == 0 || first < rangeStart {
				rangeStart = first
			}
			if last > rangeEnd {
				rangeEnd = last
			}
		}
	}

	return &DataSummary{
		TotalMarkets:       len(markets),
		MarketsPerPlatform: rows,
		QuestionGroups:     len(questionIDs),
		TotalMarketScores:  len(scores),
		DateRangeStart:     rangeStart,
		DateRangeEnd:       rangeEnd,
	}, nil
}

// generateCalibration joins each market's criterion samples with its outcome.
func (g *Generator) generateCalibration(ctx context.Context, markets []*domain.Market) ([]CalibrationRow, error) {
	if g.criterionStore == nil {
		return nil, nil
	}

	var rows []CalibrationRow
	for _, m := range markets {
		samples, err := g.criterionStore.GetByMarketID(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		for _, s := range samples {
			rows = append(rows, CalibrationRow{
				Criterion:  string(s.Criterion),
				MarketID:   m.ID,
				Platform:   string(m.Platform),
				Prob:       s.Prob,
				Resolution: m.Resolution,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Criterion != rows[j].Criterion {
			return rows[i].Criterion < rows[j].Criterion
		}
		return rows[i].MarketID < rows[j].MarketID
	})
	return rows, nil
}

func generatePlatformRows(scores []*domain.PlatformScore) []PlatformScoreRow {
	rows := make([]PlatformScoreRow, len(scores))
	for i, s := range scores {
		rows[i] = PlatformScoreRow{
			Platform:       string(s.Platform),
			ScoreType:      string(s.ScoreType),
			Score:          s.Score,
			SampleFraction: s.SampleFraction,
			Markets:        s.Markets,
		}
	}
	// Store order is already (platform, score_type); keep it stable here too.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Platform != rows[j].Platform {
			return rows[i].Platform < rows[j].Platform
		}
		return rows[i].ScoreType < rows[j].ScoreType
	})
	return rows
}

func generateMarketRows(scores []*domain.MarketScore) []MarketScoreRow {
	rows := make([]MarketScoreRow, len(scores))
	for i, s := range scores {
		rows[i] = MarketScoreRow{
			MarketID:  s.MarketID,
			Platform:  string(s.Platform),
			ScoreType: string(s.ScoreType),
			Score:     s.Score,
			Grade:     s.Grade,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MarketID != rows[j].MarketID {
			return rows[i].MarketID < rows[j].MarketID
		}
		return rows[i].ScoreType < rows[j].ScoreType
	})
	return rows
}

func generateGradeDistribution(scores []*domain.MarketScore) []GradeCountRow {
	counts := make(map[string]int)
	for _, s := range scores {
		counts[s.Grade]++
	}

	var rows []GradeCountRow
	for _, grade := range gradeOrder {
		if n, ok := counts[grade]; ok {
			rows = append(rows, GradeCountRow{Grade: grade, Count: n})
		}
	}
	return rows
}
