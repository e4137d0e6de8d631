package reporting

import (
	"fmt"
	"strings"
)

// RenderMarketScoresCSV renders per-market scores as CSV string.
func RenderMarketScoresCSV(rows []MarketScoreRow) string {
	var sb strings.Builder

	sb.WriteString("market_id,platform,score_type,score,grade\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%s\n",
			r.MarketID, r.Platform, r.ScoreType, r.Score, r.Grade))
	}

	return sb.String()
}

// RenderPlatformScoresCSV renders platform aggregates as CSV string.
func RenderPlatformScoresCSV(rows []PlatformScoreRow) string {
	var sb strings.Builder

	sb.WriteString("platform,score_type,score,sample_fraction,markets\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%d\n",
			r.Platform, r.ScoreType, r.Score, r.SampleFraction, r.Markets))
	}

	return sb.String()
}

// RenderCalibrationCSV renders criterion samples joined with outcomes as CSV
// string, one row per (criterion, market).
func RenderCalibrationCSV(rows []CalibrationRow) string {
	var sb strings.Builder

	sb.WriteString("criterion,market_id,platform,prob,resolution\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f\n",
			r.Criterion, r.MarketID, r.Platform, r.Prob, r.Resolution))
	}

	return sb.String()
}
