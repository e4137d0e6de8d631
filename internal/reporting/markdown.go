package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Forecast Score Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Platforms: %d | Score types: %d\n\n", r.PlatformCount, r.ScoreTypeCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Markets | %d |\n", r.DataSummary.TotalMarkets))
	for _, row := range r.DataSummary.MarketsPerPlatform {
		sb.WriteString(fmt.Sprintf("| %s Markets | %d |\n", row.Platform, row.Markets))
	}
	sb.WriteString(fmt.Sprintf("| Question Groups | %d |\n", r.DataSummary.QuestionGroups))
	sb.WriteString(fmt.Sprintf("| Total Market Scores | %d |\n", r.DataSummary.TotalMarketScores))
	sb.WriteString(fmt.Sprintf("| Date Range Start (ms) | %d |\n", r.DataSummary.DateRangeStart))
	sb.WriteString(fmt.Sprintf("| Date Range End (ms) | %d |\n", r.DataSummary.DateRangeEnd))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Scores below may be incomplete.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Integrity errors (always shown if present, even without sufficiency checks)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Platform Scores
	sb.WriteString("## Platform Scores\n\n")
	if len(r.PlatformScores) > 0 {
		sb.WriteString("| Platform | Score Type | Score | Sample Fraction | Markets |\n")
		sb.WriteString("|----------|-----------|-------|-----------------|--------|\n")
		for _, s := range r.PlatformScores {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %d |\n",
				s.Platform, s.ScoreType, s.Score, s.SampleFraction, s.Markets))
		}
	} else {
		sb.WriteString("No platform scores available.\n")
	}
	sb.WriteString("\n")

	// Grade Distribution
	sb.WriteString("## Grade Distribution\n\n")
	if len(r.GradeDistribution) > 0 {
		sb.WriteString("| Grade | Count |\n")
		sb.WriteString("|-------|-------|\n")
		for _, g := range r.GradeDistribution {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", g.Grade, g.Count))
		}
	} else {
		sb.WriteString("No graded scores available.\n")
	}
	sb.WriteString("\n")

	// Market Scores
	sb.WriteString("## Market Scores\n\n")
	if len(r.MarketScores) > 0 {
		sb.WriteString("| Market | Platform | Score Type | Score | Grade |\n")
		sb.WriteString("|--------|----------|-----------|-------|-------|\n")
		for _, m := range r.MarketScores {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %s |\n",
				m.MarketID, m.Platform, m.ScoreType, m.Score, m.Grade))
		}
	} else {
		sb.WriteString("No market scores available.\n")
	}
	sb.WriteString("\n")

	// Reproducibility
	sb.WriteString("## Reproducibility\n\n")
	sb.WriteString(fmt.Sprintf("- Run ID: %s\n", r.Reproducibility.RunID))
	sb.WriteString(fmt.Sprintf("- Report Timestamp: %s\n", r.Reproducibility.ReportTimestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- Generator Version: %s\n", r.Reproducibility.GeneratorVersion))
	sb.WriteString(fmt.Sprintf("- Data Version: %s\n", r.Reproducibility.DataVersion))
	sb.WriteString(fmt.Sprintf("- Commit Hash: %s\n", r.Reproducibility.CommitHash))
	sb.WriteString(fmt.Sprintf("- Rerun Command: `%s`\n", r.Reproducibility.RerunCommand))

	return sb.String()
}
