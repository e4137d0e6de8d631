package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"forecast-lab/internal/observability"
	"forecast-lab/internal/reporting"
)

// GeneratorVersion identifies the report generator for reproducibility.
const GeneratorVersion = "1.0.0"

// ScorePipeline orchestrates report generation and output file writing.
type ScorePipeline struct {
	reportGen          *reporting.Generator
	sufficiencyChecker *SufficiencyChecker
	outputDir          string
	clock              func() time.Time
	runID              string
	runErrors          []string // errors carried over from the scoring run
	dataSource         string   // "fixtures" or "db" for the rerun command
	postgresDSN        string
	clickhouseDSN      string
}

// NewScorePipeline creates a new pipeline writing to outputDir.
func NewScorePipeline(reportGen *reporting.Generator, outputDir string) *ScorePipeline {
	return &ScorePipeline{
		reportGen: reportGen,
		outputDir: outputDir,
		clock:     func() time.Time { return time.Now().UTC() },
		runID:     uuid.NewString(),
	}
}

// WithSufficiencyChecker adds a sufficiency checker to the pipeline.
func (p *ScorePipeline) WithSufficiencyChecker(c *SufficiencyChecker) *ScorePipeline {
	p.sufficiencyChecker = c
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *ScorePipeline) WithClock(clock func() time.Time) *ScorePipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithRunID overrides the generated run ID, for deterministic output.
func (p *ScorePipeline) WithRunID(id string) *ScorePipeline {
	p.runID = id
	return p
}

// WithRunErrors records per-market errors from the scoring run so they appear
// in the report's integrity section.
func (p *ScorePipeline) WithRunErrors(errors []string) *ScorePipeline {
	p.runErrors = append(p.runErrors, errors...)
	return p
}

// WithDataSource sets the data source for reproducibility metadata.
// Use "fixtures" for fixture mode. For DB mode, use WithDBSource instead.
func (p *ScorePipeline) WithDataSource(source string) *ScorePipeline {
	p.dataSource = source
	return p
}

// WithDBSource sets the data source to DB mode with actual DSN values for the
// rerun command.
func (p *ScorePipeline) WithDBSource(postgresDSN, clickhouseDSN string) *ScorePipeline {
	p.dataSource = "db"
	p.postgresDSN = postgresDSN
	p.clickhouseDSN = clickhouseDSN
	return p
}

// Run generates the report and writes output files:
// - REPORT.md
// - market_scores.csv
// - platform_scores.csv
// - calibration.csv
func (p *ScorePipeline) Run(ctx context.Context) error {
	start := time.Now()
	status := "error"
	defer func() {
		observability.RecordPipelineRun("report", status, time.Since(start).Seconds())
	}()

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return err
	}

	// 1. Sufficiency checks first (if configured)
	var dataQuality reporting.DataQualitySection
	if p.sufficiencyChecker != nil {
		suffResult, err := p.sufficiencyChecker.Check(ctx)
		if err != nil {
			return err
		}
		dataQuality = convertToDataQuality(suffResult)
	} else {
		dataQuality.AllChecksPassed = true
	}

	// Merge errors carried over from the scoring run
	if len(p.runErrors) > 0 {
		dataQuality.IntegrityErrors = append(dataQuality.IntegrityErrors, p.runErrors...)
		dataQuality.AllChecksPassed = false
	}

	// 2. Generate the report
	report, err := p.reportGen.Generate(ctx)
	if err != nil {
		return err
	}
	report.DataQuality = dataQuality

	// 3. Reproducibility metadata (needs score rows for the data version)
	report.Reproducibility = reporting.ReproducibilityMetadata{
		ReportTimestamp:  p.clock(),
		RunID:            p.runID,
		GeneratorVersion: GeneratorVersion,
		DataVersion:      computeDataVersion(report),
		CommitHash:       getGitCommitHash(),
		RerunCommand:     p.buildRerunCommand(),
	}

	// 4. Write REPORT.md
	reportMD := reporting.RenderMarkdown(report)
	reportPath := filepath.Join(p.outputDir, "REPORT.md")
	if err := os.WriteFile(reportPath, []byte(reportMD), 0644); err != nil {
		return err
	}

	// 5. Write market_scores.csv
	marketCSV := reporting.RenderMarketScoresCSV(report.MarketScores)
	if err := os.WriteFile(filepath.Join(p.outputDir, "market_scores.csv"), []byte(marketCSV), 0644); err != nil {
		return err
	}

	// 6. Write platform_scores.csv
	platformCSV := reporting.RenderPlatformScoresCSV(report.PlatformScores)
	if err := os.WriteFile(filepath.Join(p.outputDir, "platform_scores.csv"), []byte(platformCSV), 0644); err != nil {
		return err
	}

	// 7. Write calibration.csv
	calibrationCSV := reporting.RenderCalibrationCSV(report.Calibration)
	if err := os.WriteFile(filepath.Join(p.outputDir, "calibration.csv"), []byte(calibrationCSV), 0644); err != nil {
		return err
	}

	observability.RecordReportGenerated()
	status = "success"
	return nil
}

// buildRerunCommand returns the command to reproduce this report.
func (p *ScorePipeline) buildRerunCommand() string {
	switch p.dataSource {
	case "db":
		return fmt.Sprintf("go run cmd/report/main.go --postgres-dsn %q --clickhouse-dsn %q",
			p.postgresDSN, p.clickhouseDSN)
	default:
		return "go run cmd/report/main.go --use-fixtures"
	}
}

// computeDataVersion computes a short SHA256 hash over every score row so a
// rerun on the same data yields the same version.
func computeDataVersion(report *reporting.Report) string {
	h := sha256.New()

	var marketParts []string
	for _, s := range report.MarketScores {
		marketParts = append(marketParts, fmt.Sprintf("%s|%s|%s|%.6f|%s",
			s.MarketID, s.Platform, s.ScoreType, s.Score, s.Grade))
	}
	sort.Strings(marketParts)
	h.Write([]byte("MARKET_SCORES\n"))
	h.Write([]byte(strings.Join(marketParts, "\n")))

	var platformParts []string
	for _, s := range report.PlatformScores {
		platformParts = append(platformParts, fmt.Sprintf("%s|%s|%.6f|%.6f|%d",
			s.Platform, s.ScoreType, s.Score, s.SampleFraction, s.Markets))
	}
	sort.Strings(platformParts)
	h.Write([]byte("\nPLATFORM_SCORES\n"))
	h.Write([]byte(strings.Join(platformParts, "\n")))

	return hex.EncodeToString(h.Sum(nil))[:12] // short hash
}

// getGitCommitHash returns current git commit hash or "unknown" if not in a
// git repo.
func getGitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}

// convertToDataQuality converts SufficiencyResult to reporting.DataQualitySection.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		SufficiencyChecks: checks,
		IntegrityErrors:   result.Errors,
		AllChecksPassed:   result.AllPass,
	}
}
