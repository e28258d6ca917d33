// Package pipeline sequences the extract-transform-load run: fetch the
// industry taxonomy, fetch each industry's companies, write per-industry
// CSV files and aggregate everything into the combined outputs.
//
// Execution is strictly sequential and fails fast: an error on any
// industry aborts the remainder of the run. Files already flushed to disk
// stay where they are. Empty results are not errors; they are logged and
// the run completes successfully without the corresponding files.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"tsecli/internal/config"
	"tsecli/internal/exporter"
	"tsecli/internal/tsetmc"
)

// Step identifiers.
const (
	StepIDIndustries = "industries"
	StepIDCompanies  = "companies"
	StepIDCombined   = "combined"
)

// Fetcher is the slice of the TSETMC client the pipeline depends on.
type Fetcher interface {
	Industries(ctx context.Context) ([]tsetmc.Industry, error)
	RelatedCompanies(ctx context.Context, code string) ([]tsetmc.Company, error)
}

// Summary aggregates the result of one run.
type Summary struct {
	Industries     int
	FilesWritten   []string
	TotalCompanies int
	CombinedCSV    string
	CombinedXLSX   string
	Steps          []*StepState
}

// Runner executes the pipeline.
type Runner struct {
	fetcher Fetcher
	writer  *exporter.CSVWriter
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default.
func NewRunner(fetcher Fetcher, writer *exporter.CSVWriter, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{fetcher: fetcher, writer: writer, cfg: cfg, logger: logger}
}

// Run executes the full pipeline and returns a summary of what was
// written. The returned Summary is valid even on error and describes the
// work completed before the failure.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{}

	industriesStep := NewStepState(StepIDIndustries, "Industry Taxonomy")
	companiesStep := NewStepState(StepIDCompanies, "Company Lists")
	combinedStep := NewStepState(StepIDCombined, "Combined Output")
	summary.Steps = []*StepState{industriesStep, companiesStep, combinedStep}

	industriesStep.Start()
	industries, err := r.fetcher.Industries(ctx)
	if err != nil {
		industriesStep.Fail(err)
		return summary, fmt.Errorf("load industries: %w", err)
	}
	summary.Industries = len(industries)
	industriesStep.Complete(fmt.Sprintf("%d industrial groups", len(industries)))

	if len(industries) == 0 {
		r.logger.InfoContext(ctx, "no industries found")
		companiesStep.Skip("no industries")
		combinedStep.Skip("no industries")
		return summary, nil
	}

	r.logger.InfoContext(ctx, "industry taxonomy loaded",
		slog.Int("count", len(industries)),
		slog.Duration("elapsed", industriesStep.Duration()))

	companiesStep.Start()
	var combined []tsetmc.CompanyRow
	for i, ind := range industries {
		companies, err := r.fetcher.RelatedCompanies(ctx, ind.Code)
		if err != nil {
			companiesStep.Fail(err)
			return summary, fmt.Errorf("load companies for industry %s: %w", ind.Code, err)
		}
		if len(companies) == 0 {
			r.logger.InfoContext(ctx, "industry has no companies, skipping file",
				slog.Int("index", i+1),
				slog.Int("total", len(industries)),
				slog.String("industry", ind.Name),
				slog.String("code", ind.Code))
			continue
		}

		path, err := r.writer.WriteIndustryCSV(ind.Name, companies, r.cfg.Paths.OutputDir)
		if err != nil {
			companiesStep.Fail(err)
			return summary, fmt.Errorf("write industry csv for %s: %w", ind.Code, err)
		}
		summary.FilesWritten = append(summary.FilesWritten, path)

		for _, c := range companies {
			combined = append(combined, tsetmc.CompanyRow{
				Industry: ind.Name,
				ID:       c.ID,
				Symbol:   c.Symbol,
				Name:     c.Name,
			})
		}

		r.logger.InfoContext(ctx, "industry exported",
			slog.Int("index", i+1),
			slog.Int("total", len(industries)),
			slog.String("industry", ind.Name),
			slog.String("code", ind.Code),
			slog.Int("companies", len(companies)),
			slog.String("path", path))
	}
	summary.TotalCompanies = len(combined)
	companiesStep.Complete(fmt.Sprintf("%d companies across %d files", len(combined), len(summary.FilesWritten)))

	if len(combined) == 0 {
		r.logger.InfoContext(ctx, "no companies collected")
		combinedStep.Skip("no companies collected")
		return summary, nil
	}

	combinedStep.Start()
	if err := r.writer.WriteCombinedCSV(combined, r.cfg.Paths.CombinedCSV); err != nil {
		combinedStep.Fail(err)
		return summary, fmt.Errorf("write combined csv: %w", err)
	}
	summary.CombinedCSV = r.cfg.Paths.CombinedCSV

	if r.cfg.Export.XLSX {
		if err := exporter.WriteCombinedXLSX(combined, r.cfg.Paths.CombinedXLSX); err != nil {
			combinedStep.Fail(err)
			return summary, fmt.Errorf("write combined xlsx: %w", err)
		}
		summary.CombinedXLSX = r.cfg.Paths.CombinedXLSX
	}
	combinedStep.Complete(fmt.Sprintf("%d rows", len(combined)))

	r.logger.InfoContext(ctx, "combined output written",
		slog.String("csv", summary.CombinedCSV),
		slog.String("xlsx", summary.CombinedXLSX),
		slog.Int("total_rows", len(combined)))

	return summary, nil
}
