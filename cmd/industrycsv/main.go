// Command industrycsv downloads the TSETMC industrial-group taxonomy and
// each group's member companies, then writes one CSV per industry plus a
// combined CSV (and optionally an Excel workbook) of every company row.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"tsecli/internal/config"
	"tsecli/internal/exporter"
	"tsecli/internal/infrastructure"
	"tsecli/internal/pipeline"
	"tsecli/internal/tsetmc"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to probing ./config.yaml)")
	outDir := flag.String("out", "", "directory for per-industry CSV files (overrides config)")
	combined := flag.String("combined", "", "path of the combined CSV (overrides config)")
	xlsx := flag.Bool("xlsx", false, "also write the combined rows as an Excel workbook")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *combined != "" {
		cfg.Paths.CombinedCSV = *combined
	}
	if *xlsx {
		cfg.Export.XLSX = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.WithTraceID(context.Background(), infrastructure.NewTraceID())

	logger.InfoContext(ctx, "industrycsv starting",
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.String("combined_csv", cfg.Paths.CombinedCSV),
		slog.Bool("xlsx", cfg.Export.XLSX))

	client := tsetmc.NewClient(cfg.HTTP, nil, logger)
	writer := exporter.NewCSVWriter(cfg.Export.BOM)
	runner := pipeline.NewRunner(client, writer, cfg, logger)

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "run failed",
			slog.String("error", err.Error()),
			slog.Int("files_written", len(summary.FilesWritten)))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "run completed",
		slog.Int("industries", summary.Industries),
		slog.Int("files_written", len(summary.FilesWritten)),
		slog.Int("total_companies", summary.TotalCompanies),
		slog.String("combined_csv", summary.CombinedCSV))
}
