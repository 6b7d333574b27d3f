// Package batch processes directories of plat PDFs through the extraction
// pipeline.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plat-tools/platmaster/internal/export"
	"github.com/plat-tools/platmaster/internal/pipeline"
)

// Processor is the slice of the pipeline batch processing needs.
type Processor interface {
	ProcessDocument(ctx context.Context, pdfPath string, selection []int) (*pipeline.DocumentResult, error)
}

// Config controls a batch run.
type Config struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// OutputDir receives one export file per document. Empty disables
	// per-document files.
	OutputDir string
	Format    export.Format

	// DropDir additionally delivers each merged record as CSV into a GIS
	// watch directory.
	DropDir string

	// ContinueOnError keeps the run going past per-document failures.
	ContinueOnError bool

	// Pages restricts every document to this page selection.
	Pages []int
}

// DocumentOutcome is the result of one document in a batch.
type DocumentOutcome struct {
	Path       string
	Result     *pipeline.DocumentResult
	OutputPath string
	Err        error
}

// Result summarizes a batch run.
type Result struct {
	Outcomes  []DocumentOutcome
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Run discovers PDFs under the given paths and processes them sequentially.
// The OCR engine serializes inference anyway, so there is nothing to gain
// from document-level parallelism here.
func Run(ctx context.Context, p Processor, paths []string, cfg Config) (*Result, error) {
	files, err := discoverPDFFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover PDF files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no PDF files found")
	}

	if cfg.Format == "" {
		cfg.Format = export.FormatCSV
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	start := time.Now()
	result := &Result{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := processOne(ctx, p, file, cfg)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Err != nil {
			result.Failed++
			slog.Error("document failed", "path", file, "error", outcome.Err)
			if !cfg.ContinueOnError {
				result.Duration = time.Since(start)
				return result, fmt.Errorf("processing %s: %w", file, outcome.Err)
			}
			continue
		}
		result.Succeeded++
	}
	result.Duration = time.Since(start)

	slog.Info("batch complete",
		"documents", len(files),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"elapsed", result.Duration.Round(time.Millisecond))
	return result, nil
}

func processOne(ctx context.Context, p Processor, path string, cfg Config) DocumentOutcome {
	outcome := DocumentOutcome{Path: path}

	res, err := p.ProcessDocument(ctx, path, cfg.Pages)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Result = res

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if cfg.OutputDir != "" {
		outPath := filepath.Join(cfg.OutputDir, stem+"."+string(cfg.Format))
		if err := export.Save(outPath, res.Record, cfg.Format); err != nil {
			outcome.Err = fmt.Errorf("export %s: %w", outPath, err)
			return outcome
		}
		outcome.OutputPath = outPath
	}

	if cfg.DropDir != "" {
		if _, err := export.DropToDir(cfg.DropDir, stem, res.Record); err != nil {
			outcome.Err = fmt.Errorf("drop delivery: %w", err)
			return outcome
		}
	}
	return outcome
}
