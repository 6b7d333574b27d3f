package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/plat-tools/platmaster/internal/batch"
	"github.com/plat-tools/platmaster/internal/export"
	"github.com/plat-tools/platmaster/internal/extract/openai"
	"github.com/plat-tools/platmaster/internal/pdf"
	"github.com/plat-tools/platmaster/internal/pipeline"
)

var (
	batchRecursive       bool
	batchOutputDir       string
	batchFormat          string
	batchDropDir         string
	batchContinueOnError bool
	batchPages           string
	batchInclude         []string
	batchExclude         []string
)

var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Process files or directories of plat PDFs",
	Long: `Batch discovers PDF files under the given paths and runs each one
through the extraction pipeline, writing one export file per document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "r", false,
		"recurse into subdirectories")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "",
		"directory for per-document export files (default: current directory)")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "",
		"output format: csv or json (default from config)")
	batchCmd.Flags().StringVar(&batchDropDir, "drop-dir", "",
		"additionally deliver each CSV into this GIS watch directory")
	batchCmd.Flags().BoolVar(&batchContinueOnError, "continue-on-error", true,
		"keep processing after a document fails")
	batchCmd.Flags().StringVarP(&batchPages, "pages", "p", "",
		`page selection applied to every document, e.g. "1,3-5"`)
	batchCmd.Flags().StringSliceVar(&batchInclude, "include", nil,
		"only process files whose name matches one of these glob patterns")
	batchCmd.Flags().StringSliceVar(&batchExclude, "exclude", nil,
		"skip files whose name matches one of these glob patterns")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	selection, err := pdf.ParsePageRange(batchPages)
	if err != nil {
		return fmt.Errorf("invalid --pages: %w", err)
	}

	formatName := cfg.Output.Format
	if batchFormat != "" {
		formatName = batchFormat
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	outputDir := cfg.Batch.OutputDir
	if batchOutputDir != "" {
		outputDir = batchOutputDir
	}
	if outputDir == "" {
		outputDir = "."
	}

	dropDir := cfg.Output.DropDir
	if batchDropDir != "" {
		dropDir = batchDropDir
	}

	continueOnError := cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		continueOnError = batchContinueOnError
	}

	extractor, err := openai.NewClient(cfg.ExtractorClientConfig(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}

	pl, err := pipeline.NewBuilder().
		WithOCRConfig(cfg.OCREngineConfig()).
		WithExtractor(extractor).
		WithArtifactsDir(cfg.Output.ArtifactsDir).
		WithProgress(pipeline.NewLogProgressCallback(slog.Default(), slog.LevelDebug)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	result, err := batch.Run(cmd.Context(), pl, args, batch.Config{
		Recursive:       batchRecursive,
		IncludePatterns: batchInclude,
		ExcludePatterns: batchExclude,
		OutputDir:       outputDir,
		Format:          format,
		DropDir:         dropDir,
		ContinueOnError: continueOnError,
		Pages:           selection,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d documents: %d succeeded, %d failed (%s)\n",
		len(result.Outcomes), result.Succeeded, result.Failed,
		result.Duration.Round(time.Millisecond))
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", result.Failed, len(result.Outcomes))
	}
	return nil
}
