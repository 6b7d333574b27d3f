package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plat-tools/platmaster/internal/export"
	"github.com/plat-tools/platmaster/internal/extract/openai"
	"github.com/plat-tools/platmaster/internal/pdf"
	"github.com/plat-tools/platmaster/internal/pipeline"
)

var (
	extractPages        string
	extractFormat       string
	extractOutput       string
	extractArtifactsDir string
	extractDropDir      string
	extractQuiet        bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <plat.pdf>",
	Short: "Extract a directional survey from a scanned plat PDF",
	Long: `Extract rasterizes the PDF, runs OCR on each selected page, sends the
transcripts to the extraction backend and merges the per-page records into a
single survey record. The result is written to stdout or --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractPages, "pages", "p", "",
		`page selection, e.g. "1,3-5" (default: all pages)`)
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "",
		"output format: csv or json (default from config)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "",
		"write the export to this file instead of stdout")
	extractCmd.Flags().StringVar(&extractArtifactsDir, "artifacts-dir", "",
		"write per-page debug artifacts (images, overlays, transcripts) here")
	extractCmd.Flags().StringVar(&extractDropDir, "drop-dir", "",
		"additionally deliver the CSV into this GIS watch directory")
	extractCmd.Flags().BoolVarP(&extractQuiet, "quiet", "q", false,
		"suppress progress output")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	pdfPath := args[0]

	selection, err := pdf.ParsePageRange(extractPages)
	if err != nil {
		return fmt.Errorf("invalid --pages: %w", err)
	}

	formatName := cfg.Output.Format
	if extractFormat != "" {
		formatName = extractFormat
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	outputFile := cfg.Output.File
	if extractOutput != "" {
		outputFile = extractOutput
	}
	artifactsDir := cfg.Output.ArtifactsDir
	if extractArtifactsDir != "" {
		artifactsDir = extractArtifactsDir
	}
	dropDir := cfg.Output.DropDir
	if extractDropDir != "" {
		dropDir = extractDropDir
	}

	extractor, err := openai.NewClient(cfg.ExtractorClientConfig(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}

	builder := pipeline.NewBuilder().
		WithOCRConfig(cfg.OCREngineConfig()).
		WithExtractor(extractor).
		WithArtifactsDir(artifactsDir)
	if !extractQuiet {
		builder = builder.WithProgress(pipeline.NewConsoleProgressCallback(os.Stderr, "pages"))
	}

	pl, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	result, err := pl.ProcessDocument(cmd.Context(), pdfPath, selection)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		slog.Warn(warning)
	}
	if failed := result.FailedPages(); len(failed) > 0 {
		slog.Warn("some pages did not extract cleanly", "pages", failed)
	}

	if outputFile != "" {
		if err := export.Save(outputFile, result.Record, format); err != nil {
			return err
		}
		slog.Info("export written", "path", outputFile, "format", format)
	} else {
		data, err := export.Encode(result.Record, format)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	}

	if dropDir != "" {
		stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
		dropped, err := export.DropToDir(dropDir, stem, result.Record)
		if err != nil {
			return fmt.Errorf("drop delivery: %w", err)
		}
		slog.Info("delivered to drop directory", "path", dropped)
	}
	return nil
}
