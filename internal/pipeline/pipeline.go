package pipeline

import (
	"errors"
	"log/slog"

	"github.com/plat-tools/platmaster/internal/extract"
	"github.com/plat-tools/platmaster/internal/ocr"
)

// Pipeline drives a document end to end: rasterize pages, recognize text,
// extract structured records, merge them. One pipeline holds one long-lived
// OCR engine; the engine serializes its own inference, so a pipeline is safe
// for concurrent use.
type Pipeline struct {
	engine       ocr.Engine
	extractor    extract.Extractor
	artifactsDir string
	progress     ProgressCallback
	ownsEngine   bool
	log          *slog.Logger
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	ocrConfig    ocr.Config
	engine       ocr.Engine
	extractor    extract.Extractor
	artifactsDir string
	progress     ProgressCallback
	logger       *slog.Logger
}

// NewBuilder creates a pipeline builder with OCR defaults.
func NewBuilder() *Builder {
	return &Builder{ocrConfig: ocr.DefaultConfig()}
}

// WithOCRConfig replaces the OCR engine configuration.
func (b *Builder) WithOCRConfig(cfg ocr.Config) *Builder {
	b.ocrConfig = cfg
	return b
}

// WithEngine injects a pre-built OCR engine. The pipeline will not close an
// injected engine; the caller keeps ownership.
func (b *Builder) WithEngine(engine ocr.Engine) *Builder {
	b.engine = engine
	return b
}

// WithExtractor sets the structured extraction backend.
func (b *Builder) WithExtractor(ex extract.Extractor) *Builder {
	b.extractor = ex
	return b
}

// WithArtifactsDir enables debug artifacts (page images, overlays, per-page
// text and records) under the given directory.
func (b *Builder) WithArtifactsDir(dir string) *Builder {
	b.artifactsDir = dir
	return b
}

// WithProgress sets the progress reporter for page processing.
func (b *Builder) WithProgress(cb ProgressCallback) *Builder {
	b.progress = cb
	return b
}

// WithLogger sets the pipeline logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and constructs the pipeline. When no
// engine was injected, a fresh engine is created from the OCR config and owned
// (closed) by the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.extractor == nil {
		return nil, errors.New("pipeline requires an extractor")
	}

	p := &Pipeline{
		engine:       b.engine,
		extractor:    b.extractor,
		artifactsDir: b.artifactsDir,
		progress:     b.progress,
		log:          b.logger,
	}
	if p.progress == nil {
		p.progress = NoOpProgressCallback{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}

	if p.engine == nil {
		engine, err := ocr.NewEngine(b.ocrConfig)
		if err != nil {
			return nil, err
		}
		p.engine = engine
		p.ownsEngine = true
	}
	return p, nil
}

// Close releases the OCR engine if the pipeline owns it.
func (p *Pipeline) Close() error {
	if p.ownsEngine && p.engine != nil {
		return p.engine.Close()
	}
	return nil
}
