package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plat-tools/platmaster/internal/config"
	"github.com/plat-tools/platmaster/internal/extract/openai"
	"github.com/plat-tools/platmaster/internal/pipeline"
)

// Processor is what the server needs from a pipeline.
type Processor interface {
	ProcessDocument(ctx context.Context, pdfPath string, selection []int) (*pipeline.DocumentResult, error)
	ProcessDocumentWithProgress(
		ctx context.Context, pdfPath string, selection []int, cb pipeline.ProgressCallback,
	) (*pipeline.DocumentResult, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	processor   Processor
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ExtractResponse wraps an extraction result for JSON responses.
type ExtractResponse struct {
	Success bool                     `json:"success"`
	Result  *pipeline.DocumentResult `json:"result,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// NewServer builds a server with a real pipeline from the application config.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	extractor, err := openai.NewClient(cfg.ExtractorClientConfig(), slog.Default())
	if err != nil {
		return nil, err
	}

	pl, err := pipeline.NewBuilder().
		WithOCRConfig(cfg.OCREngineConfig()).
		WithExtractor(extractor).
		WithArtifactsDir(cfg.Output.ArtifactsDir).
		Build()
	if err != nil {
		return nil, err
	}

	return newServerWithProcessor(pl, cfg, version), nil
}

// newServerWithProcessor wires an existing processor; tests stub it here.
func newServerWithProcessor(p Processor, cfg *config.Config, version string) *Server {
	return &Server{
		processor:   p,
		corsOrigin:  cfg.Server.CORSOrigin,
		maxUploadMB: int64(cfg.Server.MaxUploadMB),
		timeout:     time.Duration(cfg.Server.TimeoutSec) * time.Second,
		version:     version,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.processor != nil {
		return s.processor.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/extract", s.corsMiddleware(s.extractHandler))
	mux.HandleFunc("/v1/extract/ws", s.extractWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
