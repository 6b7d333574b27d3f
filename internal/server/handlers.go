package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plat-tools/platmaster/internal/export"
	"github.com/plat-tools/platmaster/internal/pdf"
	"github.com/plat-tools/platmaster/internal/pipeline"
)

// healthHandler reports service liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}

// extractHandler processes an uploaded plat PDF and returns the merged survey.
// Form fields: pdf (file, required), pages (optional selection like "1-3"),
// format (csv or json, default json).
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, selection, err := s.parseExtractRequest(w, r)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		return // error already written
	}
	defer func() { _ = file.Close() }()

	// pdfcpu works on files, so spool the upload to disk.
	tmpPath, cleanup, err := spoolUpload(file, header.Filename)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to store upload: %v", err), http.StatusInternalServerError)
		extractionsTotal.WithLabelValues("error").Inc()
		return
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.processor.ProcessDocument(ctx, tmpPath, selection)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Extraction failed: %v", err), http.StatusInternalServerError)
		return
	}

	extractionsTotal.WithLabelValues("success").Inc()
	extractionDuration.Observe(time.Since(start).Seconds())
	pagesProcessed.Observe(float64(len(result.Pages)))
	pointsExtracted.Observe(float64(len(result.Record.SurveyPoints)))

	s.writeExtractResponse(w, r, result)
}

func (s *Server) parseExtractRequest(
	w http.ResponseWriter,
	r *http.Request,
) (multipart.File, *multipart.FileHeader, []int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.handleFormParseError(w, err)
		return nil, nil, nil, err
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.writeErrorResponse(w, "No PDF file provided", http.StatusBadRequest)
		return nil, nil, nil, err
	}

	if header.Size > s.maxUploadMB*1024*1024 {
		_ = file.Close()
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, nil, nil, fmt.Errorf("upload of %d bytes exceeds limit", header.Size)
	}
	uploadSizeBytes.Observe(float64(header.Size))

	selection, err := pdf.ParsePageRange(r.FormValue("pages"))
	if err != nil {
		_ = file.Close()
		s.writeErrorResponse(w, fmt.Sprintf("Invalid pages parameter: %v", err), http.StatusBadRequest)
		return nil, nil, nil, err
	}
	return file, header, selection, nil
}

func (s *Server) handleFormParseError(w http.ResponseWriter, err error) {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "body too large") || strings.Contains(msg, "request body too large") {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
	} else {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
	}
}

func (s *Server) writeExtractResponse(w http.ResponseWriter, r *http.Request, result *pipeline.DocumentResult) {
	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}

	if format == string(export.FormatCSV) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := export.WriteCSV(w, result.Record); err != nil {
			slog.Error("failed to write csv response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := ExtractResponse{Success: true, Result: result}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode extract response", "error", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := ExtractResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// spoolUpload copies an uploaded file to a temp path and returns it with a
// cleanup func.
func spoolUpload(file io.Reader, originalName string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "plat-upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	name := filepath.Base(originalName)
	if name == "" || name == "." {
		name = "upload.pdf"
	}
	path := filepath.Join(dir, name)

	dst, err := os.Create(path) //nolint:gosec // G304: path is inside our temp dir
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, err
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
