// Package extract turns a page's aggregated OCR text into a structured
// DirectionalSurvey record via a language-model backend. The backend is
// non-deterministic and prone to hallucinating field names, so its output is
// gated by strict schema validation; failures are typed and local to the
// page.
package extract

import (
	"context"

	"github.com/plat-tools/platmaster/internal/survey"
)

// Status tags the result of one page's extraction.
type Status int

const (
	// StatusOK means the backend returned a record that passed validation.
	StatusOK Status = iota
	// StatusValidationFailed means the backend answered but its output was
	// malformed or violated the closed schema (unknown field, missing
	// required field, bad type).
	StatusValidationFailed
	// StatusBackendFailed means the call itself failed (HTTP error, timeout,
	// undecodable response envelope).
	StatusBackendFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusValidationFailed:
		return "validation_failed"
	case StatusBackendFailed:
		return "backend_failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged per-page result. Callers branch on Status rather than
// catching errors: a failed page yields an empty contribution and processing
// continues with the next page.
type Outcome struct {
	Status Status
	Record *survey.DirectionalSurvey // non-nil iff Status == StatusOK
	Err    error                     // non-nil iff Status != StatusOK
}

// OK reports whether the page produced a usable record.
func (o Outcome) OK() bool { return o.Status == StatusOK && o.Record != nil }

// Ok wraps a validated record.
func Ok(rec *survey.DirectionalSurvey) Outcome {
	return Outcome{Status: StatusOK, Record: rec}
}

// ValidationFailure marks a schema or decode rejection of backend output.
func ValidationFailure(err error) Outcome {
	return Outcome{Status: StatusValidationFailed, Err: err}
}

// BackendFailure marks a failed backend call.
func BackendFailure(err error) Outcome {
	return Outcome{Status: StatusBackendFailed, Err: err}
}

// Extractor converts aggregated page text into a structured record. The
// target schema is fixed at construction time. Implementations must treat
// every failure as page-local: Extract never panics and the returned Outcome
// carries the failure kind.
type Extractor interface {
	Extract(ctx context.Context, documentText string) Outcome
}
