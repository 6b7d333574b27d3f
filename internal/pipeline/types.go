package pipeline

import (
	"github.com/plat-tools/platmaster/internal/extract"
	"github.com/plat-tools/platmaster/internal/ocr"
	"github.com/plat-tools/platmaster/internal/survey"
)

// PageResult records what happened to one processed page.
type PageResult struct {
	// PageNumber is the 1-based page number in the source PDF.
	PageNumber int `json:"page_number"`

	// Regions are the OCR text regions in detection order.
	Regions []ocr.Region `json:"regions,omitempty"`

	// Text is the aggregated page text handed to the extractor.
	Text string `json:"text"`

	// Status reports how extraction ended for this page.
	Status extract.Status `json:"status"`

	// Record is the page-level record, nil unless Status is StatusOK.
	Record *survey.DirectionalSurvey `json:"record,omitempty"`

	// Err carries the page-local failure, if any. Page failures never fail
	// the document.
	Err error `json:"-"`
}

// OK reports whether the page produced a usable record.
func (r PageResult) OK() bool { return r.Status == extract.StatusOK && r.Record != nil }

// DocumentResult is the outcome of processing one PDF document.
type DocumentResult struct {
	// Source is the input PDF path.
	Source string `json:"source"`

	// TotalPages is the number of pages rasterized from the document.
	TotalPages int `json:"total_pages"`

	// Pages holds per-page outcomes in processing order.
	Pages []PageResult `json:"pages"`

	// Record is the merged document-level survey.
	Record survey.DirectionalSurvey `json:"record"`

	// Warnings lists non-fatal issues such as skipped out-of-range pages.
	Warnings []string `json:"warnings,omitempty"`
}

// FailedPages returns the page numbers that did not yield a record.
func (d *DocumentResult) FailedPages() []int {
	var failed []int
	for _, p := range d.Pages {
		if !p.OK() {
			failed = append(failed, p.PageNumber)
		}
	}
	return failed
}
