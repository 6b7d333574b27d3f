package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/plat-tools/platmaster/internal/merge"
	"github.com/plat-tools/platmaster/internal/pdf"
)

// ProcessDocument runs the full pipeline over one PDF. selection holds 1-based
// page numbers to process; nil or empty means all pages. Rasterization failure
// is fatal for the document; everything after that is page-local.
func (p *Pipeline) ProcessDocument(ctx context.Context, pdfPath string, selection []int) (*DocumentResult, error) {
	pages, err := pdf.ExtractPages(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
	}
	return p.ProcessPages(ctx, pdfPath, pages, selection)
}

// ProcessDocumentWithProgress is ProcessDocument with an extra per-request
// progress callback, reported alongside the pipeline's own.
func (p *Pipeline) ProcessDocumentWithProgress(
	ctx context.Context,
	pdfPath string,
	selection []int,
	cb ProgressCallback,
) (*DocumentResult, error) {
	pages, err := pdf.ExtractPages(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
	}
	return p.processPages(ctx, pdfPath, pages, selection, NewMultiProgressCallback(p.progress, cb))
}

// ProcessPages processes an already-rasterized document. Selected pages are
// visited in document order regardless of how the selection was written;
// numbers outside the document are recorded as warnings and skipped. An empty
// effective selection still yields a valid, empty merged record.
func (p *Pipeline) ProcessPages(
	ctx context.Context,
	source string,
	pages []pdf.Page,
	selection []int,
) (*DocumentResult, error) {
	return p.processPages(ctx, source, pages, selection, p.progress)
}

func (p *Pipeline) processPages(
	ctx context.Context,
	source string,
	pages []pdf.Page,
	selection []int,
	progress ProgressCallback,
) (*DocumentResult, error) {
	result := &DocumentResult{Source: source, TotalPages: len(pages)}

	selected, warnings := selectPages(pages, selection)
	result.Warnings = warnings
	for _, w := range warnings {
		p.log.Warn("page selection", "source", source, "warning", w)
	}

	merger := merge.New()
	progress.OnStart(len(selected))

	for i, page := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pr := p.processPage(ctx, page)
		if pr.Err != nil {
			p.log.Warn("page failed",
				"source", source, "page", pr.PageNumber,
				"status", pr.Status.String(), "error", pr.Err)
			progress.OnError(i+1, pr.Err)
		}
		merger.AddPage(pr.Record)
		result.Pages = append(result.Pages, pr)

		p.writePageArtifacts(page, pr)
		progress.OnProgress(i+1, len(selected))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Record = merger.Finalize()
	p.writeDocumentArtifacts(result)
	progress.OnComplete()

	p.log.Info("document processed",
		"source", source,
		"pages", len(result.Pages),
		"failed_pages", len(result.FailedPages()),
		"points", len(result.Record.SurveyPoints))
	return result, nil
}

// processPage recognizes and extracts a single page. OCR failure degrades to
// an empty transcript rather than failing the page outright; the extractor
// still gets a chance to report a clean empty record.
func (p *Pipeline) processPage(ctx context.Context, page pdf.Page) PageResult {
	pr := PageResult{PageNumber: page.Number}

	regions, err := p.engine.Recognize(ctx, page.Image)
	if err != nil {
		p.log.Warn("recognition failed, extracting empty transcript",
			"page", page.Number, "error", err)
	} else {
		pr.Regions = regions
	}
	pr.Text = JoinRegionText(pr.Regions)

	outcome := p.extractor.Extract(ctx, pr.Text)
	pr.Status = outcome.Status
	pr.Err = outcome.Err
	if outcome.OK() {
		pr.Record = outcome.Record
	}
	return pr
}

// selectPages resolves a page selection against the rasterized pages. The
// returned slice is in ascending page order with duplicates removed.
func selectPages(pages []pdf.Page, selection []int) ([]pdf.Page, []string) {
	if len(selection) == 0 {
		return pages, nil
	}

	byNumber := make(map[int]pdf.Page, len(pages))
	for _, pg := range pages {
		byNumber[pg.Number] = pg
	}

	seen := make(map[int]bool, len(selection))
	var selected []pdf.Page
	var warnings []string
	for _, num := range selection {
		if seen[num] {
			continue
		}
		seen[num] = true
		pg, ok := byNumber[num]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("page %d not in document, skipped", num))
			continue
		}
		selected = append(selected, pg)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Number < selected[j].Number })
	return selected, warnings
}
