package pipeline

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/plat-tools/platmaster/internal/pdf"
	"github.com/plat-tools/platmaster/internal/utils"
)

// Artifact filenames follow page_<num> so a directory listing reads in page
// order.

// writePageArtifacts dumps the page image, a detection overlay, the aggregated
// transcript and the page record to the artifacts directory. Artifacts are
// best effort; failures are logged and never affect the pipeline result.
func (p *Pipeline) writePageArtifacts(page pdf.Page, pr PageResult) {
	if p.artifactsDir == "" {
		return
	}
	if err := os.MkdirAll(p.artifactsDir, 0o750); err != nil {
		p.log.Warn("artifacts dir", "dir", p.artifactsDir, "error", err)
		return
	}

	prefix := filepath.Join(p.artifactsDir, fmt.Sprintf("page_%03d", pr.PageNumber))

	if err := utils.SavePNG(prefix+".png", page.Image); err != nil {
		p.log.Warn("artifact write failed", "path", prefix+".png", "error", err)
	}
	if err := utils.SavePNG(prefix+"_overlay.png", p.renderOverlay(page.Image, pr)); err != nil {
		p.log.Warn("artifact write failed", "path", prefix+"_overlay.png", "error", err)
	}
	if err := os.WriteFile(prefix+".txt", []byte(pr.Text), 0o600); err != nil {
		p.log.Warn("artifact write failed", "path", prefix+".txt", "error", err)
	}
	if pr.Record != nil {
		writeJSONArtifact(p, prefix+".json", pr.Record)
	}
}

// writeDocumentArtifacts dumps the merged transcript and record.
func (p *Pipeline) writeDocumentArtifacts(result *DocumentResult) {
	if p.artifactsDir == "" {
		return
	}

	var transcript string
	for i, pr := range result.Pages {
		if i > 0 {
			transcript += "\n\n"
		}
		transcript += pr.Text
	}
	path := filepath.Join(p.artifactsDir, "document.txt")
	if err := os.WriteFile(path, []byte(transcript), 0o600); err != nil {
		p.log.Warn("artifact write failed", "path", path, "error", err)
	}
	writeJSONArtifact(p, filepath.Join(p.artifactsDir, "document.json"), result.Record)
}

func writeJSONArtifact(p *Pipeline, path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		p.log.Warn("artifact marshal failed", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		p.log.Warn("artifact write failed", "path", path, "error", err)
	}
}

// renderOverlay draws detection polygons over the page image with a
// confidence label per region.
func (p *Pipeline) renderOverlay(img image.Image, pr PageResult) image.Image {
	dst := utils.ToRGBA(img)
	boxCol := color.RGBA{R: 255, A: 255}
	labelCol := color.RGBA{R: 255, G: 255, A: 255}

	for _, region := range pr.Regions {
		pts := make([]image.Point, len(region.Polygon))
		for i, pt := range region.Polygon {
			pts[i] = image.Pt(int(pt.X), int(pt.Y))
		}
		utils.DrawPolygon(dst, pts, boxCol, 2)
		if len(pts) > 0 {
			label := fmt.Sprintf("%.2f", region.Confidence)
			utils.DrawLabel(dst, pts[0].X, pts[0].Y-4, label, labelCol)
		}
	}
	return dst
}
