package pipeline

import (
	"strings"

	"github.com/plat-tools/platmaster/internal/ocr"
)

// JoinRegionText aggregates recognized regions into the page text handed to
// the extractor: one line per region, in detection order, joined by newlines.
// No reordering, dedup or whitespace collapsing happens here; the text is a
// lossless transcript of what the recognizer produced.
func JoinRegionText(regions []ocr.Region) string {
	if len(regions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(regions))
	for _, r := range regions {
		lines = append(lines, r.Text)
	}
	return strings.Join(lines, "\n")
}
