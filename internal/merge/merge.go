// Package merge folds per-page extraction results into one document-level
// DirectionalSurvey. Survey points are concatenated in page order; scalar
// metadata is resolved first-non-empty-wins in page order. The merge is fully
// deterministic for fixed inputs.
package merge

import "github.com/plat-tools/platmaster/internal/survey"

// Merger accumulates per-page results for a single document. It is a mutable
// scratch structure; Finalize freezes it into the document record. One
// document has exactly one Merger and no concurrent writers.
type Merger struct {
	points []survey.SurveyPoint
	meta   map[string]string
}

// New returns an empty Merger.
func New() *Merger {
	return &Merger{meta: make(map[string]string, len(survey.MetadataFields))}
}

// AddPage folds one page's extraction result into the accumulator. A nil
// record marks a failed page and contributes nothing; processing of later
// pages is unaffected. Points are appended as-is: a point repeated verbatim
// on a continuation page is kept twice, since no dedup key exists.
func (m *Merger) AddPage(rec *survey.DirectionalSurvey) {
	if rec == nil {
		return
	}
	m.points = append(m.points, rec.SurveyPoints...)
	for _, field := range survey.MetadataFields {
		if _, seen := m.meta[field]; seen {
			continue
		}
		if v, ok := rec.MetadataValue(field); ok {
			m.meta[field] = v
		}
	}
}

// Finalize freezes the accumulated state into a document record. Fields never
// observed on any page are left nil and disappear from serialized output,
// which is distinct from an observed-but-empty value. A document where every
// page failed yields a valid empty record, not an error.
func (m *Merger) Finalize() survey.DirectionalSurvey {
	var doc survey.DirectionalSurvey
	doc.SurveyPoints = make([]survey.SurveyPoint, len(m.points))
	copy(doc.SurveyPoints, m.points)
	for _, field := range survey.MetadataFields {
		if v, ok := m.meta[field]; ok {
			doc.SetMetadataValue(field, v)
		}
	}
	return doc
}

// PointCount reports how many survey points have been accumulated so far.
func (m *Merger) PointCount() int { return len(m.points) }
