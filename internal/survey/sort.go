package survey

import "sort"

// PointsByMD returns a copy of the survey points sorted by ascending measured
// depth. The stored order is page-extraction order and is canonical; sorting
// is a presentation-only view and must never mutate the record, since
// re-merges and re-exports rely on the stored order.
func (d *DirectionalSurvey) PointsByMD() []SurveyPoint {
	out := make([]SurveyPoint, len(d.SurveyPoints))
	copy(out, d.SurveyPoints)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MD < out[j].MD })
	return out
}
