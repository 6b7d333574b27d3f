package merge

import (
	"encoding/json"
	"testing"

	"github.com/plat-tools/platmaster/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFirstNonEmptyWins(t *testing.T) {
	p1 := &survey.DirectionalSurvey{UWI: "ABC"}
	p2 := &survey.DirectionalSurvey{
		UWI:          "XYZ",
		SurveyPoints: []survey.SurveyPoint{{MD: 100, Inc: 1, Azi: 2, TVD: 99, NS: 10, EW: 20}},
	}

	m := New()
	m.AddPage(p1)
	m.AddPage(p2)
	doc := m.Finalize()

	assert.Equal(t, "ABC", doc.UWI, "earliest non-empty value is authoritative")
	require.Len(t, doc.SurveyPoints, 1)
	assert.Equal(t, 100.0, doc.SurveyPoints[0].MD)
}

func TestLaterPagesNeverOverride(t *testing.T) {
	p1 := &survey.DirectionalSurvey{UWI: "A", Operator: strPtr("Acme")}
	p2 := &survey.DirectionalSurvey{UWI: "A", Operator: strPtr("Globex")}

	m := New()
	m.AddPage(p1)
	m.AddPage(p2)
	doc := m.Finalize()

	require.NotNil(t, doc.Operator)
	assert.Equal(t, "Acme", *doc.Operator)
}

func TestPointsConcatenateInPageOrderWithoutDedup(t *testing.T) {
	pt := survey.SurveyPoint{MD: 500, Inc: 3, Azi: 180, TVD: 480, NS: -5, EW: 12}
	p1 := &survey.DirectionalSurvey{UWI: "A", SurveyPoints: []survey.SurveyPoint{pt, {MD: 600}}}
	p2 := &survey.DirectionalSurvey{UWI: "A", SurveyPoints: []survey.SurveyPoint{pt}}

	m := New()
	m.AddPage(p1)
	m.AddPage(p2)
	doc := m.Finalize()

	require.Len(t, doc.SurveyPoints, 3, "repeated continuation-page points are kept")
	assert.Equal(t, pt, doc.SurveyPoints[0])
	assert.Equal(t, 600.0, doc.SurveyPoints[1].MD)
	assert.Equal(t, pt, doc.SurveyPoints[2])
}

func TestFailedPageContributesNothing(t *testing.T) {
	m := New()
	m.AddPage(nil)
	m.AddPage(&survey.DirectionalSurvey{UWI: "W1"})
	m.AddPage(nil)
	doc := m.Finalize()

	assert.Equal(t, "W1", doc.UWI)
	assert.Empty(t, doc.SurveyPoints)
}

func TestEmptyMergeYieldsValidEmptyRecord(t *testing.T) {
	doc := New().Finalize()

	assert.Empty(t, doc.UWI)
	assert.NotNil(t, doc.SurveyPoints)
	assert.Empty(t, doc.SurveyPoints)

	b, err := json.Marshal(&doc)
	require.NoError(t, err)
	var asMap map[string]any
	require.NoError(t, json.Unmarshal(b, &asMap))
	for _, field := range survey.MetadataFields {
		if field == survey.FieldUWI {
			continue
		}
		assert.NotContains(t, asMap, field, "unobserved field %q must be omitted", field)
	}
}

func TestMergeIsDeterministicAndIdempotent(t *testing.T) {
	pages := []*survey.DirectionalSurvey{
		{UWI: "", County: strPtr("Reeves"), SurveyPoints: []survey.SurveyPoint{{MD: 1}}},
		{UWI: "W9", County: strPtr("Loving"), SurveyPoints: []survey.SurveyPoint{{MD: 2}}},
		nil,
		{UWI: "W0", Vendor: strPtr("DirSurv Inc"), SurveyPoints: nil},
	}

	run := func() []byte {
		m := New()
		for _, p := range pages {
			m.AddPage(p)
		}
		doc := m.Finalize()
		b, err := json.Marshal(&doc)
		require.NoError(t, err)
		return b
	}

	first := run()
	second := run()
	assert.Equal(t, string(first), string(second), "byte-identical output for identical inputs")
}

func TestReorderingPagesChangesMetadataDeterministically(t *testing.T) {
	p1 := &survey.DirectionalSurvey{UWI: "FIRST", SurveyPoints: []survey.SurveyPoint{{MD: 10}}}
	p2 := &survey.DirectionalSurvey{UWI: "SECOND", SurveyPoints: []survey.SurveyPoint{{MD: 20}}}

	forward := New()
	forward.AddPage(p1)
	forward.AddPage(p2)
	fd := forward.Finalize()

	backward := New()
	backward.AddPage(p2)
	backward.AddPage(p1)
	bd := backward.Finalize()

	assert.Equal(t, "FIRST", fd.UWI)
	assert.Equal(t, "SECOND", bd.UWI)
	assert.Equal(t, []float64{10, 20}, []float64{fd.SurveyPoints[0].MD, fd.SurveyPoints[1].MD})
	assert.Equal(t, []float64{20, 10}, []float64{bd.SurveyPoints[0].MD, bd.SurveyPoints[1].MD})
}
