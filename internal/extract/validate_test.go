package extract

import (
	"encoding/json"
	"testing"

	"github.com/plat-tools/platmaster/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullRecord returns a record the way a strict structured-output backend
// emits it: every declared field present, unobserved ones explicit null.
func fullRecord(t *testing.T) map[string]any {
	t.Helper()
	rec := map[string]any{
		"uwi": "42-123-45678",
		"survey_points": []map[string]any{
			{"md": 100.0, "inc": 0.5, "azi": 182.3, "tvd": 99.9, "ns": -3.2, "ew": 11.0},
		},
	}
	for _, f := range survey.MetadataFields {
		if f == survey.FieldUWI {
			continue
		}
		rec[f] = nil
	}
	return rec
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestValidateAcceptsFullRecord(t *testing.T) {
	schema, err := CompileSchema(survey.BuildSchema())
	require.NoError(t, err)

	err = ValidateAgainstSchema(schema, mustJSON(t, fullRecord(t)))
	assert.NoError(t, err)
}

func TestValidateRejectsUnknownField(t *testing.T) {
	schema, err := CompileSchema(survey.BuildSchema())
	require.NoError(t, err)

	rec := fullRecord(t)
	rec["surface_elevation"] = "2740" // not in the declared schema
	err = ValidateAgainstSchema(schema, mustJSON(t, rec))
	assert.Error(t, err, "hallucinated field names must fail the page")
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	schema, err := CompileSchema(survey.BuildSchema())
	require.NoError(t, err)

	rec := fullRecord(t)
	delete(rec, "operator")
	err = ValidateAgainstSchema(schema, mustJSON(t, rec))
	assert.Error(t, err)
}

func TestValidateRejectsUnitBearingElevation(t *testing.T) {
	schema, err := CompileSchema(survey.BuildSchema())
	require.NoError(t, err)

	rec := fullRecord(t)
	rec["ground_level_elevation"] = "2740 ft"
	err = ValidateAgainstSchema(schema, mustJSON(t, rec))
	assert.Error(t, err, "elevation values must be bare numeric strings")

	rec["ground_level_elevation"] = "2740.5"
	assert.NoError(t, ValidateAgainstSchema(schema, mustJSON(t, rec)))
}

func TestValidateRejectsExtraPointField(t *testing.T) {
	schema, err := CompileSchema(survey.BuildSchema())
	require.NoError(t, err)

	rec := fullRecord(t)
	rec["survey_points"] = []map[string]any{
		{"md": 1.0, "inc": 2.0, "azi": 3.0, "tvd": 4.0, "ns": 5.0, "ew": 6.0, "dls": 0.1},
	}
	err = ValidateAgainstSchema(schema, mustJSON(t, rec))
	assert.Error(t, err)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	schema, err := CompileSchema(survey.BuildSchema())
	require.NoError(t, err)

	err = ValidateAgainstSchema(schema, []byte("{not json"))
	assert.Error(t, err)
}

func TestOutcomeTags(t *testing.T) {
	ok := Ok(&survey.DirectionalSurvey{UWI: "X"})
	assert.True(t, ok.OK())
	assert.Equal(t, "ok", ok.Status.String())

	vf := ValidationFailure(assert.AnError)
	assert.False(t, vf.OK())
	assert.Nil(t, vf.Record)
	assert.Equal(t, "validation_failed", vf.Status.String())

	bf := BackendFailure(assert.AnError)
	assert.False(t, bf.OK())
	assert.Equal(t, "backend_failed", bf.Status.String())
}
