package survey

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValueRoundTrip(t *testing.T) {
	var d DirectionalSurvey

	for _, name := range MetadataFields {
		_, ok := d.MetadataValue(name)
		assert.False(t, ok, "field %q should start unset", name)
	}

	d.SetMetadataValue("operator", "Acme Energy")
	v, ok := d.MetadataValue("operator")
	require.True(t, ok)
	assert.Equal(t, "Acme Energy", v)

	d.SetMetadataValue(FieldUWI, "42-123-45678")
	v, ok = d.MetadataValue(FieldUWI)
	require.True(t, ok)
	assert.Equal(t, "42-123-45678", v)
	assert.Equal(t, "42-123-45678", d.UWI)
}

func TestMetadataValueEmptyIsUnset(t *testing.T) {
	var d DirectionalSurvey
	empty := ""
	d.Vendor = &empty

	_, ok := d.MetadataValue("vendor")
	assert.False(t, ok, "observed-as-empty must not count as a value during merge")
}

func TestMetadataValueUnknownField(t *testing.T) {
	var d DirectionalSurvey
	d.SetMetadataValue("bogus", "x") // must not panic
	_, ok := d.MetadataValue("bogus")
	assert.False(t, ok)
}

func TestFieldPtrCoversAllMetadataFields(t *testing.T) {
	var d DirectionalSurvey
	for _, name := range MetadataFields {
		if name == FieldUWI {
			continue
		}
		require.NotNil(t, d.fieldPtr(name), "field %q missing from fieldPtr", name)
	}
}

func TestNilMetadataOmittedFromJSON(t *testing.T) {
	d := DirectionalSurvey{UWI: "ABC", SurveyPoints: []SurveyPoint{}}
	op := "Acme"
	d.Operator = &op

	b, err := json.Marshal(&d)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "operator")
	assert.NotContains(t, m, "vendor", "never-observed fields must be omitted, not null")
}

func TestPointsByMDDoesNotMutate(t *testing.T) {
	d := DirectionalSurvey{
		SurveyPoints: []SurveyPoint{
			{MD: 300}, {MD: 100}, {MD: 200},
		},
	}

	sorted := d.PointsByMD()
	require.Len(t, sorted, 3)
	assert.Equal(t, 100.0, sorted[0].MD)
	assert.Equal(t, 200.0, sorted[1].MD)
	assert.Equal(t, 300.0, sorted[2].MD)

	// Stored order is canonical and untouched.
	assert.Equal(t, 300.0, d.SurveyPoints[0].MD)
	assert.Equal(t, 100.0, d.SurveyPoints[1].MD)
	assert.Equal(t, 200.0, d.SurveyPoints[2].MD)
}
