package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plat-tools/platmaster/internal/survey"
)

func sampleRecord() survey.DirectionalSurvey {
	rec := survey.DirectionalSurvey{
		UWI: "42-123-45678",
		SurveyPoints: []survey.SurveyPoint{
			{MD: 0, Inc: 0, Azi: 0, TVD: 0, NS: 0, EW: 0},
			{MD: 1250.5, Inc: 12.25, Azi: 184.1, TVD: 1248.9, NS: -33.2, EW: 7.8},
		},
	}
	rec.SetMetadataValue("operator", "Acme Energy")
	rec.SetMetadataValue("county", "Reeves")
	return rec
}

func TestWriteCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecord()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per point")

	header := rows[0]
	assert.Equal(t, []string{"uwi", "md", "inc", "azi", "tvd", "ns", "ew"}, header[:7])
	// Metadata follows in canonical order, uwi not repeated.
	assert.Equal(t, "operator", header[7])
	assert.NotContains(t, header[7:], "uwi")
	assert.Len(t, header, 7+len(survey.MetadataFields)-1)
}

func TestWriteCSVRepeatsMetadataPerRow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecord()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	operatorCol := indexOf(t, rows[0], "operator")
	countyCol := indexOf(t, rows[0], "county")
	methodCol := indexOf(t, rows[0], "method")
	for _, row := range rows[1:] {
		assert.Equal(t, "42-123-45678", row[0])
		assert.Equal(t, "Acme Energy", row[operatorCol])
		assert.Equal(t, "Reeves", row[countyCol])
		assert.Equal(t, "", row[methodCol], "unobserved metadata renders empty")
	}
	assert.Equal(t, "1250.5", rows[2][1])
	assert.Equal(t, "-33.2", rows[2][5])
}

func TestWriteCSVNoPointsKeepsMetadataRow(t *testing.T) {
	rec := survey.DirectionalSurvey{UWI: "42-000-00000"}
	rec.SetMetadataValue("operator", "Acme Energy")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rec))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "42-000-00000", rows[1][0])
	assert.Equal(t, "", rows[1][1], "point columns empty")
}

func TestWriteJSONOmitsUnsetFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecord()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "operator")
	assert.NotContains(t, decoded, "vendor", "unset fields omitted, not null")
	assert.Contains(t, buf.String(), "\n  ", "indented output")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDropToDirAtomicDelivery(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "watch")
	path, err := DropToDir(dir, "42-123-45678", sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "42-123-45678.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "uwi,md,inc,azi,tvd,ns,ew"))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Save(path, sampleRecord(), FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec survey.DirectionalSurvey
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "42-123-45678", rec.UWI)
	assert.Len(t, rec.SurveyPoints, 2)
}

func indexOf(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q not found", name)
	return -1
}
