package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/plat-tools/platmaster/internal/survey"
)

// WriteCSV renders a survey as the flat table GIS tooling ingests. The column
// order is fixed: uwi, the point fields, then the remaining metadata fields.
// Point values vary per row; uwi and metadata repeat on every row. Metadata
// the document never provided renders as an empty cell.
func WriteCSV(w io.Writer, rec survey.DirectionalSurvey) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+len(survey.PointFields)+len(survey.MetadataFields)-1)
	header = append(header, survey.FieldUWI)
	header = append(header, survey.PointFields...)
	for _, f := range survey.MetadataFields {
		if f == survey.FieldUWI {
			continue
		}
		header = append(header, f)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	meta := make([]string, 0, len(survey.MetadataFields)-1)
	for _, f := range survey.MetadataFields {
		if f == survey.FieldUWI {
			continue
		}
		v, _ := rec.MetadataValue(f)
		meta = append(meta, v)
	}

	rows := rec.SurveyPoints
	if len(rows) == 0 {
		// A record without points still carries its metadata.
		row := append(append([]string{rec.UWI}, make([]string, len(survey.PointFields))...), meta...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	for _, pt := range rows {
		row := make([]string, 0, len(header))
		row = append(row, rec.UWI)
		row = append(row,
			formatFloat(pt.MD),
			formatFloat(pt.Inc),
			formatFloat(pt.Azi),
			formatFloat(pt.TVD),
			formatFloat(pt.NS),
			formatFloat(pt.EW),
		)
		row = append(row, meta...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
