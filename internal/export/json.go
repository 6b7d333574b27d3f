package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/plat-tools/platmaster/internal/survey"
)

// WriteJSON renders a survey as indented JSON. Fields the document never
// provided are omitted entirely rather than written as null.
func WriteJSON(w io.Writer, rec survey.DirectionalSurvey) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode survey json: %w", err)
	}
	return nil
}
