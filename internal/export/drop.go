package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plat-tools/platmaster/internal/survey"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
	}
}

// Encode renders the record in the given format.
func Encode(rec survey.DirectionalSurvey, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		if err := WriteCSV(&buf, rec); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := WriteJSON(&buf, rec); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	return buf.Bytes(), nil
}

// Save writes the record to path in the given format, atomically.
func Save(path string, rec survey.DirectionalSurvey, format Format) error {
	data, err := Encode(rec, format)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// DropToDir delivers a CSV into a watch directory consumed by GIS tooling.
// The file appears atomically under its final name so a watcher never reads a
// partial write. Returns the written path.
func DropToDir(dir, stem string, rec survey.DirectionalSurvey) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create drop dir: %w", err)
	}
	path := filepath.Join(dir, stem+".csv")
	if err := Save(path, rec, FormatCSV); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
