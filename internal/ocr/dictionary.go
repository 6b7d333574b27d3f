package ocr

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Charset is the recognition character set loaded from a dictionary file,
// one token per line. Index 0 of the model output is the CTC blank; model
// index i maps to Tokens[i-1].
type Charset struct {
	Tokens []string
}

// LoadCharset loads a dictionary file. Lines are trimmed, a UTF-8 BOM on the
// first line is removed, and empty lines are skipped.
func LoadCharset(path string) (*Charset, error) {
	if path == "" {
		return nil, errors.New("dictionary path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: user-provided dictionary path is expected
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	tokens := make([]string, 0, 128)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}
	return &Charset{Tokens: tokens}, nil
}

// Token maps a model class index to its token. Index 0 (blank) and indices
// beyond the charset return "".
func (c *Charset) Token(modelIndex int) string {
	i := modelIndex - 1
	if i < 0 || i >= len(c.Tokens) {
		return ""
	}
	return c.Tokens[i]
}
