package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plat-tools/platmaster/internal/extract"
	"github.com/plat-tools/platmaster/internal/survey"
)

const systemPrompt = "Extract the features from this text."

// Extract implements extract.Extractor. The outcome is page-local: a backend
// or validation failure is reported, never escalated into a document abort.
func (c *Client) Extract(ctx context.Context, documentText string) extract.Outcome {
	rid := uuid.New().String()
	start := time.Now()

	text := documentText
	if c.cfg.MaxTextChars > 0 && len(text) > c.cfg.MaxTextChars {
		c.log.Warn("extract.text_truncated", "req_id", rid, "len", len(text), "max", c.cfg.MaxTextChars)
		text = text[:c.cfg.MaxTextChars]
	}

	c.log.Info("extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"azure", c.cfg.AzureEndpoint != "",
		"text_len", len(text),
	)

	body := map[string]any{
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": text},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "Extraction_Response",
				"strict": true,
				"schema": c.schemaMap,
			},
		},
		"seed":   c.cfg.Seed,
		"stream": false,
	}
	if c.cfg.AzureEndpoint == "" {
		body["model"] = c.cfg.Model
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return extract.BackendFailure(fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return extract.BackendFailure(fmt.Errorf("build request: %w", err))
	}

	raw, err := c.post(req)
	if err != nil {
		c.log.Error("extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return extract.BackendFailure(err)
	}

	content, err := decodeChatContent(raw)
	if err != nil {
		c.log.Error("extract.decode_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return extract.BackendFailure(err)
	}

	rec, err := c.validateAndDecode([]byte(content))
	if err != nil {
		c.log.Error("extract.validation_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return extract.ValidationFailure(err)
	}

	c.log.Info("extract.ok",
		"req_id", rid,
		"uwi", rec.UWI,
		"points", len(rec.SurveyPoints),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extract.Ok(rec)
}

// decodeChatContent pulls the assistant message content out of a
// chat-completions response envelope.
func decodeChatContent(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode backend response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in backend response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in backend response")
	}
	return content, nil
}

// validateAndDecode gates the raw content through the closed schema and only
// then decodes it. DisallowUnknownFields backs up the schema gate at the
// decoding level.
func (c *Client) validateAndDecode(content []byte) (*survey.DirectionalSurvey, error) {
	if err := extract.ValidateAgainstSchema(c.schema, content); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	var rec survey.DirectionalSurvey
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.SurveyPoints == nil {
		rec.SurveyPoints = []survey.SurveyPoint{}
	}
	return &rec, nil
}
