// Package openai implements extract.Extractor against an OpenAI-compatible
// chat-completions endpoint, including Azure OpenAI deployments. The record
// schema is sent as a strict json_schema response format and the answer is
// re-validated locally before it is trusted.
package openai

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/plat-tools/platmaster/internal/extract"
	"github.com/plat-tools/platmaster/internal/survey"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultSeed pins backend sampling for reproducible extractions.
const DefaultSeed = 7779

// Config for the extraction client.
type Config struct {
	APIKey        string        // falls back to env OPENAI_API_KEY / AZURE_OPENAI_API_KEY
	BaseURL       string        // default https://api.openai.com/v1; ignored when AzureEndpoint is set
	AzureEndpoint string        // e.g. https://myresource.openai.azure.com; switches to deployment-style URLs
	APIVersion    string        // Azure api-version query parameter
	Model         string        // model name, or Azure deployment name
	Seed          int           // sampling seed sent with every request
	Timeout       time.Duration // http client timeout
	MaxTextChars  int           // truncate page text beyond this many bytes (0 = no limit)
}

// Client calls the extraction backend and validates its output.
type Client struct {
	cfg        Config
	httpClient *http.Client
	schema     *jsonschema.Schema
	schemaMap  map[string]any
	log        *slog.Logger
}

// NewClient compiles the survey schema and prepares an HTTP client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		if cfg.AzureEndpoint != "" {
			cfg.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		} else {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10-01-preview"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1"
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	schemaMap := survey.BuildSchema()
	schema, err := extract.CompileSchema(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("compile survey schema: %w", err)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		schema:     schema,
		schemaMap:  schemaMap,
		log:        logger,
	}, nil
}

// endpoint returns the chat-completions URL for the configured backend.
func (c *Client) endpoint() string {
	if c.cfg.AzureEndpoint != "" {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			strings.TrimRight(c.cfg.AzureEndpoint, "/"), c.cfg.Model, c.cfg.APIVersion)
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.AzureEndpoint != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
}

func (c *Client) post(req *http.Request) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction backend http error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("response body close error", "error", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extraction backend status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
