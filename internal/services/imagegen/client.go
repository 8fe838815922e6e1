package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 300 * time.Second

// Config captures the runtime settings for the image service.
type Config struct {
	APIKey         string
	BaseURL        string
	Size           string
	TimeoutSeconds int
}

// Client wraps the image acquisition API. The service owns the cache: it
// reuses previously generated assets unless the caller forces regeneration.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an image service client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Size:           strings.TrimSpace(cfg.Size),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Image is one resolved image asset.
type Image struct {
	Filename      string `json:"filename"`
	PositionIndex int    `json:"position_index"`
	SourcePrompt  string `json:"source_prompt"`
}

// ResolveRequest describes one image resolution call.
type ResolveRequest struct {
	ProjectRef string
	// ContentBlocks carries the narration text the service derives prompts from.
	ContentBlocks []string
	// ForceRegenerate bypasses the service-side cache. Always an explicit
	// user decision carried from the job, never inferred.
	ForceRegenerate bool
	// CustomCount overrides the service's default image count when positive.
	CustomCount int
}

// ResolveResult is the parsed image payload.
type ResolveResult struct {
	Images    []Image `json:"images"`
	FromCache bool    `json:"from_cache"`
}

type resolveRequest struct {
	ProjectRef      string   `json:"project_ref"`
	ContentBlocks   []string `json:"content_blocks"`
	Size            string   `json:"size,omitempty"`
	ForceRegenerate bool     `json:"force_regenerate"`
	CustomCount     int      `json:"custom_count,omitempty"`
}

type resolveResponse struct {
	Images    []Image `json:"images"`
	FromCache bool    `json:"from_cache"`
	Error     string  `json:"error"`
}

// Resolve returns the image assets for a project, either cached or freshly
// generated.
func (c *Client) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	var empty ResolveResult
	if strings.TrimSpace(req.ProjectRef) == "" {
		return empty, errors.New("imagegen resolve: project ref required")
	}
	if len(req.ContentBlocks) == 0 {
		return empty, errors.New("imagegen resolve: content blocks required")
	}
	if c.cfg.APIKey == "" {
		return empty, errors.New("imagegen resolve: api key required")
	}
	if c.cfg.BaseURL == "" {
		return empty, errors.New("imagegen resolve: base url required")
	}

	encoded, err := json.Marshal(resolveRequest{
		ProjectRef:      req.ProjectRef,
		ContentBlocks:   req.ContentBlocks,
		Size:            c.cfg.Size,
		ForceRegenerate: req.ForceRegenerate,
		CustomCount:     req.CustomCount,
	})
	if err != nil {
		return empty, fmt.Errorf("imagegen resolve: encode body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("imagegen resolve: new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return empty, fmt.Errorf("imagegen resolve: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("imagegen resolve: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("imagegen resolve: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed resolveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return empty, fmt.Errorf("imagegen resolve: decode response: %w", err)
	}
	if parsed.Error != "" {
		return empty, fmt.Errorf("imagegen resolve: api error: %s", parsed.Error)
	}
	if len(parsed.Images) == 0 {
		return empty, errors.New("imagegen resolve: no images returned")
	}
	return ResolveResult{Images: parsed.Images, FromCache: parsed.FromCache}, nil
}
