package renderer

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

// Assembly runs the full encode server-side, so the ceiling is generous.
const defaultHTTPTimeout = 1800 * time.Second

// Config captures the runtime settings for the assembly service.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client wraps the video assembly API. Strategy differences are parameters
// on the request; orchestration is identical for all of them.
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

// NewClient constructs an assembly client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
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

// ImageInput is one image asset with its assigned effect sequence.
type ImageInput struct {
	Filename      string   `json:"filename"`
	PositionIndex int      `json:"position_index"`
	Effects       []string `json:"effects"`
}

// AssembleRequest describes one assembly call.
type AssembleRequest struct {
	ProjectRef    string
	Images        []ImageInput
	VoiceFileRefs []string
	Resolution    string
	FPS           int
	Strategy      string
}

// AssembleResult is the parsed assembly payload.
type AssembleResult struct {
	ArtifactRef     string  `json:"artifact_ref"`
	DurationSeconds float64 `json:"duration"`
	SizeBytes       int64   `json:"size"`
}

type assembleRequest struct {
	ProjectRef    string       `json:"project_ref"`
	Images        []ImageInput `json:"images_with_effect_sequences"`
	VoiceFileRefs []string     `json:"voice_file_refs"`
	Resolution    string       `json:"resolution"`
	FPS           int          `json:"fps"`
	Strategy      string       `json:"strategy"`
}

type assembleResponse struct {
	ArtifactRef     string  `json:"artifact_ref"`
	DurationSeconds float64 `json:"duration"`
	SizeBytes       int64   `json:"size"`
	Error           string  `json:"error"`
}

// Assemble issues the single assembly call producing the final artifact.
func (c *Client) Assemble(ctx context.Context, req AssembleRequest) (AssembleResult, error) {
	var empty AssembleResult
	if strings.TrimSpace(req.ProjectRef) == "" {
		return empty, errors.New("renderer assemble: project ref required")
	}
	if len(req.Images) == 0 {
		return empty, errors.New("renderer assemble: images required")
	}
	if len(req.VoiceFileRefs) == 0 {
		return empty, errors.New("renderer assemble: voice files required")
	}
	if c.cfg.BaseURL == "" {
		return empty, errors.New("renderer assemble: base url required")
	}

	encoded, err := json.Marshal(assembleRequest{
		ProjectRef:    req.ProjectRef,
		Images:        req.Images,
		VoiceFileRefs: req.VoiceFileRefs,
		Resolution:    req.Resolution,
		FPS:           req.FPS,
		Strategy:      req.Strategy,
	})
	if err != nil {
		return empty, fmt.Errorf("renderer assemble: encode body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("renderer assemble: new request: %w", err)
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return empty, fmt.Errorf("renderer assemble: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("renderer assemble: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("renderer assemble: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed assembleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return empty, fmt.Errorf("renderer assemble: decode response: %w", err)
	}
	if parsed.Error != "" {
		return empty, fmt.Errorf("renderer assemble: api error: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.ArtifactRef) == "" {
		return empty, errors.New("renderer assemble: no artifact returned")
	}
	return AssembleResult{
		ArtifactRef:     parsed.ArtifactRef,
		DurationSeconds: parsed.DurationSeconds,
		SizeBytes:       parsed.SizeBytes,
	}, nil
}
