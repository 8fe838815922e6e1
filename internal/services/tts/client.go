package tts

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

// Config captures the runtime settings for the voice synthesis service.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Voice          string
	TimeoutSeconds int
}

// Client wraps the batched speech synthesis API. One call carries every
// voice block of a job's script; the service answers with the generated
// file for each block.
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

// NewClient constructs a voice synthesis client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Voice:          strings.TrimSpace(cfg.Voice),
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

// BlockInput is one narration unit submitted for synthesis.
type BlockInput struct {
	Text     string `json:"text"`
	VoiceRef string `json:"voice_ref"`
}

// GeneratedFile names the audio file produced for one block.
type GeneratedFile struct {
	Filename  string `json:"filename"`
	BlockName string `json:"block_name"`
}

// SynthesizeResult is the parsed synthesis payload.
type SynthesizeResult struct {
	GeneratedFiles []GeneratedFile `json:"generated_files"`
}

type synthesizeRequest struct {
	Model  string                `json:"model,omitempty"`
	Blocks map[string]BlockInput `json:"blocks"`
}

type synthesizeResponse struct {
	GeneratedFiles []GeneratedFile `json:"generated_files"`
	Error          string          `json:"error"`
}

// Synthesize issues the single batched synthesis call for a job. Blocks
// maps block name to narration input. Blocks without a voice ref fall back
// to the configured default voice.
func (c *Client) Synthesize(ctx context.Context, blocks map[string]BlockInput) (SynthesizeResult, error) {
	var empty SynthesizeResult
	if len(blocks) == 0 {
		return empty, errors.New("tts synthesize: no blocks")
	}
	if c.cfg.APIKey == "" {
		return empty, errors.New("tts synthesize: api key required")
	}
	if c.cfg.BaseURL == "" {
		return empty, errors.New("tts synthesize: base url required")
	}

	payload := synthesizeRequest{Model: c.cfg.Model, Blocks: make(map[string]BlockInput, len(blocks))}
	for name, block := range blocks {
		if strings.TrimSpace(block.Text) == "" {
			return empty, fmt.Errorf("tts synthesize: block %q has no text", name)
		}
		if block.VoiceRef == "" {
			block.VoiceRef = c.cfg.Voice
		}
		payload.Blocks[name] = block
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return empty, fmt.Errorf("tts synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("tts synthesize: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("tts synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("tts synthesize: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("tts synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return empty, fmt.Errorf("tts synthesize: decode response: %w", err)
	}
	if parsed.Error != "" {
		return empty, fmt.Errorf("tts synthesize: api error: %s", parsed.Error)
	}
	if len(parsed.GeneratedFiles) != len(blocks) {
		return empty, fmt.Errorf("tts synthesize: expected %d files, got %d", len(blocks), len(parsed.GeneratedFiles))
	}
	for _, file := range parsed.GeneratedFiles {
		if _, ok := blocks[file.BlockName]; !ok {
			return empty, fmt.Errorf("tts synthesize: file %q references unknown block %q", file.Filename, file.BlockName)
		}
	}
	return SynthesizeResult{GeneratedFiles: parsed.GeneratedFiles}, nil
}
