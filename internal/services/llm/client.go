package llm

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

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 120 * time.Second
)

// Config captures the runtime settings required to talk to the text service.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps an OpenRouter-style chat completion API. Every call is a
// single attempt; retries are user-initiated through the queue.
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

// NewClient constructs a text-service client using the supplied configuration.
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
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// SegmentOutline is one structural entry returned by the structure call.
// It carries metadata only; content blocks arrive from the draft call.
type SegmentOutline struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// StructureRequest describes the structure call inputs.
type StructureRequest struct {
	Topic           string
	AssistantRef    string
	TargetDuration  int
	TargetWordCount int
}

// StructureResult is the parsed structure payload.
type StructureResult struct {
	SharedContext string           `json:"shared_context"`
	Segments      []SegmentOutline `json:"segments"`
}

// ContentBlock is one named narration unit inside a drafted segment.
type ContentBlock struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// DraftRequest describes one draft fan-out call.
type DraftRequest struct {
	AssistantRef  string
	SharedContext string
	Segment       SegmentOutline
}

// DraftResult is the parsed draft payload for a single segment.
type DraftResult struct {
	SegmentID string         `json:"segment_id"`
	Blocks    []ContentBlock `json:"blocks"`
}

const structureSystemPrompt = `You are a podcast script architect. Given a topic, produce a JSON object:
{"shared_context": "...", "segments": [{"id": "...", "title": "...", "summary": "..."}]}
Segments are an ordered outline only. Do not write narration text. Respond with JSON only.`

const draftSystemPrompt = `You are a podcast script writer. Given a segment outline and shared context, produce a JSON object:
{"segment_id": "...", "blocks": [{"name": "...", "text": "..."}]}
Each block is a narration unit in reading order. Respond with JSON only.`

// Structure issues the single structure call producing the segment outline.
func (c *Client) Structure(ctx context.Context, req StructureRequest) (StructureResult, error) {
	var empty StructureResult
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return empty, errors.New("llm structure: topic required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return empty, errors.New("llm structure: api key required")
	}

	userPrompt := fmt.Sprintf(
		"Topic: %s\nTarget duration: %d minutes\nTarget word count: %d",
		topic, req.TargetDuration, req.TargetWordCount,
	)
	content, err := c.completionContent(ctx, c.payload(req.AssistantRef, structureSystemPrompt, userPrompt), "llm structure")
	if err != nil {
		return empty, err
	}

	var parsed StructureResult
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("llm structure: parse payload: %w", err)
	}
	if len(parsed.Segments) == 0 {
		return empty, errors.New("llm structure: no segments returned")
	}
	return parsed, nil
}

// Draft issues one segment drafting call.
func (c *Client) Draft(ctx context.Context, req DraftRequest) (DraftResult, error) {
	var empty DraftResult
	if strings.TrimSpace(req.Segment.ID) == "" {
		return empty, errors.New("llm draft: segment id required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return empty, errors.New("llm draft: api key required")
	}

	outline, err := json.Marshal(req.Segment)
	if err != nil {
		return empty, fmt.Errorf("llm draft: encode outline: %w", err)
	}
	userPrompt := fmt.Sprintf("Shared context: %s\nSegment outline: %s", req.SharedContext, outline)
	content, err := c.completionContent(ctx, c.payload(req.AssistantRef, draftSystemPrompt, userPrompt), "llm draft")
	if err != nil {
		return empty, err
	}

	var parsed DraftResult
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("llm draft: parse payload: %w", err)
	}
	if parsed.SegmentID == "" {
		parsed.SegmentID = req.Segment.ID
	}
	if len(parsed.Blocks) == 0 {
		return empty, fmt.Errorf("llm draft: segment %s returned no blocks", req.Segment.ID)
	}
	return parsed, nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// payload builds a JSON-only chat request. The assistant ref, when set,
// selects the model for this job instead of the configured default.
func (c *Client) payload(assistantRef, systemPrompt, userPrompt string) chatCompletionRequest {
	model := c.cfg.Model
	if ref := strings.TrimSpace(assistantRef); ref != "" {
		model = ref
	}
	return chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
}

func (c *Client) completionContent(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http error (timeout=%s): %w", op, c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
		if content := strings.TrimSpace(choice.Text); content != "" {
			return content, nil
		}
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			return "", fmt.Errorf("%s: model refused: %s", op, refusal)
		}
	}
	return "", fmt.Errorf("%s: empty choices", op)
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}
