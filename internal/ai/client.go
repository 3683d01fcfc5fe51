// Package ai drafts itinerary summaries through an OpenAI-compatible
// chat-completions endpoint.
package ai

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
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-4o-mini"

	chatCompletionsPath = "/v1/chat/completions"
	temperature         = 0.7
	defaultTimeout      = 60 * time.Second
)

const systemPrompt = "You are a practical travel assistant. Write well-structured markdown summaries. " +
	"Do not invent specific venues unless the photos strongly suggest them."

// ErrNotConfigured is returned by New when no API key is supplied.
var ErrNotConfigured = errors.New("ai: api key not configured")

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the chat-completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// New returns a Client, or ErrNotConfigured when cfg has no API key.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}, nil
}

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ai: upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("ai: upstream status %d: %s", e.StatusCode, e.Body)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Draft asks the model for a markdown itinerary summary of the photos.
func (c *Client) Draft(ctx context.Context, photos []string, notes string) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(photos, notes)},
		},
	}

	var resp chatResponse
	if err := c.doJSON(ctx, chatCompletionsPath, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func userPrompt(photos []string, notes string) string {
	var b strings.Builder
	b.WriteString("Here are photos from a trip. Infer a concise itinerary summary in markdown covering:\n")
	b.WriteString("- destinations and a rough date range if one is apparent\n")
	b.WriteString("- highlights, restaurants and attractions\n")
	b.WriteString("- a suggested order and tips worth knowing\n")
	b.WriteString("Keep it between 200 and 300 words.\n\nPhotos:\n")
	for _, p := range photos {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	if notes == "" {
		notes = "(none)"
	}
	b.WriteString("\nAdditional notes: ")
	b.WriteString(notes)
	return b.String()
}

func (c *Client) doJSON(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("ai: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai: decode response: %w", err)
	}
	return nil
}
