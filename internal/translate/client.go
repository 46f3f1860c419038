// Package translate turns recipe text from the crawled language into the
// language served by the site using an OpenAI-compatible chat completions API.
package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	defaultModel       = "gpt-4.1-mini"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultTemperature = 0.1
	defaultTimeout     = 30 * time.Second
	defaultSource      = "en"
	defaultTarget      = "ru"
)

// Config describes how the translation client should be initialised.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Source            string
	Target            string
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client offers a thin wrapper around the Chat Completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	source     string
	target     string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient builds a Client. A non-positive RequestsPerSecond disables rate limiting.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("translate: api key must not be empty")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = defaultSource
	}

	target := strings.TrimSpace(cfg.Target)
	if target == "" {
		target = defaultTarget
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		source:     source,
		target:     target,
		limiter:    limiter,
		httpClient: httpClient,
	}, nil
}

// Translate returns text rendered in the target language. Blank input is
// returned unchanged without contacting the API.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("translate: wait for rate limiter: %w", err)
	}

	payload := chatRequest{
		Model:       c.model,
		Temperature: defaultTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: buildPrompt(c.source, c.target)},
			{Role: "user", Content: text},
		},
	}

	return c.performChatCompletion(ctx, payload)
}

func buildPrompt(source, target string) string {
	return fmt.Sprintf("You translate cooking recipes from %q to %q. Reply with the translated text only, without quotes, notes or Markdown. Keep numbers unchanged.", source, target)
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

func (c *Client) performChatCompletion(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("translate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("translate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("translate: api returned status %s", resp.Status)
	}

	var responseData struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&responseData); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}

	if len(responseData.Choices) == 0 {
		return "", errors.New("translate: api returned no choices")
	}

	content := strings.TrimSpace(responseData.Choices[0].Message.Content)
	content = strings.Trim(content, "`")
	return strings.TrimSpace(content), nil
}
