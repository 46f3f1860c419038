package importer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
)

const (
	minBatchSize   = 4
	maxBatchSize   = 8
	defaultTimeout = 30 * time.Second
)

// CrawlerConfig configures access to the recipe API.
type CrawlerConfig struct {
	BaseURL    string
	APIKey     string
	Headers    map[string]string
	Timeout    time.Duration
	HTTPClient *http.Client
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit. Zero selects 5.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open. Zero selects one minute.
	OpenTimeout time.Duration
}

// Crawler fetches random recipes for a tag from the recipe API.
type Crawler struct {
	endpoint   string
	apiKey     string
	headers    map[string]string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]RawRecipe]
	batchSize  func() int
}

// NewCrawler builds a Crawler guarded by a circuit breaker.
func NewCrawler(cfg CrawlerConfig) (*Crawler, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("importer: recipe api url must not be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = time.Minute
	}

	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		headers[key] = value
	}

	breaker := gobreaker.NewCircuitBreaker[[]RawRecipe](gobreaker.Settings{
		Name:        "recipe-api",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			applog.Info(context.Background(), "circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.CrawlerBreakerState.Set(float64(to))
		},
	})

	return &Crawler{
		endpoint:   strings.TrimRight(baseURL, "/") + "/recipes/random",
		apiKey:     strings.TrimSpace(cfg.APIKey),
		headers:    headers,
		httpClient: httpClient,
		breaker:    breaker,
		batchSize:  func() int { return minBatchSize + rand.IntN(maxBatchSize-minBatchSize+1) },
	}, nil
}

// Fetch requests a random batch of recipes tagged with tag. It makes exactly
// one request and never retries.
func (c *Crawler) Fetch(ctx context.Context, tag string) ([]RawRecipe, error) {
	recipes, err := c.breaker.Execute(func() ([]RawRecipe, error) {
		return c.fetch(ctx, tag)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &FetchError{URL: c.endpoint, Err: err}
	}
	return recipes, err
}

func (c *Crawler) fetch(ctx context.Context, tag string) ([]RawRecipe, error) {
	query := url.Values{}
	query.Set("number", strconv.Itoa(c.batchSize()))
	query.Set("tags", tag)
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &FetchError{URL: c.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	applog.Debug(ctx, "requesting recipes", "url", c.endpoint, "tag", tag, "number", query.Get("number"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URL: c.endpoint, Status: resp.StatusCode}
	}

	var payload struct {
		Recipes []RawRecipe `json:"recipes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{URL: c.endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	applog.Debug(ctx, "received recipes", "tag", tag, "count", len(payload.Recipes))
	return payload.Recipes, nil
}
