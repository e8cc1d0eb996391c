package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// AskRequest is a question for the pipeline. TopK and Temperature are
// optional; zero means "use the server default".
type AskRequest struct {
	Question    string  `json:"question"`
	TopK        int     `json:"top_k,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Source is one cited passage in an answer.
type Source struct {
	Rank     int               `json:"rank"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Stats summarizes retrieval quality for an answer.
type Stats struct {
	SourceCount       int     `json:"source_count"`
	AvgRelevance      float64 `json:"avg_relevance"`
	ContextChars      int     `json:"context_chars"`
	ProcessingSeconds float64 `json:"processing_time_seconds"`
}

// AskResponse is an answered (or no-results) question.
type AskResponse struct {
	RequestID   string    `json:"request_id"`
	Query       string    `json:"query"`
	Answer      string    `json:"answer"`
	NoResults   bool      `json:"no_results,omitempty"`
	Sources     []Source  `json:"sources"`
	Stats       Stats     `json:"stats"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HealthReport is the aggregated service health.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Option configures the Client.
type Option interface {
	apply(*Client)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithAPIKey sends a Bearer token with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *Client) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *Client) {
		c.http = hc
	})
}

// Client is the scholarqa API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// Ask submits a question and returns the grounded answer.
func (c *Client) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/v1/ask", req, &resp); err != nil {
		return AskResponse{}, err
	}
	return resp, nil
}

// Examples returns the curated example questions.
func (c *Client) Examples(ctx context.Context) ([]string, error) {
	var resp struct {
		Queries []string `json:"queries"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/examples", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Queries, nil
}

// Health reports the aggregated service health. A degraded service
// returns the report along with ErrUnavailable.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthReport{}, fmt.Errorf("scholarqa: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("scholarqa: %w", err)
	}
	defer resp.Body.Close()

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("scholarqa: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("service is %s: %w", report.Status, ErrUnavailable)
	}
	return report, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("scholarqa: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("scholarqa: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scholarqa: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("scholarqa: decode response: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
