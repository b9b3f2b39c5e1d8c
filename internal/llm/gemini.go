// Package llm integrates a generative language model into the research
// pipeline: expanding a research question into targeted search strategies and
// summarizing saved articles. All model failures degrade to safe fallbacks so
// the search pipeline keeps working without the model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default base URL for the Gemini API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the default Gemini model identifier.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retries for transient errors.
	DefaultMaxRetries = 2
)

// generateRequest is the request body for the generateContent endpoint.
type generateRequest struct {
	Contents []content `json:"contents"`
}

// content is a single conversation turn.
type content struct {
	Parts []part `json:"parts"`
}

// part is one content fragment within a turn.
type part struct {
	Text string `json:"text"`
}

// generateResponse is the response body from the generateContent endpoint.
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// candidate is one generated completion.
type candidate struct {
	Content content `json:"content"`
}

// geminiErrorResponse wraps the error payload from the Gemini API.
type geminiErrorResponse struct {
	Error geminiErrorDetail `json:"error"`
}

// geminiErrorDetail is the nested error object in a Gemini error response.
type geminiErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// APIError represents an error returned by the Gemini API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error (status %d): %s", e.StatusCode, e.Message)
}

// isTransient reports whether the error is worth retrying.
func isTransient(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	return apiErr.StatusCode == 0 ||
		apiErr.StatusCode == http.StatusTooManyRequests ||
		apiErr.StatusCode >= 500
}

// GeminiConfig holds the parameters needed to create a Gemini provider.
type GeminiConfig struct {
	// APIKey is the Gemini API key. Without one the provider is disabled
	// and every call fails fast, triggering the callers' fallbacks.
	APIKey string

	// Model is the model identifier.
	Model string

	// BaseURL is the API base URL.
	BaseURL string

	// Timeout is the HTTP client timeout for API calls.
	Timeout time.Duration

	// MaxRetries controls how many times transient errors are retried.
	MaxRetries int
}

// GeminiProvider calls the Gemini generateContent API.
type GeminiProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

// NewGeminiProvider creates a new GeminiProvider with the given configuration.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &GeminiProvider{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
	}
}

// Model returns the model identifier being used.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Generate sends one prompt to the model and returns the generated text.
// Transient errors (network failures, 429 and 5xx) are retried with
// exponential backoff; context cancellation is respected between retries.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("gemini: API key not configured")
	}

	apiReq := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	var resp *generateResponse
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("gemini: context cancelled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, lastErr = p.sendRequest(ctx, apiReq)
		if lastErr == nil {
			break
		}
		if !isTransient(lastErr) {
			return "", lastErr
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("gemini: all %d retries exhausted: %w", p.maxRetries, lastErr)
	}

	return extractText(resp)
}

// sendRequest sends a single request to the generateContent endpoint.
func (p *GeminiProvider) sendRequest(ctx context.Context, apiReq generateRequest) (*generateResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient and eligible for retry.
		return nil, &APIError{StatusCode: 0, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, &APIError{StatusCode: 0, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if httpResp.StatusCode != http.StatusOK {
		var errResp geminiErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, &APIError{StatusCode: httpResp.StatusCode, Message: errResp.Error.Message}
		}
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}

	return &resp, nil
}

// extractText returns the text of the first candidate part.
func extractText(resp *generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: response contains no candidates")
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text, nil
		}
	}
	return "", fmt.Errorf("gemini: response contains no text parts")
}
