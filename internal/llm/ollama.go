package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 300 * time.Second
	maxErrorBody   = 4 << 10
)

// OllamaClient talks to the Ollama HTTP API.
type OllamaClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*OllamaClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OllamaClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewOllamaClient builds a client for baseURL. Every Generate call is bounded by timeout.
func NewOllamaClient(baseURL string, timeout time.Duration, opts ...Option) *OllamaClient {
	client := &OllamaClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	return client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ollama: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *OllamaClient) Generate(ctx context.Context, model Model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.generateOnce(ctx, model, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &appErrors.ErrGenerationTimeout{Model: model.String(), Timeout: c.timeout}
		}
		return "", &appErrors.ErrGenerationError{Model: model.String(), Err: err}
	}
	return text, nil
}

func (c *OllamaClient) generateOnce(ctx context.Context, model Model, prompt string) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "generate")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	encoded, err := json.Marshal(generateRequest{Model: model.String(), Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", errors.New(parsed.Error)
	}
	return cleanOutput(parsed.Response), nil
}

var _ Generator = (*OllamaClient)(nil)
