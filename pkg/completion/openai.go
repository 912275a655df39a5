package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/httputil"
	"github.com/matzehuels/flowsketch/pkg/observability"
)

// Defaults for [Config].
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "gpt-4o-mini"
	DefaultTimeout    = 90 * time.Second
	DefaultMaxRetries = 2
	DefaultMaxTokens  = 4096
)

// Config configures an OpenAI compatible [Client].
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transient failure
	// (network error, 429 or 5xx).
	MaxRetries int
	// RetryDelay is the first backoff delay; it doubles per attempt.
	RetryDelay time.Duration
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements [Provider] over the /chat/completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a client for cfg, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}
}

// Name returns "openai".
func (c *Client) Name() string { return "openai" }

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends req and returns the first choice. Transient failures are
// retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, ErrMissingCredential
	}
	if req == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty completion request")
	}

	body, err := json.Marshal(c.chatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	var out *Response
	err = httputil.Retry(ctx, c.cfg.MaxRetries+1, c.cfg.RetryDelay, func() error {
		resp, err := c.do(ctx, body)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

func (c *Client) chatRequest(req *Request) chatRequest {
	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, req.Messages...)

	cr := chatRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   DefaultMaxTokens,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		cr.MaxTokens = req.MaxTokens
	}
	if req.JSON {
		cr.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return cr
}

func (c *Client) do(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	hooks := observability.HTTP()
	host, path := httpReq.URL.Host, httpReq.URL.Path
	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: err}
	}
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrCodeMissingCredential, "completion API rejected the credential: %s", resp.Status)
	case httputil.RetryableStatus(resp.StatusCode):
		return nil, &httputil.RetryableError{Err: fmt.Errorf("completion API: %s: %s", resp.Status, snippet(data))}
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeCompletion, "completion API: %s: %s", resp.Status, snippet(data))
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompletion, err, "decode completion response")
	}
	if cr.Error != nil {
		return nil, errors.New(errors.ErrCodeCompletion, "completion API: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeCompletion, "completion API returned no choices")
	}

	return &Response{
		Content:      cr.Choices[0].Message.Content,
		Model:        cr.Model,
		FinishReason: cr.Choices[0].FinishReason,
		InputTokens:  cr.Usage.PromptTokens,
		OutputTokens: cr.Usage.CompletionTokens,
	}, nil
}

// classify gives uncoded failures a code once retries are exhausted.
func classify(ctx context.Context, err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "completion request timed out")
	}
	return errors.Wrap(errors.ErrCodeCompletion, err, "completion request failed")
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = s[:n] + "..."
	}
	return s
}
