// Package oracle wraps an OpenAI-compatible chat endpoint behind the small
// Completer contract used by discovery, scoring and drafting.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

var (
	ErrEmptyResponse     = errors.New("oracle: empty response")
	ErrMalformedResponse = errors.New("oracle: malformed response")
)

// ── Contract ──

type Prompt struct {
	System string
	User   string
	// Model overrides the client default when set.
	Model string
}

type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// ── Client ──

type Options struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

func New(opts Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// A failed call is reported as-is; the pipeline never retries.
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:  openai.NewClient(reqOpts...),
		model:   opts.Model,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	model := c.model
	if p.Model != "" {
		model = p.Model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if p.System != "" {
		msgs = append(msgs, openai.SystemMessage(p.System))
	}
	msgs = append(msgs, openai.UserMessage(p.User))

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(openai.ChatModel(model)),
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(cctx, params)
	if err != nil {
		return "", fmt.Errorf("oracle chat completion (model=%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// ── JSON extraction ──

// Models wrap JSON in fences or prose; these pull out the outermost value.
var (
	jsonObjectExpr = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayExpr  = regexp.MustCompile(`(?s)\[.*\]`)
)

func ExtractJSONObject(s string) (string, error) {
	v := jsonObjectExpr.FindString(s)
	if v == "" {
		return "", fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, truncate(s, 120))
	}
	return v, nil
}

func ExtractJSONArray(s string) (string, error) {
	v := jsonArrayExpr.FindString(s)
	if v == "" {
		return "", fmt.Errorf("%w: no JSON array in %q", ErrMalformedResponse, truncate(s, 120))
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
