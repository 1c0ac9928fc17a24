package dialog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

const defaultSystemPrompt = "You are a multilingual assistant. Respond briefly and to the point, without describing your reasoning."

// Client talks to an OpenAI-compatible /v1/chat/completions endpoint, such
// as a local llama.cpp server. One request per session, no conversation
// history, no retries: a failed call short-circuits the session.
type Client struct {
	BaseURL      string
	Model        string
	APIKey       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	HTTPClient   *http.Client

	log *slog.Logger
}

type Config struct {
	BaseURL      string
	Model        string
	APIKey       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &Client{
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		Model:        cfg.Model,
		APIKey:       cfg.APIKey,
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		log:          logging.NewComponentLogger(log, "dialog"),
	}
}

func (c *Client) Name() string { return "chat_completions" }

// Ask sends the user text and extracts choices[0].message.content from the
// response. Non-200 status and malformed bodies both surface as errors; the
// caller maps them to an empty answer.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	body, err := c.buildRequest(prompt)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonDialogDecode)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", body)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonDialogHTTP)
	}
	c.applyHeaders(req)

	start := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errorsx.Wrap(err, errorsx.ReasonDialogTimeout)
		}
		return "", errorsx.Wrap(err, errorsx.ReasonDialogHTTP)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		c.log.Error("dialog http error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)))
		return "", errorsx.Wrap(fmt.Errorf("dialog status %d", resp.StatusCode), errorsx.ReasonDialogHTTP)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonDialogDecode)
	}
	answer, err := extractAnswer(payload)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonDialogDecode)
	}

	c.log.Info("dialog answered",
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
		slog.Int("answer_len", len(answer)))
	return answer, nil
}

func (c *Client) buildRequest(prompt string) (*bytes.Buffer, error) {
	req := map[string]any{
		"model": c.Model,
		"messages": []map[string]any{
			{"role": "system", "content": c.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.MaxTokens,
		"temperature": c.Temperature,
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(b), nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func extractAnswer(payload map[string]any) (string, error) {
	choices, _ := payload["choices"].([]any)
	if len(choices) == 0 {
		return "", errors.New("no choices in response")
	}
	first, _ := choices[0].(map[string]any)
	msg, _ := first["message"].(map[string]any)
	content, ok := msg["content"].(string)
	if !ok {
		return "", errors.New("missing message content")
	}
	return strings.TrimSpace(content), nil
}
