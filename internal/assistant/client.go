// Package assistant talks to an OpenAI-compatible chat completion API on
// behalf of the in-app assistant.
package assistant

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

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tourflow/tourflow/internal/config"
)

var (
	ErrNotConfigured = errors.New("assistant api key not configured")
	ErrEmptyReply    = errors.New("assistant returned an empty reply")
)

// Message is one chat completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(cfg config.AssistantConfig, log *zap.Logger) *Client {
	perMin := cfg.RatePerMinute
	if perMin <= 0 {
		perMin = 30
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
		log:     log,
	}
}

// Complete sends one request and returns the first choice's content. There
// are no retries: a failed call is reported to the caller as is.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
	}{c.model, messages})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	c.log.Debug("chat completion",
		zap.Int("status", resp.StatusCode),
		zap.Int("messages", len(messages)),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return "", fmt.Errorf("chat completion failed with status %d: %s", resp.StatusCode, msg)
	}
	content := gjson.GetBytes(data, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}
