// Package supabase is a thin PostgREST client for pushing workspace rows to a
// Supabase project.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type Config struct {
	ProjectURL string
	APIKey     string
	// AccessToken is the signed-in user's JWT; the API key is used when empty.
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	http    *http.Client
	prefix  string
	apiKey  string
	bearer  string
	headers map[string]string
}

func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if _, err := url.Parse(cfg.ProjectURL); err != nil {
		return nil, fmt.Errorf("invalid project URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	bearer := cfg.AccessToken
	if bearer == "" {
		bearer = cfg.APIKey
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		prefix: strings.TrimRight(cfg.ProjectURL, "/") + "/rest/v1",
		apiKey: cfg.APIKey,
		bearer: bearer,
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}, nil
}

// Error is a non-2xx PostgREST response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// Select performs a GET on a table with an already encoded query string and
// returns the raw JSON array.
func (c *Client) Select(ctx context.Context, table, query string) ([]byte, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	u := c.prefix + "/" + url.PathEscape(table)
	if query != "" {
		u += "?" + query
	}
	return c.do(ctx, http.MethodGet, u, nil, nil)
}

// Count returns how many rows of table the caller can read.
func (c *Client) Count(ctx context.Context, table string) (int, error) {
	data, err := c.Select(ctx, table, "select=*")
	if err != nil {
		return 0, err
	}
	rows := gjson.ParseBytes(data)
	if !rows.IsArray() {
		return 0, fmt.Errorf("%s: expected a JSON array", table)
	}
	return len(rows.Array()), nil
}

// Upsert posts rows with merge-duplicates resolution so existing primary keys
// are overwritten.
func (c *Client) Upsert(ctx context.Context, table string, rows any) error {
	_, err := c.write(ctx, table, rows, "resolution=merge-duplicates,return=minimal")
	return err
}

func (c *Client) write(ctx context.Context, table string, rows any, prefer string) ([]byte, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode %s rows: %w", table, err)
	}
	return c.do(ctx, http.MethodPost, c.prefix+"/"+url.PathEscape(table), body, map[string]string{"Prefer": prefer})
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, extra map[string]string) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		if gjson.ValidBytes(data) {
			if m := gjson.GetBytes(data, "message"); m.Exists() {
				e.Message = m.String()
			}
			e.Code = gjson.GetBytes(data, "code").String()
		}
		return nil, e
	}
	return data, nil
}
