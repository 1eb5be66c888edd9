package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 2 * time.Minute
	maxErrorBody   = 4 << 10
)

// ClientConfig configures the extraction gateway client.
type ClientConfig struct {
	// BaseURL of the gateway, without a trailing slash.
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout for each request. Defaults to two minutes; extraction of
	// long articles is slow.
	Timeout time.Duration
}

// Client talks to the extraction gateway. Every operation is a single
// request/response round trip; failures surface to the caller and are
// never retried here.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a gateway client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// ExtractURL pulls the readable content and title out of a web page.
func (c *Client) ExtractURL(ctx context.Context, url string) (Result, error) {
	var res Result
	payload := map[string]string{"url": url}
	if err := c.post(ctx, "/extract-url", payload, &res); err != nil {
		return Result{}, err
	}
	if res.Content == "" {
		return Result{}, ErrEmptyContent
	}
	return res, nil
}

// ExtractFile uploads a PDF and returns its readable content. The file
// is validated locally first; an oversized or non-PDF payload never
// reaches the wire.
func (c *Client) ExtractFile(ctx context.Context, fileName string, data []byte) (Result, error) {
	if err := ValidatePDF(data); err != nil {
		return Result{}, err
	}
	payload := map[string]string{
		"fileData": base64.StdEncoding.EncodeToString(data),
		"fileName": fileName,
	}
	var res Result
	if err := c.post(ctx, "/extract-file", payload, &res); err != nil {
		return Result{}, err
	}
	if res.Content == "" {
		return Result{}, ErrEmptyContent
	}
	return res, nil
}

// Summarize condenses extracted content.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	payload := map[string]string{"content": content}
	var res struct {
		Summary string `json:"summary"`
	}
	if err := c.post(ctx, "/summarize", payload, &res); err != nil {
		return "", err
	}
	return res.Summary, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("gateway %s: %s: %s", path, resp.Status, apiErr.Message)
		}
		return fmt.Errorf("gateway %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
