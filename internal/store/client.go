// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store implements the clients for the local recipe store: the
// recipe repository, the favorites registry, and the user directory. The
// store speaks a json-server compatible REST contract. The clients perform no
// authorization; that is the caller's job.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/cookbook/pkg/types"
)

// DefaultBaseURL is where json-server and `cookbook serve` listen by default.
const DefaultBaseURL = "http://localhost:5000"

// Client is the shared HTTP transport for the store resources.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	log       *slog.Logger
}

// New returns a store client. A nil httpClient uses http.DefaultClient.
func New(cfg types.StoreConfig, httpClient *http.Client, userAgent string, log *slog.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:   strings.TrimRight(base, "/"),
		http:      httpClient,
		userAgent: userAgent,
		log:       log,
	}
}

// BaseURL returns the store root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends a request with an optional JSON body and decodes a JSON response
// into out when out is non-nil. Non-2xx statuses map onto the shared
// sentinel errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, rd)
	if err != nil {
		return fmt.Errorf("creating %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("store request", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return statusError(method, path, resp.StatusCode, msg)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s %s response: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, code int, body []byte) error {
	var sentinel error
	switch code {
	case http.StatusNotFound:
		sentinel = types.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = types.ErrInvalid
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = types.ErrUnauthorized
	case http.StatusConflict:
		sentinel = types.ErrConflict
	default:
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, code, strings.TrimSpace(string(body)))
	}
	if detail := serverMessage(body); detail != "" {
		return fmt.Errorf("%s %s: %s: %w", method, path, detail, sentinel)
	}
	return fmt.Errorf("%s %s: %w", method, path, sentinel)
}

// serverMessage extracts {"message": "..."} from an error body.
func serverMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Message
}
