// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the store and provider clients.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 5

// Pacer sends requests through an optional token-bucket limiter and retries
// HTTP 429 responses with exponential backoff. The zero value is usable and
// behaves like http.DefaultClient with the default retry count.
type Pacer struct {
	Client     *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	Log        *slog.Logger
}

// NewPacer returns a Pacer that allows perSecond requests per second with a
// burst of one. A non-positive perSecond disables pacing.
func NewPacer(client *http.Client, perSecond float64, maxRetries int, log *slog.Logger) *Pacer {
	p := &Pacer{Client: client, MaxRetries: maxRetries, Log: log}
	if perSecond > 0 {
		p.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return p
}

// Do sends req, waiting for the limiter before every attempt. A 429 response
// is drained and retried after RetryBaseDelay * 2^attempt; once MaxRetries is
// exhausted the last 429 is returned for the caller to inspect. Cancelling ctx
// during a wait returns ctx.Err().
func (p *Pacer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if p.Log != nil {
			p.Log.Warn("rate limited, backing off",
				slog.String("host", req.URL.Host),
				slog.String("path", req.URL.Path),
				slog.Duration("backoff", backoff),
				slog.Int("attempt", attempt+1))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
