// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

func TestPacer_Do(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int // served in order; the last one repeats
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", []int{http.StatusOK}, 5, http.StatusOK, 1},
		{"retries then succeeds", []int{429, 429, http.StatusOK}, 5, http.StatusOK, 3},
		{"exhausts retries", []int{429}, 3, http.StatusTooManyRequests, 4},
		{"default retry count", []int{429}, 0, http.StatusTooManyRequests, 6},
		{"other errors pass through", []int{http.StatusInternalServerError}, 5, http.StatusInternalServerError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := int(atomic.AddInt32(&calls, 1))
				w.WriteHeader(tt.statuses[min(n, len(tt.statuses))-1])
			}))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			p := &Pacer{Client: ts.Client(), MaxRetries: tt.maxRetries}
			resp, err := p.Do(context.Background(), req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestPacer_ContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	p := &Pacer{Client: ts.Client()}
	_, err = p.Do(ctx, req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPacer_LogsBackoffAndSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var logBuf bytes.Buffer
	p := NewPacer(ts.Client(), 0, 2, slog.New(slog.NewTextHandler(&logBuf, nil)))
	assert.Nil(t, p.Limiter, "non-positive rate disables pacing")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/recipes?apiKey=secret", nil)
	require.NoError(t, err)

	resp, err := p.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Contains(t, logBuf.String(), "rate limited, backing off")
}

func TestPacer_LimiterHonoursContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	// One token per hour: the first request drains the bucket, the second
	// must give up when its context expires.
	p := &Pacer{Client: ts.Client(), Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := p.Do(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Do(ctx, req)
	assert.Error(t, err)
}

func TestPacer_ZeroValueUsesDefaultClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	var p Pacer
	resp, err := p.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
