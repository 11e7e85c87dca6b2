// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the model backends and
// the PDF downloader.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// maxRetryAfter caps a server-supplied Retry-After value.
const maxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 3

// Policy configures DoWithRetry.
type Policy struct {
	// MaxRetries is the retry count after the first attempt. Zero uses 3.
	MaxRetries int

	// Log receives one warning per retry. Nil discards them.
	Log *zap.Logger
}

// Retryable reports whether a status code means "try again later":
// 429 Too Many Requests and 503 Service Unavailable.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes an HTTP request and retries throttled responses
// with exponential backoff starting at RetryBaseDelay. A numeric
// Retry-After header replaces the computed delay.
//
// Request bodies are replayed through req.GetBody, which http.NewRequest
// sets for bytes and strings readers. On each retry the previous response
// body is drained and closed. If the context is cancelled during a backoff
// wait the function returns ctx.Err(). After exhausting retries the last
// throttled response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replaying request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
			backoff = d
		}
		log.Warn("throttled, retrying",
			zap.String("url", req.URL.Redacted()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d, true
}
