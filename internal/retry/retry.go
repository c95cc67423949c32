// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry wraps calls to flaky external services with exponential
// backoff. Only errors carrying a transient signature (rate limit,
// overload, unavailable) are retried; everything else propagates on the
// first occurrence.
package retry

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Config controls a retry loop.
type Config struct {
	// MaxRetries is the number of retry attempts after the initial call.
	MaxRetries int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// BackoffFactor multiplies the delay after each retry. Must be > 1
	// for the delay to grow; there is no jitter.
	BackoffFactor float64

	// Log receives one line per retry attempt. Nil discards.
	Log io.Writer
}

// Default is the general-purpose preset for academic API calls.
func Default() Config {
	return Config{MaxRetries: 3, InitialDelay: 2 * time.Second, BackoffFactor: 2.0}
}

// LLM is the preset for generative model calls, which rate-limit harder
// and recover slower.
func LLM() Config {
	return Config{MaxRetries: 5, InitialDelay: 3 * time.Second, BackoffFactor: 2.5}
}

// retryableMarkers are matched against the error text verbatim.
var retryableMarkers = []string{"429", "503", "UNAVAILABLE", "RESOURCE_EXHAUSTED"}

// Retryable reports whether an error carries a transient signature worth
// retrying: an HTTP 429/503, an UNAVAILABLE or RESOURCE_EXHAUSTED status,
// or an overloaded-model message.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(msg), "overloaded")
}

// Do executes fn, retrying transient failures up to cfg.MaxRetries times.
// The delay before retry n is InitialDelay * BackoffFactor^n. A
// non-retryable error returns immediately with no sleep. After exhausting
// retries the last error is returned. If the context is cancelled during
// a backoff wait, Do returns ctx.Err().
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T

	delay := cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}

		if !Retryable(err) || attempt >= cfg.MaxRetries {
			return zero, err
		}

		if cfg.Log != nil {
			fmt.Fprintf(cfg.Log, "attempt %d/%d failed: %v; retrying in %v\n",
				attempt+1, cfg.MaxRetries+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
	}
}
