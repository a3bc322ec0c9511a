/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nalyx27/reviewpanel/agents/model/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func always(err error) bool { return err != nil }

func TestDo(t *testing.T) {
	t.Parallel()
	transient := errors.New("429 Too Many Requests")
	permanent := errors.New("401 Unauthorized")

	tests := []struct {
		name         string
		cfg          retry.Config
		failures     int32
		err          error
		retryable    func(error) bool
		wantAttempts int32
		wantErr      error
		wantPrefix   string
	}{{
		name:         "first try",
		cfg:          fastConfig(),
		retryable:    always,
		wantAttempts: 1,
	}, {
		name:         "recovers",
		cfg:          fastConfig(),
		failures:     2,
		err:          transient,
		retryable:    always,
		wantAttempts: 3,
	}, {
		name:         "exhausted",
		cfg:          fastConfig(),
		failures:     100,
		err:          transient,
		retryable:    always,
		wantAttempts: 4,
		wantErr:      transient,
		wantPrefix:   "complete failed after 3 retries",
	}, {
		name:         "not retryable",
		cfg:          fastConfig(),
		failures:     100,
		err:          permanent,
		retryable:    func(error) bool { return false },
		wantAttempts: 1,
		wantErr:      permanent,
	}, {
		name:         "no retries",
		cfg:          retry.None(),
		failures:     100,
		err:          transient,
		retryable:    always,
		wantAttempts: 1,
		wantErr:      transient,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var attempts atomic.Int32
			got, err := retry.Do(context.Background(), tt.cfg, "complete", tt.retryable, func() (string, error) {
				if attempts.Add(1) <= tt.failures {
					return "", tt.err
				}
				return "ok", nil
			})
			if n := attempts.Load(); n != tt.wantAttempts {
				t.Errorf("attempts: got = %d, wanted = %d", n, tt.wantAttempts)
			}
			if tt.wantErr == nil {
				if err != nil || got != "ok" {
					t.Errorf("Do: got = (%q, %v), wanted (ok, nil)", got, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Do: got = %v, wanted %v", err, tt.wantErr)
			}
			if tt.wantPrefix != "" && !strings.HasPrefix(err.Error(), tt.wantPrefix) {
				t.Errorf("Do: got = %q, wanted prefix %q", err, tt.wantPrefix)
			}
		})
	}
}

func TestDoContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.BaseBackoff = time.Minute
	cfg.MaxBackoff = time.Minute

	_, err := retry.Do(ctx, cfg, "complete", always, func() (string, error) {
		cancel()
		return "", errors.New("503")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do: got = %v, wanted context.Canceled", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	if err := retry.DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig: %v", err)
	}
	for _, cfg := range []retry.Config{
		{MaxRetries: -1},
		{BaseBackoff: -time.Second},
		{MaxBackoff: -time.Second},
		{MaxJitter: -time.Second},
	} {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(%+v): wanted error", cfg)
		}
	}
}

func TestStatusRetryable(t *testing.T) {
	t.Parallel()
	for code, want := range map[int]bool{200: false, 400: false, 401: false, 404: false, 429: true, 500: true, 502: true, 503: true, 504: true, 529: true} {
		if got := retry.StatusRetryable(code); got != want {
			t.Errorf("StatusRetryable(%d): got = %v, wanted = %v", code, got, want)
		}
	}
}
