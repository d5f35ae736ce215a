// Package retry implements bounded exponential backoff for forge API calls.
// Retrying is explicit: the caller passes the operation and a predicate that
// decides which errors are worth another attempt.
package retry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy controls attempt count and backoff growth.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so a
	// value of 3 yields at most 4 attempts.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// DefaultPolicy matches the forge clients' defaults: 3 retries, 1s initial
// delay, doubling, capped at 60s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Factor:       2.0,
	}
}

// Do runs op, retrying per policy while retryable reports the error as
// transient. It returns the last error when attempts are exhausted, and
// stops early if ctx is cancelled. A nil retryable retries every error.
func Do(ctx context.Context, policy Policy, log *logrus.Logger, op func() error, retryable func(error) bool) error {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 60 * time.Second
	}
	if policy.Factor < 1 {
		policy.Factor = 2.0
	}
	if log == nil {
		log = logrus.New()
	}

	delay := policy.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxRetries {
			break
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).WithError(lastErr).Warn("operation failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * policy.Factor)
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return lastErr
}
