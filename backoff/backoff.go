// Package backoff is the one retry policy in the oracle: every collaborator
// call that may fail transiently goes through Retry instead of growing its
// own sleep loop.
package backoff

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
)

type Policy struct {
	MaxAttempts int           // total attempts, not retries
	Base        time.Duration // delay before the second attempt
	Cap         time.Duration // delay ceiling
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Base:        500 * time.Millisecond,
		Cap:         30 * time.Second,
	}
}

// Delay returns the pause after the given failed attempt (1-based):
// base, 2*base, 4*base, ... capped at Cap.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap
		}
	}
	if d > p.Cap {
		return p.Cap
	}
	return d
}

// Retry runs fn up to p.MaxAttempts times with exponential backoff between
// attempts. The label only feeds logs and the exhaustion error. Cancellation
// is honored between attempts, never mid-call.
func Retry(ctx context.Context, p Policy, label string, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		logger.WithFields(logger.Fields{
			"op":      label,
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warnf("retrying after failure: %v", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", label, p.MaxAttempts, lastErr)
}
