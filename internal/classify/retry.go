package classify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"newscurator/internal/news"
)

// PermanentError marks a classification failure that retrying cannot fix,
// such as a response that violates the expected schema.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is marked as a permanent failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// permanentStatuses are HTTP status codes that appear in provider error
// strings and indicate a failure retrying cannot fix. 408 and 429 stay
// retriable.
var permanentStatuses = []string{"400", "401", "403", "404", "422"}

// retriable reports whether a failed attempt should be tried again.
// Cancellation and permanent errors are not retried; everything else,
// including timeouts, rate limits, and transport errors, is.
func retriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || IsPermanent(err) {
		return false
	}
	errStr := err.Error()
	for _, code := range permanentStatuses {
		if strings.Contains(errStr, "returned "+code) {
			return false
		}
	}
	return true
}

// callWithRetry invokes fn up to MaxAttempts times with a per-attempt
// timeout and exponential backoff between attempts. Each attempt consumed
// increments the item's retry count.
func (s *Scheduler) callWithRetry(ctx context.Context, item *news.Item, stage string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		item.RetryCount++
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retriable(err) {
			// Surface the parent's cancellation rather than the
			// per-attempt timeout it may have triggered.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}

		delay := s.backoff(attempt)
		log.Printf("%s attempt %d/%d failed for %q, retrying in %v: %v",
			stage, attempt, s.cfg.MaxAttempts, item.Title, delay.Round(time.Millisecond), err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", s.cfg.MaxAttempts, lastErr)
}

// backoff returns the delay before the next attempt: initial backoff doubled
// per attempt, capped, plus jitter of up to half the base delay.
func (s *Scheduler) backoff(attempt int) time.Duration {
	delay := s.cfg.InitialBackoff << (attempt - 1)
	if delay > s.cfg.MaxBackoff || delay <= 0 {
		delay = s.cfg.MaxBackoff
	}
	return delay + rand.N(delay/2+1)
}

// markFailed puts an item into the Failed terminal state with a reason.
func markFailed(item *news.Item, err error) {
	item.Status = news.StatusFailed
	if errors.Is(err, context.Canceled) {
		item.FailReason = "cancelled"
	} else {
		item.FailReason = err.Error()
	}
	log.Printf("classification failed: %s: %s", item.Title, item.FailReason)
}
