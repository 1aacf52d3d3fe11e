package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when the service answered but carried no text.
var ErrEmptyResponse = errors.New("ai: empty response")

// Transport performs exactly one completion request.
type Transport interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetryPolicy bounds the calls made for one prompt.
type RetryPolicy struct {
	Attempts       int
	AttemptTimeout time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	// MaxJitter is the exclusive upper bound of the random delay added to
	// every backoff.
	MaxJitter time.Duration
}

// DefaultRetryPolicy: two attempts of 20s each, 1s base delay doubling up to
// 16s, plus up to 1s of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       2,
		AttemptTimeout: 20 * time.Second,
		BaseDelay:      time.Second,
		MaxDelay:       16 * time.Second,
		MaxJitter:      time.Second,
	}
}

// Backoff returns the wait after the given failed attempt (1-based), without
// jitter: min(MaxDelay, BaseDelay * 2^(attempt-1)).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Client wraps a Transport with per-attempt timeouts and exponential backoff.
type Client struct {
	transport Transport
	policy    RetryPolicy
	log       *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewClient builds a retrying client. Zero policy fields fall back to
// DefaultRetryPolicy values.
func NewClient(t Transport, policy RetryPolicy, log *slog.Logger) *Client {
	def := DefaultRetryPolicy()
	if policy.Attempts < 1 {
		policy.Attempts = def.Attempts
	}
	if policy.AttemptTimeout <= 0 {
		policy.AttemptTimeout = def.AttemptTimeout
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}
	if policy.MaxJitter < 0 {
		policy.MaxJitter = 0
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{transport: t, policy: policy, log: log, sleep: sleepCtx}
	c.jitter = func() time.Duration {
		if c.policy.MaxJitter <= 0 {
			return 0
		}
		return rand.N(c.policy.MaxJitter)
	}
	return c
}

// Policy returns the effective retry policy.
func (c *Client) Policy() RetryPolicy { return c.policy }

// Generate sends prompt and returns the first non-empty text. When every
// attempt fails the joined attempt errors are returned.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		text, err := c.attempt(ctx, prompt)
		if err == nil {
			return text, nil
		}
		errs = append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
		if attempt == c.policy.Attempts {
			c.log.Error("ai: all attempts failed", "attempts", attempt, "error", err)
			break
		}
		delay := c.policy.Backoff(attempt) + c.jitter()
		c.log.Warn("ai: attempt failed, retrying", "attempt", attempt, "delay", delay.Round(time.Millisecond), "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return "", errors.Join(errs...)
}

func (c *Client) attempt(ctx context.Context, prompt string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()
	text, err := c.transport.Complete(actx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
