package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Iron-Ham/werewolf/internal/errors"
	"github.com/Iron-Ham/werewolf/internal/event"
	"github.com/Iron-Ham/werewolf/internal/logging"
	"github.com/Iron-Ham/werewolf/internal/retry"
)

// ErrorPrefix starts every degraded reply.
const ErrorPrefix = "Error: "

// IsErrorReply reports whether text is a degraded reply from Client.
func IsErrorReply(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

// Client wraps a Provider with timeout and retry discipline.
// Generate never returns an error.
type Client struct {
	provider   Provider
	seat       int
	timeout    time.Duration
	maxRetries int
	tracker    *retry.Tracker
	bus        *event.Bus
	logger     *logging.Logger
	newBackOff func() backoff.BackOff
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSeat attributes calls to a seat in logs and retry accounting.
func WithSeat(seat int) ClientOption {
	return func(c *Client) { c.seat = seat }
}

// WithTimeout bounds each attempt. Zero means no per-attempt timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithMaxRetries sets how many times a failed attempt is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = max(n, 0) }
}

// WithTracker records attempts into t.
func WithTracker(t *retry.Tracker) ClientOption {
	return func(c *Client) { c.tracker = t }
}

// WithBus publishes retry events to b.
func WithBus(b *event.Bus) ClientOption {
	return func(c *Client) { c.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithBackOff overrides the backoff policy between attempts.
func WithBackOff(f func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = f }
}

// NewClient wraps p. By default attempts are retried three times with
// exponential backoff and no per-attempt timeout.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:   p,
		maxRetries: 3,
		tracker:    retry.NewTracker(),
		logger:     logging.NopLogger(),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the wrapped provider's name.
func (c *Client) Name() string { return c.provider.Name() }

// Generate returns the provider's reply, or ErrorPrefix followed by the
// last failure once retries are exhausted or ctx is done.
func (c *Client) Generate(ctx context.Context, req Request) string {
	c.tracker.RecordCall(c.seat)
	maxTries := c.maxRetries + 1
	attempt := 0

	op := func() (string, error) {
		attempt++
		out, err := c.attempt(ctx, req)
		if err == nil {
			return out, nil
		}

		ierr := errors.NewInferenceError("generation failed", err).
			WithSeat(c.seat).
			WithModel(c.provider.Name()).
			WithAttempt(attempt)
		final := attempt >= maxTries || ctx.Err() != nil || !ierr.Retryable()
		c.tracker.RecordFailure(c.seat, err.Error())
		c.logger.Warn("inference attempt failed",
			"seat", c.seat,
			"attempt", attempt,
			"max_tries", maxTries,
			"retryable", ierr.Retryable(),
			"error", err.Error())
		if c.bus != nil {
			c.bus.Publish(event.NewInferenceRetryEvent(c.seat, attempt, final, err.Error()))
		}

		if final {
			return "", backoff.Permanent(ierr)
		}
		return "", ierr
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(maxTries)),
	)
	if err != nil {
		c.tracker.RecordDegraded(c.seat)
		c.logger.Error("inference degraded to error reply", "seat", c.seat, "error", err.Error())
		return ErrorPrefix + err.Error()
	}
	return out
}

func (c *Client) attempt(ctx context.Context, req Request) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.provider.Generate(callCtx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", errors.NewTimeoutError("generation", c.timeout).WithCause(err)
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.ErrEmptyResponse
	}
	return out, nil
}
