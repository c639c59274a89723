// Package errors defines the error taxonomy of the werewolf engine.
//
// Failures inside a running game are absorbed, never propagated:
//   - InferenceError: a model call failed. The inference client retries the
//     retryable ones and then degrades to an "Error: ..." reply.
//   - DecisionError: a reply could not be reduced to a legal choice. The
//     decision pipeline records it and abstains.
//
// Only configuration, cancellation and replay I/O errors reach the operator.
//
// Usage:
//
//	err := errors.NewInferenceError("chat completion failed", cause).
//		WithSeat(3).WithModel("gpt-4o-mini").WithAttempt(2)
//
//	if !err.Retryable() { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions so callers need only this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Inference sentinels.
var (
	ErrNoProvider      = New("no inference provider")
	ErrInferenceFailed = New("inference failed")
	ErrEmptyResponse   = New("empty model response")
	// ErrRejected marks a request the endpoint refused outright, such as a
	// bad key or an unknown model. Retrying cannot fix it.
	ErrRejected = New("request rejected")
	ErrTimeout  = New("operation timed out")
)

// Decision sentinels.
var (
	// ErrMalformedDecision means no extraction stage produced a choice.
	ErrMalformedDecision = New("malformed decision")
	// ErrIllegalChoice is a well-formed choice outside the legal set.
	ErrIllegalChoice = New("illegal choice")
)

// Game and replay sentinels.
var (
	ErrGameOver        = New("game is over")
	ErrCanceled        = New("game canceled")
	ErrSeatNotFound    = New("seat not found")
	ErrReplayCorrupted = New("replay data corrupted")
)

// permanent causes end an inference retry loop at once.
var permanent = []error{ErrNoProvider, ErrRejected, context.Canceled}

// describe renders "kind [k=v, ...]: message: cause". Zero-valued context
// fields are left out.
func describe(kind, message string, cause error, kv ...any) string {
	var parts []string
	for i := 0; i+1 < len(kv); i += 2 {
		switch v := kv[i+1]; v {
		case 0, "", nil:
			continue
		default:
			parts = append(parts, fmt.Sprintf("%v=%v", kv[i], v))
		}
	}

	var sb strings.Builder
	sb.WriteString(kind)
	if len(parts) > 0 {
		sb.WriteString(" [" + strings.Join(parts, ", ") + "]")
	}
	if message != "" {
		sb.WriteString(": " + message)
	}
	if cause != nil {
		sb.WriteString(": " + cause.Error())
	}
	return sb.String()
}

// InferenceError is one failed attempt to get a reply from a model.
type InferenceError struct {
	Seat    int
	Model   string
	Attempt int

	message   string
	cause     error
	retryable bool
}

// NewInferenceError wraps cause. The error is retryable unless cause is
// one of the permanent conditions or a non-retryable InferenceError.
func NewInferenceError(message string, cause error) *InferenceError {
	return &InferenceError{message: message, cause: cause, retryable: !isPermanent(cause)}
}

func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	for _, p := range permanent {
		if Is(err, p) {
			return true
		}
	}
	var ie *InferenceError
	return As(err, &ie) && !ie.retryable
}

// WithSeat records the seat that made the call.
func (e *InferenceError) WithSeat(seat int) *InferenceError {
	e.Seat = seat
	return e
}

// WithModel records the configured model name.
func (e *InferenceError) WithModel(model string) *InferenceError {
	e.Model = model
	return e
}

// WithAttempt records which attempt failed, counting from 1.
func (e *InferenceError) WithAttempt(attempt int) *InferenceError {
	e.Attempt = attempt
	return e
}

// WithRetryable overrides the retry classification.
func (e *InferenceError) WithRetryable(r bool) *InferenceError {
	e.retryable = r
	return e
}

// Retryable reports whether another attempt may succeed.
func (e *InferenceError) Retryable() bool { return e.retryable }

func (e *InferenceError) Error() string {
	return describe("inference error", e.message, e.cause,
		"seat", e.Seat, "model", e.Model, "attempt", e.Attempt)
}

func (e *InferenceError) Unwrap() error { return e.cause }

// Is matches ErrInferenceFailed and any *InferenceError.
func (e *InferenceError) Is(target error) bool {
	if _, ok := target.(*InferenceError); ok {
		return true
	}
	return target == ErrInferenceFailed
}

// DecisionError is a reply that could not be reduced to a legal choice.
type DecisionError struct {
	Seat   int
	Action string
	// Raw is the reply that failed extraction.
	Raw string

	message string
	cause   error
}

// NewDecisionError wraps cause.
func NewDecisionError(message string, cause error) *DecisionError {
	return &DecisionError{message: message, cause: cause}
}

// WithSeat records the deciding seat.
func (e *DecisionError) WithSeat(seat int) *DecisionError {
	e.Seat = seat
	return e
}

// WithAction records the requested action.
func (e *DecisionError) WithAction(action string) *DecisionError {
	e.Action = action
	return e
}

// WithRaw attaches the reply text.
func (e *DecisionError) WithRaw(raw string) *DecisionError {
	e.Raw = raw
	return e
}

func (e *DecisionError) Error() string {
	return describe("decision error", e.message, e.cause, "seat", e.Seat, "action", e.Action)
}

func (e *DecisionError) Unwrap() error { return e.cause }

// Is matches ErrMalformedDecision and any *DecisionError.
func (e *DecisionError) Is(target error) bool {
	if _, ok := target.(*DecisionError); ok {
		return true
	}
	return target == ErrMalformedDecision
}

// TimeoutError is an attempt cut off by its per-call deadline.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	cause     error
}

// NewTimeoutError describes an operation that exceeded d.
func NewTimeoutError(operation string, d time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: d}
}

// WithCause attaches the underlying error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

func (e *TimeoutError) Error() string {
	return describe("timeout error", fmt.Sprintf("%s (timeout: %s)", e.Operation, e.Duration), e.cause)
}

func (e *TimeoutError) Unwrap() error { return e.cause }

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// IsRetryable reports whether err describes a transient failure: a
// retryable InferenceError, a timeout or an expired deadline.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ie *InferenceError
	if As(err, &ie) {
		return ie.retryable
	}
	return Is(err, ErrTimeout) || Is(err, context.DeadlineExceeded)
}

// Wrap adds context to err. It returns nil for a nil err.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to err. It returns nil for a nil err.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
