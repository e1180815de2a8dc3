package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrOrchestrationNotFound     = errors.New("orchestration not found")
	ErrPlatformMappingNotFound   = errors.New("platform mapping not found")
	ErrWorkflowNotFound          = errors.New("workflow not found")
	ErrTemplateNotFound          = errors.New("template not found")
	ErrConnectionNotFound        = errors.New("connection not found")
	ErrInvalidOrchestrationInput = errors.New("invalid orchestration input")
	ErrInvalidStateTransition    = errors.New("invalid orchestration state transition")
	ErrNoActiveConnection        = errors.New("no active connection for platform")
	ErrMissingPlatformMapping    = errors.New("no platform mapping found for platform")
	ErrConnectionInactive        = errors.New("platform connection is not active")
	ErrUnsupportedPlatform       = errors.New("unsupported platform")
	ErrMappingNotDeployed        = errors.New("platform mapping has no external campaign")
	ErrMissingExternalID         = errors.New("platform did not return a campaign id")
	ErrConcurrentModification    = errors.New("concurrent modification detected")
	ErrUnsupportedSyncType       = errors.New("unsupported sync type")
	ErrUnsupportedOperation      = errors.New("unsupported orchestration operation")
	ErrIdempotencyKeyConflict    = errors.New("idempotency key conflict")
)

// PlatformError is the normalized failure surfaced by every platform adapter.
type PlatformError struct {
	Platform   string
	Operation  string
	StatusCode int
	Retryable  bool
	Message    string
	Err        error
}

func (e *PlatformError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Platform, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed (status %d): %s", e.Platform, e.Operation, e.StatusCode, e.Message)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError classifies the status code: 408, 429 and 5xx are retryable.
func NewPlatformError(platform string, operation string, statusCode int, message string) *PlatformError {
	return &PlatformError{
		Platform:   platform,
		Operation:  operation,
		StatusCode: statusCode,
		Retryable:  RetryableStatus(statusCode),
		Message:    message,
	}
}

func RetryableStatus(statusCode int) bool {
	switch {
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether a calling scheduler may requeue the failed operation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Retryable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrConcurrentModification) {
		return true
	}
	return false
}

// IsRemoteCampaignGone reports a platform answer that the campaign no longer exists.
func IsRemoteCampaignGone(err error) bool {
	var platformErr *PlatformError
	if !errors.As(err, &platformErr) {
		return false
	}
	return platformErr.StatusCode == http.StatusNotFound || platformErr.StatusCode == http.StatusGone
}

// IsConfigurationError reports failures that need operator action, not a retry.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNoActiveConnection) ||
		errors.Is(err, ErrMissingPlatformMapping) ||
		errors.Is(err, ErrConnectionInactive) ||
		errors.Is(err, ErrUnsupportedPlatform)
}
