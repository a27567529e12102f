package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExtraction    = errors.New("extraction error")
	ErrNetwork       = errors.New("network error")
	ErrProvider      = errors.New("provider error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrNotFound      = errors.New("not found")
	ErrParse         = errors.New("parse error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ProviderError carries the remote service's error code alongside its message.
// It unwraps to ErrProvider so callers can classify without inspecting codes.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("provider error: code %s", e.Code)
	}
	return fmt.Sprintf("provider error: code %s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProvider }

// NewProviderError constructs a ProviderError from a remote code and message.
func NewProviderError(code, message string) error {
	return &ProviderError{Code: code, Message: strings.TrimSpace(message)}
}

// ProviderCode extracts the remote error code when err wraps a ProviderError.
func ProviderCode(err error) (string, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// Retryable reports whether re-invoking the failed pipeline stage can
// plausibly succeed. Network hiccups and poll-budget timeouts are retryable;
// configuration problems, provider rejections, and missing records need
// operator action first.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrTimeout):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
