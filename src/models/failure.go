package models

import "fmt"

// FailureKind classifies a backend failure. Controllers convert every
// backend fault into one of these instead of letting errors escape, so the
// integrator always operates on well-formed inputs.
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureRateLimit       FailureKind = "rate_limit"
	FailureTransient       FailureKind = "transient_unavailable"
	FailureAuth            FailureKind = "auth"
	FailureInvalidRequest  FailureKind = "invalid_request"
	FailureContentFiltered FailureKind = "content_filtered"
	FailureModelLoad       FailureKind = "model_load"
	FailureGeneration      FailureKind = "generation"
	FailureInternal        FailureKind = "internal"
)

// Retryable reports whether a failure of this kind is worth retrying.
// Auth, malformed-request and content-filter failures never are.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureTimeout, FailureRateLimit, FailureTransient:
		return true
	}
	return false
}

// Failure is the structured error carried inside a ModelResponse.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFailure builds a Failure with a formatted message.
func NewFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FailedResponse builds a ModelResponse representing a failed call on the
// given track.
func FailedResponse(source ProcessingPath, kind FailureKind, format string, args ...any) *ModelResponse {
	return &ModelResponse{
		Source:  source,
		Failure: NewFailure(kind, format, args...),
	}
}

// ConfigurationError is the only error class that propagates out of the
// core: missing credentials or invalid setup, fatal at initialization time.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
