package errors

import (
	"fmt"
)

// ArchiveError is the structured error type used across the ingest pipeline,
// provider adapters, and storage layer. It carries
// enough context to format directly into a PipelineResult.Errors[] entry
// without the caller re-deriving which conversation or stage failed.
type ArchiveError struct {
	// Code is a short, stable identifier for the specific failure (e.g. "attachment_download_failed").
	Code string

	// Message is the human-readable error message.
	Message string

	// Kind classifies where and why the error originated.
	Kind Kind

	// Retryable indicates the driver may re-queue the conversation rather than drop it.
	Retryable bool

	// Cause is the underlying error that caused this error.
	Cause error

	// ConversationID identifies the conversation being processed when the
	// error occurred, if any.
	ConversationID string

	// Stage names the pipeline stage that produced the error (e.g. "fetch", "media", "embed").
	Stage string
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.ConversationID != "" {
		return fmt.Sprintf("[%s] %s (conversation=%s stage=%s)", e.Code, e.Message, e.ConversationID, e.Stage)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ArchiveError.
func (e *ArchiveError) Is(target error) bool {
	if t, ok := target.(*ArchiveError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithConversation attaches the conversation and stage this error occurred in.
// Returns the error for method chaining.
func (e *ArchiveError) WithConversation(conversationID, stage string) *ArchiveError {
	e.ConversationID = conversationID
	e.Stage = stage
	return e
}

// New creates an ArchiveError with the given code, message, and kind.
// Retryable is derived from kind unless overridden with WithRetryable.
func New(code string, message string, kind Kind, cause error) *ArchiveError {
	return &ArchiveError{
		Code:      code,
		Message:   message,
		Kind:      kind,
		Cause:     cause,
		Retryable: isRetryableKind(kind),
	}
}

// WithRetryable overrides the kind-derived retryable flag.
func (e *ArchiveError) WithRetryable(retryable bool) *ArchiveError {
	e.Retryable = retryable
	return e
}

// Wrap creates an ArchiveError from an existing error, classified by kind.
// The wrapped error's message becomes the ArchiveError message.
func Wrap(code string, kind Kind, err error) *ArchiveError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), kind, err)
}

// AuthError creates an authentication-related error for a provider.
func AuthError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindAuthFailed, cause)
}

// NetworkError creates a network-related error. Network errors are retryable.
func NetworkError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindNetwork, cause)
}

// RateLimitedError creates a rate-limit error. Rate-limited errors are retryable.
func RateLimitedError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindRateLimited, cause)
}

// ParseError creates an error for a malformed provider payload.
func ParseError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindParse, cause)
}

// EmbedError creates an error for an embedder backend failure.
func EmbedError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindEmbed, cause)
}

// PersistError creates an error for a storage-layer write failure.
func PersistError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindPersist, cause)
}

// InternalError creates an error for an invariant violation.
func InternalError(code, message string, cause error) *ArchiveError {
	return New(code, message, KindInternal, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an ArchiveError with Retryable set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Retryable
	}
	return false
}

// IsFatal checks if an error's kind should abort the run rather than being
// isolated to a single conversation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ae, ok := err.(*ArchiveError); ok {
		return isFatalKind(ae.Kind)
	}
	return false
}

// GetCode extracts the error code from an ArchiveError.
// Returns empty string if not an ArchiveError.
func GetCode(err error) string {
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Code
	}
	return ""
}

// GetKind extracts the kind from an ArchiveError.
// Returns empty string if not an ArchiveError.
func GetKind(err error) Kind {
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Kind
	}
	return ""
}
