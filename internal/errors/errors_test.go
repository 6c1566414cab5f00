package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	archErr := New("fetch_failed", "fetch failed", KindNetwork, originalErr)

	require.NotNil(t, archErr)
	assert.Equal(t, originalErr, errors.Unwrap(archErr))
	assert.True(t, errors.Is(archErr, originalErr))
}

func TestArchiveError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "network error",
			code:     "fetch_timeout",
			message:  "request timed out",
			expected: "[fetch_timeout] request timed out",
		},
		{
			name:     "persist error",
			code:     "write_failed",
			message:  "could not write conversation file",
			expected: "[write_failed] could not write conversation file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, KindNetwork, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestArchiveError_Error_IncludesConversationAndStage(t *testing.T) {
	err := New("attachment_download_failed", "download failed", KindNetwork, nil)
	err.WithConversation("conv-123", "media")

	assert.Contains(t, err.Error(), "conversation=conv-123")
	assert.Contains(t, err.Error(), "stage=media")
}

func TestArchiveError_Is_MatchesByCode(t *testing.T) {
	err1 := New("fetch_failed", "fetch A failed", KindNetwork, nil)
	err2 := New("fetch_failed", "fetch B failed", KindNetwork, nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestArchiveError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New("fetch_failed", "fetch failed", KindNetwork, nil)
	err2 := New("parse_failed", "parse failed", KindParse, nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestArchiveError_WithConversation_AddsContext(t *testing.T) {
	err := New("embed_failed", "embed failed", KindEmbed, nil)

	err = err.WithConversation("conv-42", "embed")

	assert.Equal(t, "conv-42", err.ConversationID)
	assert.Equal(t, "embed", err.Stage)
}

func TestArchiveError_WithRetryable_OverridesKindDefault(t *testing.T) {
	err := New("parse_failed", "malformed payload", KindParse, nil)
	require.False(t, err.Retryable)

	err = err.WithRetryable(true)

	assert.True(t, err.Retryable)
}

func TestArchiveError_RetryableFromKind(t *testing.T) {
	tests := []struct {
		kind          Kind
		wantRetryable bool
	}{
		{KindNetwork, true},
		{KindRateLimited, true},
		{KindAuthFailed, false},
		{KindParse, false},
		{KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New("code", "message", tt.kind, nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestArchiveError_FatalFromKind(t *testing.T) {
	tests := []struct {
		kind      Kind
		wantFatal bool
	}{
		{KindInternal, true},
		{KindSchemaMismatch, true},
		{KindNetwork, false},
		{KindParse, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New("code", "message", tt.kind, nil)
			assert.Equal(t, tt.wantFatal, IsFatal(err))
		})
	}
}

func TestWrap_CreatesArchiveErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	archErr := Wrap("internal_failure", KindInternal, originalErr)

	require.NotNil(t, archErr)
	assert.Equal(t, "internal_failure", archErr.Code)
	assert.Equal(t, "something went wrong", archErr.Message)
	assert.Equal(t, originalErr, archErr.Cause)
}

func TestWrap_NilError_ReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap("code", KindInternal, nil))
}

func TestAuthError_CreatesAuthFailedKind(t *testing.T) {
	err := AuthError("auth_rejected", "credential rejected", nil)

	assert.Equal(t, KindAuthFailed, err.Kind)
	assert.False(t, err.Retryable)
}

func TestNetworkError_CreatesRetryableError(t *testing.T) {
	err := NetworkError("conn_refused", "connection refused", nil)

	assert.Equal(t, KindNetwork, err.Kind)
	assert.True(t, err.Retryable)
}

func TestRateLimitedError_CreatesRetryableError(t *testing.T) {
	err := RateLimitedError("rate_limited", "too many requests", nil)

	assert.Equal(t, KindRateLimited, err.Kind)
	assert.True(t, err.Retryable)
}

func TestParseError_CreatesParseKind(t *testing.T) {
	err := ParseError("bad_payload", "unexpected field", nil)

	assert.Equal(t, KindParse, err.Kind)
}

func TestEmbedError_CreatesEmbedKind(t *testing.T) {
	err := EmbedError("embed_unavailable", "embedder offline", nil)

	assert.Equal(t, KindEmbed, err.Kind)
}

func TestPersistError_CreatesPersistKind(t *testing.T) {
	err := PersistError("write_failed", "disk full", nil)

	assert.Equal(t, KindPersist, err.Kind)
}

func TestInternalError_CreatesInternalKind(t *testing.T) {
	err := InternalError("invariant_violated", "unreachable state", nil)

	assert.Equal(t, KindInternal, err.Kind)
	assert.True(t, IsFatal(err))
}

func TestIsRetryable_ChecksRetryableFlag(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable ArchiveError",
			err:      New("timeout", "timeout", KindNetwork, nil),
			expected: true,
		},
		{
			name:     "non-retryable ArchiveError",
			err:      New("not_found", "not found", KindParse, nil),
			expected: false,
		},
		{
			name:     "wrapped retryable error",
			err:      Wrap("timeout", KindNetwork, errors.New("wrapped")),
			expected: true,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "internal error",
			err:      New("bug", "invariant violated", KindInternal, nil),
			expected: true,
		},
		{
			name:     "schema mismatch error",
			err:      New("schema", "schema mismatch", KindSchemaMismatch, nil),
			expected: true,
		},
		{
			name:     "non-fatal error",
			err:      New("not_found", "not found", KindParse, nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

func TestGetCode_ExtractsCode(t *testing.T) {
	err := New("some_code", "message", KindInternal, nil)
	assert.Equal(t, "some_code", GetCode(err))
	assert.Equal(t, "", GetCode(errors.New("standard")))
}

func TestGetKind_ExtractsKind(t *testing.T) {
	err := New("some_code", "message", KindEmbed, nil)
	assert.Equal(t, KindEmbed, GetKind(err))
	assert.Equal(t, Kind(""), GetKind(errors.New("standard")))
}
