// Package errors provides the archive's structured error taxonomy:
// provider-surface faults, pipeline per-conversation failures, and
// storage-layer faults, each carrying a Kind that IsRetryable and IsFatal
// classify as retryable, fatal, or neither. The pipeline orchestrator does
// not inspect Kind; cmd/archive uses IsRetryable to decide whether a fetch
// is retried.
package errors

// Kind classifies an ArchiveError by where and why it originated.
type Kind string

const (
	// KindAuthRequired means the provider has no stored credential at all.
	KindAuthRequired Kind = "AUTH_REQUIRED"
	// KindAuthFailed means a stored credential was rejected by the provider.
	KindAuthFailed Kind = "AUTH_FAILED"
	// KindTokenExpired means a stored credential was valid once but has expired.
	KindTokenExpired Kind = "TOKEN_EXPIRED"
	// KindRateLimited means the provider asked the caller to back off.
	KindRateLimited Kind = "RATE_LIMITED"
	// KindNetwork covers transport-level failures: timeouts, connection resets, DNS.
	KindNetwork Kind = "NETWORK"
	// KindAPI covers well-formed provider responses reporting an application error.
	KindAPI Kind = "API"
	// KindParse covers malformed provider payloads that fail to decode.
	KindParse Kind = "PARSE"
	// KindEmbed covers embedder backend failures.
	KindEmbed Kind = "EMBED"
	// KindPersist covers failures writing conversation, embeddings, or index files.
	KindPersist Kind = "PERSIST"
	// KindSchemaMismatch covers a persisted file whose schema does not match
	// what the reader expects.
	KindSchemaMismatch Kind = "SCHEMA_MISMATCH"
	// KindChannelClosed covers a pipeline stage observing a closed channel
	// where it expected more work.
	KindChannelClosed Kind = "CHANNEL_CLOSED"
	// KindInternal covers invariant violations that indicate a bug rather
	// than an environmental condition.
	KindInternal Kind = "INTERNAL"
)

// retryableKinds are kinds where the condition that caused the failure is
// expected to be transient.
var retryableKinds = map[Kind]bool{
	KindRateLimited: true,
	KindNetwork:     true,
}

// fatalKinds are kinds that should abort the whole run rather than being
// isolated to a single conversation.
var fatalKinds = map[Kind]bool{
	KindInternal:       true,
	KindSchemaMismatch: true,
}

func isRetryableKind(k Kind) bool { return retryableKinds[k] }

func isFatalKind(k Kind) bool { return fatalKinds[k] }
