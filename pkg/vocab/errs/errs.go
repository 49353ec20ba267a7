// Package errs defines the error kinds the vocabulary lifecycle engine's
// components surface. These are sentinel errors, matched with errors.Is,
// following the same convention as internal/resilience's
// ErrCircuitOpen/ErrAllFailed rather than a bespoke error-kind type.
package errs

import "errors"

var (
	// ErrGraphUnavailable means the Graph Adapter's transport failed. The
	// current invocation aborts cleanly with partial results.
	ErrGraphUnavailable = errors.New("vocab: graph unavailable")

	// ErrConflict means a Graph Adapter precondition was violated (builtin
	// merge attempt, live edges on a prune, stale measurement epoch). The
	// current candidate fails; the invocation continues.
	ErrConflict = errors.New("vocab: conflict")

	// ErrDimensionMismatch means an embedding of the wrong dimension was
	// encountered. Triggers staleness repair in the Embedding Service; if
	// repair fails, the affected candidate is skipped with rationale.
	ErrDimensionMismatch = errors.New("vocab: embedding dimension mismatch")

	// ErrEmbeddingUnavailable means no embedding provider is configured or
	// the provider is down. Similarity-dependent candidates are skipped;
	// pure-math candidates (zero-usage prune) still run.
	ErrEmbeddingUnavailable = errors.New("vocab: embedding provider unavailable")

	// ErrReasonerUnavailable means the reasoning provider is down, timed
	// out, or returned a malformed response. Triggers the heuristic
	// fallback; the resulting action is labeled heuristic, never ai.
	ErrReasonerUnavailable = errors.New("vocab: reasoner unavailable")

	// ErrInvalidConfig means an out-of-range configuration parameter was
	// supplied. Refused before any side effect.
	ErrInvalidConfig = errors.New("vocab: invalid config")

	// ErrNotFound means a named entity (type, profile) does not exist.
	ErrNotFound = errors.New("vocab: not found")
)
