// Package embeddings defines the Embedding Provider external interface: a
// text -> fixed-dimension vector function owned by a pluggable backend.
// The engine treats the provider as a black box.
package embeddings

import "context"

// Provider is the abstraction over any embedding backend. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Embed returns the embedding vector for text. The returned vector's
	// length always equals Dimensions().
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in order. Used by
	// the embedding backfill path to amortize provider round trips.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length this provider produces.
	// The Embedding Service reads this at construction time rather than
	// inferring it from the first vector seen.
	Dimensions() int

	// ModelID identifies the concrete model, used to detect when a cached
	// embedding was produced by a different model than is now configured.
	ModelID() string
}
