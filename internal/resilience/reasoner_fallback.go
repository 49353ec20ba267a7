package resilience

import (
	"context"

	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
)

// ReasonerFallback implements reasoner.Provider with automatic failover
// across multiple configured reasoning backends. Each backend has its own
// circuit breaker; when the primary fails or its breaker is open, the
// next healthy fallback is tried. This is distinct from the executor's
// deterministic heuristic fallback: ReasonerFallback only ever returns
// answers that came from a real reasoning backend, or ErrAllFailed if
// none responded — the caller (internal/executor) is responsible for
// treating ErrAllFailed as "provider unavailable" and invoking the
// deterministic heuristic.
type ReasonerFallback struct {
	group *FallbackGroup[reasoner.Provider]
}

// Compile-time interface assertion.
var _ reasoner.Provider = (*ReasonerFallback)(nil)

// NewReasonerFallback creates a ReasonerFallback with primary as the
// preferred backend.
func NewReasonerFallback(primary reasoner.Provider, primaryName string, cfg FallbackConfig) *ReasonerFallback {
	return &ReasonerFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional reasoning provider as a fallback.
func (f *ReasonerFallback) AddFallback(name string, provider reasoner.Provider) {
	f.group.AddFallback(name, provider)
}

// Evaluate sends req to the first healthy provider, trying fallbacks in
// registration order if earlier ones fail or have an open breaker.
func (f *ReasonerFallback) Evaluate(ctx context.Context, req reasoner.Request) (reasoner.Response, error) {
	return ExecuteWithResult(f.group, func(p reasoner.Provider) (reasoner.Response, error) {
		return p.Evaluate(ctx, req)
	})
}
