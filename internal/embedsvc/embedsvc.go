// Package embedsvc implements the embedding service: it produces and
// caches vectors for vocabulary type names, with dimension discipline
// against a provider that may change model or dimension between runs.
package embedsvc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/latticegraph/vocabengine/pkg/vocab/embeddings"
	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Service wraps an embeddings.Provider with persistence through the Graph
// Adapter and dimension-mismatch repair.
type Service struct {
	provider embeddings.Provider
	adapter  graph.Adapter

	// expectedDimension is captured once at construction from the
	// provider's own advertised dimension, never inferred from the first
	// cached vector encountered.
	expectedDimension int
	modelID           string
}

// New constructs a Service. provider's Dimensions()/ModelID() are read
// once here and held for the lifetime of the Service.
func New(provider embeddings.Provider, adapter graph.Adapter) *Service {
	return &Service{
		provider:          provider,
		adapter:           adapter,
		expectedDimension: provider.Dimensions(),
		modelID:           provider.ModelID(),
	}
}

// ExpectedDimension returns the dimension this service's provider
// currently advertises.
func (s *Service) ExpectedDimension() int {
	return s.expectedDimension
}

// Embed computes the embedding for text directly, without caching. If no
// embedding provider is configured the caller will have passed a nil
// Service — callers should check for that and return
// errs.ErrEmbeddingUnavailable themselves in that case.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedsvc: %w: %v", errs.ErrEmbeddingUnavailable, err)
	}
	if len(vec) != s.expectedDimension {
		return nil, fmt.Errorf("embedsvc: provider returned %d dims, expected %d: %w", len(vec), s.expectedDimension, errs.ErrDimensionMismatch)
	}
	return vec, nil
}

// EmbeddingFor returns t's cached embedding if present and current
// (length == ExpectedDimension() and ModelID matches), otherwise computes
// it from the type's name and persists it via the Graph Adapter.
//
// Staleness repair: a cached vector of the wrong length or stale model ID
// is discarded and recomputed rather than returned as-is.
func (s *Service) EmbeddingFor(ctx context.Context, t types.VocabularyType) ([]float32, error) {
	if t.HasEmbedding() && len(t.Embedding) == s.expectedDimension && t.EmbeddingModelID == s.modelID {
		return t.Embedding, nil
	}

	text := t.Name
	vec, err := s.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	modelID := s.modelID
	if err := s.adapter.UpdateTypeAttributes(ctx, t.Name, types.AttrPatch{
		Embedding:        vec,
		EmbeddingModelID: &modelID,
	}); err != nil {
		return nil, err
	}
	return vec, nil
}

// Backfill computes embeddings for every active type lacking one (or
// carrying a stale dimension/model), bounded by concurrency concurrent
// provider calls at once. Returns the number of types embedded.
//
// This is the batch entry point for EmbeddingFor: freshly migrated
// vocabularies may have many never-embedded types, and computing them one
// at a time would serialize what could be concurrent provider round
// trips.
func (s *Service) Backfill(ctx context.Context, concurrency int) (int, error) {
	all, err := s.adapter.ListVocabulary(ctx, types.VocabularyFilter{IncludeBuiltin: true})
	if err != nil {
		return 0, err
	}

	var stale []types.VocabularyType
	for _, t := range all {
		if !t.HasEmbedding() || len(t.Embedding) != s.expectedDimension || t.EmbeddingModelID != s.modelID {
			stale = append(stale, t)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range stale {
		t := t
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			_, err := s.EmbeddingFor(gctx, t)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(stale), nil
}
