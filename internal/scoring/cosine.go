// Package scoring implements pure numeric functions over vocabulary
// features. No I/O, no mutation — every function here is a deterministic
// function of its arguments.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Cosine computes the cosine similarity of a and b. Accumulation is done
// in float64 even though the vectors are float32, to reduce drift on the
// ~1000-dimension vectors typical of text embedding models.
//
// Returns ErrDimensionMismatch when len(a) != len(b) — unlike a
// silent-zero fallback, callers need to distinguish "orthogonal" from
// "incomparable".
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("scoring: cosine %d vs %d: %w", len(a), len(b), errs.ErrDimensionMismatch)
	}
	if len(a) == 0 {
		return 0, nil
	}

	var dotProd, normA, normB float64
	for i := range a {
		dotProd += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dotProd / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// SimilarPair is one unordered pair produced by PairwiseSimilarities.
type SimilarPair struct {
	NameA, NameB string
	Similarity   float64
}

// PairwiseSimilarities returns every unordered pair of ts whose cosine
// similarity is >= thresholdModerate, in deterministic lexicographic
// (NameA, NameB) order. Types without an embedding are skipped — the
// caller is expected to have already backfilled embeddings for anything
// it wants scored.
//
// The O(n^2) comparison is sharded across goroutines bounded by
// concurrency (<=1 runs sequentially) using golang.org/x/sync/errgroup +
// semaphore for bounded fan-out.
func PairwiseSimilarities(ctx context.Context, ts []types.VocabularyType, thresholdModerate float64, concurrency int) ([]SimilarPair, error) {
	named := make([]types.VocabularyType, 0, len(ts))
	for _, t := range ts {
		if t.HasEmbedding() {
			named = append(named, t)
		}
	}
	sort.Slice(named, func(i, j int) bool { return named[i].Name < named[j].Name })

	n := len(named)
	if n < 2 {
		return nil, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([][]SimilarPair, n)
	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			var row []SimilarPair
			for j := i + 1; j < n; j++ {
				sim, err := Cosine(named[i].Embedding, named[j].Embedding)
				if err != nil {
					return err
				}
				if sim >= thresholdModerate {
					row = append(row, SimilarPair{NameA: named[i].Name, NameB: named[j].Name, Similarity: sim})
				}
			}
			results[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []SimilarPair
	for _, row := range results {
		out = append(out, row...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NameA != out[j].NameA {
			return out[i].NameA < out[j].NameA
		}
		return out[i].NameB < out[j].NameB
	})
	return out, nil
}
