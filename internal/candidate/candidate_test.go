package candidate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

func cfg() Config {
	return Config{SimilarityStrong: 0.9, SimilarityModerate: 0.7, LowValueThreshold: 0.1, MaxCandidates: 100}
}

func TestRank_AutoPruneZeroUsage(t *testing.T) {
	vocab := []types.VocabularyType{
		{Name: "IMPLIES", IsBuiltin: true, IsActive: true, UsageCount: 42},
		{Name: "ENTAILS", IsActive: true, UsageCount: 0},
	}
	out, err := Rank(context.Background(), vocab, cfg(), nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, KindAutoPrune, out[0].Kind)
	assert.Equal(t, "ENTAILS", out[0].Primary)
}

func TestRank_AutoMergeZeroUsageHighSimilarity(t *testing.T) {
	vocab := []types.VocabularyType{
		{Name: "PREVENTS", IsActive: true, UsageCount: 17, Embedding: []float32{1, 0}},
		{Name: "INHIBITS", IsActive: true, UsageCount: 0, Embedding: []float32{0.99, 0.01}},
	}
	out, err := Rank(context.Background(), vocab, cfg(), nil, nil)
	require.NoError(t, err)

	var merges []Candidate
	for _, c := range out {
		if c.Kind == KindAutoMerge {
			merges = append(merges, c)
		}
	}
	require.Len(t, merges, 1)
	assert.Equal(t, "INHIBITS", merges[0].Primary)
	assert.Equal(t, "PREVENTS", merges[0].Secondary)
}

func TestRank_BuiltinNeverDeprecated(t *testing.T) {
	vocab := []types.VocabularyType{
		{Name: "IMPLIES", IsBuiltin: true, IsActive: true, UsageCount: 0, Embedding: []float32{1, 0}},
		{Name: "ENTAILS", IsActive: true, UsageCount: 5, Embedding: []float32{0.99, 0.01}},
	}
	out, err := Rank(context.Background(), vocab, cfg(), nil, nil)
	require.NoError(t, err)
	for _, c := range out {
		assert.NotEqual(t, "IMPLIES", c.Primary, "builtin must never be the deprecated side")
	}
}

func TestRank_ReasonerEvaluateBand(t *testing.T) {
	vocab := []types.VocabularyType{
		{Name: "DEFINED_AS", IsActive: true, UsageCount: 10, Embedding: []float32{1, 0}},
		{Name: "DEFINED", IsActive: true, UsageCount: 3, Embedding: []float32{0.82, 0.57}},
	}
	out, err := Rank(context.Background(), vocab, cfg(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, KindReasonerEvaluate, out[0].Kind)
	// Lower value_score (fewer uses) is proposed deprecated.
	assert.Equal(t, "DEFINED", out[0].Primary)
}

func TestRank_ExactStrongBoundaryNoZeroUsageIsReasonerEligible(t *testing.T) {
	// Embeddings are chosen so cosine similarity lands on exactly
	// cfg().SimilarityStrong (0.9): |a|^2 = |b|^2 = 100 and a.b = 90, all
	// integer arithmetic, so the float64 division 90/100 reproduces the
	// same rounded value as the 0.9 literal bit-for-bit.
	vocab := []types.VocabularyType{
		{Name: "CAUSES", IsActive: true, UsageCount: 5, Embedding: []float32{10, 0, 0, 0}},
		{Name: "LEADS_TO", IsActive: true, UsageCount: 7, Embedding: []float32{9, 3, 3, 1}},
	}
	out, err := Rank(context.Background(), vocab, cfg(), nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1, "an exact-boundary pair with neither side zero-usage must not be silently dropped")
	assert.Equal(t, KindReasonerEvaluate, out[0].Kind)
	assert.Equal(t, 0.9, out[0].Similarity)
	assert.Equal(t, "CAUSES", out[0].Primary, "lower value_score (fewer uses) is proposed deprecated")
}

func TestRank_NoSelfPair(t *testing.T) {
	vocab := []types.VocabularyType{
		{Name: "ONLY", IsActive: true, UsageCount: 5, Embedding: []float32{1, 0}},
	}
	out, err := Rank(context.Background(), vocab, cfg(), nil, nil)
	require.NoError(t, err)
	for _, c := range out {
		assert.NotEqual(t, c.Primary, c.Secondary)
	}
}

func TestRank_MaxCandidatesCaps(t *testing.T) {
	vocab := []types.VocabularyType{
		{Name: "A", IsActive: true, UsageCount: 0},
		{Name: "B", IsActive: true, UsageCount: 0},
		{Name: "C", IsActive: true, UsageCount: 0},
	}
	c := cfg()
	c.MaxCandidates = 1
	out, err := Rank(context.Background(), vocab, c, nil, nil)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
