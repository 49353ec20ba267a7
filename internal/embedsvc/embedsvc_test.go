package embedsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emock "github.com/latticegraph/vocabengine/pkg/vocab/embeddings/mock"
	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	gmock "github.com/latticegraph/vocabengine/pkg/vocab/graph/mock"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

func newFixture(dims int) (*Service, *emock.Provider, *gmock.Adapter) {
	prov := &emock.Provider{
		EmbedResult:     make([]float32, dims),
		DimensionsValue: dims,
		ModelIDValue:    "test-model-v1",
	}
	adapter := gmock.New()
	return New(prov, adapter), prov, adapter
}

func TestExpectedDimension_FromProviderNotCache(t *testing.T) {
	// The "stale bootstrap" regression: dimension must come from the
	// provider at construction time, never from an observed vector.
	svc, _, _ := newFixture(768)
	assert.Equal(t, 768, svc.ExpectedDimension())
}

func TestEmbeddingFor_ComputesAndPersistsWhenAbsent(t *testing.T) {
	svc, _, adapter := newFixture(4)
	adapter.Types["CAUSES"] = types.VocabularyType{Name: "CAUSES", IsActive: true}

	vec, err := svc.EmbeddingFor(context.Background(), adapter.Types["CAUSES"])
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Contains(t, adapter.PatchCalls, "CAUSES")
}

func TestEmbeddingFor_UsesCacheWhenCurrent(t *testing.T) {
	svc, prov, adapter := newFixture(4)
	t1 := types.VocabularyType{Name: "CAUSES", IsActive: true, Embedding: make([]float32, 4), EmbeddingModelID: "test-model-v1"}
	adapter.Types["CAUSES"] = t1

	_, err := svc.EmbeddingFor(context.Background(), t1)
	require.NoError(t, err)
	assert.Empty(t, prov.EmbedCalls, "should not call the provider when the cache is current")
}

func TestEmbeddingFor_StalenessRepairOnDimensionMismatch(t *testing.T) {
	svc, _, adapter := newFixture(4)
	stale := types.VocabularyType{Name: "CAUSES", IsActive: true, Embedding: make([]float32, 99), EmbeddingModelID: "test-model-v1"}
	adapter.Types["CAUSES"] = stale

	vec, err := svc.EmbeddingFor(context.Background(), stale)
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbed_EmbeddingUnavailable(t *testing.T) {
	svc, prov, _ := newFixture(4)
	prov.EmbedErr = errors.New("provider down")

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEmbeddingUnavailable))
}

func TestBackfill_OnlyEmbedsStaleTypes(t *testing.T) {
	svc, _, adapter := newFixture(4)
	adapter.Types["CAUSES"] = types.VocabularyType{Name: "CAUSES", IsActive: true}
	adapter.Types["IMPLIES"] = types.VocabularyType{
		Name: "IMPLIES", IsActive: true, IsBuiltin: true,
		Embedding: make([]float32, 4), EmbeddingModelID: "test-model-v1",
	}

	n, err := svc.Backfill(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
