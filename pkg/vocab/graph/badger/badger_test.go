package badger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph/badger"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

func newTestStore(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.Open(badger.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func seedType(t *testing.T, store *badger.Store, ctx context.Context, name string, builtin bool, usage uint64) {
	t.Helper()
	require.NoError(t, store.PutVocabularyType(ctx, types.VocabularyType{
		Name: name, IsActive: true, IsBuiltin: builtin, UsageCount: usage,
	}))
}

func TestStore_ListVocabularyFiltersAndSorts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedType(t, store, ctx, "mentioned_in", false, 3)
	seedType(t, store, ctx, "authored_by", true, 0)
	require.NoError(t, store.PutVocabularyType(ctx, types.VocabularyType{Name: "obsolete", IsActive: false}))

	out, err := store.ListVocabulary(ctx, types.VocabularyFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "mentioned_in", out[0].Name)

	out, err = store.ListVocabulary(ctx, types.VocabularyFilter{IncludeBuiltin: true})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "authored_by", out[0].Name)
	require.Equal(t, "mentioned_in", out[1].Name)
}

func TestStore_GetTypeNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetType(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_RewriteEdgeLabelsMovesAndDeactivates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedType(t, store, ctx, "wrote", false, 0)
	seedType(t, store, ctx, "authored", false, 0)
	require.NoError(t, store.PutEdge(ctx, types.Edge{SourceID: "n1", TargetID: "n2", Label: "wrote", Confidence: 0.9}))
	require.NoError(t, store.PutEdge(ctx, types.Edge{SourceID: "n3", TargetID: "n4", Label: "wrote", Confidence: 0.8}))

	moved, err := store.RewriteEdgeLabels(ctx, "wrote", "authored")
	require.NoError(t, err)
	require.Equal(t, uint64(2), moved)

	deprecated, err := store.GetType(ctx, "wrote")
	require.NoError(t, err)
	require.False(t, deprecated.IsActive)

	target, err := store.GetType(ctx, "authored")
	require.NoError(t, err)
	require.Equal(t, uint64(2), target.UsageCount)

	count, err := store.CountEdgesByLabel(ctx, "authored")
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestStore_RewriteEdgeLabelsBuiltinConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedType(t, store, ctx, "wrote", true, 0)
	seedType(t, store, ctx, "authored", false, 0)

	_, err := store.RewriteEdgeLabels(ctx, "wrote", "authored")
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestStore_DeactivateTypeFailsWithLiveEdges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedType(t, store, ctx, "wrote", false, 0)
	require.NoError(t, store.PutEdge(ctx, types.Edge{SourceID: "n1", TargetID: "n2", Label: "wrote"}))

	err := store.DeactivateType(ctx, "wrote")
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestStore_PruneTypeFailsOnUsage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedType(t, store, ctx, "wrote", false, 4)
	err := store.PruneType(ctx, "wrote")
	require.ErrorIs(t, err, errs.ErrConflict)

	seedType(t, store, ctx, "unused_type", false, 0)
	require.NoError(t, store.PruneType(ctx, "unused_type"))
	_, err = store.GetType(ctx, "unused_type")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_UpdateTypeAttributesPartialPatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedType(t, store, ctx, "wrote", false, 0)

	status := types.StatusWellGrounded
	require.NoError(t, store.UpdateTypeAttributes(ctx, "wrote", types.AttrPatch{EpistemicStatus: &status}))

	got, err := store.GetType(ctx, "wrote")
	require.NoError(t, err)
	require.Equal(t, types.StatusWellGrounded, got.EpistemicStatus)
	require.Equal(t, uint64(0), got.UsageCount)
}

func TestStore_BumpMeasurementEpochIncrements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.BumpMeasurementEpoch(ctx)
	require.NoError(t, err)
	second, err := store.BumpMeasurementEpoch(ctx)
	require.NoError(t, err)
	require.Equal(t, first+1, second)
}

func TestStore_SampleEdgesDeterministicForSeed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedType(t, store, ctx, "wrote", false, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.PutEdge(ctx, types.Edge{SourceID: "n", TargetID: "m" + string(rune('0'+i)), Label: "wrote"}))
	}

	first, err := store.SampleEdges(ctx, "wrote", 3, 42)
	require.NoError(t, err)
	second, err := store.SampleEdges(ctx, "wrote", 3, 42)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, first, 3)
}

func TestStore_ProfileBuiltinImmutable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.PutProfile(ctx, types.AggressivenessProfile{Name: "gentle", IsBuiltin: true})
	require.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, store.PutProfile(ctx, types.AggressivenessProfile{Name: "custom", X1: 0.2, Y1: 0.1, X2: 0.8, Y2: 0.9}))
	got, err := store.GetProfile(ctx, "custom")
	require.NoError(t, err)
	require.Equal(t, 0.2, got.X1)

	require.NoError(t, store.DeleteProfile(ctx, "custom"))
	_, err = store.GetProfile(ctx, "custom")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_ListCategorySeeds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutCategorySeed(ctx, types.CategorySeed{Name: "causation", SeedText: []string{"causes", "leads to"}}))

	seeds, err := store.ListCategorySeeds(ctx)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	require.Equal(t, "causation", seeds[0].Name)
}
