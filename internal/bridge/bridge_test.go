package bridge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticegraph/vocabengine/internal/bridge"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph/mock"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

func TestCounts_SkipsBuiltinAndZeroUsage(t *testing.T) {
	g := mock.New()
	g.Types["builtin_t"] = types.VocabularyType{Name: "builtin_t", IsBuiltin: true, UsageCount: 10}
	g.Types["unused"] = types.VocabularyType{Name: "unused", UsageCount: 0}

	counts, err := bridge.Counts(context.Background(), g, []types.VocabularyType{g.Types["builtin_t"], g.Types["unused"]}, 10, 1)
	require.NoError(t, err)
	require.Empty(t, counts)
}

func TestCounts_IdentifiesBridgeEdges(t *testing.T) {
	g := mock.New()
	g.Types["connects"] = types.VocabularyType{Name: "connects", UsageCount: 1}
	g.Edges = []types.Edge{
		// "connects" is the sole edge between n1 (only other label "inside_a")
		// and n2 (only other label "inside_b") — a bridge.
		{SourceID: "n1", TargetID: "n2", Label: "connects"},
		{SourceID: "n1", TargetID: "n3", Label: "inside_a"},
		{SourceID: "n2", TargetID: "n4", Label: "inside_b"},
	}

	counts, err := bridge.Counts(context.Background(), g, []types.VocabularyType{g.Types["connects"]}, 10, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), counts["connects"])
}

func TestCounts_NonBridgeSharesLabelWithNeighborhood(t *testing.T) {
	g := mock.New()
	g.Types["inside"] = types.VocabularyType{Name: "inside", UsageCount: 1}
	g.Edges = []types.Edge{
		{SourceID: "n1", TargetID: "n2", Label: "inside"},
		{SourceID: "n1", TargetID: "n3", Label: "shared"},
		{SourceID: "n2", TargetID: "n4", Label: "shared"},
	}

	counts, err := bridge.Counts(context.Background(), g, []types.VocabularyType{g.Types["inside"]}, 10, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), counts["inside"])
}
