// Package bridge approximates the bridge count the Candidate Engine's
// value_score needs: how many of a type's edges connect otherwise
// label-disjoint neighborhoods, rather than sitting inside one densely
// connected cluster. The Graph Adapter has no native notion of
// "distant subgraphs", so this is estimated from a sample rather than
// computed exactly over the whole graph.
package bridge

import (
	"context"

	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Counts estimates the bridge count for every type in vocabulary,
// sampling up to sampleSize edges per label via the Graph Adapter.
// Builtin and zero-usage types are skipped: builtins never compete for
// deprecation and zero-usage types already route to auto-prune without
// needing a bridge count at all.
func Counts(ctx context.Context, adapter graph.Adapter, vocabulary []types.VocabularyType, sampleSize int, seed int64) (map[string]uint64, error) {
	out := make(map[string]uint64, len(vocabulary))
	for _, t := range vocabulary {
		if t.IsBuiltin || t.UsageCount == 0 {
			continue
		}
		n, err := countForLabel(ctx, adapter, t.Name, t.UsageCount, sampleSize, seed)
		if err != nil {
			return nil, err
		}
		out[t.Name] = n
	}
	return out, nil
}

// countForLabel samples up to sampleSize edges bearing label and checks,
// for each, whether the source and target nodes share no other edge
// label in common — meaning this edge is plausibly the only connector
// between two label-disjoint neighborhoods. The sampled bridge fraction
// is then scaled up against the type's total usage_count.
func countForLabel(ctx context.Context, adapter graph.Adapter, label string, usageCount uint64, sampleSize int, seed int64) (uint64, error) {
	if sampleSize <= 0 {
		sampleSize = 50
	}
	edges, err := adapter.SampleEdges(ctx, label, sampleSize, seed)
	if err != nil {
		return 0, err
	}
	if len(edges) == 0 {
		return 0, nil
	}

	var bridges int
	for _, e := range edges {
		isBridge, err := isBridgeEdge(ctx, adapter, e)
		if err != nil {
			return 0, err
		}
		if isBridge {
			bridges++
		}
	}

	fraction := float64(bridges) / float64(len(edges))
	return uint64(fraction * float64(usageCount)), nil
}

// isBridgeEdge reports whether e's source and target neighborhoods share
// no label other than e's own, treating e as the sole connective tissue
// between them.
func isBridgeEdge(ctx context.Context, adapter graph.Adapter, e types.Edge) (bool, error) {
	sourceLabels, err := labelSetExcluding(ctx, adapter, e.SourceID, e.Label)
	if err != nil {
		return false, err
	}
	if len(sourceLabels) == 0 {
		return false, nil
	}
	targetLabels, err := labelSetExcluding(ctx, adapter, e.TargetID, e.Label)
	if err != nil {
		return false, err
	}
	if len(targetLabels) == 0 {
		return false, nil
	}
	for l := range sourceLabels {
		if targetLabels[l] {
			return false, nil
		}
	}
	return true, nil
}

func labelSetExcluding(ctx context.Context, adapter graph.Adapter, nodeID, exclude string) (map[string]bool, error) {
	incident, err := adapter.IncidentEdges(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(incident))
	for _, e := range incident {
		if e.Label == exclude {
			continue
		}
		set[e.Label] = true
	}
	return set, nil
}
