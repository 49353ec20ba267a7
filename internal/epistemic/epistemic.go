// Package epistemic implements the Epistemic Classifier: it samples
// edges for each active vocabulary type, computes a bounded-recursion
// grounding value for each, and classifies the type into one of seven
// states.
package epistemic

import (
	"context"
	"math"
	"regexp"
	"sort"

	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Config tunes the classifier's grounding-sampling and pattern-matching
// behavior.
type Config struct {
	SampleSize             int
	GroundingMaxDepth      int
	HistoricalPatterns     []*regexp.Regexp
}

// Classifier measures grounding distributions and assigns epistemic
// status. It holds no mutable state between Measure calls.
type Classifier struct {
	adapter graph.Adapter
	cfg     Config
}

// New constructs a Classifier backed by adapter.
func New(adapter graph.Adapter, cfg Config) *Classifier {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 50
	}
	if cfg.GroundingMaxDepth <= 0 {
		cfg.GroundingMaxDepth = 3
	}
	return &Classifier{adapter: adapter, cfg: cfg}
}

// Measure runs a full classification pass over every active type,
// stamping StatusMeasuredAt with a freshly bumped measurement epoch. When
// persist is true, each type's status/stats are written back via the
// Graph Adapter; when false, no type attributes are written and the report
// is only returned. The measurement epoch is bumped on every call, whatever
// persist is.
func (c *Classifier) Measure(ctx context.Context, seed int64, persist bool) (types.ClassificationReport, error) {
	activeTypes, err := c.adapter.ListVocabulary(ctx, types.VocabularyFilter{IncludeBuiltin: true})
	if err != nil {
		return types.ClassificationReport{}, err
	}

	epoch, err := c.adapter.BumpMeasurementEpoch(ctx)
	if err != nil {
		return types.ClassificationReport{}, err
	}

	report := types.ClassificationReport{
		MeasuredAt: epoch,
		Results:    make(map[string]types.TypeClassification, len(activeTypes)),
	}

	for _, t := range activeTypes {
		stats, err := c.measureType(ctx, t.Name, seed)
		if err != nil {
			return types.ClassificationReport{}, err
		}
		status := classify(t.Name, stats, c.cfg.HistoricalPatterns)

		report.Results[t.Name] = types.TypeClassification{Name: t.Name, Status: status, Stats: stats}

		if !persist {
			continue
		}
		if err := c.adapter.UpdateTypeAttributes(ctx, t.Name, types.AttrPatch{
			EpistemicStatus:  &status,
			EpistemicStats:   &stats,
			StatusMeasuredAt: &epoch,
		}); err != nil {
			return types.ClassificationReport{}, err
		}
	}

	return report, nil
}

// measureType samples at most cfg.SampleSize edges for name and
// aggregates their grounding values.
func (c *Classifier) measureType(ctx context.Context, name string, seed int64) (types.EpistemicStats, error) {
	edges, err := c.adapter.SampleEdges(ctx, name, c.cfg.SampleSize, seed)
	if err != nil {
		return types.EpistemicStats{}, err
	}

	if len(edges) == 0 {
		return types.EpistemicStats{}, nil
	}

	values := make([]float64, 0, len(edges))
	for _, e := range edges {
		visited := map[string]bool{}
		g, err := c.grounding(ctx, e, visited, c.cfg.GroundingMaxDepth)
		if err != nil {
			return types.EpistemicStats{}, err
		}
		values = append(values, g)
	}

	return aggregate(values), nil
}

// grounding computes a signed [-1,1] scalar for e's target concept by
// bounded recursion over its incident edges, breaking cycles with
// visited. Depth 0 returns the edge's own confidence as the base case.
func (c *Classifier) grounding(ctx context.Context, e types.Edge, visited map[string]bool, depth int) (float64, error) {
	base := e.Confidence
	if base == 0 {
		base = e.Grounding
	}
	if depth <= 0 || visited[e.TargetID] {
		return base, nil
	}
	visited[e.TargetID] = true

	neighbors, err := c.adapter.IncidentEdges(ctx, e.TargetID)
	if err != nil {
		return 0, err
	}
	if len(neighbors) == 0 {
		return base, nil
	}

	var sum float64
	var counted int
	for _, n := range neighbors {
		if n.TargetID == e.TargetID && n.SourceID == e.SourceID {
			continue
		}
		sub, err := c.grounding(ctx, n, visited, depth-1)
		if err != nil {
			return 0, err
		}
		sum += sub
		counted++
	}
	if counted == 0 {
		return base, nil
	}
	avg := sum / float64(counted)
	return clamp(0.5*base+0.5*avg, -1, 1), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// aggregate computes mean/stddev/min/max/count over values, deterministic
// given the same input slice and the same per-edge grounding values.
func aggregate(values []float64) types.EpistemicStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return types.EpistemicStats{
		Mean:   mean,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Count:  len(values),
	}
}
