// Package candidate implements the Candidate Engine: given the current
// vocabulary, scoring kernel results, and configuration, it produces a
// deterministically ordered list of actions for the decision executor to
// consider.
package candidate

import (
	"context"
	"sort"

	"github.com/latticegraph/vocabengine/internal/scoring"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Kind identifies which of the four candidate classes a Candidate
// belongs to, in priority order.
type Kind int

const (
	KindAutoPrune Kind = iota
	KindAutoMerge
	KindReasonerEvaluate
	KindLowValueReasoner
)

// Candidate is one action the Decision Executor may take. Secondary is
// empty for single-type kinds (KindAutoPrune, KindLowValueReasoner).
type Candidate struct {
	Kind Kind

	// Primary is always populated. For merge kinds it is the proposed
	// deprecated type; Secondary is the proposed target.
	Primary, Secondary string

	Similarity float64
	// PrimaryValue/SecondaryValue are value_score outputs, used for
	// direction selection and tie-breaking.
	PrimaryValue, SecondaryValue float64
}

// Config carries the thresholds the Candidate Engine ranks against.
// Thresholds are expected to already be alpha-scaled by the caller: the
// aggressiveness multiplier scales the low-value threshold and caps the
// number of candidates.
type Config struct {
	SimilarityStrong   float64
	SimilarityModerate float64
	LowValueThreshold  float64
	MaxCandidates      int
}

// BridgeCounts supplies the caller-computed bridge count per type name,
// required by scoring.ValueScore but not something the scoring package
// itself derives.
type BridgeCounts map[string]uint64

// Rank produces the ordered candidate list for one vocabulary snapshot.
// vocabulary must already be the active, non-stale set read fresh from
// the Graph Adapter — the engine holds no candidate list across a
// mutation, always re-querying instead of reusing a stale ranking.
func Rank(ctx context.Context, vocabulary []types.VocabularyType, cfg Config, bridges BridgeCounts, groundingAvg map[string]float64) ([]Candidate, error) {
	valueOf := func(t types.VocabularyType) float64 {
		return scoring.ValueScore(scoring.ValueInputs{
			UsageCount:       t.UsageCount,
			BridgeCount:      bridges[t.Name],
			GroundingAverage: groundingAvg[t.Name],
		})
	}

	byName := make(map[string]types.VocabularyType, len(vocabulary))
	for _, t := range vocabulary {
		byName[t.Name] = t
	}

	var out []Candidate

	// 1. Auto-prune: usage_count == 0, not builtin.
	for _, t := range vocabulary {
		if t.UsageCount == 0 && !t.IsBuiltin {
			out = append(out, Candidate{Kind: KindAutoPrune, Primary: t.Name})
		}
	}

	// Pairwise similarity scan feeds both auto-merge and reasoner-evaluate.
	pairs, err := scoring.PairwiseSimilarities(ctx, vocabulary, cfg.SimilarityModerate, 4)
	if err != nil {
		return nil, err
	}

	for _, p := range pairs {
		a, b := byName[p.NameA], byName[p.NameB]
		if a.Name == "" || b.Name == "" || a.Name == b.Name {
			continue
		}

		switch {
		case p.Similarity >= cfg.SimilarityStrong && (a.UsageCount == 0 || b.UsageCount == 0):
			// 2. Auto-merge: the zero-usage side is the deprecated one.
			dep, target := directionByZeroUsage(a, b)
			if dep.IsBuiltin {
				continue // builtin types are never selected as deprecated
			}
			out = append(out, Candidate{
				Kind: KindAutoMerge, Primary: dep.Name, Secondary: target.Name,
				Similarity: p.Similarity, PrimaryValue: valueOf(dep), SecondaryValue: valueOf(target),
			})

		case p.Similarity >= cfg.SimilarityModerate && p.Similarity <= cfg.SimilarityStrong:
			// 3. Reasoner-evaluate: lower value_score is proposed deprecated.
			// A pair exactly at SimilarityStrong with neither side zero-usage
			// falls here rather than being dropped: case 2 above only fires
			// when at least one side has usage_count == 0.
			va, vb := valueOf(a), valueOf(b)
			dep, target, depVal, targetVal := a, b, va, vb
			if vb < va {
				dep, target, depVal, targetVal = b, a, vb, va
			}
			if dep.IsBuiltin {
				dep, target, depVal, targetVal = target, dep, targetVal, depVal
			}
			if dep.IsBuiltin {
				continue // both builtin: nothing can be deprecated
			}
			out = append(out, Candidate{
				Kind: KindReasonerEvaluate, Primary: dep.Name, Secondary: target.Name,
				Similarity: p.Similarity, PrimaryValue: depVal, SecondaryValue: targetVal,
			})
		}
	}

	// 4. Low-value reasoner candidates: single type below threshold.
	for _, t := range vocabulary {
		// Zero-usage types are already auto-prune candidates (step 1).
		if t.IsBuiltin || t.UsageCount == 0 {
			continue
		}
		v := valueOf(t)
		if v < cfg.LowValueThreshold {
			out = append(out, Candidate{Kind: KindLowValueReasoner, Primary: t.Name, PrimaryValue: v})
		}
	}

	sortCandidates(out)

	if cfg.MaxCandidates > 0 && len(out) > cfg.MaxCandidates {
		out = out[:cfg.MaxCandidates]
	}
	return out, nil
}

// directionByZeroUsage picks the zero-usage side of a,b as the deprecated
// type. The caller guarantees at least one side has usage_count == 0
// when this is called; if both do, a (the pair's NameA side) is
// deprecated, with no further tie-break.
func directionByZeroUsage(a, b types.VocabularyType) (dep, target types.VocabularyType) {
	if a.UsageCount == 0 {
		return a, b
	}
	return b, a
}

// sortCandidates orders by priority band (Kind), then descending
// similarity, then ascending target name, then ascending deprecated
// name.
func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Kind != cs[j].Kind {
			return cs[i].Kind < cs[j].Kind
		}
		if cs[i].Similarity != cs[j].Similarity {
			return cs[i].Similarity > cs[j].Similarity
		}
		if cs[i].Secondary != cs[j].Secondary {
			return cs[i].Secondary < cs[j].Secondary
		}
		return cs[i].Primary < cs[j].Primary
	})
}
