// Package executor implements the Decision Executor: given one ranked
// candidate from the Candidate Engine, it either applies a mutation
// through the Graph Adapter, defers to the Reasoning Provider, or
// rejects the candidate, and always tags the outcome with an honest
// [types.DecisionOrigin].
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/latticegraph/vocabengine/internal/candidate"
	"github.com/latticegraph/vocabengine/internal/observe"
	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Config carries the thresholds and policy switches the executor
// consults per candidate.
type Config struct {
	// MergeAutoThreshold is the minimum reasoner confidence required to
	// execute a merge/deprecate decision.
	MergeAutoThreshold float64
	// SimilarityStrong is consulted by the deterministic heuristic
	// fallback, which decides on similarity alone since it has no
	// reasoner confidence to lean on.
	SimilarityStrong float64
	// PruningMode gates whether KindReasonerEvaluate and
	// KindLowValueReasoner candidates may be auto-executed at all: under
	// hitl or aitl both are rejected for external review.
	PruningMode types.PruningMode
	// DryRun suppresses every Graph Adapter mutation call: reasoner
	// dispatch and heuristic logic still run so a dry-run preview
	// reflects the same decisions a live pass would make, but
	// PruneType/RewriteEdgeLabels are never actually invoked, and the
	// resulting Outcome is synthesized optimistically.
	DryRun bool
}

// Executor is the Decision Executor. It holds no candidate state between
// Process calls — every mutation it applies goes straight through
// graphAdapter, so the caller must re-query vocabulary before ranking
// the next batch.
type Executor struct {
	graph    graph.Adapter
	reasoner reasoner.Provider
	cfg      Config
	metrics  *observe.Metrics
}

// New constructs an Executor. metrics may be nil to disable instrumentation.
func New(adapter graph.Adapter, reasonerProvider reasoner.Provider, cfg Config, metrics *observe.Metrics) *Executor {
	return &Executor{graph: adapter, reasoner: reasonerProvider, cfg: cfg, metrics: metrics}
}

// Outcome is the result of processing exactly one candidate. Exactly one
// of Executed/Rejected/Pruned is populated.
type Outcome struct {
	Executed *types.ExecutedMerge
	Rejected *types.RejectedCandidate
	Pruned   *types.PrunedType
}

// Process applies, defers, or rejects c. vocabulary must carry the
// current attributes (category, usage, bridge count) of every type c
// references; bridges supplies the bridge count the Candidate Engine
// itself does not compute. Returns a non-nil error only when the Graph
// Adapter's transport itself failed (errs.ErrGraphUnavailable); any
// other failure is represented as a Rejected outcome so the caller can
// continue with the remaining candidates.
func (e *Executor) Process(ctx context.Context, c candidate.Candidate, vocabulary map[string]types.VocabularyType, bridges candidate.BridgeCounts) (Outcome, error) {
	switch c.Kind {
	case candidate.KindAutoPrune:
		return e.processAutoPrune(ctx, c)
	case candidate.KindAutoMerge:
		return e.processAutoMerge(ctx, c)
	case candidate.KindReasonerEvaluate:
		return e.processReasonerEvaluate(ctx, c, vocabulary, bridges)
	case candidate.KindLowValueReasoner:
		return e.processLowValue(ctx, c, vocabulary, bridges)
	default:
		return Outcome{}, fmt.Errorf("executor: unknown candidate kind %v", c.Kind)
	}
}

// prune deletes name via the Graph Adapter, unless the executor is in
// dry-run mode, in which case it reports success without mutating.
func (e *Executor) prune(ctx context.Context, name string) error {
	if e.cfg.DryRun {
		return nil
	}
	return e.graph.PruneType(ctx, name)
}

// rewrite relabels deprecated's edges onto target via the Graph Adapter,
// unless the executor is in dry-run mode, in which case it reports zero
// edges rewritten without mutating (the real count is unknowable without
// performing the rewrite, so a dry-run ExecutedMerge always carries
// EdgesRewritten == 0).
func (e *Executor) rewrite(ctx context.Context, deprecated, target string) (uint64, error) {
	if e.cfg.DryRun {
		return 0, nil
	}
	return e.graph.RewriteEdgeLabels(ctx, deprecated, target)
}

func (e *Executor) processAutoPrune(ctx context.Context, c candidate.Candidate) (Outcome, error) {
	if err := e.prune(ctx, c.Primary); err != nil {
		if errors.Is(err, errs.ErrGraphUnavailable) {
			return Outcome{}, err
		}
		e.recordDecision(ctx, types.OriginAuto, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "prune", Primary: c.Primary,
			Rationale: "prune failed: " + err.Error(), Origin: types.OriginAuto,
		}}, nil
	}
	e.recordDecision(ctx, types.OriginAuto, "executed")
	if e.metrics != nil {
		e.metrics.RecordTypesPruned(ctx, 1)
	}
	return Outcome{Pruned: &types.PrunedType{Name: c.Primary}}, nil
}

func (e *Executor) processAutoMerge(ctx context.Context, c candidate.Candidate) (Outcome, error) {
	return e.applyMerge(ctx, c.Primary, c.Secondary, c.Similarity,
		"auto-merge: similarity at or above similarity_strong with a zero-usage side", types.OriginAuto)
}

func (e *Executor) processReasonerEvaluate(ctx context.Context, c candidate.Candidate, vocabulary map[string]types.VocabularyType, bridges candidate.BridgeCounts) (Outcome, error) {
	if e.cfg.PruningMode == types.PruningHITL || e.cfg.PruningMode == types.PruningAITL {
		e.recordDecision(ctx, types.OriginAuto, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "merge", Primary: c.Primary, Secondary: c.Secondary, Similarity: c.Similarity,
			Rationale: "pruning_mode requires external review", Origin: types.OriginAuto,
		}}, nil
	}

	req := reasoner.Request{
		Instruction: "evaluate_merge",
		Pair: &reasoner.PairInput{
			A:          attrsFor(c.Primary, vocabulary, bridges),
			B:          attrsFor(c.Secondary, vocabulary, bridges),
			Similarity: c.Similarity,
		},
	}

	resp, err := e.reasoner.Evaluate(ctx, req)
	if err != nil {
		return e.heuristicMerge(ctx, c)
	}

	return e.applyReasonerPairDecision(ctx, c, resp)
}

func (e *Executor) processLowValue(ctx context.Context, c candidate.Candidate, vocabulary map[string]types.VocabularyType, bridges candidate.BridgeCounts) (Outcome, error) {
	if e.cfg.PruningMode == types.PruningHITL || e.cfg.PruningMode == types.PruningAITL {
		e.recordDecision(ctx, types.OriginAuto, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "deprecate", Primary: c.Primary,
			Rationale: "pruning_mode requires external review", Origin: types.OriginAuto,
		}}, nil
	}

	req := reasoner.Request{
		Instruction: "evaluate_low_value",
		Single:      ptr(attrsFor(c.Primary, vocabulary, bridges)),
	}

	resp, err := e.reasoner.Evaluate(ctx, req)
	if err != nil {
		return e.heuristicLowValue(ctx, c, vocabulary)
	}

	return e.applyReasonerSingleDecision(ctx, c, vocabulary, resp)
}

// heuristicMerge is the deterministic fallback used when the Reasoning
// Provider is unavailable for a pair candidate: it decides on similarity
// alone against similarity_strong, since that is the only signal it has
// without a reasoner's judgment. The resulting decision is always
// labeled heuristic, never ai.
func (e *Executor) heuristicMerge(ctx context.Context, c candidate.Candidate) (Outcome, error) {
	if c.Similarity >= e.cfg.SimilarityStrong {
		return e.applyMerge(ctx, c.Primary, c.Secondary, c.Similarity,
			"heuristic fallback: similarity at or above similarity_strong", types.OriginHeuristic)
	}
	e.recordDecision(ctx, types.OriginHeuristic, "rejected")
	return Outcome{Rejected: &types.RejectedCandidate{
		Kind: "merge", Primary: c.Primary, Secondary: c.Secondary, Similarity: c.Similarity,
		Rationale: "heuristic fallback: reasoner unavailable and similarity below similarity_strong",
		Origin:    types.OriginHeuristic,
	}}, nil
}

// heuristicLowValue is the deterministic fallback for a single-type
// low-value candidate: it can only safely prune a type with zero usage;
// anything still in use is rejected rather than guessed at.
func (e *Executor) heuristicLowValue(ctx context.Context, c candidate.Candidate, vocabulary map[string]types.VocabularyType) (Outcome, error) {
	t, ok := vocabulary[c.Primary]
	if ok && t.UsageCount == 0 && !t.IsBuiltin {
		err := e.prune(context.Background(), c.Primary)
		if errors.Is(err, errs.ErrGraphUnavailable) {
			return Outcome{}, err
		}
		if err == nil {
			e.recordDecision(context.Background(), types.OriginHeuristic, "executed")
			if e.metrics != nil {
				e.metrics.RecordTypesPruned(context.Background(), 1)
			}
			return Outcome{Pruned: &types.PrunedType{Name: c.Primary}}, nil
		}
	}
	e.recordDecision(context.Background(), types.OriginHeuristic, "rejected")
	return Outcome{Rejected: &types.RejectedCandidate{
		Kind: "deprecate", Primary: c.Primary,
		Rationale: "heuristic fallback: reasoner unavailable and type is not safely prunable",
		Origin:    types.OriginHeuristic,
	}}, nil
}

func (e *Executor) applyReasonerPairDecision(ctx context.Context, c candidate.Candidate, resp reasoner.Response) (Outcome, error) {
	decision := reasoner.Normalize(string(resp.Decision))
	if decision == reasoner.DecisionSkip || resp.Confidence < e.cfg.MergeAutoThreshold {
		rationale := resp.Reasoning
		if decision != reasoner.DecisionSkip {
			rationale = "reasoner confidence below merge_auto_threshold: " + rationale
		}
		e.recordDecision(ctx, types.OriginAI, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "merge", Primary: c.Primary, Secondary: c.Secondary,
			Similarity: c.Similarity, Confidence: resp.Confidence,
			Rationale: rationale, Origin: types.OriginAI,
		}}, nil
	}

	outcome, err := e.applyMerge(ctx, c.Primary, c.Secondary, c.Similarity, resp.Reasoning, types.OriginAI)
	if err != nil {
		// applyMerge only returns errs.ErrGraphUnavailable; it is passed
		// up so Process returns it and the pass aborts.
		slog.Warn("executor: merge application failed after reasoner approval", "error", err)
		return Outcome{}, err
	}
	return outcome, nil
}

func (e *Executor) applyReasonerSingleDecision(ctx context.Context, c candidate.Candidate, vocabulary map[string]types.VocabularyType, resp reasoner.Response) (Outcome, error) {
	decision := reasoner.Normalize(string(resp.Decision))
	if decision != reasoner.DecisionDeprecate || resp.Confidence < e.cfg.MergeAutoThreshold {
		e.recordDecision(ctx, types.OriginAI, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "deprecate", Primary: c.Primary, Confidence: resp.Confidence,
			Rationale: resp.Reasoning, Origin: types.OriginAI,
		}}, nil
	}

	t, ok := vocabulary[c.Primary]
	if !ok || t.UsageCount > 0 {
		e.recordDecision(ctx, types.OriginAI, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "deprecate", Primary: c.Primary, Confidence: resp.Confidence,
			Rationale: "reasoner approved deprecation but type still has live usage", Origin: types.OriginAI,
		}}, nil
	}

	if err := e.prune(ctx, c.Primary); err != nil {
		if errors.Is(err, errs.ErrGraphUnavailable) {
			return Outcome{}, err
		}
		e.recordDecision(ctx, types.OriginAI, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "deprecate", Primary: c.Primary, Confidence: resp.Confidence,
			Rationale: "reasoner approved but prune failed: " + err.Error(), Origin: types.OriginAI,
		}}, nil
	}
	e.recordDecision(ctx, types.OriginAI, "executed")
	if e.metrics != nil {
		e.metrics.RecordTypesPruned(ctx, 1)
	}
	return Outcome{Pruned: &types.PrunedType{Name: c.Primary}}, nil
}

// applyMerge rewrites deprecated's edges onto target and records the
// outcome. Returns an error only for errs.ErrGraphUnavailable.
func (e *Executor) applyMerge(ctx context.Context, deprecated, target string, similarity float64, rationale string, origin types.DecisionOrigin) (Outcome, error) {
	moved, err := e.rewrite(ctx, deprecated, target)
	if err != nil {
		if errors.Is(err, errs.ErrGraphUnavailable) {
			return Outcome{}, err
		}
		e.recordDecision(ctx, origin, "rejected")
		return Outcome{Rejected: &types.RejectedCandidate{
			Kind: "merge", Primary: deprecated, Secondary: target, Similarity: similarity,
			Rationale: "merge failed: " + err.Error(), Origin: origin,
		}}, nil
	}
	e.recordDecision(ctx, origin, "executed")
	return Outcome{Executed: &types.ExecutedMerge{
		Deprecated: deprecated, Target: target, PreMergeSimilarity: similarity,
		Rationale: rationale, Origin: origin, EdgesRewritten: moved,
	}}, nil
}

func (e *Executor) recordDecision(ctx context.Context, origin types.DecisionOrigin, outcome string) {
	if e.metrics != nil {
		e.metrics.RecordDecision(ctx, string(origin), outcome)
	}
}

func attrsFor(name string, vocabulary map[string]types.VocabularyType, bridges candidate.BridgeCounts) reasoner.CandidateAttrs {
	t := vocabulary[name]
	return reasoner.CandidateAttrs{
		Name: name, Category: t.Category, UsageCount: t.UsageCount, BridgeCount: bridges[name],
	}
}

func ptr[T any](v T) *T { return &v }
