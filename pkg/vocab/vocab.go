// Package vocab implements the Lifecycle Controller (C7): the public
// entry point that orchestrates the scoring kernel, epistemic
// classifier, candidate engine, and decision executor into the two
// operations operators actually invoke — Consolidate and
// MeasureEpistemic — plus the read-through/administrative surface
// (ListVocabulary, Profiles, category refresh, embedding backfill).
package vocab

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/latticegraph/vocabengine/internal/aggressiveness"
	"github.com/latticegraph/vocabengine/internal/bridge"
	"github.com/latticegraph/vocabengine/internal/candidate"
	"github.com/latticegraph/vocabengine/internal/config"
	"github.com/latticegraph/vocabengine/internal/embedsvc"
	"github.com/latticegraph/vocabengine/internal/epistemic"
	"github.com/latticegraph/vocabengine/internal/executor"
	"github.com/latticegraph/vocabengine/internal/observe"
	"github.com/latticegraph/vocabengine/internal/resilience"
	"github.com/latticegraph/vocabengine/internal/scoring"
	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// baseMaxCandidates is the per-pass candidate batch size at aggressiveness
// multiplier 1.0 (the curve's natural midpoint); Consolidate scales it by
// alpha so a more aggressive profile considers more candidates per pass,
// a gentler one fewer.
const baseMaxCandidates = 10

// Engine is the Lifecycle Controller. It holds no state across calls
// beyond its collaborators — every Consolidate/MeasureEpistemic
// invocation reads fresh state from the Graph Adapter, and every
// Consolidate reads fresh thresholds via cfgFunc (a static closure for
// New, or a live [config.Watcher] read for NewWithWatcher). The epistemic
// classifier's settings are read from cfgFunc once, at construction.
type Engine struct {
	graph      graph.Adapter
	embeds     *embedsvc.Service // nil if no embedding provider is configured
	reasoner   reasoner.Provider // nil if no reasoning provider is configured
	classifier *epistemic.Classifier
	cfgFunc    func() config.VocabConfig
	metrics    *observe.Metrics
}

// New constructs an Engine. embeds and reasonerProvider may be nil: a nil
// embeds makes BackfillEmbeddings return errs.ErrEmbeddingUnavailable,
// while ranking keeps using whatever embeddings are already cached on
// each type; a nil reasonerProvider routes every
// reasoner-eligible candidate straight to the deterministic heuristic.
// metrics may be nil to disable instrumentation.
//
// A non-nil reasonerProvider is wrapped in a [resilience.ReasonerFallback]
// so a flapping reasoning backend trips its circuit breaker instead of
// being retried on every single candidate; once open, Evaluate fails fast
// with resilience.ErrAllFailed, which the Decision Executor already
// treats like any other reasoner error and routes to the deterministic
// heuristic.
func New(adapter graph.Adapter, embeds *embedsvc.Service, reasonerProvider reasoner.Provider, cfg config.VocabConfig, metrics *observe.Metrics) *Engine {
	return newEngine(adapter, embeds, reasonerProvider, func() config.VocabConfig { return cfg }, metrics)
}

// NewWithWatcher constructs an Engine whose vocab thresholds are read
// live from watcher on every Consolidate invocation, instead of the fixed
// snapshot New closes over. MeasureEpistemic is the exception: its
// sample_size, grounding_max_depth and historical_predicate_patterns are
// the values watcher held when the Engine was constructed. This is the production
// config-reload path watcher exists to serve: an operator edits the
// config file on disk and the next invocation picks up the new
// vocab_min/vocab_max/similarity_strong/etc. without a process restart.
// Every other collaborator (adapter, embeds, reasonerProvider, metrics)
// is supplied once, exactly as in New.
func NewWithWatcher(adapter graph.Adapter, embeds *embedsvc.Service, reasonerProvider reasoner.Provider, watcher *config.Watcher, metrics *observe.Metrics) *Engine {
	return newEngine(adapter, embeds, reasonerProvider, func() config.VocabConfig { return watcher.Current().Vocab }, metrics)
}

func newEngine(adapter graph.Adapter, embeds *embedsvc.Service, reasonerProvider reasoner.Provider, cfgFunc func() config.VocabConfig, metrics *observe.Metrics) *Engine {
	cfg := cfgFunc()
	historical := compileHistoricalPatterns(cfg.HistoricalPredicatePatterns)
	var wrapped reasoner.Provider
	if reasonerProvider != nil {
		wrapped = resilience.NewReasonerFallback(reasonerProvider, "primary", resilience.FallbackConfig{})
	}
	return &Engine{
		graph:    adapter,
		embeds:   embeds,
		reasoner: wrapped,
		classifier: epistemic.New(adapter, epistemic.Config{
			SampleSize:         cfg.SampleSize,
			GroundingMaxDepth:  cfg.GroundingMaxDepth,
			HistoricalPatterns: historical,
		}),
		cfgFunc: cfgFunc,
		metrics: metrics,
	}
}

// ConsolidateOptions parameterizes one Consolidate invocation.
type ConsolidateOptions struct {
	// DryRun previews the pass: every candidate is ranked and evaluated
	// (including reasoner dispatch) but no Graph Adapter mutation is
	// ever applied.
	DryRun bool
	// PruneUnused additionally sweeps every zero-usage, non-builtin type
	// at the end of the pass, independent of the candidate loop (which
	// already auto-prunes these, but a caller may also invoke
	// finalization on its own after manual edits).
	PruneUnused bool
	// Seed is passed to bridge estimation's SampleEdges calls, the only
	// sampling this pass makes.
	Seed int64
	// TargetSize is the vocabulary size the candidate loop runs toward:
	// it exits as soon as the active vocabulary count drops to or below
	// TargetSize, re-checked before every candidate it considers.
	// TargetSize <= 0 defaults to the configured vocab_min, reproducing
	// the comfort-zone threshold used when a caller doesn't ask for a
	// specific target.
	TargetSize int
}

// Consolidate runs one full consolidation pass: compute the current
// aggressiveness zone, then repeatedly rank and execute candidates,
// re-querying vocabulary state after every mutation so no candidate list
// is ever held stale across a merge or prune. If the Graph Adapter fails
// once the candidate loop has started, the error is returned together
// with the result recorded so far; FinalSize and SizeReduction are then
// left zero.
func (e *Engine) Consolidate(ctx context.Context, opts ConsolidateOptions) (types.ConsolidationResult, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.ConsolidateDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	// cfg is read once and reused for the whole invocation, so a
	// concurrent config reload (NewWithWatcher) never applies a mix of
	// old and new thresholds within a single pass.
	cfg := e.cfgFunc()

	initial, err := e.activeVocabulary(ctx)
	if err != nil {
		return types.ConsolidationResult{}, err
	}
	initialSize := len(initial)
	if e.metrics != nil {
		e.metrics.SetVocabularySize(ctx, int64(initialSize))
	}

	profile, err := e.resolveProfile(ctx, cfg)
	if err != nil {
		return types.ConsolidationResult{}, err
	}

	zone := aggressiveness.Classify(profile, initialSize, cfg.VocabMin, cfg.VocabMax, cfg.VocabEmergency)
	slog.Info("consolidate: computed zone",
		"zone", zone.Zone, "position", zone.Position, "multiplier", zone.Multiplier, "vocabulary_size", initialSize)
	if e.metrics != nil {
		e.metrics.SetAggressivenessMultiplier(ctx, int64(zone.Multiplier*1000))
	}

	exec := executor.New(e.graph, e.reasonerFor(), executor.Config{
		MergeAutoThreshold: cfg.MergeAutoThreshold,
		SimilarityStrong:   cfg.SimilarityStrong,
		PruningMode:        cfg.PruningMode,
		DryRun:             opts.DryRun,
	}, e.metrics)

	candCfg := candidate.Config{
		SimilarityStrong:   cfg.SimilarityStrong,
		SimilarityModerate: cfg.SimilarityModerate,
		LowValueThreshold:  cfg.LowValueThreshold * zone.Multiplier,
		MaxCandidates:      scaledMaxCandidates(zone.Multiplier),
	}

	targetSize := opts.TargetSize
	if targetSize <= 0 {
		targetSize = cfg.VocabMin
	}

	result := types.ConsolidationResult{InitialSize: initialSize, DryRun: opts.DryRun}

	if initialSize <= targetSize {
		slog.Info("consolidate: vocabulary already at or below target size, nothing to do",
			"vocabulary_size", initialSize, "target_size", targetSize)
	} else {
		if err := e.runCandidateLoop(ctx, exec, candCfg, opts, targetSize, cfg.SampleSize, &result); err != nil {
			return result, err
		}
	}

	if opts.PruneUnused {
		if err := e.finalizePrune(ctx, exec, &result); err != nil {
			return result, err
		}
	}

	final, err := e.activeVocabulary(ctx)
	if err != nil {
		return result, err
	}
	result.FinalSize = len(final)
	result.SizeReduction = result.InitialSize - result.FinalSize
	return result, nil
}

// runCandidateLoop repeatedly ranks the current vocabulary and processes
// its single top candidate, re-querying vocabulary after every mutation.
// It stops when the active vocabulary count drops to or below
// targetSize, when ranking produces no candidates, or when a dry run has
// simulated every candidate once per call (a dry run never actually
// reduces vocabulary size, so it would otherwise loop forever).
func (e *Engine) runCandidateLoop(ctx context.Context, exec *executor.Executor, candCfg candidate.Config, opts ConsolidateOptions, targetSize, sampleSize int, result *types.ConsolidationResult) error {
	seen := map[string]bool{}
	for {
		vocabulary, err := e.activeVocabulary(ctx)
		if err != nil {
			return err
		}
		if len(vocabulary) <= targetSize {
			return nil
		}
		byName := make(map[string]types.VocabularyType, len(vocabulary))
		for _, t := range vocabulary {
			byName[t.Name] = t
		}

		bridges, err := bridge.Counts(ctx, e.graph, vocabulary, sampleSize, opts.Seed)
		if err != nil {
			return err
		}
		groundingAvg := groundingAverages(vocabulary)

		candidates, err := candidate.Rank(ctx, vocabulary, candCfg, bridges, groundingAvg)
		if err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.RecordCandidatesScored(ctx, "total", int64(len(candidates)))
		}

		next := nextUnseen(candidates, seen)
		if next == nil {
			return nil
		}
		key := candidateKey(*next)
		seen[key] = true

		outcome, err := exec.Process(ctx, *next, byName, bridges)
		if err != nil {
			return err
		}
		applyOutcome(result, outcome)

		// A dry run never mutates, so re-querying would return the
		// identical candidate forever; seen[] above is what lets a dry
		// run still walk every distinct candidate once.
		if opts.DryRun {
			continue
		}
	}
}

// nextUnseen returns the first candidate not already processed this
// pass. Re-querying after every mutation can resurface a candidate whose
// kind changed (e.g. a rejected merge is still the top-ranked pair next
// time) — seen guards against reprocessing the exact same pairing.
func nextUnseen(candidates []candidate.Candidate, seen map[string]bool) *candidate.Candidate {
	for i := range candidates {
		if !seen[candidateKey(candidates[i])] {
			return &candidates[i]
		}
	}
	return nil
}

func candidateKey(c candidate.Candidate) string {
	return fmt.Sprintf("%d:%s:%s", c.Kind, c.Primary, c.Secondary)
}

func applyOutcome(result *types.ConsolidationResult, outcome executor.Outcome) {
	switch {
	case outcome.Executed != nil:
		result.Executed = append(result.Executed, *outcome.Executed)
	case outcome.Rejected != nil:
		result.Rejected = append(result.Rejected, *outcome.Rejected)
	case outcome.Pruned != nil:
		result.Pruned = append(result.Pruned, *outcome.Pruned)
	}
}

// finalizePrune sweeps every zero-usage, non-builtin active type once
// more after the candidate loop settles, catching types the loop's
// MaxCandidates cap left unprocessed.
func (e *Engine) finalizePrune(ctx context.Context, exec *executor.Executor, result *types.ConsolidationResult) error {
	vocabulary, err := e.activeVocabulary(ctx)
	if err != nil {
		return err
	}
	for _, t := range vocabulary {
		if t.UsageCount != 0 || t.IsBuiltin {
			continue
		}
		outcome, err := exec.Process(ctx, candidate.Candidate{Kind: candidate.KindAutoPrune, Primary: t.Name}, nil, nil)
		if err != nil {
			return err
		}
		applyOutcome(result, outcome)
	}
	return nil
}

// MeasureEpistemic runs a standalone Epistemic Classifier pass. When
// store is false the report is computed but not persisted, for preview
// or monitoring use.
func (e *Engine) MeasureEpistemic(ctx context.Context, seed int64, store bool) (types.ClassificationReport, error) {
	return e.classifier.Measure(ctx, seed, store)
}

// ListVocabulary is a direct read-through to the Graph Adapter.
func (e *Engine) ListVocabulary(ctx context.Context, filter types.VocabularyFilter) ([]types.VocabularyType, error) {
	return e.graph.ListVocabulary(ctx, filter)
}

// Profiles groups the aggressiveness-profile CRUD passthrough. Builtin
// immutability is enforced by the Graph Adapter itself; the Engine adds
// no additional policy here.
type Profiles struct{ adapter graph.Adapter }

// Profiles returns the profile administration surface.
func (e *Engine) Profiles() Profiles { return Profiles{adapter: e.graph} }

func (p Profiles) List(ctx context.Context) ([]types.AggressivenessProfile, error) {
	return p.adapter.ListProfiles(ctx)
}

func (p Profiles) Get(ctx context.Context, name string) (types.AggressivenessProfile, error) {
	return p.adapter.GetProfile(ctx, name)
}

func (p Profiles) Put(ctx context.Context, profile types.AggressivenessProfile) error {
	return p.adapter.PutProfile(ctx, profile)
}

func (p Profiles) Delete(ctx context.Context, name string) error {
	return p.adapter.DeleteProfile(ctx, name)
}

// RefreshCategoryFit recomputes CategorySource=computed category
// assignments for every embedded, non-builtin active type against the
// current CategorySeed set. Returns the number of types updated.
func (e *Engine) RefreshCategoryFit(ctx context.Context) (int, error) {
	vocabulary, err := e.graph.ListVocabulary(ctx, types.VocabularyFilter{OnlyWithEmbeddings: true})
	if err != nil {
		return 0, err
	}
	seeds, err := e.graph.ListCategorySeeds(ctx)
	if err != nil {
		return 0, err
	}
	if len(seeds) == 0 {
		return 0, nil
	}

	updated := 0
	for _, t := range vocabulary {
		if t.IsBuiltin || t.CategorySource == types.CategoryBuiltin {
			continue
		}
		fit, err := scoring.CategoryFitFor(t, seeds)
		if err != nil {
			return updated, err
		}
		if fit.Ambiguous {
			continue
		}
		category := fit.BestCategory
		source := types.CategoryComputed
		if err := e.graph.UpdateTypeAttributes(ctx, t.Name, types.AttrPatch{
			Category:           &category,
			CategoryConfidence: &fit.Score,
			CategorySource:     &source,
		}); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// BackfillEmbeddings computes embeddings for every type lacking a current
// one, concurrency-bounded. Returns errs.ErrEmbeddingUnavailable if no
// embedding provider is configured.
func (e *Engine) BackfillEmbeddings(ctx context.Context, concurrency int) (int, error) {
	if e.embeds == nil {
		return 0, errs.ErrEmbeddingUnavailable
	}
	return e.embeds.Backfill(ctx, concurrency)
}

func (e *Engine) reasonerFor() reasoner.Provider {
	if e.reasoner != nil {
		return e.reasoner
	}
	return noReasoner{}
}

// noReasoner always fails Evaluate, driving every reasoner-eligible
// candidate straight to the executor's deterministic heuristic when no
// reasoning provider is configured at all.
type noReasoner struct{}

func (noReasoner) Evaluate(context.Context, reasoner.Request) (reasoner.Response, error) {
	return reasoner.Response{}, errs.ErrReasonerUnavailable
}

func (e *Engine) activeVocabulary(ctx context.Context) ([]types.VocabularyType, error) {
	return e.graph.ListVocabulary(ctx, types.VocabularyFilter{})
}

func (e *Engine) resolveProfile(ctx context.Context, cfg config.VocabConfig) (types.AggressivenessProfile, error) {
	if cfg.AggressivenessProfile == "" {
		return linearProfile(), nil
	}
	return e.graph.GetProfile(ctx, cfg.AggressivenessProfile)
}

// linearProfile is the identity curve (straight line from (0,0) to
// (1,1)), used when no aggressiveness_profile is configured so
// Consolidate still has a well-defined multiplier.
func linearProfile() types.AggressivenessProfile {
	return types.AggressivenessProfile{Name: "linear", IsBuiltin: true, X1: 1.0 / 3, Y1: 1.0 / 3, X2: 2.0 / 3, Y2: 2.0 / 3}
}

// scaledMaxCandidates scales the per-pass candidate batch size by the
// aggressiveness multiplier; always at least 1 so a nonzero multiplier
// never starves the pass entirely.
func scaledMaxCandidates(multiplier float64) int {
	n := int(baseMaxCandidates * multiplier)
	if n < 1 {
		n = 1
	}
	return n
}

// compileHistoricalPatterns compiles every configured
// historical_predicate_patterns entry, silently skipping any pattern
// that fails to compile: a malformed pattern should never prevent the
// engine from starting, it just never matches.
func compileHistoricalPatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("vocab: skipping invalid historical_predicate_patterns entry", "pattern", p, "error", err)
			continue
		}
		out = append(out, re)
	}
	return out
}

// groundingAverages maps each type's cached EpistemicStats.Mean, which
// scoring.ValueScore treats as the grounding signal. Unmeasured types
// contribute zero, the same as "no positive grounding evidence yet"
// rather than a negative one.
func groundingAverages(vocabulary []types.VocabularyType) map[string]float64 {
	out := make(map[string]float64, len(vocabulary))
	for _, t := range vocabulary {
		out[t.Name] = t.EpistemicStats.Mean
	}
	return out
}
