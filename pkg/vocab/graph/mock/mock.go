// Package mock provides a test double for graph.Adapter.
//
// Use Adapter in unit tests to feed controlled vocabulary/edge state and to
// assert which mutations the engine attempted, without a live graph store.
// All fields are safe to set before calling any method; mutating them
// during a concurrent call is the caller's responsibility.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// RewriteCall records a single invocation of RewriteEdgeLabels.
type RewriteCall struct {
	Deprecated, Target string
}

// Adapter is a mock implementation of graph.Adapter, backed by an
// in-memory map of types and edges.
type Adapter struct {
	mu sync.Mutex

	Types    map[string]types.VocabularyType
	Edges    []types.Edge
	Seeds    []types.CategorySeed
	Profiles map[string]types.AggressivenessProfile

	epoch uint64

	// --- Injectable errors ---
	ListErr    error
	RewriteErr error

	// --- Call records (read after test) ---
	RewriteCalls  []RewriteCall
	DeactivateCalls []string
	PruneCalls      []string
	PatchCalls      map[string]types.AttrPatch
}

// New returns an empty Adapter ready for population via Types/Edges.
func New() *Adapter {
	return &Adapter{
		Types:    map[string]types.VocabularyType{},
		Profiles: map[string]types.AggressivenessProfile{},
		PatchCalls: map[string]types.AttrPatch{},
	}
}

func (a *Adapter) ListVocabulary(_ context.Context, filter types.VocabularyFilter) ([]types.VocabularyType, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ListErr != nil {
		return nil, a.ListErr
	}
	var out []types.VocabularyType
	for _, t := range a.Types {
		if !filter.IncludeInactive && !t.IsActive {
			continue
		}
		if !filter.IncludeBuiltin && t.IsBuiltin {
			continue
		}
		if filter.OnlyWithEmbeddings && !t.HasEmbedding() {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Adapter) GetType(_ context.Context, name string) (types.VocabularyType, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.Types[name]
	if !ok {
		return types.VocabularyType{}, errs.ErrNotFound
	}
	return t, nil
}

func (a *Adapter) CountEdgesByLabel(_ context.Context, name string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n uint64
	for _, e := range a.Edges {
		if e.Label == name {
			n++
		}
	}
	return n, nil
}

func (a *Adapter) SampleEdges(_ context.Context, label string, n int, seed int64) ([]types.Edge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var matching []types.Edge
	for _, e := range a.Edges {
		if e.Label == label {
			matching = append(matching, e)
		}
	}
	r := newDeterministicRand(seed)
	r.shuffle(matching)
	if len(matching) > n {
		matching = matching[:n]
	}
	return matching, nil
}

func (a *Adapter) IncidentEdges(_ context.Context, nodeID string) ([]types.Edge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []types.Edge
	for _, e := range a.Edges {
		if e.SourceID == nodeID || e.TargetID == nodeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *Adapter) RewriteEdgeLabels(_ context.Context, deprecated, target string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.RewriteCalls = append(a.RewriteCalls, RewriteCall{Deprecated: deprecated, Target: target})
	if a.RewriteErr != nil {
		return 0, a.RewriteErr
	}

	dep, ok := a.Types[deprecated]
	if !ok {
		return 0, errs.ErrNotFound
	}
	if dep.IsBuiltin {
		return 0, errs.ErrConflict
	}

	var n uint64
	for i := range a.Edges {
		if a.Edges[i].Label == deprecated {
			a.Edges[i].Label = target
			n++
		}
	}
	dep.IsActive = false
	a.Types[deprecated] = dep

	if tgt, ok := a.Types[target]; ok {
		tgt.UsageCount += n
		a.Types[target] = tgt
	}
	return n, nil
}

func (a *Adapter) DeactivateType(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.DeactivateCalls = append(a.DeactivateCalls, name)
	t, ok := a.Types[name]
	if !ok {
		return errs.ErrNotFound
	}
	if t.IsBuiltin {
		return errs.ErrConflict
	}
	var live uint64
	for _, e := range a.Edges {
		if e.Label == name {
			live++
		}
	}
	if live > 0 {
		return errs.ErrConflict
	}
	t.IsActive = false
	a.Types[name] = t
	return nil
}

func (a *Adapter) PruneType(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.PruneCalls = append(a.PruneCalls, name)
	t, ok := a.Types[name]
	if !ok {
		return errs.ErrNotFound
	}
	if t.IsBuiltin || t.UsageCount > 0 {
		return errs.ErrConflict
	}
	delete(a.Types, name)
	return nil
}

func (a *Adapter) UpdateTypeAttributes(_ context.Context, name string, patch types.AttrPatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.PatchCalls[name] = patch
	t, ok := a.Types[name]
	if !ok {
		return errs.ErrNotFound
	}
	if patch.Embedding != nil {
		t.Embedding = patch.Embedding
	}
	if patch.EmbeddingModelID != nil {
		t.EmbeddingModelID = *patch.EmbeddingModelID
	}
	if patch.EpistemicStatus != nil {
		t.EpistemicStatus = *patch.EpistemicStatus
	}
	if patch.EpistemicStats != nil {
		t.EpistemicStats = *patch.EpistemicStats
	}
	if patch.StatusMeasuredAt != nil {
		t.StatusMeasuredAt = *patch.StatusMeasuredAt
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.CategoryConfidence != nil {
		t.CategoryConfidence = *patch.CategoryConfidence
	}
	if patch.CategorySource != nil {
		t.CategorySource = *patch.CategorySource
	}
	a.Types[name] = t
	return nil
}

func (a *Adapter) BumpMeasurementEpoch(_ context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.epoch++
	return a.epoch, nil
}

func (a *Adapter) ListCategorySeeds(_ context.Context) ([]types.CategorySeed, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.CategorySeed, len(a.Seeds))
	copy(out, a.Seeds)
	return out, nil
}

func (a *Adapter) ListProfiles(_ context.Context) ([]types.AggressivenessProfile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []types.AggressivenessProfile
	for _, p := range a.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Adapter) GetProfile(_ context.Context, name string) (types.AggressivenessProfile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.Profiles[name]
	if !ok {
		return types.AggressivenessProfile{}, errs.ErrNotFound
	}
	return p, nil
}

func (a *Adapter) PutProfile(_ context.Context, profile types.AggressivenessProfile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.Profiles[profile.Name]; ok && existing.IsBuiltin {
		return errs.ErrConflict
	}
	a.Profiles[profile.Name] = profile
	return nil
}

func (a *Adapter) DeleteProfile(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.Profiles[name]
	if !ok {
		return errs.ErrNotFound
	}
	if p.IsBuiltin {
		return errs.ErrConflict
	}
	delete(a.Profiles, name)
	return nil
}

// Ensure Adapter implements graph.Adapter at compile time.
var _ graph.Adapter = (*Adapter)(nil)

// deterministicRand is a tiny linear-congruential shuffle used only so
// SampleEdges is reproducible given the same seed, without pulling in
// math/rand's global state.
type deterministicRand struct{ state uint64 }

func newDeterministicRand(seed int64) *deterministicRand {
	return &deterministicRand{state: uint64(seed) ^ 0x9E3779B97F4A7C15}
}

func (r *deterministicRand) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

func (r *deterministicRand) shuffle(edges []types.Edge) {
	for i := len(edges) - 1; i > 0; i-- {
		j := int(r.next() % uint64(i+1))
		edges[i], edges[j] = edges[j], edges[i]
	}
}
