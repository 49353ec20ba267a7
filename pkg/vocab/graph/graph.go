// Package graph defines the Graph Adapter interface: the only component
// permitted to mutate persistent vocabulary/edge state. Concrete backends
// live in subpackages (postgres, badger, mock).
package graph

import (
	"context"

	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Adapter is the Graph Adapter contract. Implementations must make
// ListVocabulary deterministic (stable sort by name) and must make
// RewriteEdgeLabels atomic: either every edge is relabeled and the
// deprecated type deactivated, or nothing changes.
type Adapter interface {
	ListVocabulary(ctx context.Context, filter types.VocabularyFilter) ([]types.VocabularyType, error)
	GetType(ctx context.Context, name string) (types.VocabularyType, error)

	CountEdgesByLabel(ctx context.Context, name string) (uint64, error)
	// SampleEdges returns up to n edges bearing label, chosen uniformly at
	// random using seed for reproducibility.
	SampleEdges(ctx context.Context, label string, n int, seed int64) ([]types.Edge, error)
	// IncidentEdges returns every edge touching nodeID, used by the
	// Epistemic Classifier's bounded-recursion grounding walk.
	IncidentEdges(ctx context.Context, nodeID string) ([]types.Edge, error)

	// RewriteEdgeLabels relabels every edge bearing deprecated to target
	// and deactivates deprecated, as a single atomic transaction. Returns
	// the number of edges rewritten.
	RewriteEdgeLabels(ctx context.Context, deprecated, target string) (uint64, error)
	// DeactivateType sets is_active=false. Fails with errs.ErrConflict if
	// the type is builtin or still has live edges.
	DeactivateType(ctx context.Context, name string) error
	// PruneType deletes the type record. Fails with errs.ErrConflict if
	// usage_count > 0 or the type is builtin.
	PruneType(ctx context.Context, name string) error
	// UpdateTypeAttributes applies patch's non-nil fields to name,
	// last-writer-wins per field.
	UpdateTypeAttributes(ctx context.Context, name string, patch types.AttrPatch) error

	// BumpMeasurementEpoch returns a strictly increasing integer used to
	// timestamp StatusMeasuredAt values.
	BumpMeasurementEpoch(ctx context.Context) (uint64, error)

	// ListCategorySeeds returns every CategorySeed, used by category-fit
	// scoring and the category-refresh pass.
	ListCategorySeeds(ctx context.Context) ([]types.CategorySeed, error)

	// ListProfiles returns every AggressivenessProfile.
	ListProfiles(ctx context.Context) ([]types.AggressivenessProfile, error)
	// GetProfile returns a single named profile.
	GetProfile(ctx context.Context, name string) (types.AggressivenessProfile, error)
	// PutProfile creates or replaces a non-builtin profile. Fails with
	// errs.ErrConflict if a builtin profile of the same name exists.
	PutProfile(ctx context.Context, profile types.AggressivenessProfile) error
	// DeleteProfile removes a non-builtin profile. Fails with
	// errs.ErrConflict for builtin profiles.
	DeleteProfile(ctx context.Context, name string) error
}
