package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

const vocabularySelectColumns = `
	name, category, category_confidence, category_source,
	is_builtin, is_active, usage_count, embedding, embedding_model_id,
	epistemic_status, epistemic_stats, status_measured_at,
	created_at, updated_at`

// ListVocabulary implements [graph.Adapter]. Results are always ordered
// by name, deterministic so repeated candidate ranking passes agree.
func (s *Store) ListVocabulary(ctx context.Context, filter types.VocabularyFilter) ([]types.VocabularyType, error) {
	var conditions []string
	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}
	if !filter.IncludeBuiltin {
		conditions = append(conditions, "is_builtin = false")
	}
	if filter.OnlyWithEmbeddings {
		conditions = append(conditions, "embedding IS NOT NULL")
	}

	q := "SELECT" + vocabularySelectColumns + "\nFROM vocabulary_types"
	if len(conditions) > 0 {
		q += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	q += "\nORDER BY name"

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: list vocabulary: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanVocabularyType)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: list vocabulary: scan: %w", err)
	}
	if out == nil {
		out = []types.VocabularyType{}
	}
	return out, nil
}

// GetType implements [graph.Adapter].
func (s *Store) GetType(ctx context.Context, name string) (types.VocabularyType, error) {
	q := "SELECT" + vocabularySelectColumns + "\nFROM vocabulary_types\nWHERE name = $1"
	rows, err := s.pool.Query(ctx, q, name)
	if err != nil {
		return types.VocabularyType{}, fmt.Errorf("vocab graph/postgres: get type: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanVocabularyType)
	if err != nil {
		return types.VocabularyType{}, fmt.Errorf("vocab graph/postgres: get type: scan: %w", err)
	}
	if len(out) == 0 {
		return types.VocabularyType{}, errs.ErrNotFound
	}
	return out[0], nil
}

// CountEdgesByLabel implements [graph.Adapter].
func (s *Store) CountEdgesByLabel(ctx context.Context, name string) (uint64, error) {
	const q = `SELECT count(*) FROM edges WHERE label = $1`
	var n int64
	if err := s.pool.QueryRow(ctx, q, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: count edges: %w", err)
	}
	return uint64(n), nil
}

// SampleEdges implements [graph.Adapter]. Sampling uses Postgres'
// setseed() plus ORDER BY random() scoped to a deterministic per-call
// transaction so the same seed reproduces the same sample.
func (s *Store) SampleEdges(ctx context.Context, label string, n int, seed int64) ([]types.Edge, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: sample edges: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// setseed expects a float in [-1, 1]; fold the int64 seed into that
	// range deterministically.
	normalizedSeed := float64(seed%1000000) / 1000000.0
	if _, err := tx.Exec(ctx, `SELECT setseed($1)`, normalizedSeed); err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: sample edges: setseed: %w", err)
	}

	const q = `
		SELECT source_id, target_id, label, confidence, grounding
		FROM   edges
		WHERE  label = $1
		ORDER  BY random()
		LIMIT  $2`
	rows, err := tx.Query(ctx, q, label, n)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: sample edges: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanEdge)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: sample edges: scan: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: sample edges: commit: %w", err)
	}
	if out == nil {
		out = []types.Edge{}
	}
	return out, nil
}

// IncidentEdges implements [graph.Adapter].
func (s *Store) IncidentEdges(ctx context.Context, nodeID string) ([]types.Edge, error) {
	const q = `
		SELECT source_id, target_id, label, confidence, grounding
		FROM   edges
		WHERE  source_id = $1 OR target_id = $1`
	rows, err := s.pool.Query(ctx, q, nodeID)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: incident edges: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanEdge)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: incident edges: scan: %w", err)
	}
	if out == nil {
		out = []types.Edge{}
	}
	return out, nil
}

func scanVocabularyType(row pgx.CollectableRow) (types.VocabularyType, error) {
	var (
		t           types.VocabularyType
		category    string
		catSrc      string
		vec         *pgvector.Vector
		statsJSON   []byte
	)
	if err := row.Scan(
		&t.Name, &category, &t.CategoryConfidence, &catSrc,
		&t.IsBuiltin, &t.IsActive, &t.UsageCount, &vec, &t.EmbeddingModelID,
		&t.EpistemicStatus, &statsJSON, &t.StatusMeasuredAt,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return types.VocabularyType{}, err
	}
	t.Category = category
	t.CategorySource = types.CategorySource(catSrc)
	if vec != nil {
		t.Embedding = vec.Slice()
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &t.EpistemicStats); err != nil {
			return types.VocabularyType{}, fmt.Errorf("unmarshal epistemic_stats: %w", err)
		}
	}
	return t, nil
}

func scanEdge(row pgx.CollectableRow) (types.Edge, error) {
	var e types.Edge
	if err := row.Scan(&e.SourceID, &e.TargetID, &e.Label, &e.Confidence, &e.Grounding); err != nil {
		return types.Edge{}, err
	}
	return e, nil
}
