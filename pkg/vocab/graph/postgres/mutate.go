package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/latticegraph/vocabengine/internal/attrs"
	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// RewriteEdgeLabels implements [graph.Adapter]. It relabels every edge
// bearing deprecated to target and deactivates deprecated, inside a
// single transaction: either every edge is relabeled and the deprecated
// type deactivated, or nothing commits.
func (s *Store) RewriteEdgeLabels(ctx context.Context, deprecated, target string) (uint64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var isBuiltin bool
	if err := tx.QueryRow(ctx, `SELECT is_builtin FROM vocabulary_types WHERE name = $1 FOR UPDATE`, deprecated).Scan(&isBuiltin); err != nil {
		if isNoRows(err) {
			return 0, errs.ErrNotFound
		}
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: %w", err)
	}
	if isBuiltin {
		return 0, errs.ErrConflict
	}

	// Count edges under deprecated will be rewritten; because edges'
	// primary key includes label, a plain UPDATE can collide with an
	// existing (source,target,target-label) row already present under
	// target — merge those away first via a conflict-tolerant move.
	tag, err := tx.Exec(ctx, `
		DELETE FROM edges d
		USING edges t
		WHERE  d.label = $1
		  AND  t.label = $2
		  AND  d.source_id = t.source_id
		  AND  d.target_id = t.target_id`, deprecated, target)
	if err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: dedupe: %w", err)
	}
	_ = tag

	tag, err = tx.Exec(ctx, `UPDATE edges SET label = $2 WHERE label = $1`, deprecated, target)
	if err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: update: %w", err)
	}
	moved := uint64(tag.RowsAffected())

	if _, err := tx.Exec(ctx, `UPDATE vocabulary_types SET is_active = false, updated_at = now() WHERE name = $1`, deprecated); err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: deactivate: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE vocabulary_types SET usage_count = usage_count + $2, updated_at = now() WHERE name = $1`, target, moved); err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: bump target usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: rewrite edge labels: commit: %w", err)
	}
	return moved, nil
}

// DeactivateType implements [graph.Adapter].
func (s *Store) DeactivateType(ctx context.Context, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("vocab graph/postgres: deactivate type: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var isBuiltin bool
	if err := tx.QueryRow(ctx, `SELECT is_builtin FROM vocabulary_types WHERE name = $1 FOR UPDATE`, name).Scan(&isBuiltin); err != nil {
		if isNoRows(err) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("vocab graph/postgres: deactivate type: %w", err)
	}
	if isBuiltin {
		return errs.ErrConflict
	}

	var live int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM edges WHERE label = $1`, name).Scan(&live); err != nil {
		return fmt.Errorf("vocab graph/postgres: deactivate type: count edges: %w", err)
	}
	if live > 0 {
		return errs.ErrConflict
	}

	if _, err := tx.Exec(ctx, `UPDATE vocabulary_types SET is_active = false, updated_at = now() WHERE name = $1`, name); err != nil {
		return fmt.Errorf("vocab graph/postgres: deactivate type: %w", err)
	}
	return tx.Commit(ctx)
}

// PruneType implements [graph.Adapter].
func (s *Store) PruneType(ctx context.Context, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("vocab graph/postgres: prune type: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var isBuiltin bool
	var usage uint64
	if err := tx.QueryRow(ctx, `SELECT is_builtin, usage_count FROM vocabulary_types WHERE name = $1 FOR UPDATE`, name).Scan(&isBuiltin, &usage); err != nil {
		if isNoRows(err) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("vocab graph/postgres: prune type: %w", err)
	}
	if isBuiltin || usage > 0 {
		return errs.ErrConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vocabulary_types WHERE name = $1`, name); err != nil {
		return fmt.Errorf("vocab graph/postgres: prune type: %w", err)
	}
	return tx.Commit(ctx)
}

// UpdateTypeAttributes implements [graph.Adapter]. Structured fields
// (EpistemicStats) are threaded through [attrs.Value] and marshaled as a
// genuine jsonb parameter, never interpolated into the query text as a
// quoted string.
func (s *Store) UpdateTypeAttributes(ctx context.Context, name string, patch types.AttrPatch) error {
	var (
		sets []string
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Embedding != nil {
		sets = append(sets, "embedding = "+arg(pgvector.NewVector(patch.Embedding)))
	}
	if patch.EmbeddingModelID != nil {
		sets = append(sets, "embedding_model_id = "+arg(*patch.EmbeddingModelID))
	}
	if patch.EpistemicStatus != nil {
		sets = append(sets, "epistemic_status = "+arg(string(*patch.EpistemicStatus)))
	}
	if patch.EpistemicStats != nil {
		statsValue := attrs.Map(map[string]attrs.Value{
			"mean":   attrs.Scalar(patch.EpistemicStats.Mean),
			"stddev": attrs.Scalar(patch.EpistemicStats.StdDev),
			"min":    attrs.Scalar(patch.EpistemicStats.Min),
			"max":    attrs.Scalar(patch.EpistemicStats.Max),
			"count":  attrs.Scalar(patch.EpistemicStats.Count),
		})
		encoded, err := json.Marshal(statsValue.Native())
		if err != nil {
			return fmt.Errorf("vocab graph/postgres: marshal epistemic_stats: %w", err)
		}
		sets = append(sets, "epistemic_stats = "+arg(encoded)+"::jsonb")
	}
	if patch.StatusMeasuredAt != nil {
		sets = append(sets, "status_measured_at = "+arg(int64(*patch.StatusMeasuredAt)))
	}
	if patch.Category != nil {
		sets = append(sets, "category = "+arg(*patch.Category))
	}
	if patch.CategoryConfidence != nil {
		sets = append(sets, "category_confidence = "+arg(*patch.CategoryConfidence))
	}
	if patch.CategorySource != nil {
		sets = append(sets, "category_source = "+arg(string(*patch.CategorySource)))
	}

	if len(sets) == 0 {
		// Nothing to write, but a missing type is still ErrNotFound.
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vocabulary_types WHERE name = $1)`, name).Scan(&exists); err != nil {
			return fmt.Errorf("vocab graph/postgres: update type attributes: %w", err)
		}
		if !exists {
			return errs.ErrNotFound
		}
		return nil
	}
	sets = append(sets, "updated_at = now()")

	q := "UPDATE vocabulary_types SET " + joinComma(sets) + " WHERE name = " + arg(name)
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("vocab graph/postgres: update type attributes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// BumpMeasurementEpoch implements [graph.Adapter].
func (s *Store) BumpMeasurementEpoch(ctx context.Context) (uint64, error) {
	const q = `UPDATE measurement_epoch SET counter = counter + 1 WHERE id = true RETURNING counter`
	var epoch int64
	if err := s.pool.QueryRow(ctx, q).Scan(&epoch); err != nil {
		return 0, fmt.Errorf("vocab graph/postgres: bump measurement epoch: %w", err)
	}
	return uint64(epoch), nil
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func isNoRows(err error) bool {
	return err != nil && err.Error() == "no rows in result set"
}
