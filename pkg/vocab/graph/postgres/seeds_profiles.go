package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// ListCategorySeeds implements [graph.Adapter].
func (s *Store) ListCategorySeeds(ctx context.Context) ([]types.CategorySeed, error) {
	const q = `SELECT name, seed_text, seed_embedding FROM category_seeds ORDER BY name`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: list category seeds: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.CategorySeed, error) {
		var (
			c        types.CategorySeed
			textJSON []byte
			vec      *pgvector.Vector
		)
		if err := row.Scan(&c.Name, &textJSON, &vec); err != nil {
			return types.CategorySeed{}, err
		}
		if len(textJSON) > 0 {
			if err := json.Unmarshal(textJSON, &c.SeedText); err != nil {
				return types.CategorySeed{}, fmt.Errorf("unmarshal seed_text: %w", err)
			}
		}
		if vec != nil {
			c.SeedEmbedding = vec.Slice()
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: list category seeds: scan: %w", err)
	}
	if out == nil {
		out = []types.CategorySeed{}
	}
	return out, nil
}

// ListProfiles implements [graph.Adapter].
func (s *Store) ListProfiles(ctx context.Context) ([]types.AggressivenessProfile, error) {
	const q = `SELECT name, is_builtin, x1, y1, x2, y2 FROM aggressiveness_profiles ORDER BY name`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: list profiles: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: list profiles: scan: %w", err)
	}
	if out == nil {
		out = []types.AggressivenessProfile{}
	}
	return out, nil
}

// GetProfile implements [graph.Adapter].
func (s *Store) GetProfile(ctx context.Context, name string) (types.AggressivenessProfile, error) {
	const q = `SELECT name, is_builtin, x1, y1, x2, y2 FROM aggressiveness_profiles WHERE name = $1`
	rows, err := s.pool.Query(ctx, q, name)
	if err != nil {
		return types.AggressivenessProfile{}, fmt.Errorf("vocab graph/postgres: get profile: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		return types.AggressivenessProfile{}, fmt.Errorf("vocab graph/postgres: get profile: scan: %w", err)
	}
	if len(out) == 0 {
		return types.AggressivenessProfile{}, errs.ErrNotFound
	}
	return out[0], nil
}

// PutProfile implements [graph.Adapter]. Builtin profiles are immutable:
// a write to a name already registered as builtin fails with
// [errs.ErrConflict] rather than silently overwriting it.
func (s *Store) PutProfile(ctx context.Context, p types.AggressivenessProfile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("vocab graph/postgres: put profile: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingBuiltin bool
	err = tx.QueryRow(ctx, `SELECT is_builtin FROM aggressiveness_profiles WHERE name = $1`, p.Name).Scan(&existingBuiltin)
	switch {
	case err == nil:
		if existingBuiltin {
			return errs.ErrConflict
		}
	case isNoRows(err):
		// new profile, fall through to insert.
	default:
		return fmt.Errorf("vocab graph/postgres: put profile: %w", err)
	}
	if p.IsBuiltin {
		return errs.ErrConflict
	}

	const q = `
		INSERT INTO aggressiveness_profiles (name, is_builtin, x1, y1, x2, y2)
		VALUES ($1, false, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET x1 = $2, y1 = $3, x2 = $4, y2 = $5`
	if _, err := tx.Exec(ctx, q, p.Name, p.X1, p.Y1, p.X2, p.Y2); err != nil {
		return fmt.Errorf("vocab graph/postgres: put profile: %w", err)
	}
	return tx.Commit(ctx)
}

// DeleteProfile implements [graph.Adapter].
func (s *Store) DeleteProfile(ctx context.Context, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("vocab graph/postgres: delete profile: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var isBuiltin bool
	if err := tx.QueryRow(ctx, `SELECT is_builtin FROM aggressiveness_profiles WHERE name = $1`, name).Scan(&isBuiltin); err != nil {
		if isNoRows(err) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("vocab graph/postgres: delete profile: %w", err)
	}
	if isBuiltin {
		return errs.ErrConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM aggressiveness_profiles WHERE name = $1`, name); err != nil {
		return fmt.Errorf("vocab graph/postgres: delete profile: %w", err)
	}
	return tx.Commit(ctx)
}

func scanProfile(row pgx.CollectableRow) (types.AggressivenessProfile, error) {
	var p types.AggressivenessProfile
	if err := row.Scan(&p.Name, &p.IsBuiltin, &p.X1, &p.Y1, &p.X2, &p.Y2); err != nil {
		return types.AggressivenessProfile{}, err
	}
	return p, nil
}
