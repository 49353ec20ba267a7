package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/latticegraph/vocabengine/pkg/vocab/graph"
)

// Compile-time interface assertion.
var _ graph.Adapter = (*Store)(nil)

// Store is the PostgreSQL-backed Graph Adapter. All operations are safe
// for concurrent use; the underlying pool serializes transactional
// writes so a merge is always all-or-nothing.
type Store struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewStore opens a connection pool to dsn, registers pgvector types on
// every connection, and runs [Migrate]. dimensions must match the
// configured Embedding Provider's advertised dimension.
func NewStore(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vocab graph/postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("vocab graph/postgres: ping: %w", err)
	}
	if err := Migrate(ctx, pool, dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("vocab graph/postgres: migrate: %w", err)
	}

	return &Store{pool: pool, dimensions: dimensions}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}
