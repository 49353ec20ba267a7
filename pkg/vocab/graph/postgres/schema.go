// Package postgres provides a PostgreSQL/pgvector-backed implementation
// of the Graph Adapter. A single [pgxpool.Pool] backs five tables:
// vocabulary_types, edges, category_seeds, aggressiveness_profiles, and
// the single-row measurement_epoch counter.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, 1536)
//	if err != nil { … }
//	defer store.Close()
//
//	types, err := store.ListVocabulary(ctx, types.VocabularyFilter{})
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlVocabularyTypes = `
CREATE TABLE IF NOT EXISTS vocabulary_types (
    name                 TEXT         PRIMARY KEY,
    category             TEXT         NOT NULL DEFAULT '',
    category_confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
    category_source      TEXT         NOT NULL DEFAULT '',
    is_builtin           BOOLEAN      NOT NULL DEFAULT false,
    is_active            BOOLEAN      NOT NULL DEFAULT true,
    usage_count          BIGINT       NOT NULL DEFAULT 0,
    embedding_model_id   TEXT         NOT NULL DEFAULT '',
    epistemic_status     TEXT         NOT NULL DEFAULT '',
    epistemic_stats      JSONB        NOT NULL DEFAULT '{}',
    status_measured_at   BIGINT       NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_types_active
    ON vocabulary_types (is_active);
`

func ddlVocabularyEmbedding(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

ALTER TABLE vocabulary_types
    ADD COLUMN IF NOT EXISTS embedding vector(%d);

CREATE INDEX IF NOT EXISTS idx_vocabulary_types_embedding
    ON vocabulary_types USING hnsw (embedding vector_cosine_ops);
`, dimensions)
}

const ddlEdges = `
CREATE TABLE IF NOT EXISTS edges (
    source_id   TEXT             NOT NULL,
    target_id   TEXT             NOT NULL,
    label       TEXT             NOT NULL REFERENCES vocabulary_types (name),
    confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
    grounding   DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (source_id, target_id, label)
);

CREATE INDEX IF NOT EXISTS idx_edges_label ON edges (label);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges (source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges (target_id);
`

const ddlCategorySeeds = `
CREATE TABLE IF NOT EXISTS category_seeds (
    name       TEXT   PRIMARY KEY,
    seed_text  JSONB  NOT NULL DEFAULT '[]'
);
`

func ddlCategorySeedsEmbedding(dimensions int) string {
	return fmt.Sprintf(`
ALTER TABLE category_seeds
    ADD COLUMN IF NOT EXISTS seed_embedding vector(%d);
`, dimensions)
}

const ddlAggressivenessProfiles = `
CREATE TABLE IF NOT EXISTS aggressiveness_profiles (
    name       TEXT             PRIMARY KEY,
    is_builtin BOOLEAN          NOT NULL DEFAULT false,
    x1         DOUBLE PRECISION NOT NULL,
    y1         DOUBLE PRECISION NOT NULL,
    x2         DOUBLE PRECISION NOT NULL,
    y2         DOUBLE PRECISION NOT NULL
);
`

const ddlMeasurementEpoch = `
CREATE TABLE IF NOT EXISTS measurement_epoch (
    id      BOOLEAN PRIMARY KEY DEFAULT true CHECK (id),
    counter BIGINT  NOT NULL DEFAULT 0
);

INSERT INTO measurement_epoch (id, counter) VALUES (true, 0)
ON CONFLICT (id) DO NOTHING;
`

// Migrate creates or ensures every table/extension this adapter needs.
// It is idempotent and safe to call on every process start.
//
// embeddingDimensions must match the configured Embedding Provider's
// Dimensions(); it is baked into the vector column type at creation time.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlVocabularyTypes,
		ddlVocabularyEmbedding(embeddingDimensions),
		ddlEdges,
		ddlCategorySeeds,
		ddlCategorySeedsEmbedding(embeddingDimensions),
		ddlAggressivenessProfiles,
		ddlMeasurementEpoch,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres graph adapter migrate: %w", err)
		}
	}
	return nil
}
