package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
	"github.com/latticegraph/vocabengine/pkg/vocab/types"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind. Used
// by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"graph":      {"postgres", "badger"},
	"embeddings": {"openai"},
	"reasoner":   {"anyllm"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in the documented defaults for keys the caller
// left at their zero value.
func applyDefaults(cfg *Config) {
	if cfg.Vocab.VocabMin == 0 {
		cfg.Vocab.VocabMin = 30
	}
	if cfg.Vocab.SimilarityStrong == 0 {
		cfg.Vocab.SimilarityStrong = 0.90
	}
	if cfg.Vocab.SimilarityModerate == 0 {
		cfg.Vocab.SimilarityModerate = 0.70
	}
	if cfg.Vocab.MergeAutoThreshold == 0 {
		cfg.Vocab.MergeAutoThreshold = 0.90
	}
	if cfg.Vocab.PruningMode == "" {
		cfg.Vocab.PruningMode = types.PruningNaive
	}
	if cfg.Vocab.SampleSize == 0 {
		cfg.Vocab.SampleSize = 50
	}
	if cfg.Vocab.GroundingMaxDepth == 0 {
		cfg.Vocab.GroundingMaxDepth = 3
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogLevelInfo
	}
}

// Validate checks that cfg contains a coherent set of values. It returns
// a single error wrapping errs.ErrInvalidConfig (matchable with
// errors.Is) together with every validation failure found, joined via
// errors.Join.
func Validate(cfg *Config) error {
	var failures []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		failures = append(failures, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("graph", cfg.Providers.Graph.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("reasoner", cfg.Providers.Reasoner.Name)

	if cfg.Providers.Graph.Name == "" {
		failures = append(failures, errors.New("providers.graph.name is required"))
	}

	switch cfg.Vocab.PruningMode {
	case types.PruningNaive, types.PruningHITL, types.PruningAITL, "":
	default:
		failures = append(failures, fmt.Errorf("vocab.pruning_mode %q is invalid; valid values: naive, hitl, aitl", cfg.Vocab.PruningMode))
	}

	if cfg.Vocab.VocabMax != 0 && cfg.Vocab.VocabMin > cfg.Vocab.VocabMax {
		failures = append(failures, fmt.Errorf("vocab.vocab_min (%d) must not exceed vocab.vocab_max (%d)", cfg.Vocab.VocabMin, cfg.Vocab.VocabMax))
	}
	if cfg.Vocab.VocabEmergency != 0 && cfg.Vocab.VocabMax != 0 && cfg.Vocab.VocabMax > cfg.Vocab.VocabEmergency {
		failures = append(failures, fmt.Errorf("vocab.vocab_max (%d) must not exceed vocab.vocab_emergency (%d)", cfg.Vocab.VocabMax, cfg.Vocab.VocabEmergency))
	}
	if cfg.Vocab.SimilarityModerate > cfg.Vocab.SimilarityStrong {
		failures = append(failures, fmt.Errorf("vocab.similarity_moderate (%.2f) must not exceed vocab.similarity_strong (%.2f)", cfg.Vocab.SimilarityModerate, cfg.Vocab.SimilarityStrong))
	}
	if cfg.Vocab.GroundingMaxDepth < 0 {
		failures = append(failures, fmt.Errorf("vocab.grounding_max_depth (%d) must be non-negative", cfg.Vocab.GroundingMaxDepth))
	}

	if cfg.Providers.Embeddings.Name == "" {
		slog.Warn("providers.embeddings is not configured; embedding-dependent scoring will be unavailable")
	}
	if cfg.Providers.Reasoner.Name == "" {
		slog.Warn("providers.reasoner is not configured; the executor will always fall back to the deterministic heuristic")
	}

	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w: %w", errs.ErrInvalidConfig, errors.Join(failures...))
}

// validateProviderName logs a warning if name is non-empty and not found
// in the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
