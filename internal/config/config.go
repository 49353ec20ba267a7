// Package config provides the configuration schema, loader, and provider
// registry for the vocabulary lifecycle engine.
package config

import "github.com/latticegraph/vocabengine/pkg/vocab/types"

// Config is the root configuration structure for the engine. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
//
// Config comes only from YAML: the loader turns a file or reader into a
// validated in-memory snapshot for one process to consume. This package
// neither reads configuration from the graph store nor writes it back;
// there is no persistent key/value config table.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Vocab         VocabConfig         `yaml:"vocab"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LogLevel controls slog verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the recognized levels. An empty
// LogLevel is not considered valid here; callers treat "" as "unset,
// default to info" before validating.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// ServerConfig holds process-level settings for the engine.
type ServerConfig struct {
	// LogLevel controls verbosity. Valid values: debug, info, warn, error.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which concrete backend to use for each
// external collaborator. Each field selects a named implementation
// registered in the [Registry].
type ProvidersConfig struct {
	Graph      ProviderEntry `yaml:"graph"`
	Embeddings ProviderEntry `yaml:"embeddings"`
	Reasoner   ProviderEntry `yaml:"reasoner"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds.
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g.,
	// "postgres", "badger", "openai", "anyllm").
	Name string `yaml:"name"`

	// DSN is the connection string for store-backed providers (graph).
	DSN string `yaml:"dsn"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty
	// to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "text-embedding-3-small", "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered
	// by the standard fields above.
	Options map[string]any `yaml:"options"`
}

// VocabConfig carries the recognized consolidation thresholds, plus the
// epistemic-classifier tuning knobs that drive grounding sampling.
type VocabConfig struct {
	// VocabMin is the minimum target size; at or below it, consolidation
	// performs no merges.
	VocabMin int `yaml:"vocab_min"`
	// VocabMax is the size above which consolidation is recommended.
	VocabMax int `yaml:"vocab_max"`
	// VocabEmergency is the size above which aggressiveness saturates.
	VocabEmergency int `yaml:"vocab_emergency"`

	// AggressivenessProfile names a profile (builtin or stored) whose
	// curve scales thresholds against current vocabulary size.
	AggressivenessProfile string `yaml:"aggressiveness_profile"`

	// SimilarityStrong is the auto-merge threshold.
	SimilarityStrong float64 `yaml:"similarity_strong"`
	// SimilarityModerate is the reasoner-eligibility threshold.
	SimilarityModerate float64 `yaml:"similarity_moderate"`
	// LowValueThreshold is the value_score below which a single type
	// becomes a low-value reasoner candidate.
	LowValueThreshold float64 `yaml:"low_value_threshold"`
	// MergeAutoThreshold is the minimum reasoner confidence required to
	// execute a merge/deprecate decision.
	MergeAutoThreshold float64 `yaml:"merge_auto_threshold"`

	// EmbeddingModel is an opaque identifier recorded alongside cached
	// vectors; it does not itself select the embeddings provider (that's
	// Providers.Embeddings.Model) but is kept as its own recognized key
	// since the two can diverge during a model migration.
	EmbeddingModel string `yaml:"embedding_model"`

	// PruningMode selects how reasoner-eligible candidates are handled:
	// naive runs the executor unattended; hitl/aitl defer every
	// reasoner-eligible candidate to external review.
	PruningMode types.PruningMode `yaml:"pruning_mode"`

	// AutoExpandEnabled allows ingestion to add new types. The engine
	// itself never acts on this flag; it is read-only with respect to it.
	AutoExpandEnabled bool `yaml:"auto_expand_enabled"`

	// SampleSize bounds how many edges the Epistemic Classifier samples
	// per type.
	SampleSize int `yaml:"sample_size"`
	// GroundingMaxDepth bounds the bounded-recursion grounding walk.
	GroundingMaxDepth int `yaml:"grounding_max_depth"`
	// HistoricalPredicatePatterns are regular expressions matched
	// against a type's name for the HISTORICAL classification rule.
	HistoricalPredicatePatterns []string `yaml:"historical_predicate_patterns"`
}

// ObservabilityConfig holds settings for the metrics bridge.
type ObservabilityConfig struct {
	// PrometheusAddr is the optional /metrics listen address for the
	// OTel Prometheus exporter. Empty disables the listener.
	PrometheusAddr string `yaml:"prometheus_addr"`
}
