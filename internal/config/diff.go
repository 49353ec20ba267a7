package config

// ConfigDiff describes what changed between two configs. Only fields
// that are safe to apply without restarting the engine are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ThresholdsChanged is true if any of the vocab consolidation knobs
	// changed (vocab_min/max/emergency, similarity thresholds,
	// low_value_threshold, merge_auto_threshold, aggressiveness_profile,
	// embedding_model, pruning_mode, auto_expand_enabled, sample_size,
	// grounding_max_depth, historical_predicate_patterns).
	ThresholdsChanged bool

	// ProvidersChanged is true if any provider's name, DSN, API key,
	// base URL, or model changed — these require re-constructing the provider via the
	// [Registry], not just swapping a config value.
	ProvidersChanged bool
}

// Diff compares old and new configs and returns what changed. Only
// tracks changes that are safe to apply without restart; a caller
// observing ProvidersChanged must re-run provider construction rather
// than mutate an already-running Engine in place.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if thresholdsChanged(old.Vocab, new.Vocab) {
		d.ThresholdsChanged = true
	}

	if providerChanged(old.Providers.Graph, new.Providers.Graph) ||
		providerChanged(old.Providers.Embeddings, new.Providers.Embeddings) ||
		providerChanged(old.Providers.Reasoner, new.Providers.Reasoner) {
		d.ProvidersChanged = true
	}

	return d
}

// thresholdsChanged compares every VocabConfig field, including the
// historical_predicate_patterns slice (element by element, in order).
func thresholdsChanged(old, new VocabConfig) bool {
	if old.VocabMin != new.VocabMin ||
		old.VocabMax != new.VocabMax ||
		old.VocabEmergency != new.VocabEmergency ||
		old.AggressivenessProfile != new.AggressivenessProfile ||
		old.SimilarityStrong != new.SimilarityStrong ||
		old.SimilarityModerate != new.SimilarityModerate ||
		old.LowValueThreshold != new.LowValueThreshold ||
		old.MergeAutoThreshold != new.MergeAutoThreshold ||
		old.EmbeddingModel != new.EmbeddingModel ||
		old.PruningMode != new.PruningMode ||
		old.AutoExpandEnabled != new.AutoExpandEnabled ||
		old.SampleSize != new.SampleSize ||
		old.GroundingMaxDepth != new.GroundingMaxDepth {
		return true
	}
	return !slicesEqual(old.HistoricalPredicatePatterns, new.HistoricalPredicatePatterns)
}

// providerChanged compares the fields that select and authenticate a
// provider. Options is intentionally excluded: it's an arbitrary map
// interpreted by each provider's own constructor, not something this
// package can meaningfully diff.
func providerChanged(old, new ProviderEntry) bool {
	return old.Name != new.Name ||
		old.DSN != new.DSN ||
		old.APIKey != new.APIKey ||
		old.BaseURL != new.BaseURL ||
		old.Model != new.Model
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
