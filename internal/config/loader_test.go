package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latticegraph/vocabengine/internal/config"
	"github.com/latticegraph/vocabengine/pkg/vocab/errs"
)

func TestLoad_ReadsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("providers:\n  graph:\n    name: badger\n"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.Graph.Name != "badger" {
		t.Errorf("providers.graph.name: got %q, want %q", cfg.Providers.Graph.Name, "badger")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestValidate_MultipleErrorsJoined(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bogus
vocab:
  vocab_min: 100
  vocab_max: 50
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "vocab_min") {
		t.Errorf("error should mention vocab_min, got: %v", err)
	}
	// providers.graph.name is also missing — should be the third error.
	if !strings.Contains(errStr, "providers.graph.name") {
		t.Errorf("error should mention providers.graph.name, got: %v", err)
	}
}

func TestValidate_WrapsErrInvalidConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bogus
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !errors.Is(err, errs.ErrInvalidConfig) {
		t.Errorf("expected errors.Is(err, errs.ErrInvalidConfig) to hold, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	graphNames := config.ValidProviderNames["graph"]
	if len(graphNames) == 0 {
		t.Fatal(`ValidProviderNames["graph"] should not be empty`)
	}
	found := false
	for _, n := range graphNames {
		if n == "postgres" {
			found = true
			break
		}
	}
	if !found {
		t.Error(`ValidProviderNames["graph"] should contain "postgres"`)
	}
}

func TestValidate_EmbeddingsAndReasonerUnconfiguredIsAWarningNotAnError(t *testing.T) {
	t.Parallel()
	// Only the graph provider is required; embeddings/reasoner being
	// absent logs a warning (scoring/reasoner-dependent candidates are
	// skipped at runtime) but does not fail validation.
	yaml := `
providers:
  graph:
    name: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
