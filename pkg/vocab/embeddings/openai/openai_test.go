package openai_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticegraph/vocabengine/pkg/vocab/embeddings/openai"
)

func TestNew_RejectsEmptyAPIKey(t *testing.T) {
	_, err := openai.New("", "")
	require.Error(t, err)
}

func TestNew_DefaultsModelWhenEmpty(t *testing.T) {
	p, err := openai.New("test-key", "")
	require.NoError(t, err)
	require.Equal(t, string(openai.DefaultModel), p.ModelID())
}

func TestNew_KeepsExplicitModel(t *testing.T) {
	p, err := openai.New("test-key", "text-embedding-3-large")
	require.NoError(t, err)
	require.Equal(t, "text-embedding-3-large", p.ModelID())
	require.Equal(t, 3072, p.Dimensions())
}

func TestDimensions_KnownModels(t *testing.T) {
	cases := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"some-future-model", 1536},
	}
	for _, tc := range cases {
		p, err := openai.New("test-key", tc.model)
		require.NoError(t, err)
		require.Equal(t, tc.want, p.Dimensions(), "model %q", tc.model)
	}
}

func TestNew_AppliesOptionsWithoutError(t *testing.T) {
	_, err := openai.New("test-key", "", openai.WithBaseURL("https://example.invalid/v1"), openai.WithOrganization("org-test"))
	require.NoError(t, err)
}
