package anyllm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
)

func TestNew_RejectsEmptyProviderName(t *testing.T) {
	_, err := New("", "gpt-4o")
	require.Error(t, err)
}

func TestNew_RejectsEmptyModel(t *testing.T) {
	_, err := New("openai", "")
	require.Error(t, err)
}

func TestCreateBackend_UnsupportedProviderErrors(t *testing.T) {
	_, err := createBackend("carrier-pigeon")
	require.Error(t, err)
}

func TestParseDecisionEnvelope_PlainJSON(t *testing.T) {
	env, err := parseDecisionEnvelope(`{"decision":"merge","reasoning":"same concept","confidence":0.92}`)
	require.NoError(t, err)
	require.Equal(t, "merge", env.Decision)
	require.Equal(t, "same concept", env.Reasoning)
	require.InDelta(t, 0.92, env.Confidence, 1e-9)
}

func TestParseDecisionEnvelope_TolerantOfSurroundingProseAndFences(t *testing.T) {
	env, err := parseDecisionEnvelope("Sure, here is my answer:\n```json\n{\"decision\":\"skip\",\"reasoning\":\"distinct\",\"confidence\":0.4}\n```\nLet me know if you need more.")
	require.NoError(t, err)
	require.Equal(t, "skip", env.Decision)
}

func TestParseDecisionEnvelope_NoJSONObjectErrors(t *testing.T) {
	_, err := parseDecisionEnvelope("I cannot decide.")
	require.Error(t, err)
}

func TestParseDecisionEnvelope_MalformedJSONErrors(t *testing.T) {
	_, err := parseDecisionEnvelope(`{"decision": "merge", }`)
	require.Error(t, err)
}

func TestBuildUserPrompt_IncludesPairFields(t *testing.T) {
	req := reasoner.Request{
		Instruction: "evaluate_merge",
		Pair: &reasoner.PairInput{
			A:          reasoner.CandidateAttrs{Name: "wrote", UsageCount: 0},
			B:          reasoner.CandidateAttrs{Name: "authored", UsageCount: 5},
			Similarity: 0.88,
		},
	}
	prompt := buildUserPrompt(req)
	require.Contains(t, prompt, "pair.a: name=wrote")
	require.Contains(t, prompt, "pair.b: name=authored")
	require.Contains(t, prompt, "pair.similarity: 0.8800")
}
