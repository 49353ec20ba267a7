// Package anyllm provides a Reasoning Provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider completion
// interface supporting OpenAI, Anthropic, Gemini, Ollama, DeepSeek,
// Mistral, Groq, and more, narrowed to a single structured decision
// request/response instead of a general chat completion.
package anyllm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
)

// Provider implements reasoner.Provider by wrapping any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a Provider backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq". model is the specific model to use. If
// no API key option is provided, the backend falls back to the relevant
// environment variable (e.g. OPENAI_API_KEY).
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("vocab reasoner/anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("vocab reasoner/anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("vocab reasoner/anyllm: create %q backend: %w", providerName, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq", providerName)
	}
}

// decisionEnvelope is the JSON shape the prompt instructs the model to
// emit; it mirrors reasoner.Response field-for-field.
type decisionEnvelope struct {
	Decision   string  `json:"decision"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Evaluate implements reasoner.Provider. It shapes req into a single
// system + user message pair instructing the model to respond with a
// minified JSON object matching decisionEnvelope, then parses the result.
// A malformed response is surfaced as an error so the caller's circuit
// breaker can trip the heuristic fallback.
func (p *Provider) Evaluate(ctx context.Context, req reasoner.Request) (reasoner.Response, error) {
	params := anyllmlib.CompletionParams{
		Model: p.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: systemPrompt},
			{Role: anyllmlib.RoleUser, Content: buildUserPrompt(req)},
		},
	}
	temp := 0.0
	params.Temperature = &temp

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return reasoner.Response{}, fmt.Errorf("vocab reasoner/anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return reasoner.Response{}, fmt.Errorf("vocab reasoner/anyllm: empty choices in response")
	}

	content := resp.Choices[0].Message.ContentString()
	env, err := parseDecisionEnvelope(content)
	if err != nil {
		return reasoner.Response{}, fmt.Errorf("vocab reasoner/anyllm: malformed response: %w", err)
	}

	return reasoner.Response{
		Decision:   reasoner.Normalize(env.Decision),
		Reasoning:  env.Reasoning,
		Confidence: env.Confidence,
	}, nil
}

const systemPrompt = `You evaluate candidate merges and deprecations in a ` +
	`relationship-type vocabulary for a knowledge graph. Respond with a ` +
	`single minified JSON object: {"decision":"merge|skip|deprecate",` +
	`"reasoning":"...","confidence":0.0}. Nothing else.`

func buildUserPrompt(req reasoner.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "instruction: %s\n", req.Instruction)
	if req.Pair != nil {
		fmt.Fprintf(&b, "pair.a: name=%s category=%s usage=%d bridges=%d\n",
			req.Pair.A.Name, req.Pair.A.Category, req.Pair.A.UsageCount, req.Pair.A.BridgeCount)
		fmt.Fprintf(&b, "pair.b: name=%s category=%s usage=%d bridges=%d\n",
			req.Pair.B.Name, req.Pair.B.Category, req.Pair.B.UsageCount, req.Pair.B.BridgeCount)
		fmt.Fprintf(&b, "pair.similarity: %.4f\n", req.Pair.Similarity)
	}
	if req.Single != nil {
		fmt.Fprintf(&b, "single: name=%s category=%s usage=%d bridges=%d\n",
			req.Single.Name, req.Single.Category, req.Single.UsageCount, req.Single.BridgeCount)
	}
	return b.String()
}

// parseDecisionEnvelope extracts the JSON object from content, tolerating
// surrounding prose or code fences some models still emit despite
// instruction.
func parseDecisionEnvelope(content string) (decisionEnvelope, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return decisionEnvelope{}, fmt.Errorf("no JSON object found in response")
	}
	var env decisionEnvelope
	if err := json.Unmarshal([]byte(content[start:end+1]), &env); err != nil {
		return decisionEnvelope{}, err
	}
	return env, nil
}
