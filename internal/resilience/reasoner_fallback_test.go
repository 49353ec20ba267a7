package resilience

import (
	"context"
	"testing"

	rmock "github.com/latticegraph/vocabengine/pkg/vocab/reasoner/mock"
	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
)

func TestReasonerFallback_PrimarySuccess(t *testing.T) {
	primary := &rmock.Provider{Response: reasoner.Response{Decision: reasoner.DecisionMerge, Confidence: 0.95}}
	secondary := &rmock.Provider{Response: reasoner.Response{Decision: reasoner.DecisionSkip}}

	f := NewReasonerFallback(primary, "primary", FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3}})
	f.AddFallback("secondary", secondary)

	resp, err := f.Evaluate(context.Background(), reasoner.Request{Instruction: "evaluate_merge"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Decision != reasoner.DecisionMerge {
		t.Fatalf("decision = %v, want merge", resp.Decision)
	}
	if len(secondary.EvaluateCalls) != 0 {
		t.Fatalf("secondary should not be called when primary succeeds")
	}
}

func TestReasonerFallback_PrimaryFailsFallsBackToSecondary(t *testing.T) {
	primary := &rmock.Provider{Err: errTest}
	secondary := &rmock.Provider{Response: reasoner.Response{Decision: reasoner.DecisionDeprecate, Confidence: 0.8}}

	f := NewReasonerFallback(primary, "primary", FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3}})
	f.AddFallback("secondary", secondary)

	resp, err := f.Evaluate(context.Background(), reasoner.Request{Instruction: "evaluate_low_value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Decision != reasoner.DecisionDeprecate {
		t.Fatalf("decision = %v, want deprecate", resp.Decision)
	}
}

func TestReasonerFallback_AllFail(t *testing.T) {
	primary := &rmock.Provider{Err: errTest}
	f := NewReasonerFallback(primary, "primary", FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3}})

	_, err := f.Evaluate(context.Background(), reasoner.Request{Instruction: "evaluate_merge"})
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
}
