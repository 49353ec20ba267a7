// Package mock provides a test double for the reasoner.Provider interface.
//
// Use Provider in unit tests to feed controlled decisions without a live
// reasoning backend and to verify what requests the executor sent.
package mock

import (
	"context"
	"sync"

	"github.com/latticegraph/vocabengine/pkg/vocab/reasoner"
)

// EvaluateCall records a single invocation of Evaluate.
type EvaluateCall struct {
	Req reasoner.Request
}

// Provider is a mock implementation of reasoner.Provider. Zero value
// responds to every call with the zero Response and no error; set
// Responses to queue per-call answers, or Err to inject a failure.
type Provider struct {
	mu sync.Mutex

	// Responses is consumed in order, one per Evaluate call. When
	// exhausted, Response is returned instead.
	Responses []reasoner.Response
	// Response is returned once Responses is exhausted (or if never set).
	Response reasoner.Response
	// Err, if non-nil, is returned as the error from every Evaluate call.
	Err error

	EvaluateCalls []EvaluateCall
}

// Evaluate records the call and returns the next queued Response, or Err.
func (p *Provider) Evaluate(_ context.Context, req reasoner.Request) (reasoner.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EvaluateCalls = append(p.EvaluateCalls, EvaluateCall{Req: req})
	if p.Err != nil {
		return reasoner.Response{}, p.Err
	}
	if len(p.Responses) > 0 {
		next := p.Responses[0]
		p.Responses = p.Responses[1:]
		return next, nil
	}
	return p.Response, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EvaluateCalls = nil
}

// Ensure Provider implements reasoner.Provider at compile time.
var _ reasoner.Provider = (*Provider)(nil)
