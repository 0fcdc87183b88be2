// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that the assistant sends correct
// CompletionRequests and to feed controlled responses without a live LLM
// backend.
//
// Example:
//
//	p := &mock.Provider{
//	    Responses: []string{`{"tool":"getPublicIpSummary","arguments":{}}`},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/tenvoy/tenvoy/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
//
// Each Complete call consumes the next entry of Responses; when Responses is
// exhausted the last entry is repeated. Set Err to make every call fail.
type Provider struct {
	mu sync.Mutex

	// Responses are returned in order as CompletionResponse.Content.
	Responses []string

	// Err, when non-nil, is returned by every Complete call.
	Err error

	// Calls records every invocation in order.
	Calls []CompleteCall

	next int
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})
	if p.Err != nil {
		return nil, p.Err
	}

	content := ""
	if len(p.Responses) > 0 {
		idx := p.next
		if idx >= len(p.Responses) {
			idx = len(p.Responses) - 1
		}
		content = p.Responses[idx]
		p.next++
	}
	return &llm.CompletionResponse{Content: content}, nil
}

// CallCount returns the number of Complete invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
