// Package assistant hosts the LLM-driven question flow: the router picks a
// tenancy tool for a question, the composer turns a tool result into a
// natural-language answer, and the orchestrator runs the whole loop.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tenvoy/tenvoy/internal/observe"
	"github.com/tenvoy/tenvoy/pkg/provider/llm"
)

// Completion parameters shared by all assistant stages. Low temperature
// biases the router toward well-formed JSON.
const (
	completionTemperature = 0.1
	completionTopP        = 1
	completionMaxTokens   = 2048
)

// Decision is the router's verdict for one question. A nil Tool means no
// tool applies and the question should be answered from general knowledge.
type Decision struct {
	Tool      *string        `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// DecisionParseError reports router output that could not be parsed as a
// decision, even after brace extraction. Raw carries the model output for
// logging.
type DecisionParseError struct {
	Raw string
	Err error
}

func (e *DecisionParseError) Error() string {
	return fmt.Sprintf("assistant: router output is not a JSON decision: %v", e.Err)
}

func (e *DecisionParseError) Unwrap() error {
	return e.Err
}

// Router asks the LLM which tool, if any, answers a question.
type Router struct {
	provider llm.Provider
	metrics  *observe.Metrics
}

// NewRouter builds a Router on the given provider.
func NewRouter(provider llm.Provider, metrics *observe.Metrics) *Router {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Router{provider: provider, metrics: metrics}
}

// Decide routes question to a tool. The model's output is parsed as JSON
// directly, falling back to the first {...} block for models that wrap the
// object in prose or code fences.
func (r *Router) Decide(ctx context.Context, question string) (*Decision, error) {
	resp, err := r.complete(ctx, routerPrompt(), "User question:\n"+question+"\n\nJSON output:")
	if err != nil {
		r.metrics.RecordLLMRequest(ctx, "route", "error")
		return nil, fmt.Errorf("assistant: route question: %w", err)
	}
	r.metrics.RecordLLMRequest(ctx, "route", "ok")

	decision, err := parseDecision(resp)
	if err != nil {
		return nil, err
	}
	if decision.Arguments == nil {
		decision.Arguments = map[string]any{}
	}
	return decision, nil
}

// parseDecision decodes raw as a Decision, trying the whole string first and
// then the outermost brace-delimited block.
func parseDecision(raw string) (*Decision, error) {
	raw = strings.TrimSpace(raw)

	var d Decision
	directErr := json.Unmarshal([]byte(raw), &d)
	if directErr == nil {
		return &d, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, &DecisionParseError{Raw: raw, Err: directErr}
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &d); err != nil {
		return nil, &DecisionParseError{Raw: raw, Err: err}
	}
	return &d, nil
}

// complete runs one completion with the shared assistant parameters.
func (r *Router) complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: user}},
		Temperature:  completionTemperature,
		TopP:         completionTopP,
		MaxTokens:    completionMaxTokens,
	})
	r.metrics.RecordLLMDuration(ctx, "route", time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
