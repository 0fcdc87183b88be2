package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tenvoy/tenvoy/internal/observe"
	"github.com/tenvoy/tenvoy/pkg/provider/llm"
)

// Composer turns tool results into natural-language answers.
type Composer struct {
	provider llm.Provider
	metrics  *observe.Metrics
}

// NewComposer builds a Composer on the given provider.
func NewComposer(provider llm.Provider, metrics *observe.Metrics) *Composer {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Composer{provider: provider, metrics: metrics}
}

// Compose answers question from the JSON result of the named tool. The
// result is pretty-printed into the prompt so the model sees stable
// indentation regardless of how the tool serialised it.
func (c *Composer) Compose(ctx context.Context, question, toolName string, toolResult json.RawMessage) (string, error) {
	pretty, err := indentJSON(toolResult)
	if err != nil {
		return "", fmt.Errorf("assistant: tool result is not valid JSON: %w", err)
	}

	user := fmt.Sprintf("User question:\n%s\n\nTool used: %s\n\nTool JSON result:\n%s\n\nAnswer:",
		question, toolName, pretty)

	answer, err := c.complete(ctx, "compose", composerSystemPrompt, user)
	if err != nil {
		c.metrics.RecordLLMRequest(ctx, "compose", "error")
		return "", fmt.Errorf("assistant: compose answer: %w", err)
	}
	c.metrics.RecordLLMRequest(ctx, "compose", "ok")
	return answer, nil
}

// Direct answers a question that needs no live tenancy data.
func (c *Composer) Direct(ctx context.Context, question string) (string, error) {
	answer, err := c.complete(ctx, "direct", directSystemPrompt, "User question:\n"+question+"\n\nAnswer:")
	if err != nil {
		c.metrics.RecordLLMRequest(ctx, "direct", "error")
		return "", fmt.Errorf("assistant: direct answer: %w", err)
	}
	c.metrics.RecordLLMRequest(ctx, "direct", "ok")
	return answer, nil
}

func (c *Composer) complete(ctx context.Context, stage, system, user string) (string, error) {
	start := time.Now()
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: user}},
		Temperature:  completionTemperature,
		TopP:         completionTopP,
		MaxTokens:    completionMaxTokens,
	})
	c.metrics.RecordLLMDuration(ctx, stage, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func indentJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
