package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tenvoy/tenvoy/internal/catalog"
	"github.com/tenvoy/tenvoy/internal/observe"
	"github.com/tenvoy/tenvoy/internal/snapshot"
)

// ErrUnknownTool is returned when the router names a tool that is not in the
// catalog. The model is untrusted input; its tool choice is validated before
// anything is executed.
var ErrUnknownTool = errors.New("assistant: model requested unknown tool")

// ToolInvoker executes a named tool and returns its raw JSON result.
// bridge.Client implements it for subprocess execution.
type ToolInvoker interface {
	Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error)
}

// Orchestrator runs the full question flow: route, execute, compose.
type Orchestrator struct {
	router   *Router
	composer *Composer
	invoker  ToolInvoker
	metrics  *observe.Metrics
}

// NewOrchestrator wires a router and composer to a tool invoker.
func NewOrchestrator(router *Router, composer *Composer, invoker ToolInvoker, metrics *observe.Metrics) *Orchestrator {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Orchestrator{router: router, composer: composer, invoker: invoker, metrics: metrics}
}

// Answer resolves question end to end. When the router picks no tool the
// question is answered from general knowledge without touching the tenancy.
func (o *Orchestrator) Answer(ctx context.Context, question string) (string, error) {
	ctx, span := observe.StartSpan(ctx, "assistant.answer")
	defer span.End()

	decision, err := o.router.Decide(ctx, question)
	if err != nil {
		return "", err
	}

	if decision.Tool == nil {
		observe.Logger(ctx).Debug("no tool selected, answering directly")
		return o.composer.Direct(ctx, question)
	}

	tool := *decision.Tool
	if !catalog.IsKnown(tool) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}

	observe.Logger(ctx).Info("executing tool", "tool", tool, "arguments", decision.Arguments)
	result, err := o.invoker.Call(ctx, tool, decision.Arguments)
	if err != nil {
		return "", fmt.Errorf("assistant: execute %s: %w", tool, err)
	}

	return o.composer.Compose(ctx, question, tool, result)
}

// AnswerFromStore resolves question preferring cached tool results from
// store. The tool runs only when no snapshot exists or the snapshot is older
// than ttl; fresh results are written back so the next question hits the
// cache.
//
// Snapshots hold default-parameter runs keyed by tool name. A question the
// router routes with arguments bypasses the store entirely: it runs live
// and its result is not written back.
func (o *Orchestrator) AnswerFromStore(ctx context.Context, question string, store snapshot.Store, ttl time.Duration) (string, error) {
	ctx, span := observe.StartSpan(ctx, "assistant.answer_from_store")
	defer span.End()

	decision, err := o.router.Decide(ctx, question)
	if err != nil {
		return "", err
	}
	if decision.Tool == nil {
		return o.composer.Direct(ctx, question)
	}

	tool := *decision.Tool
	if !catalog.IsKnown(tool) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}

	if len(decision.Arguments) > 0 {
		observe.Logger(ctx).Info("question routed with arguments, bypassing snapshots",
			"tool", tool, "arguments", decision.Arguments)
		result, err := o.invoker.Call(ctx, tool, decision.Arguments)
		if err != nil {
			return "", fmt.Errorf("assistant: execute %s: %w", tool, err)
		}
		return o.composer.Compose(ctx, question, tool, result)
	}

	snap, err := store.Get(ctx, tool, ttl)
	switch {
	case err == nil:
		o.metrics.RecordSnapshotLookup(ctx, "hit")
		observe.Logger(ctx).Info("answering from snapshot", "tool", tool, "taken_at", snap.TakenAt)
		return o.composer.Compose(ctx, question, tool, snap.Result)

	case errors.Is(err, snapshot.ErrNotFound), errors.Is(err, snapshot.ErrStale):
		o.metrics.RecordSnapshotLookup(ctx, "miss")

	default:
		return "", fmt.Errorf("assistant: snapshot lookup for %s: %w", tool, err)
	}

	result, err := o.invoker.Call(ctx, tool, decision.Arguments)
	if err != nil {
		return "", fmt.Errorf("assistant: execute %s: %w", tool, err)
	}
	if err := store.Put(ctx, snapshot.Snapshot{Tool: tool, Result: result, TakenAt: time.Now()}); err != nil {
		observe.Logger(ctx).Warn("storing snapshot failed", "tool", tool, "err", err)
	}

	return o.composer.Compose(ctx, question, tool, result)
}

// AnswerWithCachedResult composes an answer from an already-computed tool
// result, skipping routing and execution entirely. Used with snapshot data
// warmed ahead of time.
func (o *Orchestrator) AnswerWithCachedResult(ctx context.Context, question, toolName string, result json.RawMessage) (string, error) {
	ctx, span := observe.StartSpan(ctx, "assistant.answer_cached")
	defer span.End()

	if !catalog.IsKnown(toolName) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, toolName)
	}
	return o.composer.Compose(ctx, question, toolName, result)
}
