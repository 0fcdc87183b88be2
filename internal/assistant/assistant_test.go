package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tenvoy/tenvoy/internal/snapshot"
	"github.com/tenvoy/tenvoy/pkg/provider/llm/mock"
)

type fakeInvoker struct {
	method string
	params map[string]any
	result json.RawMessage
	err    error
	calls  int
}

func (f *fakeInvoker) Call(_ context.Context, method string, params map[string]any) (json.RawMessage, error) {
	f.calls++
	f.method = method
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Router
// ──────────────────────────────────────────────────────────────────────────────

func TestRouterDecideParsesCleanJSON(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":"getPublicIpSummary","arguments":{"scope":"RESERVED"}}`,
	}}
	r := NewRouter(p, nil)

	d, err := r.Decide(context.Background(), "how many reserved public IPs do we have?")
	if err != nil {
		t.Fatal(err)
	}
	if d.Tool == nil || *d.Tool != "getPublicIpSummary" {
		t.Fatalf("tool = %v, want getPublicIpSummary", d.Tool)
	}
	if d.Arguments["scope"] != "RESERVED" {
		t.Errorf("arguments = %v", d.Arguments)
	}
}

func TestRouterDecideExtractsBraceBlock(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		"Sure! Here is the routing decision:\n```json\n" +
			`{"tool":"getCostSummary","arguments":{"granularity":"DAILY"}}` +
			"\n```\nLet me know if you need anything else.",
	}}
	r := NewRouter(p, nil)

	d, err := r.Decide(context.Background(), "what did we spend yesterday?")
	if err != nil {
		t.Fatal(err)
	}
	if d.Tool == nil || *d.Tool != "getCostSummary" {
		t.Fatalf("tool = %v, want getCostSummary", d.Tool)
	}
	if d.Arguments["granularity"] != "DAILY" {
		t.Errorf("arguments = %v", d.Arguments)
	}
}

func TestRouterDecideNullTool(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{`{"tool":null,"arguments":{}}`}}
	r := NewRouter(p, nil)

	d, err := r.Decide(context.Background(), "what is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if d.Tool != nil {
		t.Errorf("tool = %q, want nil", *d.Tool)
	}
	if d.Arguments == nil {
		t.Error("arguments should be an empty map, not nil")
	}
}

func TestRouterDecideParseFailureIsTyped(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{"I cannot answer that in JSON, sorry."}}
	r := NewRouter(p, nil)

	_, err := r.Decide(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *DecisionParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %T, want *DecisionParseError", err)
	}
	if !strings.Contains(parseErr.Raw, "cannot answer") {
		t.Errorf("Raw = %q, want the model output preserved", parseErr.Raw)
	}
}

func TestRouterDecideProviderError(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Err: fmt.Errorf("backend unreachable")}
	r := NewRouter(p, nil)

	if _, err := r.Decide(context.Background(), "anything"); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestRouterPromptListsAllTools(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{`{"tool":null,"arguments":{}}`}}
	r := NewRouter(p, nil)

	if _, err := r.Decide(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	system := p.Calls[0].Req.SystemPrompt
	for _, tool := range []string{"getPublicIpSummary", "getCostSummary", "getCloudGuardSummary"} {
		if !strings.Contains(system, tool) {
			t.Errorf("router prompt does not mention %s", tool)
		}
	}
	if p.Calls[0].Req.Temperature != completionTemperature {
		t.Errorf("temperature = %v, want %v", p.Calls[0].Req.Temperature, completionTemperature)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Composer
// ──────────────────────────────────────────────────────────────────────────────

func TestComposerComposeIncludesResult(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{"You have 4 public IPs."}}
	c := NewComposer(p, nil)

	answer, err := c.Compose(context.Background(), "how many IPs?", "getPublicIpSummary",
		json.RawMessage(`{"total_count":4,"by_scope":{"EPHEMERAL":3,"RESERVED":1}}`))
	if err != nil {
		t.Fatal(err)
	}
	if answer != "You have 4 public IPs." {
		t.Errorf("answer = %q", answer)
	}

	user := p.Calls[0].Req.Messages[0].Content
	for _, want := range []string{"how many IPs?", "getPublicIpSummary", `"total_count": 4`} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q:\n%s", want, user)
		}
	}
}

func TestComposerComposeRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	c := NewComposer(&mock.Provider{}, nil)
	_, err := c.Compose(context.Background(), "q", "getCostSummary", json.RawMessage(`{broken`))
	if err == nil {
		t.Fatal("expected error for invalid tool result")
	}
}

func TestComposerDirect(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{"Paris."}}
	c := NewComposer(p, nil)

	answer, err := c.Direct(context.Background(), "what is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Paris." {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(p.Calls[0].Req.SystemPrompt, "general knowledge") {
		t.Error("direct prompt not used")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Orchestrator
// ──────────────────────────────────────────────────────────────────────────────

func newOrchestrator(p *mock.Provider, inv ToolInvoker) *Orchestrator {
	return NewOrchestrator(NewRouter(p, nil), NewComposer(p, nil), inv, nil)
}

func TestOrchestratorAnswerFullFlow(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":"getPublicIpSummary","arguments":{"scope":"ALL"}}`,
		"The tenancy has 5 public IP addresses: 3 ephemeral and 2 reserved.",
	}}
	inv := &fakeInvoker{result: json.RawMessage(`{"total_count":5,"by_scope":{"EPHEMERAL":3,"RESERVED":2},"items":[]}`)}
	o := newOrchestrator(p, inv)

	answer, err := o.Answer(context.Background(), "how many public IPs are in the tenancy?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "5 public IP") {
		t.Errorf("answer = %q", answer)
	}
	if inv.calls != 1 || inv.method != "getPublicIpSummary" {
		t.Errorf("invoker called %d times with method %q", inv.calls, inv.method)
	}
	if inv.params["scope"] != "ALL" {
		t.Errorf("params = %v", inv.params)
	}
	if p.CallCount() != 2 {
		t.Errorf("LLM calls = %d, want 2 (route + compose)", p.CallCount())
	}
}

func TestOrchestratorAnswerNoToolGoesDirect(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":null,"arguments":{}}`,
		"Paris is the capital of France.",
	}}
	inv := &fakeInvoker{}
	o := newOrchestrator(p, inv)

	answer, err := o.Answer(context.Background(), "what is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "Paris") {
		t.Errorf("answer = %q", answer)
	}
	if inv.calls != 0 {
		t.Errorf("invoker called %d times, want 0", inv.calls)
	}
}

func TestOrchestratorAnswerRejectsUnknownTool(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{`{"tool":"deleteEverything","arguments":{}}`}}
	inv := &fakeInvoker{}
	o := newOrchestrator(p, inv)

	_, err := o.Answer(context.Background(), "anything")
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("err = %v, want ErrUnknownTool", err)
	}
	if inv.calls != 0 {
		t.Error("invoker must not run for an unknown tool")
	}
}

func TestOrchestratorAnswerToolFailurePropagates(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":"getCostSummary","arguments":{}}`,
	}}
	inv := &fakeInvoker{err: fmt.Errorf("usage API throttled")}
	o := newOrchestrator(p, inv)

	_, err := o.Answer(context.Background(), "what did we spend?")
	if err == nil || !strings.Contains(err.Error(), "usage API throttled") {
		t.Fatalf("err = %v", err)
	}
}

func TestOrchestratorAnswerWithCachedResultSkipsRouting(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{"Costs this month total 123.45 USD."}}
	inv := &fakeInvoker{}
	o := newOrchestrator(p, inv)

	answer, err := o.AnswerWithCachedResult(context.Background(), "what are this month's costs?",
		"getCostSummary", json.RawMessage(`{"total_cost":123.45,"currency":"USD","items":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "123.45") {
		t.Errorf("answer = %q", answer)
	}
	if inv.calls != 0 {
		t.Error("cached flow must not invoke tools")
	}
	if p.CallCount() != 1 {
		t.Errorf("LLM calls = %d, want 1 (compose only)", p.CallCount())
	}
}

func TestOrchestratorAnswerFromStoreHit(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":"getPublicIpSummary","arguments":{}}`,
		"There are 5 public IPs.",
	}}
	inv := &fakeInvoker{}
	o := newOrchestrator(p, inv)

	store := snapshot.NewMemStore()
	_ = store.Put(context.Background(), snapshot.Snapshot{
		Tool:    "getPublicIpSummary",
		Result:  json.RawMessage(`{"total_count":5}`),
		TakenAt: time.Now(),
	})

	answer, err := o.AnswerFromStore(context.Background(), "how many public IPs?", store, snapshot.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "5 public IP") {
		t.Errorf("answer = %q", answer)
	}
	if inv.calls != 0 {
		t.Error("tool executed despite a fresh snapshot")
	}
}

func TestOrchestratorAnswerFromStoreMissExecutesAndStores(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":"getCostSummary","arguments":{}}`,
		"Total is 42 USD.",
	}}
	inv := &fakeInvoker{result: json.RawMessage(`{"total_cost":42}`)}
	o := newOrchestrator(p, inv)
	store := snapshot.NewMemStore()

	answer, err := o.AnswerFromStore(context.Background(), "what did we spend?", store, snapshot.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "42") {
		t.Errorf("answer = %q", answer)
	}
	if inv.calls != 1 {
		t.Fatalf("invoker calls = %d, want 1", inv.calls)
	}

	snap, err := store.Get(context.Background(), "getCostSummary", snapshot.DefaultTTL)
	if err != nil {
		t.Fatalf("snapshot not stored: %v", err)
	}
	if string(snap.Result) != `{"total_cost":42}` {
		t.Errorf("stored result = %s", snap.Result)
	}
}

func TestOrchestratorAnswerFromStoreArgumentsBypassSnapshots(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Responses: []string{
		`{"tool":"getPublicIpSummary","arguments":{"scope":"RESERVED"}}`,
		"There are 2 reserved public IPs.",
	}}
	inv := &fakeInvoker{result: json.RawMessage(`{"total_count":2,"by_scope":{"EPHEMERAL":3,"RESERVED":2},"items":[]}`)}
	o := newOrchestrator(p, inv)

	store := snapshot.NewMemStore()
	defaultResult := `{"total_count":5,"by_scope":{"EPHEMERAL":3,"RESERVED":2},"items":[]}`
	_ = store.Put(context.Background(), snapshot.Snapshot{
		Tool:    "getPublicIpSummary",
		Result:  json.RawMessage(defaultResult),
		TakenAt: time.Now(),
	})

	answer, err := o.AnswerFromStore(context.Background(), "how many reserved public IPs?", store, snapshot.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "2 reserved") {
		t.Errorf("answer = %q", answer)
	}
	if inv.calls != 1 {
		t.Fatalf("invoker calls = %d, want 1 (live call, not the snapshot)", inv.calls)
	}
	if inv.params["scope"] != "RESERVED" {
		t.Errorf("params = %v", inv.params)
	}

	snap, err := store.Get(context.Background(), "getPublicIpSummary", snapshot.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	if string(snap.Result) != defaultResult {
		t.Errorf("default snapshot overwritten by a filtered result: %s", snap.Result)
	}
}

func TestOrchestratorAnswerWithCachedResultRejectsUnknownTool(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(&mock.Provider{}, &fakeInvoker{})
	_, err := o.AnswerWithCachedResult(context.Background(), "q", "getWeather", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("err = %v, want ErrUnknownTool", err)
	}
}
