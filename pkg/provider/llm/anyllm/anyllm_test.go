package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/tenvoy/tenvoy/pkg/provider/llm"
)

// ── New ───────────────────────────────────────────────────────────────────────

func TestNew_RejectsEmptyProviderName(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty provider name")
	}
}

func TestNew_RejectsEmptyModel(t *testing.T) {
	if _, err := New("openai", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestNew_RejectsUnsupportedProvider(t *testing.T) {
	if _, err := New("watsonx", "some-model"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

// ── buildParams ───────────────────────────────────────────────────────────────

func TestBuildParams_SystemPromptBecomesFirstMessage(t *testing.T) {
	p := &Provider{model: "llama3.1"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are a tool router.",
		Messages:     []llm.Message{{Role: "user", Content: "hello"}},
	})

	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("expected first message role system, got %q", params.Messages[0].Role)
	}
	if params.Messages[1].Role != "user" {
		t.Errorf("expected second message role user, got %q", params.Messages[1].Role)
	}
	if params.Model != "llama3.1" {
		t.Errorf("expected model llama3.1, got %q", params.Model)
	}
}

func TestBuildParams_OptionalFieldsOmittedWhenZero(t *testing.T) {
	p := &Provider{model: "m"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})

	if params.Temperature != nil {
		t.Errorf("expected nil Temperature, got %v", *params.Temperature)
	}
	if params.MaxTokens != nil {
		t.Errorf("expected nil MaxTokens, got %v", *params.MaxTokens)
	}
}

func TestBuildParams_SetsTemperatureAndMaxTokens(t *testing.T) {
	p := &Provider{model: "m"}
	params := p.buildParams(llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: "hi"}},
		Temperature: 0.1,
		MaxTokens:   2048,
	})

	if params.Temperature == nil || *params.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %v, want 2048", params.MaxTokens)
	}
}
