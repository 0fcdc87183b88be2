// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote model API (e.g., OCI Generative AI, OpenAI,
// or a local Ollama instance) and exposes a uniform synchronous interface for
// the assistant layer to perform chat completions without coupling to any
// specific SDK.
//
// Implementors must be safe for concurrent use.
package llm

import "context"

// Message represents a single message in an LLM conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation history. Providers that have no dedicated system slot
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in the range [0.0, 2.0]. The
	// router and composer run at 0.1 to bias toward well-formed output.
	Temperature float64

	// TopP is the nucleus sampling cutoff. Zero means provider default.
	TopP float64

	// TopK limits sampling to the K most likely tokens. Zero disables it.
	// Not all backends honour this; those that don't ignore it.
	TopK int

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// FrequencyPenalty and PresencePenalty are repetition controls. Zero
	// values are passed through unchanged where the backend supports them.
	FrequencyPenalty float64
	PresencePenalty  float64
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the first candidate's reply.
	Content string

	// Usage contains token accounting for this request/response pair, when
	// the backend reports it.
	Usage Usage
}

// Provider is the abstraction over any LLM chat backend.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
type Provider interface {
	// Complete sends req to the model and waits for the full response. The
	// assistant always consumes the first candidate's first text segment;
	// providers collapse multi-candidate responses accordingly.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
