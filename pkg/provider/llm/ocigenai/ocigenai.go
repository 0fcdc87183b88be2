// Package ocigenai provides an LLM provider backed by the OCI Generative AI
// inference service.
//
// The provider uses the on-demand serving mode with the GENERIC chat API
// format and always consumes the first choice's first text content segment.
package ocigenai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/generativeaiinference"

	"github.com/tenvoy/tenvoy/pkg/provider/llm"
)

// defaultRequestTimeout bounds a single chat round-trip. Large summaries over
// slow models can take minutes, so this is generous.
const defaultRequestTimeout = 4 * time.Minute

// Provider implements llm.Provider using the OCI Generative AI inference API.
type Provider struct {
	client        generativeaiinference.GenerativeAiInferenceClient
	modelID       string
	compartmentID string
}

var _ llm.Provider = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	endpoint string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithEndpoint overrides the region-default service endpoint, e.g.
// "https://inference.generativeai.eu-frankfurt-1.oci.oraclecloud.com".
func WithEndpoint(url string) Option {
	return func(c *config) {
		c.endpoint = url
	}
}

// WithTimeout sets a per-request HTTP timeout. The default is 4 minutes.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Provider from an OCI configuration provider.
//
// modelID is the OCID of the on-demand model to serve; compartmentID is the
// compartment the inference is billed against. Retries are disabled: the
// assistant treats every model call as fatal-for-the-turn and never retries.
func New(cp common.ConfigurationProvider, modelID, compartmentID string, opts ...Option) (*Provider, error) {
	if modelID == "" {
		return nil, fmt.Errorf("ocigenai: modelID must not be empty")
	}
	if compartmentID == "" {
		return nil, fmt.Errorf("ocigenai: compartmentID must not be empty")
	}

	cfg := &config{timeout: defaultRequestTimeout}
	for _, o := range opts {
		o(cfg)
	}

	client, err := generativeaiinference.NewGenerativeAiInferenceClientWithConfigurationProvider(cp)
	if err != nil {
		return nil, fmt.Errorf("ocigenai: create client: %w", err)
	}
	if cfg.endpoint != "" {
		client.Host = cfg.endpoint
	}
	client.HTTPClient = &http.Client{Timeout: cfg.timeout}

	retry := common.NoRetryPolicy()
	client.SetCustomClientConfiguration(common.CustomClientConfiguration{RetryPolicy: &retry})

	return &Provider{
		client:        client,
		modelID:       modelID,
		compartmentID: compartmentID,
	}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	details := buildChatDetails(req, p.modelID, p.compartmentID)

	resp, err := p.client.Chat(ctx, generativeaiinference.ChatRequest{ChatDetails: details})
	if err != nil {
		return nil, fmt.Errorf("ocigenai: chat: %w", err)
	}

	text, err := extractText(resp.ChatResult)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: strings.TrimSpace(text)}, nil
}

// buildChatDetails maps a CompletionRequest onto the GENERIC chat API shape.
// Split out from Complete so the mapping is testable without a live client.
func buildChatDetails(req llm.CompletionRequest, modelID, compartmentID string) generativeaiinference.ChatDetails {
	var messages []generativeaiinference.Message

	if req.SystemPrompt != "" {
		messages = append(messages, generativeaiinference.SystemMessage{
			Content: []generativeaiinference.ChatContent{
				generativeaiinference.TextContent{Text: common.String(req.SystemPrompt)},
			},
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, convertMessage(m))
	}

	chatReq := generativeaiinference.GenericChatRequest{
		Messages:         messages,
		Temperature:      common.Float64(req.Temperature),
		TopP:             common.Float64(req.TopP),
		TopK:             common.Int(req.TopK),
		FrequencyPenalty: common.Float64(req.FrequencyPenalty),
		PresencePenalty:  common.Float64(req.PresencePenalty),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = common.Int(req.MaxTokens)
	}

	return generativeaiinference.ChatDetails{
		CompartmentId: common.String(compartmentID),
		ServingMode: generativeaiinference.OnDemandServingMode{
			ModelId: common.String(modelID),
		},
		ChatRequest: chatReq,
	}
}

// convertMessage converts an llm.Message into the GENERIC API message type.
// Unknown roles are sent as user messages rather than rejected.
func convertMessage(m llm.Message) generativeaiinference.Message {
	content := []generativeaiinference.ChatContent{
		generativeaiinference.TextContent{Text: common.String(m.Content)},
	}
	switch strings.ToLower(m.Role) {
	case "system":
		return generativeaiinference.SystemMessage{Content: content}
	case "assistant":
		return generativeaiinference.AssistantMessage{Content: content}
	default:
		return generativeaiinference.UserMessage{Content: content}
	}
}

// extractText pulls the first choice's first text segment out of a ChatResult.
func extractText(result generativeaiinference.ChatResult) (string, error) {
	generic, ok := result.ChatResponse.(generativeaiinference.GenericChatResponse)
	if !ok {
		return "", fmt.Errorf("ocigenai: unexpected chat response type %T", result.ChatResponse)
	}
	if len(generic.Choices) == 0 {
		return "", fmt.Errorf("ocigenai: no choices returned")
	}

	msg, ok := generic.Choices[0].Message.(generativeaiinference.AssistantMessage)
	if !ok {
		return "", fmt.Errorf("ocigenai: unexpected message type %T", generic.Choices[0].Message)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("ocigenai: no message content returned")
	}

	text, ok := msg.Content[0].(generativeaiinference.TextContent)
	if !ok || text.Text == nil || *text.Text == "" {
		return "", fmt.Errorf("ocigenai: no text segment in message content")
	}
	return *text.Text, nil
}
