package openai

import (
	"context"
	"errors"
	"strings"

	"curlwise-server-go/src/core/providers/llm"
	"curlwise-server-go/src/core/types"

	"github.com/sashabaranov/go-openai"
)

const providerName = "openai"

// Provider calls an OpenAI compatible chat completions endpoint.
type Provider struct {
	*llm.BaseProvider
	client     *openai.Client
	name       string
	missingKey bool
}

func init() {
	llm.Register(providerName, NewProvider)
}

// NewProvider creates an OpenAI provider. The client is built by Initialize.
func NewProvider(config *llm.Config) (llm.Provider, error) {
	return New(config), nil
}

// New is NewProvider with the concrete return type, for embedding.
func New(config *llm.Config) *Provider {
	return &Provider{
		BaseProvider: llm.NewBaseProvider(config),
		name:         providerName,
	}
}

// Initialize builds the client. A missing API key does not fail here so the
// server can start without one; Complete reports it instead.
func (p *Provider) Initialize() error {
	config := p.Config()
	p.Connect(providerName, config.APIKey, config.BaseURL, true)
	return nil
}

// Connect (re)builds the client for the given credential and endpoint. name
// is used in errors. When requireKey is set, Complete fails fast on an empty
// key without calling the endpoint.
func (p *Provider) Connect(name, apiKey, baseURL string, requireKey bool) {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient := p.Config().HTTPClient; httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	p.client = openai.NewClientWithConfig(clientConfig)
	p.name = name
	p.missingKey = requireKey && apiKey == ""
}

// Complete sends messages as one non-streaming request and returns the text
// of the first choice.
func (p *Provider) Complete(ctx context.Context, messages []types.Message, maxTokens int) (string, error) {
	if p.client == nil {
		return "", &llm.UpstreamError{Kind: llm.KindUnknown, Provider: p.name, Err: errors.New("provider not initialized")}
	}
	if p.missingKey {
		return "", &llm.UpstreamError{Kind: llm.KindAuth, Provider: p.name, Err: llm.ErrMissingAPIKey}
	}

	config := p.Config()
	if maxTokens <= 0 {
		maxTokens = config.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       config.ModelName,
		Messages:    ChatMessages(messages),
		MaxTokens:   maxTokens,
		Temperature: float32(config.Temperature),
		TopP:        float32(config.TopP),
	})
	if err != nil {
		return "", WrapError(p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewMalformedError(p.name, "response has no choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", llm.NewMalformedError(p.name, "response has empty content")
	}

	return content, nil
}

// ChatMessages converts messages to the wire format. A message carrying an
// image becomes a text part followed by an image_url part with a data URI.
func ChatMessages(messages []types.Message) []openai.ChatCompletionMessage {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		if msg.Image == nil {
			chatMessages[i] = openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			}
			continue
		}

		chatMessages[i] = openai.ChatCompletionMessage{
			Role: msg.Role,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: msg.Content,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: msg.Image.DataURI(),
					},
				},
			},
		}
	}
	return chatMessages
}

// WrapError classifies a client error by the upstream HTTP status when one
// was received.
func WrapError(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{
			Kind:       llm.KindForStatus(apiErr.HTTPStatusCode),
			Provider:   name,
			StatusCode: apiErr.HTTPStatusCode,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.UpstreamError{
			Kind:       llm.KindForStatus(reqErr.HTTPStatusCode),
			Provider:   name,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	return llm.Classify(name, err)
}
