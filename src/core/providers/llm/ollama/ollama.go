package ollama

import (
	"context"
	"fmt"
	"strings"

	"curlwise-server-go/src/core/providers/llm"
	llmopenai "curlwise-server-go/src/core/providers/llm/openai"
	"curlwise-server-go/src/core/types"
)

const providerName = "ollama"

// Provider talks to a local Ollama server through its OpenAI compatible API.
type Provider struct {
	*llmopenai.Provider
	isQwen3 bool
}

func init() {
	llm.Register(providerName, NewProvider)
}

// NewProvider creates an Ollama provider.
func NewProvider(config *llm.Config) (llm.Provider, error) {
	return &Provider{
		Provider: llmopenai.New(config),
		isQwen3:  strings.HasPrefix(strings.ToLower(config.ModelName), "qwen3"),
	}, nil
}

// Initialize points the client at <url>/v1. Ollama ignores the API key but
// the client needs a value.
func (p *Provider) Initialize() error {
	config := p.Config()
	baseURL := config.BaseURL
	if baseURL == "" {
		if url, ok := config.Extra["base_url"].(string); ok {
			baseURL = url
		}
	}
	if baseURL == "" {
		return fmt.Errorf("missing Ollama base url")
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = providerName
	}
	p.Connect(providerName, apiKey, baseURL, false)
	return nil
}

// Complete disables qwen3 thinking and strips any think block from the answer.
func (p *Provider) Complete(ctx context.Context, messages []types.Message, maxTokens int) (string, error) {
	if p.isQwen3 {
		messages = addNoThinkDirective(messages)
	}

	content, err := p.Provider.Complete(ctx, messages, maxTokens)
	if err != nil {
		return "", err
	}
	if !p.isQwen3 {
		return content, nil
	}

	content = stripThink(content)
	if content == "" {
		return "", llm.NewMalformedError(providerName, "response has only a think block")
	}
	return content, nil
}

// addNoThinkDirective prefixes the last user message with /no_think.
func addNoThinkDirective(messages []types.Message) []types.Message {
	out := make([]types.Message, len(messages))
	copy(out, messages)

	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == types.RoleUser {
			out[i].Content = "/no_think " + out[i].Content
			break
		}
	}
	return out
}

func stripThink(content string) string {
	for {
		start := strings.Index(content, "<think>")
		if start < 0 {
			break
		}
		end := strings.Index(content[start:], "</think>")
		if end < 0 {
			content = content[:start]
			break
		}
		content = content[:start] + content[start+end+len("</think>"):]
	}
	// An unmatched closing tag means the opening one was cut off.
	if idx := strings.Index(content, "</think>"); idx >= 0 {
		content = content[idx+len("</think>"):]
	}
	return strings.TrimSpace(content)
}
