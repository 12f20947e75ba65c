package types

import (
	"context"

	"curlwise-server-go/src/core/image"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message sent to a provider. Image is set only for
// multimodal user messages.
type Message struct {
	Role    string           `json:"role"`
	Content string           `json:"content"`
	Image   *image.ImageData `json:"image,omitempty"`
}

// UserMessage builds a text-only user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// UserImageMessage builds a user message carrying text and one image.
func UserImageMessage(text string, img image.ImageData) Message {
	return Message{Role: RoleUser, Content: text, Image: &img}
}

// Provider is the lifecycle shared by all providers.
type Provider interface {
	Initialize() error
	Cleanup() error
}

// LLMProvider is a chat-completion backend. Complete returns the text of the
// first choice and bounds the generation to maxTokens.
type LLMProvider interface {
	Provider
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}
