// Package assistant answers free-text questions about the platform.
package assistant

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// UnavailableMessage is returned when no API key is configured.
const UnavailableMessage = "AI assistant is not available. Please add your OpenAI API key in the settings."

const systemPrompt = "You are a helpful assistant for FinSec, a financial fraud detection platform. " +
	"Provide concise, helpful responses about using the platform, fraud detection, and financial security."

const maxTokens = 150

// Completer is the chat completion call of an OpenAI client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Assistant answers queries. A nil client means the assistant is not
// configured.
type Assistant struct {
	client Completer
	model  string
}

// New creates an Assistant for apiKey. An empty key yields an assistant that
// always answers with UnavailableMessage.
func New(apiKey, model string) *Assistant {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if apiKey == "" {
		return &Assistant{model: model}
	}
	return &Assistant{client: openai.NewClient(apiKey), model: model}
}

// NewWithClient creates an Assistant around an existing client.
func NewWithClient(client Completer, model string) *Assistant {
	return &Assistant{client: client, model: model}
}

// Configured reports whether queries reach the model.
func (a *Assistant) Configured() bool {
	return a.client != nil
}

// Ask returns the answer to query. Failures are reported in the answer text.
func (a *Assistant) Ask(ctx context.Context, query string) string {
	if a.client == nil {
		return UnavailableMessage
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(resp.Choices) == 0 {
		return "Error: empty response"
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
