package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider is an Anthropic API provider.
type AnthropicProvider struct {
	Model  string
	apiKey string
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(model, apiKeyEnv string) *AnthropicProvider {
	apiKey := os.Getenv(apiKeyEnv)
	return &AnthropicProvider{
		Model:  model,
		apiKey: apiKey,
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// IsConfigured checks if the API key is set.
func (a *AnthropicProvider) IsConfigured() bool {
	return a.apiKey != ""
}

// Generate sends a prompt to the Anthropic API and returns the response.
func (a *AnthropicProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content in Anthropic response")
	}
	return b.String(), nil
}
