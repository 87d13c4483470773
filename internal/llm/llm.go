// Package llm asks an OpenAI-compatible endpoint for training-tag
// suggestions derived from a stored prompt.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const tagSystemPrompt = "You convert image generation prompts into short, " +
	"comma-separated booru-style training tags. Reply with the tag list only."

type Client struct {
	oc    openai.Client
	model string
}

// New builds a client against an OpenAI-compatible endpoint. baseURL and
// model default to the DeepSeek chat API when empty.
func New(apiKey, baseURL, model string) Client {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
	}
	if model == "" {
		model = "deepseek-chat"
	}
	oc := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return Client{oc: oc, model: model}
}

// SuggestTags returns a comma-separated tag list for the given prompt.
func (c Client) SuggestTags(ctx context.Context, prompt string) (string, error) {
	chatCompletion, err := c.oc.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(tagSystemPrompt),
			openai.UserMessage(prompt),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return chatCompletion.Choices[0].Message.Content, nil
}
