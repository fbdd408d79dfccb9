package process

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash-lite"
)

type OpenAIInfo struct {
	ApiKey   string
	BaseURL  string
	Model    string
	Language string
}

// OpenAISummarizer talks to any endpoint that speaks the openai chat
// completion protocol. By default that is Gemini.
type OpenAISummarizer struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAISummarizer(info OpenAIInfo) *OpenAISummarizer {
	config := openai.DefaultConfig(info.ApiKey)
	config.BaseURL = DefaultBaseURL
	if info.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(info.BaseURL, "/")
	}
	model := info.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAISummarizer{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		language: info.Language,
	}
}

func (sum *OpenAISummarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyInput
	}

	resp, err := sum.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: sum.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt(sum.language),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt(transcript, title),
				},
			},
		})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}

	return checkSummary(resp.Choices[len(resp.Choices)-1].Message.Content)
}
