package process

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

type VertexInfo struct {
	Project         string
	Location        string
	CredentialsFile string
	Model           string
	Language        string
}

type VertexSummarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewVertexSummarizer(ctx context.Context, info VertexInfo) (*VertexSummarizer, error) {
	var opts []option.ClientOption
	if info.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(info.CredentialsFile))
	}

	return newVertexSummarizer(ctx, info, opts...)
}

func newVertexSummarizer(ctx context.Context, info VertexInfo, opts ...option.ClientOption) (*VertexSummarizer, error) {
	client, err := genai.NewClient(ctx, info.Project, info.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create vertex ai client: %w", err)
	}

	name := info.Model
	if name == "" {
		name = DefaultModel
	}
	model := client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(info.Language))},
	}

	return &VertexSummarizer{
		client: client,
		model:  model,
	}, nil
}

func (vs *VertexSummarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyInput
	}

	resp, err := vs.model.GenerateContent(ctx, genai.Text(userPrompt(transcript, title)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates in response", ErrGenerationFailed)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return checkSummary(sb.String())
}

func (vs *VertexSummarizer) Close() error {
	return vs.client.Close()
}
