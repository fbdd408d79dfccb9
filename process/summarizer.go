package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyInput       = errors.New("no transcript to summarize")
	ErrGenerationFailed = errors.New("summary generation failed")
)

type Summarizer interface {
	Summarize(ctx context.Context, transcript, title string) (string, error)
}

const systemInstruction = `You are an expert at writing concise and clear summaries of video transcripts. Your goal is to extract the main points and key information, formatted as a bullet point list in %s.
Do not add introductory sentences like "This video is about" or "Summary of". Only give the bullet points.`

func systemPrompt(language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(systemInstruction, language)
}

func userPrompt(transcript, title string) string {
	return fmt.Sprintf(`Analyze the following transcript of the video titled %q and summarize its main points as bullet points.

--- TRANSCRIPT ---
%s
--- END OF TRANSCRIPT ---`, title, transcript)
}

// checkSummary maps an empty generation to ErrGenerationFailed.
func checkSummary(summary string) (string, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return summary, nil
}
