// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend calls the Google Gemini API.
type GeminiBackend struct {
	BackendID string
	Model     string
	APIKey    string
}

// ID returns the backend identifier used by the pipeline.
func (b *GeminiBackend) ID() string {
	return b.BackendID
}

// Generate sends the prompt to Gemini and concatenates the text parts of
// the first candidate.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, b.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("%s returned empty response", b.BackendID)
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%s returned no text parts", b.BackendID)
	}
	return text, nil
}
