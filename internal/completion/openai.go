// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenAIBackend calls an OpenAI-compatible chat-completions endpoint. Most
// aggregation gateways (DeepSeek, GPT relays) speak this protocol.
type OpenAIBackend struct {
	BackendID string
	Model     string
	BaseURL   string
	APIKey    string
	Client    *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ID returns the backend identifier used by the pipeline.
func (b *OpenAIBackend) ID() string {
	return b.BackendID
}

// Generate sends one user message and returns the first choice's content.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    b.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", b.BackendID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%s returned %d: %s", b.BackendID, resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding %s response: %w", b.BackendID, err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", b.BackendID)
	}
	return cResp.Choices[0].Message.Content, nil
}
