package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai status %d: %s", e.StatusCode, e.Body)
}

type completionRequest struct {
	apiKey      string
	baseURL     string
	model       string
	prompt      string
	maxTokens   int
	temperature float64
}

func (t *Technology) chat(ctx context.Context, r completionRequest) (string, error) {
	body := map[string]any{
		"model":       r.model,
		"temperature": r.temperature,
		"max_tokens":  r.maxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": r.prompt},
		},
	}
	raw, err := t.post(ctx, r.baseURL+"/chat/completions", r.apiKey, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (t *Technology) complete(ctx context.Context, r completionRequest) (string, error) {
	body := map[string]any{
		"model":       r.model,
		"prompt":      r.prompt,
		"temperature": r.temperature,
		"max_tokens":  r.maxTokens,
	}
	raw, err := t.post(ctx, r.baseURL+"/completions", r.apiKey, body)
	if err != nil {
		return "", err
	}

	var tc struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &tc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(tc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(tc.Choices[0].Text), nil
}

func (t *Technology) post(ctx context.Context, url, apiKey string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
