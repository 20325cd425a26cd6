package core

import "context"

// LLMProvider generates a completion from a system instruction and a user prompt.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// GenerationOptions tune a single LLM call.
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int32
}
