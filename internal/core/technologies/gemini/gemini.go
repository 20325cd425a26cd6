package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/llm"
	"github.com/markdave123-py/docreader/internal/models"
)

const (
	Name                  = "gemini"
	DefaultPromptTemplate = "Extract the key information from this document:\n\n{text}"
	systemPrompt          = "You are a document analysis assistant."
)

// ProviderFunc opens an LLM session for one run.
type ProviderFunc func(ctx context.Context, apiKey, model string, opts core.GenerationOptions) (core.LLMProvider, error)

// Technology sends extracted document text to a Gemini model.
type Technology struct {
	extractor core.DocumentExtractor
	newLLM    ProviderFunc
}

func New(extractor core.DocumentExtractor, newLLM ProviderFunc) *Technology {
	if newLLM == nil {
		newLLM = func(ctx context.Context, apiKey, model string, opts core.GenerationOptions) (core.LLMProvider, error) {
			return llm.NewGeminiLLM(ctx, apiKey, model, opts)
		}
	}
	return &Technology{extractor: extractor, newLLM: newLLM}
}

func (t *Technology) Name() string { return Name }

func (t *Technology) Description() string {
	return "Extracts PDF text and asks a Google Gemini model to pull out the key information"
}

func (t *Technology) ParamSchema() map[string]models.ParamSpec {
	return map[string]models.ParamSpec{
		"api_key":         {Type: "string", Required: true, Description: "Gemini API key"},
		"model":           {Type: "string", Default: llm.DefaultGeminiModel},
		"max_tokens":      {Type: "integer", Default: 1000, Minimum: core.Float(1), Maximum: core.Float(math.MaxInt32)},
		"temperature":     {Type: "number", Default: 0.0, Minimum: core.Float(0), Maximum: core.Float(2)},
		"prompt_template": {Type: "string", Default: DefaultPromptTemplate},
	}
}

func (t *Technology) Run(ctx context.Context, document []byte, params map[string]any) (*models.ProcessingResult, error) {
	p := core.Params(params)
	apiKey, err := p.String("api_key", "")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, core.NewParamError("api_key", "Gemini API key is required")
	}
	model, err := p.String("model", llm.DefaultGeminiModel)
	if err != nil {
		return nil, err
	}
	maxTokens, err := p.Int("max_tokens", 1000)
	if err != nil {
		return nil, err
	}
	if maxTokens < 1 {
		return nil, core.NewParamError("max_tokens", "must be at least 1")
	}
	if maxTokens > math.MaxInt32 {
		return nil, core.NewParamError("max_tokens", fmt.Sprintf("must be at most %d", math.MaxInt32))
	}
	temperature, err := p.Float("temperature", 0)
	if err != nil {
		return nil, err
	}
	if temperature < 0 || temperature > 2 {
		return nil, core.NewParamError("temperature", "must be between 0.0 and 2.0")
	}
	template, err := p.String("prompt_template", DefaultPromptTemplate)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	extracted, err := t.extractor.Extract(ctx, document, "application/pdf")
	if err != nil {
		return nil, core.NewBackendError(Name, "extract document text", err)
	}

	provider, err := t.newLLM(ctx, apiKey, model, core.GenerationOptions{
		Temperature: float32(temperature),
		MaxTokens:   int32(maxTokens),
	})
	if err != nil {
		return nil, core.NewBackendError(Name, "create client", err)
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}

	answer, err := provider.Generate(ctx, systemPrompt, strings.ReplaceAll(template, "{text}", extracted.Text))
	if err != nil {
		slog.Error("gemini.run.fail", "req_id", middleware.GetReqID(ctx), "model", model, "err", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, core.NewBackendError(Name, "model call failed", err)
	}
	slog.Info("gemini.run.ok", "req_id", middleware.GetReqID(ctx), "model", model, "pages", extracted.Pages, "elapsed_ms", time.Since(start).Milliseconds())

	chunk := models.DocumentChunk{Text: strings.TrimSpace(answer), Metadata: map[string]any{"model": model}}
	return models.NewChunkedResult(Name, []models.DocumentChunk{chunk}, map[string]any{
		"model":     model,
		"num_pages": extracted.Pages,
	}), nil
}
