package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/models"
)

const (
	Name = "openai"

	DefaultModel          = "gpt-4"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultMaxTokens      = 1000
	DefaultPromptTemplate = "Extract the key information from this document:\n\n{text}"

	systemPrompt = "You are a document analysis assistant."
)

// Config holds constructor-supplied settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Technology sends extracted document text to an OpenAI model.
type Technology struct {
	extractor core.DocumentExtractor
	baseURL   string
	http      *http.Client
}

func New(extractor core.DocumentExtractor, cfg Config) *Technology {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Technology{extractor: extractor, baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: hc}
}

func (t *Technology) Name() string { return Name }

func (t *Technology) Description() string {
	return "Extracts PDF text and asks an OpenAI model to pull out the key information"
}

func (t *Technology) ParamSchema() map[string]models.ParamSpec {
	return map[string]models.ParamSpec{
		"api_key": {Type: "string", Required: true, Description: "OpenAI API key"},
		"model": {
			Type:    "string",
			Default: DefaultModel,
			Enum:    []string{"gpt-4", "gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo", "text-davinci-003"},
		},
		"max_tokens": {Type: "integer", Default: DefaultMaxTokens, Minimum: core.Float(1)},
		"temperature": {
			Type:    "number",
			Default: 0.0,
			Minimum: core.Float(0),
			Maximum: core.Float(2),
		},
		"prompt_template": {
			Type:        "string",
			Default:     DefaultPromptTemplate,
			Description: "prompt with a {text} placeholder for the document text",
		},
	}
}

func (t *Technology) Run(ctx context.Context, document []byte, params map[string]any) (*models.ProcessingResult, error) {
	req, err := t.parse(core.Params(params))
	if err != nil {
		return nil, err
	}

	rid := middleware.GetReqID(ctx)
	start := time.Now()
	slog.Info("openai.run.start", "req_id", rid, "model", req.model, "doc_bytes", len(document))

	extracted, err := t.extractor.Extract(ctx, document, "application/pdf")
	if err != nil {
		return nil, core.NewBackendError(Name, "extract document text", err)
	}
	req.prompt = strings.ReplaceAll(req.prompt, "{text}", extracted.Text)

	var content string
	if isChatModel(req.model) {
		content, err = t.chat(ctx, req)
	} else {
		content, err = t.complete(ctx, req)
	}
	if err != nil {
		slog.Error("openai.run.fail", "req_id", rid, "err", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, core.NewBackendError(Name, "model call failed", err)
	}

	slog.Info("openai.run.ok", "req_id", rid, "pages", extracted.Pages, "elapsed_ms", time.Since(start).Milliseconds())
	chunk := models.DocumentChunk{Text: content, Metadata: map[string]any{"model": req.model}}
	return models.NewChunkedResult(Name, []models.DocumentChunk{chunk}, map[string]any{
		"model":     req.model,
		"num_pages": extracted.Pages,
	}), nil
}

func (t *Technology) parse(p core.Params) (completionRequest, error) {
	var (
		r   completionRequest
		err error
	)
	if r.apiKey, err = p.String("api_key", ""); err != nil {
		return r, err
	}
	if strings.TrimSpace(r.apiKey) == "" {
		return r, core.NewParamError("api_key", "OpenAI API key is required")
	}
	if r.model, err = p.String("model", DefaultModel); err != nil {
		return r, err
	}
	if r.maxTokens, err = p.Int("max_tokens", DefaultMaxTokens); err != nil {
		return r, err
	}
	if r.maxTokens < 1 {
		return r, core.NewParamError("max_tokens", "must be at least 1")
	}
	if r.temperature, err = p.Float("temperature", 0); err != nil {
		return r, err
	}
	if r.temperature < 0 || r.temperature > 2 {
		return r, core.NewParamError("temperature", "must be between 0.0 and 2.0")
	}
	if r.prompt, err = p.String("prompt_template", DefaultPromptTemplate); err != nil {
		return r, err
	}
	r.baseURL = t.baseURL
	return r, nil
}

func isChatModel(model string) bool {
	return strings.HasPrefix(model, "gpt-4") ||
		strings.HasPrefix(model, "gpt-3.5") ||
		strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "o4")
}
