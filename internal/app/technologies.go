package app

import (
	"log/slog"

	"github.com/markdave123-py/docreader/internal/config"
	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/extract"
	"github.com/markdave123-py/docreader/internal/core/ocr"
	"github.com/markdave123-py/docreader/internal/core/registry"
	"github.com/markdave123-py/docreader/internal/core/runner"
	"github.com/markdave123-py/docreader/internal/core/technologies/command"
	"github.com/markdave123-py/docreader/internal/core/technologies/gemini"
	"github.com/markdave123-py/docreader/internal/core/technologies/openai"
	"github.com/markdave123-py/docreader/internal/core/technologies/tesseract"
)

// RegisterTechnologies installs the built-in technologies into reg. OCR is registered eagerly;
// LLM backends and command plugins are loaded on first use.
func RegisterTechnologies(reg *registry.Registry, cfg *config.Config) error {
	exec := runner.Exec{}
	ocrCfg := tesseract.Config{Pdftoppm: cfg.Pdftoppm, DPI: cfg.OCRDPI, MaxPages: cfg.OCRMaxPages, Workers: cfg.OCRWorkers}
	engine := ocr.NewGosseractEngine(cfg.TessdataPrefix)
	newTesseract := func() (core.Technology, error) {
		return tesseract.New(engine, exec, ocrCfg), nil
	}
	reg.RegisterTechnology(tesseract.New(engine, exec, ocrCfg), newTesseract)

	extractor := extract.NewDocconvExtractor(false)
	openaiCfg := openai.Config{BaseURL: cfg.OpenAIBaseURL, Timeout: cfg.LLMTimeout}
	openaiDesc := core.Describe(openai.New(extractor, openaiCfg))
	reg.Provide(openaiDesc, func(r *registry.Registry) error {
		shared := openai.New(extractor, openaiCfg)
		r.Register(openaiDesc, func() (core.Technology, error) { return shared, nil })
		return nil
	})

	geminiDesc := core.Describe(gemini.New(extractor, nil))
	reg.Provide(geminiDesc, func(r *registry.Registry) error {
		r.Register(geminiDesc, func() (core.Technology, error) { return gemini.New(extractor, nil), nil })
		return nil
	})

	if cfg.PluginDir != "" {
		descs, err := command.LoadDir(cfg.PluginDir)
		if err != nil {
			return err
		}
		command.Provide(reg, descs, exec)
		slog.Info("app.plugins", "dir", cfg.PluginDir, "count", len(descs))
	}
	return nil
}
