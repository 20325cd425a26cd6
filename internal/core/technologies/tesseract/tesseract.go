package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/runner"
	"github.com/markdave123-py/docreader/internal/models"
)

const Name = "tesseract"

// Options control a single recognition call.
type Options struct {
	Language    string
	Variables   map[string]string
	PageSegMode int // 0 leaves the engine default
}

// Engine recognizes text in one encoded page image.
type Engine interface {
	Recognize(ctx context.Context, image []byte, opts Options) (string, error)
}

// Config holds constructor-supplied settings.
type Config struct {
	Pdftoppm string
	DPI      int
	MaxPages int
	Workers  int // pages recognized concurrently
}

// Technology runs OCR over images and rasterized PDFs.
type Technology struct {
	engine Engine
	runner runner.Runner
	cfg    Config
}

func New(engine Engine, r runner.Runner, cfg Config) *Technology {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI == 0 {
		cfg.DPI = 300
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if r == nil {
		r = runner.Exec{}
	}
	return &Technology{engine: engine, runner: r, cfg: cfg}
}

func (t *Technology) Name() string { return Name }

func (t *Technology) Description() string {
	return "Tesseract OCR over a single image or every page of a PDF"
}

func (t *Technology) ParamSchema() map[string]models.ParamSpec {
	return map[string]models.ParamSpec{
		"language": {
			Type:        "string",
			Default:     "eng",
			Description: "tesseract language code(s), e.g. eng or eng+deu",
		},
		"engine_config": {
			Type:        "string",
			Default:     "",
			Description: "engine options: --psm N and -c key=value pairs",
		},
		"dpi": {
			Type:        "integer",
			Default:     t.cfg.DPI,
			Description: "rasterization resolution for PDF pages",
			Minimum:     core.Float(72),
			Maximum:     core.Float(600),
		},
	}
}

func (t *Technology) Run(ctx context.Context, document []byte, params map[string]any) (*models.ProcessingResult, error) {
	p := core.Params(params)
	lang, err := p.String("language", "eng", "lang")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(lang) == "" {
		lang = "eng"
	}
	engineCfg, err := p.String("engine_config", "", "config")
	if err != nil {
		return nil, err
	}
	dpi, err := p.Int("dpi", t.cfg.DPI)
	if err != nil {
		return nil, err
	}
	if dpi < 72 || dpi > 600 {
		return nil, core.NewParamError("dpi", "must be between 72 and 600")
	}
	opts, err := parseEngineConfig(engineCfg)
	if err != nil {
		return nil, err
	}
	opts.Language = lang

	if t.engine == nil {
		return nil, core.NewBackendError(Name, "OCR engine unavailable; install tesseract-ocr with its development headers and build with CGO_ENABLED=1", nil)
	}

	var (
		pages [][]byte
		total = 1
	)
	if format, ok := sniffImage(document); ok {
		slog.Debug("tesseract.input", "kind", "image", "format", format)
		pages = [][]byte{document}
	} else {
		pages, total, err = t.rasterize(ctx, document, dpi)
		if err != nil {
			return nil, err
		}
	}

	chunks := make([]models.DocumentChunk, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for i, img := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := t.engine.Recognize(gctx, img, opts)
			if err != nil {
				return core.NewBackendError(Name, fmt.Sprintf("recognize page %d", i+1), err)
			}
			chunks[i] = models.PageChunk(i+1, strings.TrimSpace(text), map[string]any{"page": i + 1})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta := map[string]any{
		"num_pages": len(pages),
		"language":  lang,
	}
	if total > len(pages) {
		meta["truncated"] = true
		meta["total_pages"] = total
	}
	return models.NewChunkedResult(Name, chunks, meta), nil
}

// parseEngineConfig understands "--psm N", "-c key=value" and bare "key=value" tokens.
func parseEngineConfig(s string) (Options, error) {
	opts := Options{Variables: map[string]string{}}
	fields := strings.Fields(s)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch {
		case f == "--psm" || f == "--oem":
			if i+1 >= len(fields) {
				return opts, core.NewParamError("engine_config", f+" needs a value")
			}
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return opts, core.NewParamError("engine_config", fmt.Sprintf("%s expects an integer, got %q", f, fields[i+1]))
			}
			i++
			if f == "--psm" {
				opts.PageSegMode = n
			} else {
				slog.Debug("tesseract.config.ignored", "flag", f, "value", n)
			}
		case f == "-c":
			if i+1 >= len(fields) {
				return opts, core.NewParamError("engine_config", "-c needs key=value")
			}
			i++
			if err := addVariable(opts.Variables, fields[i]); err != nil {
				return opts, err
			}
		case strings.Contains(f, "="):
			if err := addVariable(opts.Variables, f); err != nil {
				return opts, err
			}
		default:
			return opts, core.NewParamError("engine_config", fmt.Sprintf("unrecognized option %q", f))
		}
	}
	return opts, nil
}

func addVariable(vars map[string]string, kv string) error {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return core.NewParamError("engine_config", fmt.Sprintf("expected key=value, got %q", kv))
	}
	vars[k] = v
	return nil
}
