package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/docreader/internal/core/technologies/tesseract"
)

var _ tesseract.Engine = (*GosseractEngine)(nil)

// GosseractEngine recognizes text through libtesseract.
type GosseractEngine struct {
	clientFactory  func() *gosseract.Client
	tessdataPrefix string
}

// NewGosseractEngine constructs the engine. tessdataPrefix may be empty to use the library default.
func NewGosseractEngine(tessdataPrefix string) *GosseractEngine {
	return &GosseractEngine{clientFactory: gosseract.NewClient, tessdataPrefix: tessdataPrefix}
}

// Recognize uses a fresh client per page; gosseract clients are not safe for concurrent use.
func (e *GosseractEngine) Recognize(ctx context.Context, image []byte, opts tesseract.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		c.TessdataPrefix = e.tessdataPrefix
	}
	if opts.Language != "" {
		if err := c.SetLanguage(strings.Split(opts.Language, "+")...); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if opts.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
			return "", fmt.Errorf("set page seg mode: %w", err)
		}
	}
	for k, v := range opts.Variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return "", fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
