package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/markdave123-py/docreader/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor extracts text with docconv and counts PDF pages with pdfcpu.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// Extract converts the document to text. contentType defaults to application/pdf.
func (e *DocconvExtractor) Extract(ctx context.Context, document []byte, contentType string) (*core.ExtractedText, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}

	res, err := docconv.Convert(bytes.NewReader(document), contentType, e.useReadability)
	if err != nil {
		slog.Warn("extract.docconv.fail", "content_type", contentType, "err", err)
		return nil, fmt.Errorf("docconv: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := 1
	if contentType == "application/pdf" {
		n, err := PageCount(document)
		if err != nil {
			slog.Warn("extract.pagecount.fail", "err", err)
		} else {
			pages = n
		}
	}

	return &core.ExtractedText{
		Text:     strings.TrimSpace(res.Body),
		Pages:    pages,
		Metadata: res.Meta,
	}, nil
}

// PageCount returns the number of pages of a PDF.
func PageCount(document []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(document), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu page count: %w", err)
	}
	return n, nil
}
