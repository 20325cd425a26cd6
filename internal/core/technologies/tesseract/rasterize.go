package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/runner"
)

// rasterize renders every page of a PDF to PNG with pdftoppm. total is the page count before
// Config.MaxPages is applied.
func (t *Technology) rasterize(ctx context.Context, document []byte, dpi int) (pages [][]byte, total int, err error) {
	tmpDir, err := os.MkdirTemp("", "docreader-pp-*")
	if err != nil {
		return nil, 0, core.NewBackendError(Name, "create temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("tesseract.tmp.cleanup", "dir", tmpDir, "err", err)
		}
	}()

	src := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(src, document, 0o600); err != nil {
		return nil, 0, core.NewBackendError(Name, "stage document", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := t.runner.Run(ctx, runner.Command{
		Name: t.cfg.Pdftoppm,
		Args: []string{"-r", strconv.Itoa(dpi), "-png", src, prefix},
	})
	if err != nil {
		if runner.IsMissingBinary(err) {
			return nil, 0, core.NewBackendError(Name, "pdftoppm not found; install poppler-utils to OCR PDF documents", err)
		}
		msg := strings.TrimSpace(runner.Truncate(string(errb), 512))
		if msg == "" {
			msg = "document is neither an image nor a readable PDF"
		}
		return nil, 0, core.NewBackendError(Name, "rasterize: "+msg, err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		return nil, 0, core.NewBackendError(Name, "pdftoppm produced no images", nil)
	}
	sort.Slice(matches, func(i, j int) bool { return pageNumber(matches[i]) < pageNumber(matches[j]) })
	total = len(matches)
	if t.cfg.MaxPages > 0 && len(matches) > t.cfg.MaxPages {
		slog.Warn("tesseract.pages.capped", "pages", len(matches), "max", t.cfg.MaxPages)
		matches = matches[:t.cfg.MaxPages]
	}

	pages = make([][]byte, 0, len(matches))
	for _, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			return nil, 0, core.NewBackendError(Name, fmt.Sprintf("read %s", filepath.Base(m)), err)
		}
		pages = append(pages, b)
	}
	return pages, total, nil
}

// pageNumber parses N out of ".../page-N.png"; pdftoppm zero-pads N.
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
