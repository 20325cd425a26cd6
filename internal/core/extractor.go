package core

import "context"

// ExtractedText represents the result of text extraction, with metadata.
type ExtractedText struct {
	Text     string
	Pages    int
	Metadata map[string]string
}

// DocumentExtractor pulls plain text out of a paginated document.
// The `contentType` hint helps the extractor choose the right parsing strategy.
type DocumentExtractor interface {
	Extract(ctx context.Context, document []byte, contentType string) (*ExtractedText, error)
}
