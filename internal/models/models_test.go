package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTextResultYieldsSingleChunk(t *testing.T) {
	r := NewTextResult("openai", "hello world", map[string]any{"model": "gpt-4"})

	chunks := r.ChunkList()
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello world" {
		t.Errorf("text = %q", chunks[0].Text)
	}
	if chunks[0].Page != nil {
		t.Errorf("page should be unset, got %d", *chunks[0].Page)
	}
	if chunks[0].Metadata["model"] != "gpt-4" {
		t.Errorf("chunk metadata should carry result metadata, got %v", chunks[0].Metadata)
	}
	if r.Markdown() != "hello world" {
		t.Errorf("markdown = %q", r.Markdown())
	}
}

func TestChunkedMarkdownInsertsPageHeadings(t *testing.T) {
	r := NewChunkedResult("tesseract", []DocumentChunk{
		PageChunk(1, "first", nil),
		{Text: "loose", Metadata: map[string]any{}},
		PageChunk(2, "second", nil),
	}, nil)

	want := "## Page 1\n\nfirst\n\nloose\n\n## Page 2\n\nsecond\n\n"
	if got := r.Markdown(); got != want {
		t.Fatalf("markdown mismatch\n got: %q\nwant: %q", got, want)
	}
	if len(r.ChunkList()) != 3 {
		t.Errorf("chunk list should be unchanged")
	}
}

func TestProcessingResultJSONDataVariants(t *testing.T) {
	text := NewTextResult("openai", "blob", nil)
	b, err := json.Marshal(text)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"data":"blob"`) {
		t.Errorf("text data should encode as a JSON string: %s", b)
	}

	chunked := NewChunkedResult("tesseract", []DocumentChunk{PageChunk(3, "p3", map[string]any{"page": 3})}, nil)
	b, err = json.Marshal(chunked)
	if err != nil {
		t.Fatal(err)
	}
	var back ProcessingResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.IsChunked || len(back.Chunks) != 1 {
		t.Fatalf("expected chunked result, got %+v", back)
	}
	if back.Chunks[0].Page == nil || *back.Chunks[0].Page != 3 {
		t.Errorf("page lost in transit: %+v", back.Chunks[0])
	}
	if !back.ProcessedAt.Equal(chunked.ProcessedAt) {
		t.Errorf("processed_at = %v, want %v", back.ProcessedAt, chunked.ProcessedAt)
	}
}

func TestProcessingResultRejectsBadData(t *testing.T) {
	var r ProcessingResult
	for _, in := range []string{
		`{"data":42,"metadata":{},"technology_used":"x","processed_at":"2024-01-01T00:00:00Z"}`,
		`{"metadata":{},"technology_used":"x","processed_at":"2024-01-01T00:00:00Z"}`,
	} {
		if err := json.Unmarshal([]byte(in), &r); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
