package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Job statuses reported on the wire.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// ProcessRequest is the audit copy of a submitted request. The document bytes are never persisted.
type ProcessRequest struct {
	Technology string `json:"technology"`
	Params     string `json:"params"`
	Filename   string `json:"filename,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

// DocumentChunk represents one unit of extracted text.
type DocumentChunk struct {
	Text     string         `json:"text"`
	Page     *int           `json:"page,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// PageChunk builds a chunk bound to a 1-based page.
func PageChunk(page int, text string, meta map[string]any) DocumentChunk {
	p := page
	if meta == nil {
		meta = map[string]any{}
	}
	return DocumentChunk{Text: text, Page: &p, Metadata: meta}
}

// ProcessingResult is what a technology produces. Exactly one of Text or Chunks is the payload;
// IsChunked tells which.
type ProcessingResult struct {
	Text           string
	Chunks         []DocumentChunk
	IsChunked      bool
	Metadata       map[string]any
	TechnologyUsed string
	ProcessedAt    time.Time
}

// NewTextResult wraps a single text blob.
func NewTextResult(technology, text string, meta map[string]any) *ProcessingResult {
	return &ProcessingResult{
		Text:           text,
		Metadata:       orEmpty(meta),
		TechnologyUsed: technology,
		ProcessedAt:    time.Now().UTC(),
	}
}

// NewChunkedResult wraps an ordered chunk sequence.
func NewChunkedResult(technology string, chunks []DocumentChunk, meta map[string]any) *ProcessingResult {
	if chunks == nil {
		chunks = []DocumentChunk{}
	}
	return &ProcessingResult{
		Chunks:         chunks,
		IsChunked:      true,
		Metadata:       orEmpty(meta),
		TechnologyUsed: technology,
		ProcessedAt:    time.Now().UTC(),
	}
}

// Markdown flattens the result into a human-readable rendering.
func (r *ProcessingResult) Markdown() string {
	if !r.IsChunked {
		return r.Text
	}
	var b strings.Builder
	for _, c := range r.Chunks {
		if c.Page != nil {
			b.WriteString("## Page ")
			b.WriteString(strconv.Itoa(*c.Page))
			b.WriteString("\n\n")
		}
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ChunkList returns the result as chunks. A text result yields one chunk without a page.
func (r *ProcessingResult) ChunkList() []DocumentChunk {
	if r.IsChunked {
		return r.Chunks
	}
	return []DocumentChunk{{Text: r.Text, Metadata: orEmpty(r.Metadata)}}
}

type resultWire struct {
	Data           json.RawMessage `json:"data"`
	Metadata       map[string]any  `json:"metadata"`
	TechnologyUsed string          `json:"technology_used"`
	ProcessedAt    time.Time       `json:"processed_at"`
}

func (r ProcessingResult) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if r.IsChunked {
		chunks := r.Chunks
		if chunks == nil {
			chunks = []DocumentChunk{}
		}
		data, err = json.Marshal(chunks)
	} else {
		data, err = json.Marshal(r.Text)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(resultWire{
		Data:           data,
		Metadata:       orEmpty(r.Metadata),
		TechnologyUsed: r.TechnologyUsed,
		ProcessedAt:    r.ProcessedAt,
	})
}

func (r *ProcessingResult) UnmarshalJSON(b []byte) error {
	var w resultWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = ProcessingResult{
		Metadata:       orEmpty(w.Metadata),
		TechnologyUsed: w.TechnologyUsed,
		ProcessedAt:    w.ProcessedAt,
	}
	data := bytes.TrimSpace(w.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return fmt.Errorf("processing result: missing data")
	case data[0] == '"':
		return json.Unmarshal(data, &r.Text)
	case data[0] == '[':
		r.IsChunked = true
		r.Chunks = []DocumentChunk{}
		return json.Unmarshal(data, &r.Chunks)
	default:
		return fmt.Errorf("processing result: data must be a string or a chunk list")
	}
}

// JobRecord is a stored result addressed by its job id.
type JobRecord struct {
	JobID  string            `json:"job_id"`
	Result *ProcessingResult `json:"result"`
	Status string            `json:"status"`
}

// SubmitResponse is returned when a job is accepted.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ParamSpec documents one technology parameter.
type ParamSpec struct {
	Type        string   `json:"type"`
	Default     any      `json:"default,omitempty"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// TechnologyDescriptor is the discovery view of a registered technology.
type TechnologyDescriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ParamSpec `json:"params"`
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
