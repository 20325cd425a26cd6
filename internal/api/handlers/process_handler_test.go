package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/registry"
	"github.com/markdave123-py/docreader/internal/core/store"
	"github.com/markdave123-py/docreader/internal/core/technologies/openai"
	"github.com/markdave123-py/docreader/internal/core/technologies/tesseract"
	"github.com/markdave123-py/docreader/internal/models"
	"github.com/markdave123-py/docreader/internal/services"
)

type pageTech struct{}

func (pageTech) Name() string        { return "ocr" }
func (pageTech) Description() string { return "page echo" }
func (pageTech) ParamSchema() map[string]models.ParamSpec {
	return map[string]models.ParamSpec{"language": {Type: "string", Default: "eng"}}
}
func (pageTech) Run(_ context.Context, doc []byte, _ map[string]any) (*models.ProcessingResult, error) {
	if bytes.HasPrefix(doc, []byte("explode")) {
		return nil, core.NewBackendError("ocr", "engine crashed", errors.New("segfault"))
	}
	return models.NewChunkedResult("ocr", []models.DocumentChunk{
		models.PageChunk(1, "Hello "+string(doc), map[string]any{"page": 1}),
	}, map[string]any{"num_pages": 1}), nil
}

// scriptedOCR stands in for libtesseract.
type scriptedOCR struct{ text string }

func (s scriptedOCR) Recognize(_ context.Context, img []byte, opts tesseract.Options) (string, error) {
	if len(img) == 0 || opts.Language == "" {
		return "", errors.New("bad recognition input")
	}
	return s.text, nil
}

func encodedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type noExtractor struct{}

func (noExtractor) Extract(context.Context, []byte, string) (*core.ExtractedText, error) {
	return nil, errors.New("extractor must not run")
}

func testRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	root := t.TempDir()
	st, err := store.NewFileStore(root)
	if err != nil {
		t.Fatal(err)
	}
	reg := registry.New()
	reg.RegisterTechnology(pageTech{}, func() (core.Technology, error) { return pageTech{}, nil })
	ocr := tesseract.New(scriptedOCR{text: "  hello world\n"}, nil, tesseract.Config{})
	reg.RegisterTechnology(ocr, func() (core.Technology, error) { return ocr, nil })
	oa := openai.New(noExtractor{}, openai.Config{})
	reg.RegisterTechnology(oa, func() (core.Technology, error) { return oa, nil })

	h := NewProcessHandler(services.NewProcessService(reg, st, "ocr", nil), 1)
	r := chi.NewRouter()
	r.Get("/health", Health)
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/run", h.RunProcess)
		api.Get("/results/{job_id}", h.GetResult)
		api.Get("/status", h.Status)
		api.Get("/technologies", h.ListTechnologies)
		api.Post("/config", h.UpdateConfig)
	})
	return r, root
}

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "scan.png")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

func countJobs(t *testing.T, root string) int {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestRunThenFetchResult(t *testing.T) {
	h, _ := testRouter(t)

	rec := serve(h, multipartRequest(t, map[string]string{
		"technology": "ocr",
		"params":     `{"language":"eng"}`,
	}, []byte("world")))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var sub models.SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.StatusProcessing || sub.JobID == "" {
		t.Fatalf("submit response = %+v", sub)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/results/"+sub.JobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d body = %s", rec.Code, rec.Body)
	}
	var job models.JobRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.JobID != sub.JobID || job.Status != models.StatusCompleted {
		t.Errorf("job = %+v", job)
	}
	chunks := job.Result.ChunkList()
	if len(chunks) != 1 || chunks[0].Page == nil || *chunks[0].Page != 1 || chunks[0].Text != "Hello world" {
		t.Errorf("chunks = %+v", chunks)
	}
	if job.Result.TechnologyUsed != "ocr" {
		t.Errorf("technology_used = %q", job.Result.TechnologyUsed)
	}
}

func TestRunTesseractImageEndToEnd(t *testing.T) {
	h, root := testRouter(t)

	rec := serve(h, multipartRequest(t, map[string]string{"technology": tesseract.Name}, encodedPNG(t)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var sub models.SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.StatusProcessing || countJobs(t, root) != 1 {
		t.Fatalf("submit = %+v, jobs = %d", sub, countJobs(t, root))
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/results/"+sub.JobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d body = %s", rec.Code, rec.Body)
	}
	var raw struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
		Result struct {
			Data []struct {
				Text string `json:"text"`
				Page *int   `json:"page"`
			} `json:"data"`
			Metadata       map[string]any `json:"metadata"`
			TechnologyUsed string         `json:"technology_used"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	if raw.JobID != sub.JobID || raw.Status != models.StatusCompleted {
		t.Errorf("record = %+v", raw)
	}
	if len(raw.Result.Data) != 1 {
		t.Fatalf("data = %+v", raw.Result.Data)
	}
	chunk := raw.Result.Data[0]
	if chunk.Page == nil || *chunk.Page != 1 || chunk.Text != "hello world" {
		t.Errorf("chunk = %+v", chunk)
	}
	if raw.Result.TechnologyUsed != tesseract.Name || raw.Result.Metadata["language"] != "eng" || raw.Result.Metadata["num_pages"] != float64(1) {
		t.Errorf("result = %+v", raw.Result)
	}
}

func TestRunDefaultsTechnology(t *testing.T) {
	h, root := testRouter(t)
	rec := serve(h, multipartRequest(t, nil, []byte("x")))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if countJobs(t, root) != 1 {
		t.Errorf("expected one stored job")
	}
}

func TestRunClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		file   []byte
		want   string
	}{
		{"unknown technology", map[string]string{"technology": "unknown_tech"}, []byte("x"), "unknown_tech"},
		{"missing api key", map[string]string{"technology": "openai"}, []byte("x"), "API key"},
		{"malformed params", map[string]string{"params": "{oops"}, []byte("x"), "params"},
		{"null params", map[string]string{"params": "null"}, []byte("x"), "params"},
		{"missing file", map[string]string{"technology": "ocr"}, nil, "file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, root := testRouter(t)
			rec := serve(h, multipartRequest(t, tc.fields, tc.file))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
			}
			if d := detail(t, rec); !strings.Contains(d, tc.want) {
				t.Errorf("detail %q should mention %q", d, tc.want)
			}
			if n := countJobs(t, root); n != 0 {
				t.Errorf("failed submission stored %d jobs", n)
			}
		})
	}
}

func TestRunRejectsNonMultipart(t *testing.T) {
	h, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", strings.NewReader(`{"technology":"ocr"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := serve(h, req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRunOversizedUpload(t *testing.T) {
	h, root := testRouter(t)
	rec := serve(h, multipartRequest(t, nil, bytes.Repeat([]byte("a"), 3<<20)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if countJobs(t, root) != 0 {
		t.Errorf("oversized upload was stored")
	}
}

func TestRunBackendFailure(t *testing.T) {
	h, root := testRouter(t)
	rec := serve(h, multipartRequest(t, map[string]string{"technology": "ocr"}, []byte("explode")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	d := detail(t, rec)
	if d != "ocr: engine crashed" {
		t.Errorf("detail = %q", d)
	}
	if countJobs(t, root) != 0 {
		t.Errorf("failed run was stored")
	}
}

func TestGetResultNotFound(t *testing.T) {
	h, _ := testRouter(t)
	for _, id := range []string{"3f1c9d2e-8a4b-4c6d-9e0f-123456789abc", "not-a-uuid"} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/results/"+id, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", id, rec.Code)
			continue
		}
		if d := detail(t, rec); d != "Result not found" {
			t.Errorf("%s: detail = %q", id, d)
		}
	}
}

func TestServiceEndpoints(t *testing.T) {
	h, _ := testRouter(t)

	cases := []struct {
		method, path string
		want         map[string]string
	}{
		{http.MethodGet, "/health", map[string]string{"status": "healthy"}},
		{http.MethodGet, "/api/v1/status", map[string]string{"status": "running"}},
		{http.MethodPost, "/api/v1/config", map[string]string{"status": "not implemented"}},
	}
	for _, tc := range cases {
		rec := serve(h, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tc.path, rec.Code)
			continue
		}
		var got map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got["status"] != tc.want["status"] {
			t.Errorf("%s: body = %v", tc.path, got)
		}
	}
}

func TestListTechnologies(t *testing.T) {
	h, _ := testRouter(t)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/technologies", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []models.TechnologyDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Name != "ocr" || list[1].Name != "openai" || list[2].Name != tesseract.Name {
		t.Fatalf("technologies = %+v", list)
	}
	if _, ok := list[1].Params["api_key"]; !ok {
		t.Errorf("openai params missing api_key: %+v", list[1].Params)
	}
}
