package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	processor "github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingLLM struct {
	mu   sync.Mutex
	text string
}

func (f *recordingLLM) Extract(_ context.Context, text string) llm.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	return llm.Record{"Invoice Number": "INV-1001", "Vendor Name": "ACME Ltd", "Total Amount": json.Number("150.00")}
}

type testEnv struct {
	srv       *httptest.Server
	uploadDir string
	llm       *recordingLLM
}

func newTestEnv(t *testing.T, maxSize int64) *testEnv {
	t.Helper()
	log := quietLogger()
	uploadDir := t.TempDir()
	fe := &recordingLLM{}

	proc := processor.NewProcessor(log,
		processor.Config{MaxFileSize: maxSize},
		processor.NewTextStage(extract.NewExtractor(nil, nil, log), log),
		processor.NewParseStage(fe, log),
	)
	s := New(Config{UploadDir: uploadDir, MaxFileSize: maxSize, ProcessingTimeout: time.Minute}, proc, nil, log)
	s.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local) }

	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, uploadDir: uploadDir, llm: fe}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename == "" {
		// browsers send an empty filename when nothing was picked
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename=""`}
		h["Content-Type"] = []string{"application/octet-stream"}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = w.Write(content)
	} else {
		w, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, field, filename string, content []byte) (int, map[string]any) {
	t.Helper()
	body, ct := multipartBody(t, field, filename, content)
	resp, err := http.Post(e.srv.URL+"/upload", ct, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func assertUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpload_PDFEndToEnd(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	pdf, err := os.ReadFile(filepath.Join("testdata", "invoice.pdf"))
	require.NoError(t, err)

	status, out := env.upload(t, "file", "March Invoice.pdf", pdf)

	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "INV-1001", out["Invoice Number"])
	assert.Equal(t, 150.00, out["Total Amount"])
	assert.Equal(t, "March Invoice.pdf", out["filename"])
	assert.Equal(t, "2024-05-06 07:08:09", out["processed_date"])
	assert.Regexp(t, `^temp_\d{8}_\d{6}_[0-9a-f]{8}_March_Invoice\.pdf$`, out["source_file"])
	assert.Contains(t, env.llm.text, "INV-1001")
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestUpload_PipelineErrorIsStill200(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	status, out := env.upload(t, "file", "blank.png", []byte("not really a png"))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no text could be extracted from the file", out["error"])
	assert.Equal(t, "blank.png", out["filename"])
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestUpload_Rejections(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	tests := []struct {
		name, field, filename string
		wantStatus            int
		wantError             string
	}{
		{"missing part", "document", "a.pdf", http.StatusBadRequest, "no file part"},
		{"empty filename", "file", "", http.StatusBadRequest, "no selected file"},
		{"bad extension", "file", "notes.txt", http.StatusBadRequest, "invalid file type"},
		{"no extension", "file", "invoice", http.StatusBadRequest, "invalid file type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := env.upload(t, tt.field, tt.filename, []byte("x"))
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, out["error"])
		})
	}
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestUpload_NotMultipart(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	resp, err := http.Post(env.srv.URL+"/upload", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t, 1024)

	status, out := env.upload(t, "file", "big.pdf", bytes.Repeat([]byte("A"), 4096))

	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "file is too large, maximum size is 1.0 KiB", out["error"])
	assertUploadDirEmpty(t, env.uploadDir)
}

func TestDownloadCSV(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	resp, err := http.Get(env.srv.URL + "/download/csv?data=" + url.QueryEscape(`[{"a":1}]`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_data_20240506_070809.csv"`, resp.Header.Get("Content-Disposition"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "a\n1\n", string(body))
}

func TestDownloadExcel(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	resp, err := http.Get(env.srv.URL + "/download/excel?data=" + url.QueryEscape(`{"Vendor Name":"ACME","Total Amount":10}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, contentTypeXLSX, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "invoice_data_20240506_070809.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Invoice Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Vendor Name", "Total Amount"}, {"ACME", "10"}}, rows)
}

func TestDownload_Errors(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	get := func(path string) (int, map[string]any) {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	status, out := get("/download/csv")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no data provided", out["error"])

	status, out = get("/download/csv?data=" + url.QueryEscape("[1,2]"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, out["error"], "error generating CSV")

	status, out = get("/download/excel?data=" + url.QueryEscape("{broken"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, out["error"], "error generating Excel file")
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	resp, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}
