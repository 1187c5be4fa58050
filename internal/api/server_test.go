package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/docindex/internal/docx"
	"github.com/a3tai/docindex/internal/pdf/pdftest"
	"github.com/a3tai/docindex/internal/tasks"
)

const testMaxFileSize = 1 << 20

func newTestServer(t *testing.T, opts Options, processor tasks.Processor) (*Server, *bytes.Buffer) {
	t.Helper()
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = testMaxFileSize
	}
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"*"}
	}
	if processor == nil {
		processor = tasks.NewService(tasks.Options{MaxFileSize: opts.MaxFileSize})
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return NewServer(opts, processor, logger), &logs
}

type part struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, string(p.content)))
			continue
		}
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func docxFile(t *testing.T, build func(b *docx.Builder)) []byte {
	t.Helper()
	b := docx.NewBuilder()
	build(b)
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func TestHealth(t *testing.T) {
	srv, logs := newTestServer(t, Options{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthMessage, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, logs.String(), "status=200")
}

func TestGenerateRegex(t *testing.T) {
	srv, _ := newTestServer(t, Options{}, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid sample", `{"sample": "라몬즈+Ramones+"}`, http.StatusOK},
		{"malformed sample", `{"sample": "A+B-"}`, http.StatusBadRequest},
		{"missing sample", `{}`, http.StatusBadRequest},
		{"invalid json", `sample=1`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/generate-regex", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, decodeMessage(t, rec))
				return
			}

			var resp generateRegexResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Regex, `\+`)
		})
	}
}

func TestProcess_ExtractIndex(t *testing.T) {
	srv, _ := newTestServer(t, Options{}, nil)
	file := docxFile(t, func(b *docx.Builder) {
		b.AddParagraph("라몬즈+Ramones+")
		b.AddParagraph("비틀스+The Beatles+")
	})

	req := multipartRequest(t, "/api/process/tab1",
		part{field: "file", filename: "book.docx", content: file},
		part{field: "regex", content: []byte(`([가-힣]+)\+([A-Za-z ]+)\+`)},
		part{field: "decorator", content: []byte("[]")},
	)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, docx.ContentType, rec.Header().Get("Content-Type"))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "result_tab1.docx", params["filename"])

	doc, err := docx.Read(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 3)
	assert.Equal(t, "라몬즈[Ramones]", doc.Paragraphs[1].Text)
	assert.Equal(t, "비틀스[The Beatles]", doc.Paragraphs[2].Text)
}

func TestProcess_LocatePages(t *testing.T) {
	srv, _ := newTestServer(t, Options{}, nil)
	index := docxFile(t, func(b *docx.Builder) {
		b.AddTable([][]string{{"번호", "원어"}, {"1", "Ramones"}, {"2", "Clash"}}, docx.TableOptions{})
	})

	req := multipartRequest(t, "/api/process/tab4",
		part{field: "pdf_file", filename: "book.pdf", content: pdftest.Generate("intro", "the Ramones")},
		part{field: "docx_file", filename: "index.docx", content: index},
		part{field: "page_range", content: []byte("1-2")},
	)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := docx.Read(rec.Body.Bytes())
	require.NoError(t, err)
	table, ok := doc.FirstTable()
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{"번호", "원어", "페이지"},
		{"1", "Ramones", "2"},
		{"2", "Clash", "PDF에서 찾을 수 없음"},
	}, table.Rows)
}

func TestProcess_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Options{MaxFileSize: 4096}, nil)
	plain := docxFile(t, func(b *docx.Builder) { b.AddParagraph("no table here") })

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
	}{
		{
			name: "unknown task",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/process/tab9", part{field: "file", filename: "a.docx", content: plain})
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/process/tab2", part{field: "other", content: []byte("x")})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing regex",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/process/tab1", part{field: "file", filename: "a.docx", content: plain})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/process/tab2", strings.NewReader("{}"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "table required",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/process/tab5", part{field: "file", filename: "a.docx", content: plain})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing pdf",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/process/tab4", part{field: "docx_file", filename: "a.docx", content: plain})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "file too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/process/tab2",
					part{field: "file", filename: "a.docx", content: bytes.Repeat([]byte("x"), 5000)})
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, tt.req(t))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decodeMessage(t, rec))
		})
	}
}

func TestProcess_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Options{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process/tab1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// failingProcessor fails every call with an internal error
type failingProcessor struct {
	err error
}

func (p failingProcessor) GenerateRegex(context.Context, string) (string, error) {
	return "", p.err
}

func (p failingProcessor) Process(context.Context, tasks.TaskID, tasks.Input) ([]byte, error) {
	return nil, p.err
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	srv, logs := newTestServer(t, Options{}, failingProcessor{err: errors.New("disk quota exceeded")})

	req := httptest.NewRequest(http.MethodPost, "/api/generate-regex", strings.NewReader(`{"sample": "a+b+"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	message := decodeMessage(t, rec)
	assert.Equal(t, internalErrorMessage, message)
	assert.NotContains(t, message, "quota")
	assert.Contains(t, logs.String(), "disk quota exceeded")
}

func TestRequestID(t *testing.T) {
	srv, logs := newTestServer(t, Options{}, nil)
	const id = "0b6f8f7e-5a0c-4c39-9a43-6f1f3f0a8d11"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, logs.String(), "request_id="+id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\r\n")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid\r\n", rec.Header().Get(RequestIDHeader))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{}, nil)

		req := httptest.NewRequest(http.MethodOptions, "/api/generate-regex", nil)
		req.Header.Set("Origin", "https://index.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("listed origins", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"https://index.example"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://index.example")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, "https://index.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 2}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/generate-regex", strings.NewReader(`{"sample": "a+b+"}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// the health check is not limited
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRun_GracefulShutdown(t *testing.T) {
	srv, _ := newTestServer(t, Options{}, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == HealthMessage
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
