package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/briefly/ai/core/llm"
	"github.com/hrygo/briefly/internal/profile"
	"github.com/hrygo/briefly/server/auth"
)

const testSecret = "api-test-secret"

// fakeLLM answers the structuring and task extraction calls from fixed strings.
type fakeLLM struct {
	mu            sync.Mutex
	report        string
	tasks         string
	chatErr       error
	transcript    string
	transcribeErr error
	gotAudio      string
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message, _ ...llm.ChatOption) (string, *llm.LLMCallStats, error) {
	if f.chatErr != nil {
		return "", nil, f.chatErr
	}
	last := messages[len(messages)-1].Content
	if strings.HasPrefix(last, "Extract tasks from this content:") {
		return f.tasks, &llm.LLMCallStats{PromptTokens: 10, CompletionTokens: 5}, nil
	}
	return f.report, &llm.LLMCallStats{PromptTokens: 100, CompletionTokens: 50}, nil
}

func (f *fakeLLM) Transcribe(_ context.Context, req *llm.TranscribeRequest) (string, error) {
	b, _ := io.ReadAll(req.Audio)
	f.mu.Lock()
	f.gotAudio = string(b)
	f.mu.Unlock()
	return f.transcript, f.transcribeErr
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		report:     "## Accomplishments\nShipped the login page\n\n## Next Week\nWrite docs",
		tasks:      `{"tasks": ["Write docs", "Review PR"]}`,
		transcript: "Shipped the login page",
	}
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:                  "dev",
		ALLMProvider:          "openai",
		ALLMModel:             "gpt-4o",
		ALLMAPIKey:            "sk-test",
		AuthSecret:            testSecret,
		GenerateRatePerMinute: 10,
	}
}

type testServer struct {
	echo    *echo.Echo
	service *APIV1Service
}

func newTestServer(t *testing.T, p *profile.Profile, client llm.Service) *testServer {
	t.Helper()
	s := NewAPIV1Service(p, client, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC) }
	e := echo.New()
	s.RegisterRoutes(e)
	return &testServer{echo: e, service: s}
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, userID, role, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(req *http.Request, tok string) *httptest.ResponseRecorder {
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postJSON(path string, body any, tok string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return ts.do(req, tok)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestGenerateReport(t *testing.T) {
	ts := newTestServer(t, testProfile(), newFakeLLM())
	tok := token(t, "user-1", auth.RoleUser)

	rec := ts.postJSON("/api/generate-report", map[string]string{
		"content":  "shipped login, next week docs",
		"userRole": "developer",
	}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp generateReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.StructuredReport, "## Accomplishments")
	assert.Equal(t, []string{"Write docs", "Review PR"}, resp.Tasks)
}

func TestGenerateReport_Errors(t *testing.T) {
	tok := token(t, "user-1", auth.RoleUser)

	t.Run("unauthenticated", func(t *testing.T) {
		ts := newTestServer(t, testProfile(), newFakeLLM())
		rec := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		ts := newTestServer(t, testProfile(), newFakeLLM())
		rec := ts.postJSON("/api/generate-report", map[string]string{"content": "   "}, tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No content provided", decode(t, rec)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, testProfile(), newFakeLLM())
		req := httptest.NewRequest(http.MethodPost, "/api/generate-report", strings.NewReader("{"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		assert.Equal(t, http.StatusBadRequest, ts.do(req, tok).Code)
	})

	t.Run("not configured", func(t *testing.T) {
		p := testProfile()
		p.ALLMAPIKey = ""
		ts := newTestServer(t, p, newFakeLLM())
		rec := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, tok)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, codeConfigurationError, decode(t, rec)["code"])
	})

	t.Run("upstream failure is retryable", func(t *testing.T) {
		fake := newFakeLLM()
		fake.chatErr = errors.New("503 from provider")
		ts := newTestServer(t, testProfile(), fake)
		rec := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, tok)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, true, decode(t, rec)["retryable"])
	})

	t.Run("task failure still succeeds", func(t *testing.T) {
		fake := newFakeLLM()
		fake.tasks = "not json"
		ts := newTestServer(t, testProfile(), fake)
		rec := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, tok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, decode(t, rec)["tasks"])
	})

	t.Run("rate limited", func(t *testing.T) {
		p := testProfile()
		p.GenerateRatePerMinute = 1
		ts := newTestServer(t, p, newFakeLLM())
		first := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, tok)
		assert.Equal(t, http.StatusOK, first.Code)
		second := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, tok)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)

		other := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, token(t, "user-2", auth.RoleUser))
		assert.Equal(t, http.StatusOK, other.Code)
	})
}

func TestFinalizeReport(t *testing.T) {
	tok := token(t, "user-1", auth.RoleUser)

	t.Run("default title and id", func(t *testing.T) {
		ts := newTestServer(t, testProfile(), newFakeLLM())
		rec := ts.postJSON("/api/finalize-report", map[string]any{
			"draftContent":      "shipped login",
			"structuredContent": "## Accomplishments\nShipped login",
			"tasks":             []string{"Write docs"},
		}, tok)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp finalizeReportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Report)
		assert.NotEmpty(t, resp.Report.ID)
		assert.Equal(t, "user-1", resp.Report.UserID)
		assert.Equal(t, "Weekly Report - 2026-03-06", resp.Report.Title)
		assert.Equal(t, "finalized", resp.Report.Status)
		assert.Equal(t, 1, int(ts.service.Metrics.Stats().ReportsFinalized))
	})

	t.Run("blank structured content", func(t *testing.T) {
		ts := newTestServer(t, testProfile(), newFakeLLM())
		rec := ts.postJSON("/api/finalize-report", map[string]any{"draftContent": "x"}, tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("posts webhook", func(t *testing.T) {
		received := make(chan map[string]any, 1)
		hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			received <- payload
			w.WriteHeader(http.StatusOK)
		}))
		defer hook.Close()

		p := testProfile()
		p.FinalizeWebhookURL = hook.URL
		ts := newTestServer(t, p, newFakeLLM())
		rec := ts.postJSON("/api/finalize-report", map[string]any{
			"structuredContent": "## Progress\nhalf done",
			"title":             "Sprint 12",
		}, tok)
		require.Equal(t, http.StatusOK, rec.Code)

		select {
		case payload := <-received:
			assert.Equal(t, "report.finalized", payload["activityType"])
			assert.Equal(t, "user-1", payload["creator"])
		case <-time.After(5 * time.Second):
			t.Fatal("webhook not called")
		}
	})
}

func TestExportReport(t *testing.T) {
	ts := newTestServer(t, testProfile(), newFakeLLM())
	tok := token(t, "user-1", auth.RoleUser)
	body := map[string]any{
		"structuredContent": "## Accomplishments\nShipped login",
		"title":             "Sprint 12",
		"tasks":             []string{"Write docs"},
		"format":            "slack",
	}

	t.Run("json", func(t *testing.T) {
		rec := ts.postJSON("/api/export", body, tok)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp exportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.Content, ":memo: *Sprint 12*\n\n"))
		assert.Contains(t, resp.Content, ":white_small_square: Write docs\n")
		assert.Equal(t, "sprint-12-slack.txt", resp.Filename)
		assert.Equal(t, "text/plain", resp.MimeType)
	})

	t.Run("download", func(t *testing.T) {
		md := map[string]any{"structuredContent": "## Progress\nx", "title": "Sprint 12", "format": "markdown"}
		rec := ts.postJSON("/api/export?download=1", md, tok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename=sprint-12.md`, rec.Header().Get(echo.HeaderContentDisposition))
		assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/markdown"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "# Sprint 12\n\n## Progress\n\n"))
	})

	t.Run("default format is markdown", func(t *testing.T) {
		rec := ts.postJSON("/api/export", map[string]any{"structuredContent": "## Progress\nx"}, tok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "weekly-report.md", decode(t, rec)["filename"])
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := ts.postJSON("/api/export", map[string]any{"structuredContent": "x", "format": "pdf"}, tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("counted", func(t *testing.T) {
		stats := ts.service.Metrics.Stats()
		assert.EqualValues(t, 1, stats.ExportsByFormat["slack"])
	})
}

func TestPreviewReport(t *testing.T) {
	ts := newTestServer(t, testProfile(), newFakeLLM())
	rec := ts.postJSON("/api/export/preview", map[string]any{
		"structuredContent": "## Progress\nhalf done",
		"title":             "Sprint 12",
		"tasks":             []string{"Ship it"},
	}, token(t, "user-1", auth.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)

	html, _ := decode(t, rec)["html"].(string)
	assert.Contains(t, html, "<h1>Sprint 12</h1>")
	assert.Contains(t, html, "<h2>Progress</h2>")
	assert.Contains(t, html, `type="checkbox"`)
}

func multipartAudio(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, "update.webm")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-audio"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestTranscribe(t *testing.T) {
	tok := token(t, "user-1", auth.RoleUser)

	t.Run("success", func(t *testing.T) {
		fake := newFakeLLM()
		ts := newTestServer(t, testProfile(), fake)
		body, contentType := multipartAudio(t, "audio")
		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
		req.Header.Set(echo.HeaderContentType, contentType)

		rec := ts.do(req, tok)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Shipped the login page", decode(t, rec)["text"])
		assert.Equal(t, "fake-audio", fake.gotAudio)
	})

	t.Run("missing file", func(t *testing.T) {
		ts := newTestServer(t, testProfile(), newFakeLLM())
		body, contentType := multipartAudio(t, "")
		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		assert.Equal(t, http.StatusBadRequest, ts.do(req, tok).Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		fake := newFakeLLM()
		fake.transcribeErr = errors.New("boom")
		ts := newTestServer(t, testProfile(), fake)
		body, contentType := multipartAudio(t, "audio")
		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		assert.Equal(t, http.StatusBadGateway, ts.do(req, tok).Code)
	})

	t.Run("not configured", func(t *testing.T) {
		p := testProfile()
		p.ALLMAPIKey = ""
		ts := newTestServer(t, p, nil)
		body, contentType := multipartAudio(t, "audio")
		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := ts.do(req, tok)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, codeConfigurationError, decode(t, rec)["code"])
	})
}

func TestGetAdminStats(t *testing.T) {
	ts := newTestServer(t, testProfile(), newFakeLLM())
	userTok := token(t, "user-1", auth.RoleUser)

	rec := ts.postJSON("/api/generate-report", map[string]string{"content": "x"}, userTok)
	require.Equal(t, http.StatusOK, rec.Code)

	get := func(tok string) *httptest.ResponseRecorder {
		return ts.do(httptest.NewRequest(http.MethodGet, "/api/admin/stats", http.NoBody), tok)
	}

	assert.Equal(t, http.StatusUnauthorized, get("").Code)
	assert.Equal(t, http.StatusForbidden, get(userTok).Code)

	rec = get(token(t, "root", auth.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.EqualValues(t, 1, m["reportsGenerated"])
	assert.EqualValues(t, 2, m["tasksExtracted"])
	assert.Equal(t, "2026-03-06T12:00:00Z", m["timestamp"])
}

func TestAuthCheck(t *testing.T) {
	ts := newTestServer(t, testProfile(), newFakeLLM())
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/auth/check", http.NoBody), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"authConfigured": true, "aiConfigured": true}, decode(t, rec))
	assert.NotContains(t, rec.Body.String(), testSecret)
}
