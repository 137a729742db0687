package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lessongen/internal/config"
	"github.com/dgallion1/lessongen/internal/lesson"
	"github.com/dgallion1/lessongen/internal/preview"
	"github.com/dgallion1/lessongen/internal/publish"
	"github.com/dgallion1/lessongen/internal/session"
)

type viewResponse struct {
	Session  session.Info       `json:"session"`
	Lesson   exportedLesson     `json:"lesson"`
	Form     preview.FormView   `json:"form"`
	Index    *int               `json:"index"`
	Warnings []lesson.Violation `json:"warnings"`
}

type exportedLesson struct {
	Slug string `json:"slug"`
	Meta struct {
		Title      string `json:"title"`
		Difficulty string `json:"difficulty"`
	} `json:"meta"`
	Sections []struct {
		ID     string           `json:"id"`
		Title  string           `json:"title"`
		Type   string           `json:"type"`
		Blocks []map[string]any `json:"blocks"`
	} `json:"sections"`
}

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes: 1 << 20,
		RateLimitBurst: 20,
	}
}

func newTestServer(t *testing.T, cfg config.Config, pub Publisher) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(time.Hour, log)
	srv := NewServer(store, pub, log, cfg)
	srv.now = func() time.Time { return time.Unix(1700000000, 0) }
	return srv
}

func do(t *testing.T, srv http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var v viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func createSession(t *testing.T, srv http.Handler) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	v := decodeView(t, rec)
	require.NotEmpty(t, v.Session.ID)
	return v.Session.ID
}

func op(t *testing.T, srv http.Handler, id string, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, http.MethodPost, "/api/sessions/"+id+"/ops", "application/json", strings.NewReader(body))
}

func multipartBody(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	rec := do(t, srv, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0,"publish":false}`, rec.Body.String())
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := do(t, srv, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeView(t, rec)
	assert.Equal(t, "/api/sessions/"+created.Session.ID, rec.Header().Get("Location"))
	require.Len(t, created.Lesson.Sections, 1)
	assert.Equal(t, "info-grid", created.Lesson.Sections[0].Type)
	assert.Equal(t, "A2", created.Lesson.Meta.Difficulty)
	require.Len(t, created.Form.Sections, 1)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+created.Session.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeView(t, rec)
	assert.Equal(t, created.Session.ID, got.Session.ID)
	assert.Equal(t, created.Lesson.Sections[0].ID, got.Lesson.Sections[0].ID)
	assert.Empty(t, got.Warnings)
}

func TestSession_NotFound(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/preview", "/api/sessions/nope/export"} {
		rec := do(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, kindNotFound, decodeError(t, rec).Kind, path)
	}
}

func TestDeleteAndResetSession(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	require.Equal(t, http.StatusOK, op(t, srv, id, `{"op":"add_section"}`).Code)
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/reset", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, rec).Lesson.Sections, 1)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOps_Edits(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	rec := op(t, srv, id, `{"op":"add_block","section":0,"type":"list"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeView(t, rec)
	require.NotNil(t, v.Index)
	assert.Equal(t, 0, *v.Index)

	rec = op(t, srv, id, `{"op":"update_list_item","section":0,"block":0,"item":1,"value":"Hello","audio":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decodeView(t, rec)
	items := v.Lesson.Sections[0].Blocks[0]["items"].([]any)
	assert.Equal(t, "@_Hello", items[1])
	form := v.Form.Sections[0].Blocks[0].Items[1]
	assert.Equal(t, "Hello", form.Text)
	assert.True(t, form.Audio)

	rec = op(t, srv, id, `{"op":"update_block","section":0,"block":0,"field":"items","value":["a","b"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decodeView(t, rec)
	assert.Equal(t, []any{"a", "b"}, v.Lesson.Sections[0].Blocks[0]["items"])

	rec = op(t, srv, id, `{"op":"update_meta","field":"title","value":"Past Simple"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Past Simple", decodeView(t, rec).Lesson.Meta.Title)

	op(t, srv, id, `{"op":"add_section"}`)
	rec = op(t, srv, id, `{"op":"move_section","from":0,"to":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, "New Section 2", v.Lesson.Sections[0].Title)
	assert.Len(t, v.Lesson.Sections[1].Blocks, 1)
}

func TestOps_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)
	before := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/export", "", nil).Body.String()

	tests := []struct {
		name string
		body string
		code int
		kind string
	}{
		{"block not allowed", `{"op":"add_block","section":0,"type":"table"}`, http.StatusUnprocessableEntity, kindValidation},
		{"last section", `{"op":"remove_section","section":0}`, http.StatusConflict, kindPrecondition},
		{"bad block index", `{"op":"remove_block","section":0,"block":3}`, http.StatusNotFound, kindIndex},
		{"bad section index", `{"op":"update_section","section":9,"field":"title","value":"x"}`, http.StatusNotFound, kindIndex},
		{"unknown section type", `{"op":"update_section","section":0,"field":"type","value":"grid"}`, http.StatusUnprocessableEntity, kindValidation},
		{"value not a string", `{"op":"update_meta","field":"title","value":5}`, http.StatusUnprocessableEntity, kindValidation},
		{"unknown op", `{"op":"undo"}`, http.StatusBadRequest, kindBadRequest},
		{"unknown field", `{"op":"add_section","sectoin":1}`, http.StatusBadRequest, kindBadRequest},
		{"not json", `add_section`, http.StatusBadRequest, kindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := op(t, srv, id, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decodeError(t, rec).Kind)
		})
	}

	after := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/export", "", nil).Body.String()
	assert.Equal(t, before, after, "failed operations must not change the lesson")
}

func TestOps_RemoveSectionConfirm(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)
	op(t, srv, id, `{"op":"add_section"}`)

	rec := op(t, srv, id, `{"op":"remove_section","section":1,"confirm":false}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = op(t, srv, id, `{"op":"remove_section","section":1,"confirm":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, rec).Lesson.Sections, 1)
}

const importDoc = `{
  "slug": "past-simple",
  "meta": {"title": "Past Simple", "tags": ["grammar"]},
  "sections": [
    {"id": "s1", "title": "Forms", "type": "info-grid",
     "blocks": [{"type": "table", "headers": ["a", "b"], "rows": [["x", "y"]]}]}
  ]
}`

func TestImport_JSON(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", "application/json", strings.NewReader(importDoc))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeView(t, rec)
	assert.Equal(t, "past-simple", v.Lesson.Slug)
	assert.Equal(t, "A2", v.Lesson.Meta.Difficulty)
	require.Len(t, v.Lesson.Sections, 1)
	assert.Equal(t, "s1", v.Lesson.Sections[0].ID)

	require.Len(t, v.Warnings, 1)
	assert.Equal(t, lesson.RuleBlockNotAllowed, v.Warnings[0].Rule)
}

func TestImport_Rejections(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)
	op(t, srv, id, `{"op":"update_meta","field":"slug","value":"keep-me"}`)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", "text/plain", strings.NewReader(importDoc))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, kindMediaType, decodeError(t, rec).Kind)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", "application/json", strings.NewReader(`{"meta":{}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, kindFormat, decodeError(t, rec).Kind)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", "application/json", strings.NewReader(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct := multipartBody(t, "notes.txt", importDoc)
	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", ct, body)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, "", nil)
	assert.Equal(t, "keep-me", decodeView(t, rec).Lesson.Slug)
}

func TestImport_YAMLUpload(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	doc := `slug: travel
meta:
  title: Travel
  difficulty: B1
sections:
  - id: intro
    title: Intro
    type: info-grid
    blocks:
      - type: paragraph
        label: Note
        content: Pack light.
`
	body, ct := multipartBody(t, "travel.yaml", doc)
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeView(t, rec)
	assert.Equal(t, "travel", v.Lesson.Slug)
	assert.Equal(t, "B1", v.Lesson.Meta.Difficulty)
	assert.Equal(t, "Pack light.", v.Lesson.Sections[0].Blocks[0]["content"])
	assert.Empty(t, v.Warnings)
}

func TestImport_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	srv := newTestServer(t, cfg, nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/import", "application/json", strings.NewReader(importDoc))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDraft_Markdown(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	body, ct := multipartBody(t, "past.md", "# Past Simple\n\n## Use\n\nFinished actions.\n")
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/draft", ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeView(t, rec)
	assert.Equal(t, "Past Simple", v.Lesson.Meta.Title)
	assert.Equal(t, "past-simple", v.Lesson.Slug)
	assert.NotEmpty(t, v.Lesson.Sections)
	assert.Empty(t, v.Warnings)
}

func TestDraft_UnsupportedType(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	body, ct := multipartBody(t, "tool.exe", "MZ")
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/draft", ct, body)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)
	op(t, srv, id, `{"op":"update_meta","field":"slug","value":"my-lesson"}`)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=1700000000_my-lesson.json`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "{\n    \"slug\": \"my-lesson\""), rec.Body.String())

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	srv.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/export?format=yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/yaml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "1700000000_my-lesson.yaml")
	assert.Contains(t, rec.Body.String(), "slug: my-lesson")

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/export?format=xml", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)
	op(t, srv, id, `{"op":"update_meta","field":"title","value":"Past Simple"}`)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/preview", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>Past Simple</title>")
	assert.Contains(t, rec.Body.String(), "<em>Simple</em>")

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/preview?fragment=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")
}

type fakePublisher struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
	err  error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{docs: make(map[string]json.RawMessage)}
}

func (f *fakePublisher) Put(ctx context.Context, slug string, doc []byte) (publish.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return publish.Receipt{}, f.err
	}
	f.docs[slug] = append(json.RawMessage(nil), doc...)
	return publish.Receipt{Slug: slug, Key: "lessons/" + slug, Attempts: 1}, nil
}

func (f *fakePublisher) Get(ctx context.Context, slug string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[slug], nil
}

func (f *fakePublisher) Delete(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, slug)
	return nil
}

func (f *fakePublisher) List(ctx context.Context, limit int) ([]publish.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publish.Entry
	for slug, doc := range f.docs {
		out = append(out, publish.Entry{Key: "lessons/" + slug, Value: doc})
	}
	return out, nil
}

func TestPublish_Disabled(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/publish", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, kindUnavailable, decodeError(t, rec).Kind)

	rec = do(t, srv, http.MethodGet, "/api/published", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPublish(t *testing.T) {
	pub := newFakePublisher()
	srv := newTestServer(t, testConfig(), pub)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/publish", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "a lesson without a slug cannot be published")

	op(t, srv, id, `{"op":"update_meta","field":"slug","value":"past-simple"}`)
	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/publish", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var receipt publish.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "past-simple", receipt.Slug)

	rec = do(t, srv, http.MethodGet, "/api/published/past-simple", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc exportedLesson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "past-simple", doc.Slug)

	rec = do(t, srv, http.MethodGet, "/api/published", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lessons/past-simple")

	rec = do(t, srv, http.MethodDelete, "/api/published/past-simple", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/published/past-simple", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublish_UpstreamFailure(t *testing.T) {
	pub := newFakePublisher()
	pub.err = &publish.RetryableError{StatusCode: 503, Message: "down"}
	srv := newTestServer(t, testConfig(), pub)
	id := createSession(t, srv)
	op(t, srv, id, `{"op":"update_meta","field":"slug","value":"x"}`)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/publish", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, kindUpstream, decodeError(t, rec).Kind)
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.LessongenAPIKey = "secret"
	srv := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "", nil).Code)

	rec := do(t, srv, http.MethodPost, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	srv := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "", nil).Code)
	rec := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	other := httptest.NewRecorder()
	srv.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code, "buckets are per client")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.RemoteAddr = "203.0.113.9:4000"
	assert.Equal(t, "203.0.113.9", clientIP(req), "forwarding headers from public peers are ignored")
}

func TestPublish_ThroughClient(t *testing.T) {
	var stored []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kv/lessons/travel", r.URL.Path)
		assert.Equal(t, "Bearer store-key", r.Header.Get("Authorization"))
		stored, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(upstream.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := publish.NewClient(upstream.URL, "store-key", log)
	srv := newTestServer(t, testConfig(), client)
	id := createSession(t, srv)
	op(t, srv, id, `{"op":"update_meta","field":"slug","value":"travel"}`)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/publish", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(stored), `"source":"lessongen"`)

	rec = do(t, srv, http.MethodGet, "/api/stats/publish", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Calls map[string]publish.CallStats `json:"calls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Calls["put"].Count)
}

func TestPublishStats_Unavailable(t *testing.T) {
	srv := newTestServer(t, testConfig(), newFakePublisher())
	rec := do(t, srv, http.MethodGet, "/api/stats/publish", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
