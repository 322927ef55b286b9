package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/mdtree/internal/docservice"
	"github.com/starford/mdtree/internal/testutil"
)

// testEnv sets up a temp workspace, SQLite DB, service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) http.Handler {
	t.Helper()
	store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	svc := docservice.NewService(store, db)
	return NewRouter(svc, authEnabled, authToken, sseHandler, 1<<16)
}

func do(t *testing.T, router http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func create(t *testing.T, router http.Handler, path, content string) DocumentDetail {
	t.Helper()
	w := do(t, router, http.MethodPost, "/docs", map[string]string{"path": path, "content": content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s = %d, body = %s", path, w.Code, w.Body.String())
	}
	var d DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	return d
}

func TestCreateAndGetDocument(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, "hello.md", "# Hello\nWorld")

	w := do(t, router, http.MethodGet, "/docs/hello.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != `"`+created.Checksum+`"` {
		t.Errorf("ETag = %q", etag)
	}
	var d DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Path != "hello.md" || d.Title != "Hello" || d.Format != docservice.FormatSource {
		t.Errorf("document = %+v", d)
	}
}

func TestGetDocument_XML(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "x.md", "*hi*\n")

	w := do(t, router, http.MethodGet, "/docs/x.md?format=xml", nil)
	var d DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if w.Code != http.StatusOK || !strings.Contains(d.Content, "<emph>") {
		t.Errorf("xml = %d %s", w.Code, d.Content)
	}

	w = do(t, router, http.MethodGet, "/docs/x.md?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format = %d, want 400", w.Code)
	}
}

func TestCreateDuplicate(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "dup.md", "a")

	w := do(t, router, http.MethodPost, "/docs", map[string]string{"path": "dup.md", "content": "a"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreate_Validation(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/docs", map[string]string{"path": "empty.md"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing content = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/docs", map[string]string{"path": "a.txt", "content": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-markdown path = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/docs", map[string]string{"path": "big.md", "content": strings.Repeat("x", 1<<17)})
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized body = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, "lock.md", "v1")

	body := map[string]string{"content": "v2"}
	w := do(t, router, http.MethodPut, "/docs/lock.md", body, "If-Match", `"`+created.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/docs/lock.md", body, "If-Match", created.Checksum)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/docs/lock.md", map[string]string{"content": "v3"})
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestUpdateDocument_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPut, "/docs/ghost.md", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "bye.md", "gone")

	if w := do(t, router, http.MethodDelete, "/docs/bye.md", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/docs/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/docs/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "a.md", "# a")
	create(t, router, "sub/b.md", "# b")

	w := do(t, router, http.MethodGet, "/docs?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Documents) != 2 {
		t.Errorf("list = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/docs?prefix=sub", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Documents[0].Path != "sub/b.md" {
		t.Errorf("prefix list = %+v", resp)
	}

	if w := do(t, router, http.MethodGet, "/docs?sort=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad sort = %d, want 400", w.Code)
	}
}

func TestOutlineAndBacklinks(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "target.md", "# Top\n\n## Sub\n")
	create(t, router, "src.md", "see [[target]] and [t](target.md)\n")

	w := do(t, router, http.MethodGet, "/outline/target.md", nil)
	var outline OutlineResponse
	_ = json.Unmarshal(w.Body.Bytes(), &outline)
	if w.Code != http.StatusOK || len(outline.Headings) != 2 || outline.Headings[1].Level != 2 {
		t.Errorf("outline = %d %+v", w.Code, outline)
	}

	w = do(t, router, http.MethodGet, "/backlinks/target.md", nil)
	var bl BacklinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &bl)
	if w.Code != http.StatusOK || len(bl.Links) != 2 {
		t.Errorf("backlinks = %d %+v", w.Code, bl)
	}

	if w := do(t, router, http.MethodGet, "/outline/none.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("outline missing = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "find.md", "uniquetoken here")

	w := do(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "find.md" {
		t.Errorf("search results = %+v", resp.Results)
	}

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestRenderEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/render", RenderRequest{Markdown: "Title\n=====\n"})
	var resp RenderResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.Output != "# Title\n" || resp.Format != "commonmark" {
		t.Errorf("render = %d %+v", w.Code, resp)
	}

	w = do(t, router, http.MethodPost, "/render", RenderRequest{Markdown: "x", Format: "xml"})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || !strings.Contains(resp.Output, "<document") {
		t.Errorf("render xml = %d %+v", w.Code, resp)
	}

	if w := do(t, router, http.MethodPost, "/render", RenderRequest{Markdown: "x", Format: "html"}); w.Code != http.StatusBadRequest {
		t.Errorf("render html = %d, want 400", w.Code)
	}
}

func TestTransformEndpoint(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "t.md", "# keep\n\n## drop\n\ntext\n")

	body := map[string]any{
		"ops":   []map[string]any{{"type": "prune", "where": `kind == "heading" && level == 2`}},
		"write": true,
	}
	w := do(t, router, http.MethodPost, "/transform/t.md", body)
	if w.Code != http.StatusOK {
		t.Fatalf("transform = %d, body = %s", w.Code, w.Body.String())
	}
	var res docservice.TransformResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Written || res.Output != "# keep\n\ntext\n" || res.Changed != 1 {
		t.Errorf("result = %+v", res)
	}

	w = do(t, router, http.MethodGet, "/outline/t.md", nil)
	var outline OutlineResponse
	_ = json.Unmarshal(w.Body.Bytes(), &outline)
	if len(outline.Headings) != 1 {
		t.Errorf("outline after write = %+v", outline)
	}

	bad := map[string]any{"ops": []map[string]any{{"type": "prune", "where": "kind =="}}}
	if w := do(t, router, http.MethodPost, "/transform/t.md", bad); w.Code != http.StatusBadRequest {
		t.Errorf("bad expression = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/transform/t.md", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("no ops = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := do(t, router, http.MethodPost, "/docs", map[string]string{"path": "auth.md", "content": "test"},
		"Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/docs", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/docs", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/docs", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

type blockingSSE struct{}

func (blockingSSE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	<-r.Context().Done()
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvFull(t, true, "secret", blockingSSE{})
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvFull(t, true, "tok", blockingSSE{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
