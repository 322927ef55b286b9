package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdtree/internal/checksum"
	"github.com/starford/mdtree/internal/docservice"
	"github.com/starford/mdtree/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	svc     *docservice.Service
	maxBody int64
}

// NewHandler creates a new Handler. maxBody <= 0 selects DefaultMaxBodyBytes.
func NewHandler(svc *docservice.Service, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{svc: svc, maxBody: maxBody}
}

// docPath extracts the document path from the wildcard part of the URL.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fdoc.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// decode reads a size-limited JSON body into v and runs its Validate method
// when it has one. It writes the 400 response itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if val, ok := v.(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return false
		}
	}
	return true
}

func requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := docPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return "", false
	}
	return p, true
}

func writeDocument(w http.ResponseWriter, status int, d *DocumentDetail) {
	w.Header().Set("ETag", checksum.ETag(d.Checksum))
	writeJSON(w, status, d)
}

// ListDocuments handles GET /docs.
//
//	@Summary	List documents with optional pagination and filtering
//	@Param		limit	query	int		false	"Page size"
//	@Param		offset	query	int		false	"Page offset"
//	@Param		tag		query	string	false	"Filter by tag"
//	@Param		prefix	query	string	false	"Filter by directory"
//	@Param		sort	query	string	false	"Sort field"	Enums(path, title, updated)
//	@Success	200		{object}	DocumentListResponse
//	@Router		/docs [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), index.ListOptions{
		Limit:  limit,
		Offset: offset,
		Tag:    q.Get("tag"),
		Prefix: q.Get("prefix"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /docs/*.
//
//	@Summary	Get a document, optionally normalised or as CommonMark XML
//	@Param		path	path	string	true	"Document path"
//	@Param		format	query	string	false	"Content format"	Enums(source, commonmark, xml)
//	@Success	200		{object}	DocumentDetail
//	@Failure	404		{object}	errResponse
//	@Router		/docs/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), path, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "get document", err, slog.String("path", path))
		return
	}
	writeDocument(w, http.StatusOK, d)
}

// CreateDocument handles POST /docs.
//
//	@Summary	Create a new document
//	@Param		body	body		CreateDocumentRequest	true	"Document to create"
//	@Success	201		{object}	DocumentDetail
//	@Failure	409		{object}	errResponse
//	@Router		/docs [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.svc.Create(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, "create document", err, slog.String("path", req.Path))
		return
	}
	writeDocument(w, http.StatusCreated, d)
}

// UpdateDocument handles PUT /docs/*.
//
//	@Summary	Update a document with optimistic concurrency
//	@Param		path		path	string					true	"Document path"
//	@Param		If-Match	header	string					false	"Checksum of the version being replaced"
//	@Param		body		body	UpdateDocumentRequest	true	"Updated content"
//	@Success	200			{object}	DocumentDetail
//	@Failure	409			{object}	errResponse
//	@Router		/docs/{path} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	var req UpdateDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.svc.Update(r.Context(), path, []byte(req.Content), r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update document", err, slog.String("path", path))
		return
	}
	writeDocument(w, http.StatusOK, d)
}

// DeleteDocument handles DELETE /docs/*.
//
//	@Summary	Delete a document
//	@Param		path	path	string	true	"Document path"
//	@Success	204		"Document deleted"
//	@Router		/docs/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), path); err != nil {
		writeError(w, "delete document", err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Outline handles GET /outline/*.
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	hs, err := h.svc.Outline(r.Context(), path)
	if err != nil {
		writeError(w, "outline", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{Path: path, Headings: hs})
}

// Backlinks handles GET /backlinks/*.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	links, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		writeError(w, "backlinks", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Path: path, Links: links})
}

// Search handles GET /search.
//
//	@Summary	Full-text search across documents
//	@Param		q		query	string	true	"Search query"
//	@Param		limit	query	int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// Render handles POST /render. Nothing is stored.
//
//	@Summary	Render Markdown as CommonMark or CommonMark XML
//	@Param		body	body		RenderRequest	true	"Markdown to render"
//	@Success	200		{object}	RenderResponse
//	@Router		/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.svc.Render(r.Context(), req.Markdown, req.Format)
	if err != nil {
		writeError(w, "render", err)
		return
	}
	format := req.Format
	if format == "" {
		format = h.svc.DefaultFormat()
	}
	writeJSON(w, http.StatusOK, RenderResponse{Output: out, Format: format})
}

// Transform handles POST /transform/*.
//
//	@Summary	Apply tree operations to a document, optionally writing it back
//	@Param		path		path	string				true	"Document path"
//	@Param		If-Match	header	string				false	"Checksum of the version being transformed"
//	@Param		body		body	TransformRequest	true	"Operations"
//	@Success	200			{object}	docservice.TransformResult
//	@Router		/transform/{path} [post]
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	var req TransformRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Transform(r.Context(), path, req.Spec, req.Write, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "transform", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	writeJSON(w, http.StatusOK, res)
}
