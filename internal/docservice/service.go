// Package docservice coordinates workspace storage, the index and the
// Markdown tree for the API and MCP layers.
package docservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/checksum"
	"github.com/starford/mdtree/internal/index"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/parser"
	"github.com/starford/mdtree/internal/storage"
	"github.com/starford/mdtree/internal/transform"
	"github.com/starford/mdtree/pkg/mdtree"
)

// FormatSource returns the stored bytes unchanged.
const FormatSource = "source"

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path        string           `json:"path"`
	Title       string           `json:"title"`
	Format      string           `json:"format"`
	Content     string           `json:"content"`
	Checksum    string           `json:"checksum"`
	Tags        []string         `json:"tags"`
	Frontmatter map[string]any   `json:"frontmatter,omitempty"`
	Headings    []models.Heading `json:"headings"`
	Links       []models.Link    `json:"links"`
	Backlinks   []models.Link    `json:"backlinks"`
	Size        int64            `json:"size"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransformResult is the outcome of Transform.
type TransformResult struct {
	Path    string `json:"path"`
	Output  string `json:"output"`
	Changed int    `json:"changed"`
	Diff    string `json:"diff,omitempty"`
	Written bool   `json:"written"`
	// Checksum is the checksum of the stored document after the call.
	Checksum string `json:"checksum"`
}

// Service coordinates storage and index operations.
type Service struct {
	store         storage.Provider
	db            index.DocumentIndex
	treeOpts      []mdtree.Option
	defaultFormat string
}

// Option configures a Service.
type Option func(*Service)

// WithTreeOptions passes opts to every tree the service parses.
func WithTreeOptions(opts ...mdtree.Option) Option {
	return func(s *Service) { s.treeOpts = append(s.treeOpts, opts...) }
}

// WithDefaultFormat sets the rendering used when a caller names none.
func WithDefaultFormat(format string) Option {
	return func(s *Service) {
		if format != "" {
			s.defaultFormat = format
		}
	}
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex, opts ...Option) *Service {
	s := &Service{store: store, db: db, defaultFormat: transform.FormatCommonMark}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads a document and returns it in the requested format: the stored
// source, its CommonMark normalisation or CommonMark XML.
func (s *Service) Get(_ context.Context, path, format string) (*DocumentDetail, error) {
	if format == "" {
		format = FormatSource
	}
	if err := checkFormat(format, true); err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	meta, err := s.store.Stat(path)
	if err != nil {
		return nil, err
	}
	d, err := s.detail(path, data, meta.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if format != FormatSource {
		_, body := parser.SplitFrontmatter(data)
		if d.Content, err = s.render(body, format); err != nil {
			return nil, err
		}
	}
	d.Format = format
	return d, nil
}

// Create writes a new document and indexes it.
func (s *Service) Create(_ context.Context, path string, content []byte) (*DocumentDetail, error) {
	if err := checkDocument(path, content); err != nil {
		return nil, err
	}
	if _, err := s.store.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, path)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return s.write(path, content)
}

// Update replaces a document. A non-empty ifMatch must equal the checksum of
// the stored content.
func (s *Service) Update(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	if err := checkDocument(path, content); err != nil {
		return nil, err
	}
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if err := matches(existing, ifMatch); err != nil {
		return nil, err
	}
	return s.write(path, content)
}

// Delete removes a document from storage and index.
func (s *Service) Delete(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.Delete(path)
}

// List returns a page of indexed documents.
func (s *Service) List(_ context.Context, opts index.ListOptions) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(opts)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			Size:      r.Size,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Outline returns the indexed headings of a document.
func (s *Service) Outline(_ context.Context, path string) ([]models.Heading, error) {
	return s.db.Outline(path)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalidFormat)
	}
	hits, err := s.db.Search(query, limit)
	return nonNilSlice(hits), err
}

// Backlinks returns the links that point at path.
func (s *Service) Backlinks(_ context.Context, path string) ([]models.Link, error) {
	bl, err := s.db.Backlinks(path)
	return nonNilSlice(bl), err
}

// Transform applies spec to the body of a stored document. Frontmatter is
// kept as is. With write set the CommonMark result replaces the document,
// subject to ifMatch like Update.
func (s *Service) Transform(_ context.Context, path string, spec transform.Spec, write bool, ifMatch string) (*TransformResult, error) {
	if spec.Format == "" {
		spec.Format = s.defaultFormat
	}
	if write && spec.Format != transform.FormatCommonMark {
		return nil, fmt.Errorf("%w: only commonmark output can be written back", apperr.ErrInvalidFormat)
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if err := matches(data, ifMatch); err != nil {
		return nil, err
	}

	front, body := parser.SplitFrontmatter(data)
	res, err := transform.Apply(body, spec, s.treeOpts...)
	if err != nil {
		return nil, err
	}
	out := &TransformResult{
		Path:     path,
		Output:   res.Output,
		Changed:  res.Changed,
		Diff:     res.Diff,
		Checksum: checksum.Sum(data),
	}
	if !write {
		return out, nil
	}

	updated := []byte(front + res.Output)
	if bytes.Equal(updated, data) {
		return out, nil
	}
	d, err := s.write(path, updated)
	if err != nil {
		return nil, err
	}
	out.Written = true
	out.Checksum = d.Checksum
	return out, nil
}

// Render parses markdown and renders it without touching the workspace.
func (s *Service) Render(_ context.Context, markdown, format string) (string, error) {
	if format == "" {
		format = s.defaultFormat
	}
	if err := checkFormat(format, false); err != nil {
		return "", err
	}
	if err := checkContent([]byte(markdown)); err != nil {
		return "", err
	}
	return s.render(markdown, format)
}

func (s *Service) render(markdown, format string) (string, error) {
	doc, err := mdtree.Parse(markdown, s.treeOpts...)
	if err != nil {
		return "", fmt.Errorf("docservice: parse: %w", err)
	}
	defer doc.Close()
	if format == transform.FormatXML {
		return doc.RenderXML()
	}
	return doc.RenderCommonMark()
}

func (s *Service) write(path string, content []byte) (*DocumentDetail, error) {
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := index.IndexDocument(s.db, path, content, now); err != nil {
		return nil, fmt.Errorf("docservice: index %s: %w", path, err)
	}
	d, err := s.detail(path, content, now)
	if err != nil {
		return nil, err
	}
	d.Format = FormatSource
	return d, nil
}

// detail builds a DocumentDetail from raw data without re-reading the file.
func (s *Service) detail(path string, data []byte, updated time.Time) (*DocumentDetail, error) {
	res, err := parser.Parse(data, s.treeOpts...)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Headings:    nonNilSlice(res.Headings),
		Links:       nonNilSlice(index.Links(path, res)),
		Backlinks:   nonNilSlice(bl),
		Size:        int64(len(data)),
		UpdatedAt:   updated,
	}, nil
}

func matches(existing []byte, ifMatch string) error {
	if ifMatch == "" {
		return nil
	}
	if checksum.FromETag(ifMatch) != checksum.Sum(existing) {
		return apperr.ErrConflict
	}
	return nil
}

func checkFormat(format string, allowSource bool) error {
	switch format {
	case transform.FormatCommonMark, transform.FormatXML:
		return nil
	case FormatSource:
		if allowSource {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown format %q", apperr.ErrInvalidFormat, format)
}

func checkDocument(path string, content []byte) error {
	if !storage.IsMarkdown(path) {
		return fmt.Errorf("%w: %s is not a Markdown path", apperr.ErrInvalidFormat, path)
	}
	return checkContent(content)
}

// checkContent rejects input the tree cannot hold as text.
func checkContent(content []byte) error {
	if !utf8.Valid(content) {
		return fmt.Errorf("%w: content is not valid UTF-8", apperr.ErrInvalidFormat)
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return fmt.Errorf("%w: content contains a NUL byte", apperr.ErrInvalidFormat)
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// DefaultFormat returns the rendering used when a caller names none.
func (s *Service) DefaultFormat() string { return s.defaultFormat }
