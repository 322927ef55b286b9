package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdtree/internal/docservice"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/transform"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"notes/hello.md"`
	Content string `json:"content" example:"# Hello\nWorld"`
}

// Validate validates the request.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" example:"# Updated\nContent"`
}

// Validate validates the request.
func (r UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// RenderRequest is the request body for stateless rendering.
type RenderRequest struct {
	Markdown string `json:"markdown" example:"*hi*"`
	Format   string `json:"format,omitempty" example:"xml"`
}

// Validate validates the request.
func (r RenderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Format, validation.In(transform.FormatCommonMark, transform.FormatXML)),
	)
}

// RenderResponse is returned by POST /render.
type RenderResponse struct {
	Output string `json:"output"`
	Format string `json:"format"`
}

// TransformRequest is the request body for POST /transform/*.
type TransformRequest struct {
	transform.Spec
	// Write replaces the document with the CommonMark result.
	Write bool `json:"write,omitempty"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int                `json:"total" example:"42"`
}

// OutlineResponse wraps the headings of a document.
type OutlineResponse struct {
	Path     string           `json:"path"`
	Headings []models.Heading `json:"headings"`
}

// BacklinksResponse wraps the links pointing at a document.
type BacklinksResponse struct {
	Path  string        `json:"path"`
	Links []models.Link `json:"links"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchHit `json:"results"`
}
