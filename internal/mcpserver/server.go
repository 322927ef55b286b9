// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mdtree tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/docservice"
	"github.com/starford/mdtree/internal/index"
	"github.com/starford/mdtree/internal/transform"
)

const (
	contractURI  = "mdtree://transform-contract"
	defaultLimit = 20
)

// Server wraps the MCP server with mdtree tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all mdtree tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"mdtree",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	formats := mcp.Enum(docservice.FormatSource, transform.FormatCommonMark, transform.FormatXML)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a Markdown document from the workspace. "+
			"Returns the content in the requested format together with its title, "+
			"tags, outline, links, backlinks and checksum."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/doc.md)")),
		mcp.WithString("format", formats, mcp.Description("source (default), commonmark or xml")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new Markdown document at the specified path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new document (must end with .md or .markdown)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("UTF-8 Markdown content")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("update_document",
		mcp.WithDescription("Replace the content of an existing document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New UTF-8 Markdown content")),
		mcp.WithString("if_match", mcp.Description("Checksum the stored document must have; the update fails otherwise")),
	), s.updateDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documents, optionally restricted to a folder or a tag."),
		mcp.WithString("prefix", mcp.Description("Optional path prefix (e.g. projects/)")),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of documents (default 100)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document content, titles and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("outline_document",
		mcp.WithDescription("Return the heading outline of a document with levels and line numbers."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document")),
	), s.outlineDocument)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Parse a Markdown snippet and render it as normalised CommonMark or CommonMark XML. "+
			"Nothing is written to the workspace."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown source")),
		mcp.WithString("format", mcp.Enum(transform.FormatCommonMark, transform.FormatXML),
			mcp.Description("commonmark or xml (server default when omitted)")),
	), s.renderMarkdown)

	s.mcp.AddTool(mcp.NewTool("transform_document",
		mcp.WithDescription("Apply tree operations to a document body: case changes, pruning by "+
			"heading level or by expression, appending Markdown. Previews by default. "+
			"Read the contract first via get_transform_contract or the "+contractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document")),
		mcp.WithArray("ops", mcp.Required(),
			mcp.Description("Operations applied in order, e.g. [{\"type\":\"upper\"}]"),
			mcp.Items(map[string]any{"type": "object"})),
		mcp.WithString("format", mcp.Enum(transform.FormatCommonMark, transform.FormatXML),
			mcp.Description("Output format of the preview")),
		mcp.WithBoolean("write", mcp.Description("Replace the stored document with the result")),
		mcp.WithString("if_match", mcp.Description("Checksum the stored document must have when writing")),
	), s.transformDocument)

	s.mcp.AddTool(mcp.NewTool("get_transform_contract",
		mcp.WithDescription("Returns the transform operations and expression variables accepted by transform_document."),
	), s.getTransformContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Transform Contract",
			mcp.WithResourceDescription("Operations and predicate expressions accepted by transform_document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Get(ctx, path, req.GetString("format", ""))
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(d)
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Create(ctx, path, []byte(content))
	if err != nil {
		return toolError(path, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (checksum %s)", d.Path, d.Checksum)), nil
}

func (s *Server) updateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Update(ctx, path, []byte(content), req.GetString("if_match", ""))
	if err != nil {
		return toolError(path, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (checksum %s)", d.Path, d.Checksum)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.List(ctx, index.ListOptions{
		Prefix: req.GetString("prefix", ""),
		Tag:    req.GetString("tag", ""),
		Limit:  req.GetInt("limit", 100),
	})
	if err != nil {
		return toolError("", err), nil
	}
	return jsonResult(map[string]any{"documents": items, "total": total})
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultLimit))
	if err != nil {
		return toolError("", err), nil
	}
	return jsonResult(hits)
}

func (s *Server) outlineDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	headings, err := s.svc.Outline(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(headings)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return jsonResult(bl)
}

func (s *Server) renderMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markdown, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.Render(ctx, markdown, req.GetString("format", ""))
	if err != nil {
		return toolError("", err), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) transformDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ops, err := decodeOps(req.GetArguments()["ops"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spec := transform.Spec{Ops: ops, Format: req.GetString("format", "")}
	res, err := s.svc.Transform(ctx, path, spec, req.GetBool("write", false), req.GetString("if_match", ""))
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(res)
}

func (s *Server) getTransformContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TransformContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     TransformContract,
		},
	}, nil
}

// decodeOps accepts the ops argument either as a JSON array or as a string
// holding one.
func decodeOps(raw any) ([]transform.Op, error) {
	if raw == nil {
		return nil, errors.New("required argument \"ops\" not found")
	}
	var data []byte
	if s, ok := raw.(string); ok {
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("ops: %w", err)
		}
	}
	var ops []transform.Op
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("ops must be an array of operations: %w", err)
	}
	return ops, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("document already exists: %s", path))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("checksum mismatch: %s was modified", path))
	}
	return mcp.NewToolResultError(err.Error())
}
