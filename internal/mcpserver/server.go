// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes tagfile tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tagfile/internal/apperr"
	"github.com/starford/tagfile/internal/gallery"
)

const contractURI = "tagfile://naming-contract"

// Server wraps the MCP server with tagfile tools.
type Server struct {
	mcp *server.MCPServer
	svc *gallery.Service
}

// New creates a new MCP server with all tagfile tools registered.
// svc should already be loaded.
func New(svc *gallery.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"tagfile",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_filename",
		mcp.WithDescription("Parse a file name into base, extension, tags and conformance. Does not touch the folder."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name, e.g. 'beach - [sea, sun] - 1000.jpg'")),
	), s.parseFilename)

	s.mcp.AddTool(mcp.NewTool("check_filename",
		mcp.WithDescription("Report whether a file exists in the gallery, its metadata and checksum."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name inside the gallery folder")),
	), s.checkFilename)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("Tag frequency table of the gallery, most used first. Reuse these tags where they fit."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("list_untagged",
		mcp.WithDescription("List files whose names do not follow the tag grammar yet."),
	), s.listUntagged)

	s.mcp.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Substring search over indexed file names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchFiles)

	s.mcp.AddTool(mcp.NewTool("compose_name",
		mcp.WithDescription("Compose the counter-less new name for a file and a tag set. Tags are sorted."),
		mcp.WithString("current", mcp.Required(), mcp.Description("Current file name")),
		mcp.WithArray("tags", mcp.Required(), mcp.WithStringItems(), mcp.Description("Tags to apply")),
	), s.composeName)

	s.mcp.AddTool(mcp.NewTool("preview_rename",
		mcp.WithDescription("Show the final collision-free name a rename would produce, without renaming."),
		mcp.WithString("current", mcp.Required(), mcp.Description("Current file name")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags to apply; ignored when new_base is set")),
		mcp.WithString("new_base", mcp.Description("Explicit counter-less new name")),
	), s.previewRename)

	s.mcp.AddTool(mcp.NewTool("rename_file",
		mcp.WithDescription("Rename a file to its new tags plus the lowest free counter. "+
			"Read the naming contract first via get_naming_contract or the "+contractURI+" resource."),
		mcp.WithString("current", mcp.Required(), mcp.Description("Current file name")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags to apply; ignored when new_base is set")),
		mcp.WithString("new_base", mcp.Description("Explicit counter-less new name")),
		mcp.WithBoolean("force", mcp.Description("Accept names over the length limits")),
	), s.renameFile)

	s.mcp.AddTool(mcp.NewTool("get_naming_contract",
		mcp.WithDescription("Returns the tagfile naming contract. "+
			"Call this before renaming files to ensure correct structure."),
	), s.getNamingContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Naming Contract",
			mcp.WithResourceDescription("Filename grammar that every tagged image follows."),
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// newBaseArg returns new_base when given, otherwise the name composed
// from the tags argument. An empty tags array clears every tag; a missing
// one yields "".
func newBaseArg(req mcp.CallToolRequest, current string) string {
	if nb := strings.TrimSpace(req.GetString("new_base", "")); nb != "" {
		return nb
	}
	if _, ok := req.GetArguments()["tags"]; !ok {
		return ""
	}
	return gallery.ComposeFor(current, req.GetStringSlice("tags", []string{}))
}

func (s *Server) parseFilename(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(gallery.Describe(name))
}

func (s *Server) checkFilename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.File(ctx, name)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + name), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail)
}

func (s *Server) listTags(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Tags())
}

func (s *Server) listUntagged(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var names []string
	for _, name := range s.svc.Snapshot().Files {
		if !gallery.Describe(name).Conformant {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("every file is tagged"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) searchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) composeName(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := req.RequireString("current")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := req.RequireStringSlice("tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(gallery.ComposeFor(current, tags)), nil
}

func (s *Server) previewRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := req.RequireString("current")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newBase := newBaseArg(req, current)
	if newBase == "" {
		return mcp.NewToolResultError("tags or new_base is required"), nil
	}
	return jsonResult(s.svc.Preview(ctx, current, newBase))
}

func (s *Server) renameFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := req.RequireString("current")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Rename(ctx, gallery.RenameRequest{
		Current: current,
		NewBase: newBaseArg(req, current),
		Force:   req.GetBool("force", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getNamingContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NamingContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NamingContract,
		},
	}, nil
}
