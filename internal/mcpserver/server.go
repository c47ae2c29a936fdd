// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the vault engine as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/haldor/ansuz/internal/api"
	"github.com/haldor/ansuz/internal/tree"
)

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp *server.MCPServer
	svc *api.Service
}

// New creates a new MCP server with all vault tools registered.
func New(svc *api.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note content and filenames."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note in a folder. The note starts with a "+
			"templated title heading; read the format contract first via get_note_contract "+
			"or the ansuz://note-format resource."),
		mcp.WithString("folder", mcp.Description("Folder to create the note in (empty for the vault root)")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name; the .md extension is appended when absent")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("open_daily_note",
		mcp.WithDescription("Open (creating if needed) the daily note for a date."),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD (empty for today)")),
	), s.openDailyNote)

	s.mcp.AddTool(mcp.NewTool("list_tree",
		mcp.WithDescription("List the vault folder tree: directories first, note files only."),
	), s.listTree)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes containing a [[wikilink]] to the given note name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name without the .md extension")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every inline #tag used across the vault with its count."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("save_attachment",
		mcp.WithDescription("Store a base64-encoded file in the assets folder; colliding names "+
			"are de-duplicated. Returns the root-relative path to embed in note text."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Desired file name, e.g. photo.png")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded file content")),
	), s.saveAttachment)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. "+
			"Call this before creating notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, _ := s.svc.Search(query)
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.svc.OpenNote(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) createNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder := ""
	if f, fErr := req.RequireString("folder"); fErr == nil {
		folder = f
	}
	path, err := s.svc.CreateNote(folder, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) openDailyNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := time.Now()
	if d, dErr := req.RequireString("date"); dErr == nil && d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
		}
		date = parsed
	}
	dn, err := s.svc.OpenDailyNote(date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.Marshal(dn)
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTree(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	tree.Walk(s.svc.Tree(), func(n *tree.Node) bool {
		if n.IsDir {
			b.WriteString(n.Path + "/\n")
		} else {
			b.WriteString(n.Path + "\n")
		}
		return true
	})
	if b.Len() == 0 {
		return mcp.NewToolResultText("vault is empty"), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getBacklinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl := s.svc.Backlinks(name)
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	out, _ := json.MarshalIndent(bl, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTags(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags := s.svc.Tags()
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	out, _ := json.MarshalIndent(tags, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveAttachment(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError("data must be valid base64"), nil
	}
	path, err := s.svc.SaveAttachment(data, filename)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", path)), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
