// Package mcp exposes an editor session to AI agents as Model Context
// Protocol tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pagedit/internal/editor"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that edits one page.
type Server struct {
	ed      *editor.Editor
	saveDir string
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server for ed. save_page writes into saveDir.
func NewServer(ed *editor.Editor, saveDir string) *Server {
	s := &Server{
		ed:      ed,
		saveDir: saveDir,
	}

	s.mcp = server.NewMCPServer(
		"pagedit",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listProductsTool, s.handleListProducts)
	s.mcp.AddTool(listTextsTool, s.handleListTexts)
	s.mcp.AddTool(setTextTool, s.handleSetText)
	s.mcp.AddTool(deleteTextTool, s.handleDeleteText)
	s.mcp.AddTool(listSectionsTool, s.handleListSections)
	s.mcp.AddTool(deleteSectionTool, s.handleDeleteSection)
	s.mcp.AddTool(setProductNameTool, s.handleSetProductName)
	s.mcp.AddTool(addProductTool, s.handleAddProduct)
	s.mcp.AddTool(addPhotoTool, s.handleAddPhoto)
	s.mcp.AddTool(deletePhotoTool, s.handleDeletePhoto)
	s.mcp.AddTool(navigateTool, s.handleNavigate)
	s.mcp.AddTool(scalePhotoTool, s.handleScalePhoto)
	s.mcp.AddTool(savePageTool, s.handleSavePage)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
