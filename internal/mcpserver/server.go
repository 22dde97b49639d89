package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

const instructions = `folio keeps a chapter/section/subsection outline with draft and final
contents per node. Address nodes by path ("1", "1.2", "1.2.1") as listed by outline_show.
Deleting requires confirm=true.`

// New builds the MCP server with every workspace tool registered.
func New(w *Workspace, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range w.Tools() {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
