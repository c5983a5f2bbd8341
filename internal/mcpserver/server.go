// Package mcpserver implements L12: the Model Context Protocol server that
// exposes semantic search over the ingested corpus to an LLM. It wraps
// mcp-golang's stdio transport the way the teacher's MCP servers do, one
// RegisterTool per exposed tool, but the tools themselves search Qdrant and
// format results rather than touching the local filesystem or shell.
package mcpserver

import (
	"context"
	"fmt"

	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"

	"governmentreporter/internal/config"
	"governmentreporter/internal/embedding"
	"governmentreporter/internal/govapi"
	"governmentreporter/internal/observability"
	"governmentreporter/internal/queryformat"
	"governmentreporter/internal/vectorstore"
)

// ScotusCollection and EOCollection key the Deps.Stores map.
const (
	ScotusCollection = "supreme_court_opinions"
	EOCollection     = "executive_orders"
)

// Deps wires every backend a tool handler needs: one Store per collection,
// a query embedder, the upstream API clients (for full_document retrieval),
// and a Formatter for rendering results as markdown.
type Deps struct {
	Config          config.MCPConfig
	Embedder        embedding.Generator
	Formatter       *queryformat.Formatter
	Stores          map[string]*vectorstore.Store
	CourtListener   *govapi.CourtListenerClient
	FederalRegister *govapi.FederalRegisterClient
}

// Server is a GovernmentReporter MCP server bound to one set of Deps.
type Server struct {
	deps   Deps
	server *mcp.Server
}

// New builds a Server over stdio and registers every tool. ctx is only used
// for logging during registration; the blocking serve loop that follows
// takes its own background context (mcp-golang's Serve has no per-request
// context parameter to thread one through).
func New(ctx context.Context, deps Deps) (*Server, error) {
	if deps.Formatter == nil {
		f, err := queryformat.New(1000)
		if err != nil {
			return nil, err
		}
		deps.Formatter = f
	}

	transport := stdio.NewStdioServerTransport()
	srv := mcp.NewServer(transport)

	s := &Server{deps: deps, server: srv}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	observability.LoggerWithTrace(ctx).Info().
		Str("server_name", deps.Config.ServerName).
		Str("server_version", deps.Config.ServerVersion).
		Msg("mcp_server_initialized")
	return s, nil
}

// Serve blocks, handling MCP requests over stdio until the transport closes.
// Per the protocol, nothing but JSON-RPC may ever reach stdout — all
// logging here goes through the file-backed zerolog logger InitLogger sets
// up, never log.Print or fmt.Println.
func (s *Server) Serve() error {
	return s.server.Serve()
}

func (d Deps) store(collection string) (*vectorstore.Store, error) {
	st, ok := d.Stores[collection]
	if !ok || st == nil {
		return nil, fmt.Errorf("collection %q is not configured", collection)
	}
	return st, nil
}

func (d Deps) limit(requested int) int {
	if requested <= 0 {
		requested = d.Config.DefaultLimit
	}
	if d.Config.MaxLimit > 0 && requested > d.Config.MaxLimit {
		requested = d.Config.MaxLimit
	}
	if requested <= 0 {
		requested = 10
	}
	return requested
}
