package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

const (
	serverName        = "ailawyer"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// instructions is sent to clients when they connect.
const instructions = `Read-only access to the persons found in case documents.
Call search_persons to find people by name, tax code, address or contact details.
Person ids are unique within a case only: pass both case_id and person_id to
get_person_occurrences to see the pages that mention someone.
list_snapshots tells which documents have already been extracted.`

// Options configures the MCP server.
type Options struct {
	// Version is reported to clients during initialization (default "dev").
	Version string
}

// Server exposes the entity index to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates the MCP server and registers its tools and resources.
func NewServer(ports *Ports, opts Options) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(
			&mcp.Implementation{Name: serverName, Version: opts.Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client over stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP transport, for mounting on a router.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done,
// then shuts down, letting open requests finish for a few seconds.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// ListenAndServe only returns before Shutdown when it cannot listen.
	listenErr := make(chan error, 1)
	go func() { listenErr <- httpServer.ListenAndServe() }()
	logger.Info("MCP server listening on %s", addr)

	select {
	case err := <-listenErr:
		return fmt.Errorf("mcp listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcp shutdown: %w", err)
	}
	logger.Debug("MCP server stopped")
	return nil
}
