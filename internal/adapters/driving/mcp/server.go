package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

const instructions = `Tools for the InsightGen analysis service.
Workflow: login (if the service requires it), inspect_files with the PPTX
and its PDF rendering, submit_job, then wait_for_job or job_status until
the job is completed, and download_result.`

// Server is the MCP server for insightgen.
type Server struct {
	ports   *Ports
	server  *mcp.Server
	version string
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if ports.PollInterval <= 0 {
		ports.PollInterval = domain.DefaultPollInterval
	}
	if version == "" {
		version = "dev"
	}

	impl := &mcp.Implementation{
		Name:    "insightgen",
		Version: version,
	}

	s := &Server{
		ports:   ports,
		server:  mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		version: version,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp server %s listening on stdio", s.version)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until the context
// is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	logger.Info("mcp server %s listening on %s", s.version, addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
