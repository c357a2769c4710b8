package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for insightgen resources.
	uriScheme = "insightgen://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "generators",
		Name:        "generators",
		Description: "Generation profiles offered by the analysis service",
		MIMEType:    "application/json",
	}, s.handleGeneratorsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "jobs/{jobId}",
		Name:        "job",
		Description: "Last known state of the tracked job",
		MIMEType:    "application/json",
	}, s.handleJobResource)
}

// handleGeneratorsResource returns the generator catalog.
func (s *Server) handleGeneratorsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Catalog.List(ctx))
}

// handleJobResource returns the tracked job if its id matches the URI.
// It reports the last snapshot without contacting the service.
func (s *Server) handleJobResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	jobID := extractJobID(req.Params.URI)
	job, ok := s.ports.Jobs.Snapshot()
	if jobID == "" || !ok || job.ID != jobID {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, s.jobOutput(job, nil))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractJobID extracts the job ID from a URI like insightgen://jobs/{jobId}.
func extractJobID(uri string) string {
	const prefix = uriScheme + "jobs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
