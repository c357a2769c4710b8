// Package mcp provides an MCP (Model Context Protocol) server adapter for
// insightgen. It lets AI assistants inspect decks, submit processing jobs
// and follow them to completion.
package mcp

import "errors"

// ErrMissingJobOrchestrator is returned when the job orchestrator is not provided.
var ErrMissingJobOrchestrator = errors.New("mcp: job orchestrator is required")

// ErrMissingWorkflowService is returned when a service the job workflow
// depends on is not provided.
var ErrMissingWorkflowService = errors.New("mcp: session, intake, inspection and catalog services are required")
