// Package mcp provides an MCP (Model Context Protocol) server adapter for ailawyer.
// It lets AI assistants query the persons extracted from case documents.
package mcp

import "errors"

// ErrMissingEntityService is returned when the entity service is not provided.
var ErrMissingEntityService = errors.New("mcp: entity service is required")
