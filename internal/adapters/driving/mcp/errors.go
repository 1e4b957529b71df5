// Package mcp provides an MCP (Model Context Protocol) server adapter for ZeroSignal.
// It lets AI assistants browse the pack catalog, search packs and read pack chunks.
package mcp

import "errors"

// ErrMissingService is returned when a required driving port is not provided.
var ErrMissingService = errors.New("mcp: catalog and download services are required")
