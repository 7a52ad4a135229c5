// Package mcp implements the Model Context Protocol server for
// Confluence.
//
// The mcp package provides:
// - MCP server wiring over stdio and SSE transports
// - Tool definitions for search, spaces, pages, comments, and labels
// - Argument decoding and validation for incoming tool calls
package mcp
