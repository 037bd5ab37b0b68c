// Package cmd implements the command-line interface for aligo-sms-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Running the binary without arguments is the same as running serve.
package cmd
