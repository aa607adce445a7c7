// Package common provides shared helpers for MCP tool implementations:
// argument parsing, the instrumented handler wrapper and error rendering.
package common
