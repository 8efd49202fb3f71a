// Package mcp exposes the assistant as a Model Context Protocol server:
// a chat tool plus the tool catalog as a resource.
package mcp
