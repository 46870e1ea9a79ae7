// Package mcp exposes the question answering service to AI assistants over
// the Model Context Protocol.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
