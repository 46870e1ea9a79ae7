// Package tui provides an interactive terminal chat over the indexed
// passages. It is a driving adapter: every answer comes from the ports.
package tui

import (
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Collection reports collection size in the status bar. Optional.
	Collection driving.CollectionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
