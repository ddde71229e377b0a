package mcp

import (
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Entities answers person, occurrence and snapshot queries.
	Entities driving.EntityService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Entities == nil {
		return ErrMissingEntityService
	}
	return nil
}
