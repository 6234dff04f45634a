// Package stream defines the entity event source port and its adapters.
// A Source pushes EntityEvents into the dispatcher until its context is
// cancelled or the underlying feed ends.
package stream

import (
	"context"

	"github.com/turtacn/riskwatch/internal/domain/risk"
)

// EventHandler receives each decoded entity event.
type EventHandler func(ctx context.Context, ev risk.EntityEvent) error

// Source is a stream of entity events.
type Source interface {
	// Run blocks, delivering events to handler until ctx is cancelled.
	// Handler errors are the handler's own concern; Run keeps going.
	Run(ctx context.Context, handler EventHandler) error

	// Close releases underlying resources.
	Close() error
}

//Personal.AI order the ending
