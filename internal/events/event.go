// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"areabutler_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// ListingsImported is published after a CRM batch import finished,
// including batches where some records could not be mapped.
type ListingsImported struct {
	BaseEvent
	UserID    uuid.UUID `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Vendor    string    `json:"vendor"`
	Imported  int       `json:"imported"`
	FailedIDs []string  `json:"failedIds"`
}

func (e ListingsImported) EventName() string { return "realestate.listings.imported" }

// SnapshotExported is published when an export file was rendered and stored.
type SnapshotExported struct {
	BaseEvent
	SnapshotID uuid.UUID `json:"snapshotId"`
	UserID     uuid.UUID `json:"userId"`
	Format     string    `json:"format"`
	FileKey    string    `json:"fileKey"`
}

func (e SnapshotExported) EventName() string { return "snapshot.exported" }
