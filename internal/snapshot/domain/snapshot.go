package domain

import (
	"time"

	"areabutler_backend/internal/location"

	"github.com/google/uuid"
)

// Snapshot is a saved search result with its map configuration. Token is the
// unguessable public id used by the embeddable map.
type Snapshot struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Token              string
	IntegrationVendor  *string
	Location           location.Place
	SearchResponse     location.SearchResponse
	Config             *SnapshotConfig
	PreferredLocations []location.PreferredLocation
	Description        *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastAccessedAt     *time.Time
}

// ExportFormat is the output of a snapshot export.
type ExportFormat string

const (
	ExportPDF    ExportFormat = "PDF"
	ExportCSV    ExportFormat = "CSV"
	ExportTables ExportFormat = "TABLES"
)

// Export records a rendered file kept in object storage.
type Export struct {
	ID         uuid.UUID
	SnapshotID uuid.UUID
	Format     ExportFormat
	FileKey    string
	CreatedAt  time.Time
}
