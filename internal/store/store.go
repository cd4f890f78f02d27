package store

import (
	"context"
	"time"

	"github.com/ridgeline-health/notegen/internal/model"
)

// AuditFilter specifies criteria for listing audit entries.
type AuditFilter struct {
	RequestType  string    `json:"request_type,omitempty"`
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for the generation pipeline.
// Settings, clients, and templates are owned by the practice-management
// platform; this service reads them fresh per request and owns only the
// audit log.
//
// Lookup methods return (nil, nil) when no matching row exists; callers
// decide whether absence is an error.
type Store interface {
	GetSettings(ctx context.Context) (*model.AISettings, error)
	GetClient(ctx context.Context, clientID string) (*model.Client, error)
	FindDefaultTemplate(ctx context.Context, noteType, noteFormat string) (*model.NoteTemplate, error)

	InsertAudit(ctx context.Context, entry model.AuditEntry) error
	ListAudit(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error)

	Migrate(ctx context.Context) error
	Close() error
}
