package audit

import (
	"context"

	"github.com/google/uuid"
)

// LogRepository defines the interface for audit log persistence
type LogRepository interface {
	// Create appends an audit entry
	Create(ctx context.Context, entry *LogEntry) error

	// FindByUser returns a user's entries, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*LogEntry, int64, error)

	// FindAll returns entries, newest first, with pagination
	FindAll(ctx context.Context, page, pageSize int) ([]*LogEntry, int64, error)

	// DeleteByUser removes all entries of a user (account cascade)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
