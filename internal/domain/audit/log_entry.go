package audit

import (
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Level classifies an audit entry
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// LogEntry is one persisted audit record. Written on security-relevant
// events: account lifecycle, destructive cascades, delivery fallbacks.
type LogEntry struct {
	shared.BaseEntity
	UserID  *uuid.UUID
	Level   Level
	Module  string
	Action  string
	Message string
	Meta    map[string]interface{}
}

// NewLogEntry creates an audit entry
func NewLogEntry(userID *uuid.UUID, level Level, module, action, message string, meta map[string]interface{}) *LogEntry {
	if level == "" {
		level = LevelInfo
	}
	return &LogEntry{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Level:      level,
		Module:     module,
		Action:     action,
		Message:    message,
		Meta:       meta,
	}
}

// Age returns how old the entry is
func (e *LogEntry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}
