package persistence

import (
	"errors"
	"strings"
	"time"

	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// aggregateRoot rebuilds the embedded aggregate state when hydrating
// an entity from a database row
func aggregateRoot(id uuid.UUID, version int, createdAt, updatedAt time.Time) shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        id,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		Version: version,
	}
}

func baseEntity(id uuid.UUID, createdAt, updatedAt time.Time) shared.BaseEntity {
	return shared.BaseEntity{
		ID:        id,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// isDuplicateKeyError detects unique constraint violations across the
// drivers we run against (postgres in production, sqlite in tests)
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

func validateSortOrder(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}
