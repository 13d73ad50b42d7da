package persistence

import (
	"context"
	"testing"

	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	t.Run("Create and FindByID", func(t *testing.T) {
		owner, err := identity.NewOwner("Alice", "Martin", "alice@example.com", "0612345678", "password123")
		require.NoError(t, err)

		err = repo.Create(ctx, owner)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, found.ID)
		assert.Equal(t, "alice@example.com", found.Email)
		assert.Equal(t, identity.RoleOwner, found.Role)
		assert.True(t, found.Active)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		other, err := identity.NewOwner("Bob", "Martin", "alice@example.com", "0687654321", "password123")
		require.NoError(t, err)

		err = repo.Create(ctx, other)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("FindByIdentifier matches email or phone", func(t *testing.T) {
		byEmail, err := repo.FindByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)

		byPhone, err := repo.FindByIdentifier(ctx, "0612345678")
		require.NoError(t, err)
		assert.Equal(t, byEmail.ID, byPhone.ID)

		_, err = repo.FindByIdentifier(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Update persists mutations", func(t *testing.T) {
		user, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)

		user.SetDeviceToken("fcm-token-1")
		user.RotateRefreshToken("refresh-1")
		require.NoError(t, repo.Update(ctx, user))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "fcm-token-1", found.DeviceToken)
		assert.Equal(t, "refresh-1", found.RefreshToken)
	})

	t.Run("residents by owner and house", func(t *testing.T) {
		owner, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		houseID := uuid.New()

		resident, err := identity.NewResident(owner.ID, houseID, "Rita", "Lopez", "rita@example.com", "", "temp12345")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, resident))

		byOwner, err := repo.FindResidentsByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, byOwner, 1)
		assert.Equal(t, resident.ID, byOwner[0].ID)
		assert.True(t, byOwner[0].FirstLogin)

		byHouse, err := repo.FindResidentsByHouse(ctx, houseID)
		require.NoError(t, err)
		require.Len(t, byHouse, 1)
	})

	t.Run("CountByRole", func(t *testing.T) {
		owners, err := repo.CountByRole(ctx, identity.RoleOwner)
		require.NoError(t, err)
		assert.Equal(t, int64(1), owners)

		admins, err := repo.CountByRole(ctx, identity.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, int64(0), admins)
	})

	t.Run("FindAll filters by role and keyword", func(t *testing.T) {
		role := identity.RoleResident
		filter := identity.NewUserFilter()
		filter.Role = &role

		users, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "rita@example.com", users[0].Email)

		filter = identity.NewUserFilter().WithKeyword("lopez")
		users, total, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("Delete removes the account", func(t *testing.T) {
		user, err := repo.FindByEmail(ctx, "rita@example.com")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, user.ID))

		_, err = repo.FindByID(ctx, user.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		err = repo.Delete(ctx, user.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
