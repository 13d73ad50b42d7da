package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOwner(t *testing.T) {
	t.Run("creates active owner with hashed password", func(t *testing.T) {
		u, err := NewOwner("Amina", "Diallo", "amina@example.com", "+22670000001", "secret123")
		require.NoError(t, err)

		assert.Equal(t, RoleOwner, u.Role)
		assert.True(t, u.Active)
		assert.NotEqual(t, "secret123", u.PasswordHash)
		assert.True(t, u.VerifyPassword("secret123"))
		assert.False(t, u.VerifyPassword("wrong"))
		assert.Equal(t, "Amina Diallo", u.FullName())
	})

	t.Run("requires email or phone", func(t *testing.T) {
		_, err := NewOwner("Amina", "Diallo", "", "", "secret123")
		assert.Error(t, err)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := NewOwner("Amina", "Diallo", "amina@example.com", "", "short")
		assert.Error(t, err)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewOwner("Amina", "Diallo", "not-an-email", "", "secret123")
		assert.Error(t, err)
	})

	t.Run("normalizes email to lowercase", func(t *testing.T) {
		u, err := NewOwner("Amina", "Diallo", "Amina@Example.COM", "", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "amina@example.com", u.Email)
	})
}

func TestNewResident(t *testing.T) {
	ownerID := uuid.New()
	houseID := uuid.New()

	t.Run("provisions resident with temp password and first login flag", func(t *testing.T) {
		u, err := NewResident(ownerID, houseID, "Issa", "Traore", "issa@example.com", "+22670000002", "temp1234")
		require.NoError(t, err)

		assert.Equal(t, RoleResident, u.Role)
		assert.True(t, u.FirstLogin)
		require.NotNil(t, u.OwnerID)
		assert.Equal(t, ownerID, *u.OwnerID)
		require.NotNil(t, u.HouseID)
		assert.Equal(t, houseID, *u.HouseID)
		assert.True(t, u.VerifyPassword("temp1234"))
	})

	t.Run("pre-provisioned for google holds no credential", func(t *testing.T) {
		u, err := NewResident(ownerID, houseID, "Issa", "Traore", "issa@example.com", "", "")
		require.NoError(t, err)

		assert.Equal(t, AuthMethodGoogle, u.AuthMethod)
		assert.False(t, u.HasCredential())
		assert.False(t, u.CanLogin())

		require.NoError(t, u.LinkGoogle("google-sub-123"))
		assert.True(t, u.HasCredential())
		assert.True(t, u.CanLogin())
	})

	t.Run("requires owner and house links", func(t *testing.T) {
		_, err := NewResident(uuid.Nil, houseID, "Issa", "Traore", "issa@example.com", "", "temp1234")
		assert.Error(t, err)

		_, err = NewResident(ownerID, uuid.Nil, "Issa", "Traore", "issa@example.com", "", "temp1234")
		assert.Error(t, err)
	})
}

func TestUser_Passwords(t *testing.T) {
	newResidentForTest := func(t *testing.T) *User {
		u, err := NewResident(uuid.New(), uuid.New(), "Issa", "Traore", "issa@example.com", "", "temp1234")
		require.NoError(t, err)
		return u
	}

	t.Run("set password clears first login flag", func(t *testing.T) {
		u := newResidentForTest(t)
		require.True(t, u.FirstLogin)

		require.NoError(t, u.SetPassword("chosen-pass-9"))
		assert.False(t, u.FirstLogin)
		assert.True(t, u.VerifyPassword("chosen-pass-9"))
	})

	t.Run("change password verifies the old one", func(t *testing.T) {
		u := newResidentForTest(t)
		assert.Error(t, u.ChangePassword("wrong", "new-pass-99"))
		require.NoError(t, u.ChangePassword("temp1234", "new-pass-99"))
		assert.True(t, u.VerifyPassword("new-pass-99"))
	})

	t.Run("temporary password re-arms the first login flag", func(t *testing.T) {
		u := newResidentForTest(t)
		require.NoError(t, u.SetPassword("chosen-pass-9"))
		require.NoError(t, u.IssueTemporaryPassword("temp-again-1"))
		assert.True(t, u.FirstLogin)
		assert.True(t, u.VerifyPassword("temp-again-1"))
	})
}

func TestUser_Sessions(t *testing.T) {
	u, err := NewOwner("Amina", "Diallo", "amina@example.com", "", "secret123")
	require.NoError(t, err)

	u.RotateRefreshToken("refresh-1")
	assert.Equal(t, "refresh-1", u.RefreshToken)

	u.RotateRefreshToken("refresh-2")
	assert.Equal(t, "refresh-2", u.RefreshToken)

	u.RotateRefreshToken("")
	assert.Empty(t, u.RefreshToken)

	u.SetDeviceToken("fcm-token")
	assert.Equal(t, "fcm-token", u.DeviceToken)
}

func TestUser_DetachHouse(t *testing.T) {
	u, err := NewResident(uuid.New(), uuid.New(), "Issa", "Traore", "issa@example.com", "", "temp1234")
	require.NoError(t, err)

	u.DetachHouse()
	assert.Nil(t, u.HouseID)
	assert.Nil(t, u.OwnerID)
}
