package housing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHouse(t *testing.T) {
	ownerID := uuid.New()

	t.Run("creates house with tariff", func(t *testing.T) {
		h, err := NewHouse(ownerID, "Villa Nord", "12 Rue des Acacias", "Ouagadougou", "MTR-001", decimal.NewFromFloat(0.1740))
		require.NoError(t, err)

		assert.Equal(t, ownerID, h.OwnerID)
		assert.True(t, h.HasTariff())
		assert.False(t, h.Occupied)
		assert.Len(t, h.GetDomainEvents(), 1)
	})

	t.Run("requires owner, name and address", func(t *testing.T) {
		_, err := NewHouse(uuid.Nil, "Villa", "Rue X", "", "", decimal.Zero)
		assert.Error(t, err)

		_, err = NewHouse(ownerID, "  ", "Rue X", "", "", decimal.Zero)
		assert.Error(t, err)

		_, err = NewHouse(ownerID, "Villa", "", "", "", decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects negative tariff", func(t *testing.T) {
		_, err := NewHouse(ownerID, "Villa", "Rue X", "", "", decimal.NewFromFloat(-0.1))
		assert.Error(t, err)
	})
}

func TestHouse_EffectiveTariff(t *testing.T) {
	ownerID := uuid.New()
	defaultTariff := decimal.NewFromFloat(0.1740)

	t.Run("house tariff wins when set", func(t *testing.T) {
		h, err := NewHouse(ownerID, "Villa", "Rue X", "", "", decimal.NewFromFloat(0.25))
		require.NoError(t, err)
		assert.True(t, h.EffectiveTariff(defaultTariff).Equal(decimal.NewFromFloat(0.25)))
	})

	t.Run("default applies when house has none", func(t *testing.T) {
		h, err := NewHouse(ownerID, "Villa", "Rue X", "", "", decimal.Zero)
		require.NoError(t, err)
		assert.False(t, h.HasTariff())
		assert.True(t, h.EffectiveTariff(defaultTariff).Equal(defaultTariff))
	})
}

func TestHouse_SetTariff(t *testing.T) {
	h, err := NewHouse(uuid.New(), "Villa", "Rue X", "", "", decimal.NewFromFloat(0.17))
	require.NoError(t, err)
	h.ClearDomainEvents()

	require.NoError(t, h.SetTariff(decimal.NewFromFloat(0.20)))
	assert.True(t, h.TariffKwh.Equal(decimal.NewFromFloat(0.20)))
	assert.Len(t, h.GetDomainEvents(), 1)

	assert.Error(t, h.SetTariff(decimal.NewFromFloat(-1)))
}
