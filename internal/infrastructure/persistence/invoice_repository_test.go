package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/ecopower/backend/internal/domain/billing"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInvoiceRepository_CreateAndMarkBilled(t *testing.T) {
	db := setupTestDB(t)
	invoices := NewGormInvoiceRepository(db)
	consumptions := NewGormConsumptionRepository(db)
	ctx := context.Background()

	residentID := uuid.New()
	houseID := uuid.New()

	reading := newTestReading(t, residentID, houseID, 100, 150, 5, 2026)
	require.NoError(t, consumptions.CreateWithinQuota(ctx, reading))

	newInvoiceFor := func(t *testing.T, seq int64) *billing.Invoice {
		t.Helper()
		inv, err := billing.NewInvoice(
			billing.FormatInvoiceNumber(seq),
			residentID, houseID, reading.ID,
			5, 2026,
			reading.KwhConsumed, reading.TariffKwh,
			decimal.NewFromInt(2),
		)
		require.NoError(t, err)
		return inv
	}

	t.Run("creates the invoice and flips the billed flag", func(t *testing.T) {
		inv := newInvoiceFor(t, 1)
		require.NoError(t, invoices.CreateAndMarkBilled(ctx, inv))

		stored, err := consumptions.FindByID(ctx, reading.ID)
		require.NoError(t, err)
		assert.True(t, stored.Billed)

		found, err := invoices.FindByConsumption(ctx, reading.ID)
		require.NoError(t, err)
		assert.Equal(t, "FAC-000001", found.Number)
		assert.Equal(t, billing.InvoiceStatusPending, found.Status)
	})

	t.Run("second invoice for the same reading is refused", func(t *testing.T) {
		dup := newInvoiceFor(t, 2)
		err := invoices.CreateAndMarkBilled(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		count, err := invoices.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown reading aborts without writing", func(t *testing.T) {
		ghost, err := billing.NewInvoice(
			billing.FormatInvoiceNumber(3),
			residentID, houseID, uuid.New(),
			5, 2026,
			decimal.NewFromInt(10), decimal.NewFromFloat(0.1740),
			decimal.Zero,
		)
		require.NoError(t, err)

		err = invoices.CreateAndMarkBilled(ctx, ghost)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_QueriesAndStats(t *testing.T) {
	db := setupTestDB(t)
	invoices := NewGormInvoiceRepository(db)
	consumptions := NewGormConsumptionRepository(db)
	ctx := context.Background()

	residentID := uuid.New()
	houseID := uuid.New()

	seed := func(t *testing.T, seq int64, month int) *billing.Invoice {
		t.Helper()
		reading := newTestReading(t, residentID, houseID, 0, 100, month, 2026)
		require.NoError(t, consumptions.CreateWithinQuota(ctx, reading))

		inv, err := billing.NewInvoice(
			billing.FormatInvoiceNumber(seq),
			residentID, houseID, reading.ID,
			month, 2026,
			reading.KwhConsumed, reading.TariffKwh,
			decimal.NewFromInt(2),
		)
		require.NoError(t, err)
		require.NoError(t, invoices.CreateAndMarkBilled(ctx, inv))
		return inv
	}

	first := seed(t, 1, 1)
	second := seed(t, 2, 2)

	t.Run("FindByNumber", func(t *testing.T) {
		found, err := invoices.FindByNumber(ctx, "FAC-000002")
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)
	})

	t.Run("MarkPaid persists through Update", func(t *testing.T) {
		inv, err := invoices.FindByID(ctx, first.ID)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPaid())
		require.NoError(t, invoices.Update(ctx, inv))

		stored, err := invoices.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPaid, stored.Status)
		assert.NotNil(t, stored.PaidAt)
	})

	t.Run("status filter", func(t *testing.T) {
		pending, total, err := invoices.FindByResident(ctx, residentID,
			billing.NewInvoiceFilter().WithStatus(billing.InvoiceStatusPending))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].ID)
	})

	t.Run("FindDueBefore only returns pending past due", func(t *testing.T) {
		due, err := invoices.FindDueBefore(ctx, time.Now())
		require.NoError(t, err)
		assert.Empty(t, due)

		due, err = invoices.FindDueBefore(ctx, time.Now().AddDate(0, 0, billing.PaymentTermDays+1))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, second.ID, due[0].ID)
	})

	t.Run("Stats aggregates by status", func(t *testing.T) {
		stats, err := invoices.StatsByResident(ctx, residentID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Count)
		assert.Equal(t, int64(1), stats.Paid)
		assert.Equal(t, int64(1), stats.Pending)
		assert.True(t, stats.TotalCollected.Equal(first.AmountTotal))
		assert.True(t, stats.TotalOutstanding.Equal(second.AmountTotal))
	})
}

func TestGormSequenceAllocator(t *testing.T) {
	db := setupTestDB(t)
	allocator := NewGormSequenceAllocator(db)
	ctx := context.Background()

	t.Run("values are strictly increasing from one", func(t *testing.T) {
		for want := int64(1); want <= 5; want++ {
			got, err := allocator.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("formatting pads to six digits", func(t *testing.T) {
		seq, err := allocator.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "FAC-000006", billing.FormatInvoiceNumber(seq))
	})
}
