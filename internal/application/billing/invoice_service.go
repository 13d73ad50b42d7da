package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "github.com/ecopower/backend/internal/domain/billing"
	"github.com/ecopower/backend/internal/domain/housing"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/metering"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
)

// InvoiceService handles invoice generation and payment tracking
type InvoiceService struct {
	invoices      domain.InvoiceRepository
	sequence      domain.SequenceAllocator
	readings      metering.ConsumptionRepository
	houses        housing.HouseRepository
	users         identity.UserRepository
	authorizer    identity.Authorizer
	dispatcher    *notify.Dispatcher
	notifications messaging.NotificationRepository
	collector     *metrics.Collector
	defaultTariff decimal.Decimal
	defaultFees   decimal.Decimal
	logger        *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoices domain.InvoiceRepository,
	sequence domain.SequenceAllocator,
	readings metering.ConsumptionRepository,
	houses housing.HouseRepository,
	users identity.UserRepository,
	authorizer identity.Authorizer,
	dispatcher *notify.Dispatcher,
	notifications messaging.NotificationRepository,
	collector *metrics.Collector,
	defaultTariff decimal.Decimal,
	defaultFees decimal.Decimal,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:      invoices,
		sequence:      sequence,
		readings:      readings,
		houses:        houses,
		users:         users,
		authorizer:    authorizer,
		dispatcher:    dispatcher,
		notifications: notifications,
		collector:     collector,
		defaultTariff: defaultTariff,
		defaultFees:   defaultFees,
		logger:        logger,
	}
}

// Generate issues the invoice for a resident's reading of one billing
// period. The amount is priced with the house tariff in force now, not
// the tariff frozen on the reading. Generating twice for the same
// reading fails with the existing invoice number in the error details.
func (s *InvoiceService) Generate(ctx context.Context, input GenerateInvoiceInput) (*InvoiceInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanManageResident(ctx, input.ResidentID)); err != nil {
		return nil, err
	}

	reading, err := s.readings.FindUnbilled(ctx, input.ResidentID, input.Month, input.Year)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, s.explainMissingReading(ctx, input)
		}
		return nil, err
	}

	house, err := s.houses.FindByID(ctx, reading.HouseID)
	if err != nil {
		return nil, err
	}
	tariff := house.EffectiveTariff(s.defaultTariff)

	fees := s.defaultFees
	if input.FixedFees != nil {
		fees = *input.FixedFees
	}

	seq, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, err
	}
	number := domain.FormatInvoiceNumber(seq)

	invoice, err := domain.NewInvoice(number, reading.ResidentID, reading.HouseID,
		reading.ID, reading.Month, reading.Year, reading.KwhConsumed, tariff, fees)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.CreateAndMarkBilled(ctx, invoice); err != nil {
		if err == shared.ErrAlreadyExists {
			return nil, s.duplicateError(ctx, reading.ID)
		}
		return nil, err
	}
	s.collector.RecordInvoiceIssued()

	s.notifyResident(ctx, invoice.ResidentID, messaging.KindInvoice,
		"New invoice "+invoice.Number,
		fmt.Sprintf("Your invoice of %s for %02d/%d is due on %s.",
			invoice.AmountTotal.StringFixed(2), invoice.Month, invoice.Year,
			invoice.DueDate.Format("2006-01-02")),
		map[string]string{"invoice_id": invoice.ID.String(), "number": invoice.Number},
	)

	s.logger.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("resident_id", invoice.ResidentID.String()),
		zap.String("amount", invoice.AmountTotal.String()),
	)

	info := NewInvoiceInfo(invoice)
	return &info, nil
}

// explainMissingReading distinguishes "nothing to bill" from "already
// billed" so the caller learns the conflicting invoice number
func (s *InvoiceService) explainMissingReading(ctx context.Context, input GenerateInvoiceInput) error {
	filter := domain.NewInvoiceFilter().WithPeriod(input.Month, input.Year)
	existing, _, err := s.invoices.FindByResident(ctx, input.ResidentID, filter)
	if err == nil && len(existing) > 0 {
		return shared.ErrAlreadyExists.WithDetails(map[string]interface{}{
			"invoice_number": existing[0].Number,
		})
	}
	return shared.NewDomainError("NO_READING", "No unbilled reading exists for this period")
}

func (s *InvoiceService) duplicateError(ctx context.Context, consumptionID uuid.UUID) error {
	if existing, err := s.invoices.FindByConsumption(ctx, consumptionID); err == nil {
		return shared.ErrAlreadyExists.WithDetails(map[string]interface{}{
			"invoice_number": existing.Number,
		})
	}
	return shared.ErrAlreadyExists
}

// notifyResident writes the in-app notification and attempts a push.
// Failures are logged and never surface to the billing operation.
func (s *InvoiceService) notifyResident(ctx context.Context, residentID uuid.UUID, kind messaging.NotificationKind, title, body string, data map[string]string) {
	n, err := messaging.NewNotification(residentID, kind, title, body)
	if err != nil {
		return
	}

	resident, err := s.users.FindByID(ctx, residentID)
	if err == nil {
		status := s.dispatcher.Push(ctx, resident, title, body, data)
		n.RecordDelivery(status)
		s.collector.RecordPushDelivery(string(status))
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("invoice notification failed", zap.Error(err))
	}
}

// Get returns one invoice
func (s *InvoiceService) Get(ctx context.Context, actorID, invoiceID uuid.UUID) (*InvoiceInfo, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, invoice.ResidentID)); err != nil {
		return nil, err
	}

	info := NewInvoiceInfo(invoice)
	return &info, nil
}

// GetByNumber returns one invoice by its printable number
func (s *InvoiceService) GetByNumber(ctx context.Context, actorID uuid.UUID, number string) (*InvoiceInfo, error) {
	invoice, err := s.invoices.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, invoice.ResidentID)); err != nil {
		return nil, err
	}

	info := NewInvoiceInfo(invoice)
	return &info, nil
}

// ListByResident returns a resident's invoices
func (s *InvoiceService) ListByResident(ctx context.Context, residentID uuid.UUID, input ListInvoicesInput) (*InvoiceList, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, residentID)); err != nil {
		return nil, err
	}

	filter := buildFilter(input)
	invoices, total, err := s.invoices.FindByResident(ctx, residentID, filter)
	if err != nil {
		return nil, err
	}
	return &InvoiceList{
		Invoices: toInvoiceInfos(invoices),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.Limit(),
	}, nil
}

// ListByHouse returns a house's invoices
func (s *InvoiceService) ListByHouse(ctx context.Context, houseID uuid.UUID, input ListInvoicesInput) (*InvoiceList, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewHouse(ctx, houseID)); err != nil {
		return nil, err
	}

	filter := buildFilter(input)
	invoices, total, err := s.invoices.FindByHouse(ctx, houseID, filter)
	if err != nil {
		return nil, err
	}
	return &InvoiceList{
		Invoices: toInvoiceInfos(invoices),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.Limit(),
	}, nil
}

// MarkPaid settles an invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, actorID, invoiceID uuid.UUID) (*InvoiceInfo, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanManageResident(ctx, invoice.ResidentID)); err != nil {
		return nil, err
	}

	if err := invoice.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, invoice); err != nil {
		return nil, err
	}
	s.collector.RecordInvoicePaid()

	s.notifyResident(ctx, invoice.ResidentID, messaging.KindPayment,
		"Payment recorded for "+invoice.Number,
		fmt.Sprintf("Your payment of %s has been recorded. Thank you.",
			invoice.AmountTotal.StringFixed(2)),
		map[string]string{"invoice_id": invoice.ID.String()},
	)

	info := NewInvoiceInfo(invoice)
	return &info, nil
}

// StatsByResident aggregates a resident's invoices
func (s *InvoiceService) StatsByResident(ctx context.Context, actorID, residentID uuid.UUID) (*domain.InvoiceStats, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := identity.Require(caps.CanViewResident(ctx, residentID)); err != nil {
		return nil, err
	}
	return s.invoices.StatsByResident(ctx, residentID)
}

// Stats aggregates all invoices. Admin only.
func (s *InvoiceService) Stats(ctx context.Context, actorID uuid.UUID) (*domain.InvoiceStats, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	return s.invoices.Stats(ctx)
}

// SweepOverdue flags pending invoices past their due date and notifies
// the residents. Returns how many invoices were flagged. Runs as a
// background job.
func (s *InvoiceService) SweepOverdue(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := s.invoices.FindDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, invoice := range due {
		if err := invoice.MarkOverdue(now); err != nil {
			continue
		}
		if err := s.invoices.Update(ctx, invoice); err != nil {
			s.logger.Error("overdue update failed",
				zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
			continue
		}
		flagged++

		s.notifyResident(ctx, invoice.ResidentID, messaging.KindInvoice,
			"Invoice "+invoice.Number+" is overdue",
			fmt.Sprintf("Your invoice of %s was due on %s. Please settle it as soon as possible.",
				invoice.AmountTotal.StringFixed(2), invoice.DueDate.Format("2006-01-02")),
			map[string]string{"invoice_id": invoice.ID.String()},
		)
	}
	return flagged, nil
}

func buildFilter(input ListInvoicesInput) domain.InvoiceFilter {
	filter := domain.NewInvoiceFilter().WithPagination(input.Page, input.PageSize)
	if input.Status != nil {
		filter = filter.WithStatus(domain.InvoiceStatus(*input.Status))
	}
	if input.Month != nil && input.Year != nil {
		filter = filter.WithPeriod(*input.Month, *input.Year)
	}
	return filter
}
