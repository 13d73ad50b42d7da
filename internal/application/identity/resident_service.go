package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecopower/backend/internal/domain/audit"
	"github.com/ecopower/backend/internal/domain/housing"
	domain "github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/messaging"
	"github.com/ecopower/backend/internal/domain/shared"
	"github.com/ecopower/backend/internal/infrastructure/notify"
)

// ResidentPurger removes a resident account with everything that hangs
// off it
type ResidentPurger interface {
	PurgeResident(ctx context.Context, residentID uuid.UUID) error
}

// ResidentService handles resident provisioning and lifecycle
type ResidentService struct {
	users         domain.UserRepository
	houses        housing.HouseRepository
	authorizer    domain.Authorizer
	dispatcher    *notify.Dispatcher
	notifications messaging.NotificationRepository
	auditLog      audit.LogRepository
	purger        ResidentPurger
	logger        *zap.Logger
}

// NewResidentService creates a new resident service
func NewResidentService(
	users domain.UserRepository,
	houses housing.HouseRepository,
	authorizer domain.Authorizer,
	dispatcher *notify.Dispatcher,
	notifications messaging.NotificationRepository,
	auditLog audit.LogRepository,
	purger ResidentPurger,
	logger *zap.Logger,
) *ResidentService {
	return &ResidentService{
		users:         users,
		houses:        houses,
		authorizer:    authorizer,
		dispatcher:    dispatcher,
		notifications: notifications,
		auditLog:      auditLog,
		purger:        purger,
		logger:        logger,
	}
}

// Add provisions a resident for a house. The temporary password is
// delivered out of band; a delivery failure never fails provisioning.
func (s *ResidentService) Add(ctx context.Context, input AddResidentInput) (*AddResidentResult, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := domain.Require(caps.CanManageHouse(ctx, input.HouseID)); err != nil {
		return nil, err
	}

	if input.Email != "" {
		exists, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
		}
	}
	if input.Phone != "" {
		exists, err := s.users.ExistsByPhone(ctx, input.Phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("PHONE_TAKEN", "An account with this phone already exists")
		}
	}

	house, err := s.houses.FindByID(ctx, input.HouseID)
	if err != nil {
		return nil, err
	}

	var tempPassword string
	if !input.ViaGoogle {
		tempPassword, err = GenerateTempPassword()
		if err != nil {
			return nil, err
		}
	}

	resident, err := domain.NewResident(house.OwnerID, house.ID,
		input.FirstName, input.LastName, input.Email, input.Phone, tempPassword)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, resident); err != nil {
		return nil, err
	}

	if !house.Occupied {
		house.MarkOccupied(true)
		if err := s.houses.Update(ctx, house); err != nil {
			s.logger.Error("occupancy update failed",
				zap.String("house_id", house.ID.String()), zap.Error(err))
		}
	}

	channel := "none"
	if !input.ViaGoogle {
		channel = string(s.dispatcher.DeliverCredentials(ctx, resident, tempPassword))
	}

	if n, err := messaging.NewNotification(resident.ID, messaging.KindResident,
		"Welcome to "+house.Name,
		"Your account has been created by the house owner."); err == nil {
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("welcome notification failed", zap.Error(err))
		}
	}

	s.logger.Info("resident provisioned",
		zap.String("resident_id", resident.ID.String()),
		zap.String("house_id", house.ID.String()),
		zap.String("credential_channel", channel),
	)

	return &AddResidentResult{
		Resident:          NewUserInfo(resident),
		CredentialChannel: channel,
	}, nil
}

// Get returns one resident's account view
func (s *ResidentService) Get(ctx context.Context, actorID, residentID uuid.UUID) (*UserInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := domain.Require(caps.CanViewResident(ctx, residentID)); err != nil {
		return nil, err
	}

	resident, err := s.users.FindByID(ctx, residentID)
	if err != nil {
		return nil, err
	}
	info := NewUserInfo(resident)
	return &info, nil
}

// ListByOwner returns the residents provisioned by the acting owner
func (s *ResidentService) ListByOwner(ctx context.Context, actorID uuid.UUID) ([]UserInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.Actor().IsOwner() && !caps.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	residents, err := s.users.FindResidentsByOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return toUserInfos(residents), nil
}

// ListByHouse returns the residents of one house
func (s *ResidentService) ListByHouse(ctx context.Context, actorID, houseID uuid.UUID) ([]UserInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := domain.Require(caps.CanViewHouse(ctx, houseID)); err != nil {
		return nil, err
	}

	residents, err := s.users.FindResidentsByHouse(ctx, houseID)
	if err != nil {
		return nil, err
	}
	return toUserInfos(residents), nil
}

// Update edits a resident's details, optionally moving it to another
// house of the same owner
func (s *ResidentService) Update(ctx context.Context, input UpdateResidentInput) (*UserInfo, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := domain.Require(caps.CanManageResident(ctx, input.ResidentID)); err != nil {
		return nil, err
	}

	resident, err := s.users.FindByID(ctx, input.ResidentID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != "" {
		resident.FirstName = input.FirstName
	}
	if input.LastName != "" {
		resident.LastName = input.LastName
	}
	if input.Phone != "" {
		resident.Phone = input.Phone
	}
	if input.HouseID != nil && (resident.HouseID == nil || *resident.HouseID != *input.HouseID) {
		if err := domain.Require(caps.CanManageHouse(ctx, *input.HouseID)); err != nil {
			return nil, err
		}
		previous := resident.HouseID
		if err := resident.AssignHouse(*input.HouseID); err != nil {
			return nil, err
		}
		defer s.refreshOccupancy(ctx, previous)
		defer s.refreshOccupancy(ctx, input.HouseID)
	}

	resident.IncrementVersion()
	if err := s.users.Update(ctx, resident); err != nil {
		return nil, err
	}

	info := NewUserInfo(resident)
	return &info, nil
}

// ResetPassword issues a fresh temporary password for a resident and
// delivers it out of band
func (s *ResidentService) ResetPassword(ctx context.Context, actorID, residentID uuid.UUID) (string, error) {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return "", err
	}
	if err := domain.Require(caps.CanManageResident(ctx, residentID)); err != nil {
		return "", err
	}

	resident, err := s.users.FindByID(ctx, residentID)
	if err != nil {
		return "", err
	}

	temp, err := GenerateTempPassword()
	if err != nil {
		return "", err
	}
	if err := resident.IssueTemporaryPassword(temp); err != nil {
		return "", err
	}
	if err := s.users.Update(ctx, resident); err != nil {
		return "", err
	}

	channel := s.dispatcher.DeliverCredentials(ctx, resident, temp)

	entry := audit.NewLogEntry(&resident.ID, audit.LevelInfo, "identity", "resident_password_reset",
		"Temporary password issued by manager",
		map[string]interface{}{"actor_id": actorID.String(), "channel": string(channel)})
	if err := s.auditLog.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", zap.Error(err))
	}

	return string(channel), nil
}

// Remove deletes a resident account and all its records
func (s *ResidentService) Remove(ctx context.Context, actorID, residentID uuid.UUID) error {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return err
	}
	if err := domain.Require(caps.CanManageResident(ctx, residentID)); err != nil {
		return err
	}

	resident, err := s.users.FindByID(ctx, residentID)
	if err != nil {
		return err
	}
	houseID := resident.HouseID

	if err := s.purger.PurgeResident(ctx, residentID); err != nil {
		return err
	}
	s.refreshOccupancy(ctx, houseID)

	s.logger.Info("resident removed",
		zap.String("resident_id", residentID.String()),
		zap.String("actor_id", actorID.String()),
	)
	return nil
}

// refreshOccupancy recomputes the occupied flag of a house after a
// resident moved or left
func (s *ResidentService) refreshOccupancy(ctx context.Context, houseID *uuid.UUID) {
	if houseID == nil {
		return
	}
	residents, err := s.users.FindResidentsByHouse(ctx, *houseID)
	if err != nil {
		s.logger.Error("occupancy check failed", zap.Error(err))
		return
	}
	house, err := s.houses.FindByID(ctx, *houseID)
	if err != nil {
		return
	}
	occupied := len(residents) > 0
	if house.Occupied != occupied {
		house.MarkOccupied(occupied)
		if err := s.houses.Update(ctx, house); err != nil {
			s.logger.Error("occupancy update failed", zap.Error(err))
		}
	}
}

func toUserInfos(users []*domain.User) []UserInfo {
	infos := make([]UserInfo, len(users))
	for i, u := range users {
		infos[i] = NewUserInfo(u)
	}
	return infos
}
