package admin

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appidentity "github.com/ecopower/backend/internal/application/identity"
	"github.com/ecopower/backend/internal/domain/audit"
	"github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/domain/shared"
)

// Purger removes accounts and their dependent records. Deleting an
// owner cascades over every house and resident the owner manages.
type Purger interface {
	PurgeResident(ctx context.Context, residentID uuid.UUID) error
	PurgeOwner(ctx context.Context, ownerID uuid.UUID) error
}

// AccountService is the admin view over all platform accounts
type AccountService struct {
	users      identity.UserRepository
	authorizer identity.Authorizer
	purger     Purger
	auditLog   audit.LogRepository
	logger     *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	users identity.UserRepository,
	authorizer identity.Authorizer,
	purger Purger,
	auditLog audit.LogRepository,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		users:      users,
		authorizer: authorizer,
		purger:     purger,
		auditLog:   auditLog,
		logger:     logger,
	}
}

// List returns all accounts matching the filter. Admin only.
func (s *AccountService) List(ctx context.Context, input ListUsersInput) ([]appidentity.UserInfo, int64, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, 0, err
	}
	if !caps.IsAdmin() {
		return nil, 0, shared.ErrForbidden
	}

	filter := identity.NewUserFilter().
		WithKeyword(input.Keyword).
		WithPagination(input.Page, input.PageSize)
	if input.Role != nil {
		filter = filter.WithRole(identity.Role(*input.Role))
	}

	users, total, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]appidentity.UserInfo, len(users))
	for i, u := range users {
		infos[i] = appidentity.NewUserInfo(u)
	}
	return infos, total, nil
}

// ListAuditLogs returns the security trail, newest first. Admin only.
// A user filter narrows the trail to one account.
func (s *AccountService) ListAuditLogs(ctx context.Context, input ListAuditLogsInput) ([]*audit.LogEntry, int64, error) {
	caps, err := s.authorizer.Resolve(ctx, input.ActorID)
	if err != nil {
		return nil, 0, err
	}
	if !caps.IsAdmin() {
		return nil, 0, shared.ErrForbidden
	}

	if input.UserID != nil {
		return s.auditLog.FindByUser(ctx, *input.UserID, input.Page, input.PageSize)
	}
	return s.auditLog.FindAll(ctx, input.Page, input.PageSize)
}

// Deactivate suspends an account without deleting its records
func (s *AccountService) Deactivate(ctx context.Context, actorID, userID uuid.UUID) error {
	return s.setActive(ctx, actorID, userID, false)
}

// Reactivate lifts a suspension
func (s *AccountService) Reactivate(ctx context.Context, actorID, userID uuid.UUID) error {
	return s.setActive(ctx, actorID, userID, true)
}

func (s *AccountService) setActive(ctx context.Context, actorID, userID uuid.UUID, active bool) error {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return err
	}
	if !caps.IsAdmin() {
		return shared.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() && !active {
		return shared.ErrLastAdmin
	}
	if user.Active == active {
		return nil
	}
	user.Active = active
	user.IncrementVersion()
	return s.users.Update(ctx, user)
}

// Delete removes an account with everything recorded against it. An
// owner takes its houses and residents along; the admin account itself
// can never be removed.
func (s *AccountService) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	caps, err := s.authorizer.Resolve(ctx, actorID)
	if err != nil {
		return err
	}
	if !caps.IsAdmin() {
		return shared.ErrForbidden
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	switch {
	case target.IsAdmin():
		return shared.ErrLastAdmin
	case target.IsOwner():
		err = s.purger.PurgeOwner(ctx, userID)
	default:
		err = s.purger.PurgeResident(ctx, userID)
	}
	if err != nil {
		return err
	}

	entry := audit.NewLogEntry(&actorID, audit.LevelWarning, "admin", "account_deleted",
		"Account and dependent records removed",
		map[string]interface{}{
			"target_id":   userID.String(),
			"target_role": string(target.Role),
		})
	if err := s.auditLog.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", zap.Error(err))
	}

	s.logger.Info("account deleted",
		zap.String("target_id", userID.String()),
		zap.String("target_role", string(target.Role)),
	)
	return nil
}
