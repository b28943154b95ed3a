package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
	"github.com/imovia-saas/imovia/internal/shared"
)

// Auditor records administrative changes for the audit trail.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account administration rules.
type Service struct {
	repo   RepositoryPort
	audit  Auditor
	logger *slog.Logger
}

// NewService constructs a Service. audit may be nil.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, logger: slog.Default()}
}

// WithAuditor attaches an audit trail to administrative mutations.
func (s *Service) WithAuditor(audit Auditor) *Service {
	s.audit = audit
	return s
}

// WithLogger replaces the default logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// List returns the accounts visible to the actor. Platform roles see every
// account; agency staff only their own agency.
func (s *Service) List(ctx context.Context, identity authz.UserContext, role string, page, perPage int) ([]User, shared.Pagination, error) {
	filter := ListFilter{Role: role, Page: page, PerPage: perPage}
	if !authz.IsPlatformRole(identity.Role) {
		if identity.AgencyID == "" {
			return nil, shared.Pagination{}, fmt.Errorf("%w: %s", httpx.ErrForbidden, authz.GenericRestrictionMessage)
		}
		filter.AgencyID = identity.AgencyID
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Get loads one account within the actor's scope.
func (s *Service) Get(ctx context.Context, identity authz.UserContext, id uuid.UUID) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.IsPlatformRole(identity.Role) && user.AgencyID != identity.AgencyID {
		return nil, httpx.ErrNotFound
	}
	return user, nil
}

// ChangeRole assigns a new role to an account. The target role must belong
// to the closed set, and the actor's own role must outrank both the target
// account's current role and the role being assigned.
func (s *Service) ChangeRole(ctx context.Context, identity authz.UserContext, id uuid.UUID, rawRole string) (*User, error) {
	role, ok := authz.ParseRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, rawRole)
	}

	user, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	current, _ := authz.ParseRole(user.Role)
	if current != "" && !authz.Outranks(identity.Role, current) {
		return nil, fmt.Errorf("%w: %s", httpx.ErrForbidden, authz.GenericRestrictionMessage)
	}
	if !authz.Outranks(identity.Role, role) {
		return nil, fmt.Errorf("%w: %s", httpx.ErrForbidden, authz.GenericRestrictionMessage)
	}

	if err := s.repo.SetRole(ctx, id, string(role)); err != nil {
		return nil, err
	}
	s.record(ctx, identity, "user.role_changed", id, map[string]any{
		"from": user.Role,
		"to":   string(role),
	})
	user.Role = string(role)
	return user, nil
}

// SetActive enables or disables an account within the actor's scope.
func (s *Service) SetActive(ctx context.Context, identity authz.UserContext, id uuid.UUID, active bool) (*User, error) {
	user, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	current, _ := authz.ParseRole(user.Role)
	if current != "" && !authz.Outranks(identity.Role, current) {
		return nil, fmt.Errorf("%w: %s", httpx.ErrForbidden, authz.GenericRestrictionMessage)
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.record(ctx, identity, "user.active_changed", id, map[string]any{"active": active})
	user.IsActive = active
	return user, nil
}

func (s *Service) record(ctx context.Context, identity authz.UserContext, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: id.String(),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
