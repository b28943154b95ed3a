package agreements

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
	"github.com/imovia-saas/imovia/internal/shared"
)

// State denial messages, shown when the static capability allows an action
// but the agreement's lifecycle state or scope does not.
const (
	msgNotEditable     = "Apenas rascunhos podem ser editados"
	msgNotDeletable    = "Apenas rascunhos podem ser excluídos"
	msgNotSignable     = "Este acordo não está aguardando assinaturas"
	msgAlreadySigned   = "Esta assinatura já foi registrada"
	msgWrongSigner     = "Seu perfil não assina este acordo"
	msgNotApprovable   = "Este acordo não está aguardando aprovação"
	msgAlreadyTerminal = "Este acordo já foi finalizado"
	msgNotDraft        = "Apenas rascunhos podem ser enviados para assinatura"
	msgNoAccess        = "Você não tem acesso a este acordo"
)

// ApprovalLogger records workflow history entries.
type ApprovalLogger interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	List(ctx context.Context, module string, ref uuid.UUID) ([]shared.ApprovalLog, error)
}

// TaskEnqueuer schedules background work triggered by workflow transitions.
type TaskEnqueuer interface {
	EnqueueSignatureReminder(ctx context.Context, agreementID uuid.UUID) error
}

// CreateInput carries the caller-supplied fields for a new draft.
type CreateInput struct {
	Title    string
	Terms    string
	TenantID string
	OwnerID  string
	AgencyID string
	BrokerID string
	EndDate  *time.Time
}

// UpdateInput carries the editable draft fields.
type UpdateInput struct {
	Title   string
	Terms   string
	EndDate *time.Time
}

// Service handles agreement business logic. Every method takes the actor's
// identity explicitly; nothing is read from ambient state.
type Service struct {
	repo       RepositoryPort
	authorizer *authz.Authorizer
	approvals  ApprovalLogger
	tasks      TaskEnqueuer
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, authorizer *authz.Authorizer, approvals ApprovalLogger, tasks TaskEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, authorizer: authorizer, approvals: approvals, tasks: tasks, logger: logger}
}

func denied(message string) error {
	if message == "" {
		message = authz.GenericRestrictionMessage
	}
	return fmt.Errorf("%w: %s", httpx.ErrForbidden, message)
}

// staticCheck returns a denial error when the role-level capability is
// missing, carrying the matrix restriction message.
func (s *Service) staticCheck(identity authz.UserContext, action authz.Action) error {
	decision := s.authorizer.Check(identity, authz.ModuleAgreements, action)
	if !decision.Allowed {
		return denied(decision.Message)
	}
	return nil
}

// Create inserts a new draft agreement scoped to the actor's affiliation.
func (s *Service) Create(ctx context.Context, identity authz.UserContext, input CreateInput) (*Agreement, error) {
	if err := s.staticCheck(identity, authz.ActionCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}

	agreement := &Agreement{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(input.Title),
		Terms:     input.Terms,
		Status:    authz.StatusRascunho,
		TenantID:  input.TenantID,
		OwnerID:   input.OwnerID,
		AgencyID:  input.AgencyID,
		BrokerID:  input.BrokerID,
		EndDate:   input.EndDate,
		CreatedBy: identity.UserID,
	}
	agreement.Number = "AGR-" + strings.ToUpper(agreement.ID.String()[:8])

	// Non-platform actors can only create agreements inside their own
	// scope, regardless of what the request claimed.
	if !authz.IsPlatformRole(identity.Role) {
		switch identity.Role {
		case authz.RoleBroker:
			agreement.BrokerID = identity.BrokerID
			agreement.AgencyID = identity.AgencyID
		case authz.RoleIndependentOwner:
			agreement.OwnerID = identity.UserID
		default:
			agreement.AgencyID = identity.AgencyID
		}
	}

	if err := s.repo.Create(ctx, agreement); err != nil {
		return nil, err
	}
	return agreement, nil
}

// Get loads an agreement the actor may view.
func (s *Service) Get(ctx context.Context, identity authz.UserContext, id uuid.UUID) (*Agreement, error) {
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.CanView(identity, agreement.Snapshot()) {
		if err := s.staticCheck(identity, authz.ActionView); err != nil {
			return nil, err
		}
		return nil, denied(msgNoAccess)
	}
	return agreement, nil
}

// List returns the agreements visible to the actor, scoped by affiliation
// unless the actor holds a platform role.
func (s *Service) List(ctx context.Context, identity authz.UserContext, status authz.AgreementStatus, page, perPage int) ([]Agreement, shared.Pagination, error) {
	if err := s.staticCheck(identity, authz.ActionView); err != nil {
		return nil, shared.Pagination{}, err
	}

	filter := ListFilter{Status: status, Page: page, PerPage: perPage}
	if !authz.IsPlatformRole(identity.Role) {
		switch identity.Role {
		case authz.RoleInquilino:
			filter.TenantID = identity.UserID
		case authz.RoleProprietario, authz.RoleIndependentOwner:
			filter.OwnerID = identity.UserID
		case authz.RoleBroker:
			filter.BrokerID = identity.BrokerID
		default:
			filter.AgencyID = identity.AgencyID
		}
	}

	agreements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return agreements, shared.NewPagination(page, perPage, total), nil
}

// Update edits a draft agreement.
func (s *Service) Update(ctx context.Context, identity authz.UserContext, id uuid.UUID, input UpdateInput) (*Agreement, error) {
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := agreement.Snapshot()
	if !s.authorizer.CanEdit(identity, snap) {
		if err := s.staticCheck(identity, authz.ActionEdit); err != nil {
			return nil, err
		}
		if !authz.IsEditableStatus(snap.Status) {
			return nil, denied(msgNotEditable)
		}
		return nil, denied(msgNoAccess)
	}

	if strings.TrimSpace(input.Title) != "" {
		agreement.Title = strings.TrimSpace(input.Title)
	}
	if input.Terms != "" {
		agreement.Terms = input.Terms
	}
	if input.EndDate != nil {
		agreement.EndDate = input.EndDate
	}
	if err := s.repo.Update(ctx, agreement); err != nil {
		return nil, err
	}
	return agreement, nil
}

// Delete removes a draft agreement.
func (s *Service) Delete(ctx context.Context, identity authz.UserContext, id uuid.UUID) error {
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	snap := agreement.Snapshot()
	if !s.authorizer.CanDelete(identity, snap) {
		if err := s.staticCheck(identity, authz.ActionDelete); err != nil {
			return err
		}
		if !authz.IsDeletableStatus(snap.Status) {
			return denied(msgNotDeletable)
		}
		return denied(msgNoAccess)
	}
	return s.repo.Delete(ctx, id)
}

// SendForSignature dispatches a draft to the signing parties and schedules
// a reminder.
func (s *Service) SendForSignature(ctx context.Context, identity authz.UserContext, id uuid.UUID) (*Agreement, error) {
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := agreement.Snapshot()
	if !s.authorizer.CanSendForSignature(identity, snap) {
		if err := s.staticCheck(identity, authz.ActionSendForSignature); err != nil {
			return nil, err
		}
		if snap.Status != authz.StatusRascunho {
			return nil, denied(msgNotDraft)
		}
		return nil, denied(msgNoAccess)
	}

	if err := s.repo.SetStatus(ctx, id, authz.StatusPendenteAssinatura); err != nil {
		return nil, err
	}
	agreement.Status = authz.StatusPendenteAssinatura

	s.recordHistory(ctx, identity, id, shared.ApprovalSend, "")
	if s.tasks != nil {
		if err := s.tasks.EnqueueSignatureReminder(ctx, id); err != nil {
			s.logger.Warn("enqueue signature reminder", slog.Any("error", err))
		}
	}
	return agreement, nil
}

// Sign fills a signature slot for the actor.
func (s *Service) Sign(ctx context.Context, identity authz.UserContext, id uuid.UUID, slot authz.SignatureType, signature string) (*Agreement, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, fmt.Errorf("%w: signature payload required", httpx.ErrValidation)
	}
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := agreement.Snapshot()
	if !s.authorizer.CanSign(identity, snap, slot) {
		if err := s.staticCheck(identity, authz.ActionSign); err != nil {
			return nil, err
		}
		switch {
		case !authz.IsSignableStatus(snap.Status):
			return nil, denied(msgNotSignable)
		case snap.Signature(slot) != "":
			return nil, denied(msgAlreadySigned)
		default:
			return nil, denied(msgWrongSigner)
		}
	}

	signed, err := s.repo.Sign(ctx, id, slot, signature)
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, identity, id, shared.ApprovalSign, string(slot))
	return signed, nil
}

// Approve marks a pending agreement as approved.
func (s *Service) Approve(ctx context.Context, identity authz.UserContext, id uuid.UUID, note string) (*Agreement, error) {
	return s.resolve(ctx, identity, id, authz.StatusAprovado, shared.ApprovalApprove, note)
}

// Reject marks a pending agreement as rejected.
func (s *Service) Reject(ctx context.Context, identity authz.UserContext, id uuid.UUID, note string) (*Agreement, error) {
	return s.resolve(ctx, identity, id, authz.StatusRejeitado, shared.ApprovalReject, note)
}

func (s *Service) resolve(ctx context.Context, identity authz.UserContext, id uuid.UUID, status authz.AgreementStatus, action shared.ApprovalAction, note string) (*Agreement, error) {
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := agreement.Snapshot()

	allowed := false
	var staticAction authz.Action
	if action == shared.ApprovalApprove {
		allowed = s.authorizer.CanApprove(identity, snap)
		staticAction = authz.ActionApprove
	} else {
		allowed = s.authorizer.CanReject(identity, snap)
		staticAction = authz.ActionReject
	}
	if !allowed {
		if err := s.staticCheck(identity, staticAction); err != nil {
			return nil, err
		}
		if snap.Status != authz.StatusPendenteAssinatura {
			return nil, denied(msgNotApprovable)
		}
		return nil, denied(authz.GenericRestrictionMessage)
	}

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	agreement.Status = status
	s.recordHistory(ctx, identity, id, action, note)
	return agreement, nil
}

// Cancel terminates an agreement that has not already reached a terminal
// state.
func (s *Service) Cancel(ctx context.Context, identity authz.UserContext, id uuid.UUID, note string) (*Agreement, error) {
	agreement, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := agreement.Snapshot()
	if !s.authorizer.CanCancel(identity, snap) {
		if err := s.staticCheck(identity, authz.ActionCancel); err != nil {
			return nil, err
		}
		if authz.IsTerminalStatus(snap.Status) {
			return nil, denied(msgAlreadyTerminal)
		}
		return nil, denied(msgNoAccess)
	}

	if err := s.repo.SetStatus(ctx, id, authz.StatusCancelado); err != nil {
		return nil, err
	}
	agreement.Status = authz.StatusCancelado
	s.recordHistory(ctx, identity, id, shared.ApprovalCancel, note)
	return agreement, nil
}

// ActionMenu lists the actions and signature slots available to the actor
// on one agreement, for deterministic UI rendering.
type ActionMenu struct {
	Actions []authz.Action        `json:"actions"`
	Slots   []authz.SignatureType `json:"signatureSlots"`
}

// Actions computes the available action menu for the actor.
func (s *Service) Actions(ctx context.Context, identity authz.UserContext, id uuid.UUID) (*ActionMenu, error) {
	agreement, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	snap := agreement.Snapshot()
	return &ActionMenu{
		Actions: s.authorizer.AvailableActions(identity, snap),
		Slots:   s.authorizer.SignableSlots(identity, snap),
	}, nil
}

// History returns the workflow history for an agreement the actor may view.
func (s *Service) History(ctx context.Context, identity authz.UserContext, id uuid.UUID) ([]shared.ApprovalLog, error) {
	if _, err := s.Get(ctx, identity, id); err != nil {
		return nil, err
	}
	return s.approvals.List(ctx, moduleName, id)
}

const moduleName = "agreements"

func (s *Service) recordHistory(ctx context.Context, identity authz.UserContext, id uuid.UUID, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	err := s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  moduleName,
		RefID:   id,
		ActorID: identity.UserID,
		Action:  action,
		Note:    note,
	})
	if err != nil {
		s.logger.Warn("record workflow history", slog.Any("error", err))
	}
}
