package agreements

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
	"github.com/imovia-saas/imovia/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	agreements map[uuid.UUID]*Agreement

	getError  error
	signError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{agreements: make(map[uuid.UUID]*Agreement)}
}

func (m *mockRepository) Create(ctx context.Context, agreement *Agreement) error {
	now := time.Now()
	agreement.CreatedAt = now
	agreement.UpdatedAt = now
	clone := *agreement
	m.agreements[agreement.ID] = &clone
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (*Agreement, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	agreement, ok := m.agreements[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *agreement
	return &clone, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Agreement, int, error) {
	var out []Agreement
	for _, a := range m.agreements {
		if filter.AgencyID != "" && a.AgencyID != filter.AgencyID {
			continue
		}
		if filter.BrokerID != "" && a.BrokerID != filter.BrokerID {
			continue
		}
		if filter.TenantID != "" && a.TenantID != filter.TenantID {
			continue
		}
		if filter.OwnerID != "" && a.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(ctx context.Context, agreement *Agreement) error {
	stored, ok := m.agreements[agreement.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Title = agreement.Title
	stored.Terms = agreement.Terms
	stored.EndDate = agreement.EndDate
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.agreements[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.agreements, id)
	return nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id uuid.UUID, status authz.AgreementStatus) error {
	stored, ok := m.agreements[id]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Status = status
	return nil
}

func (m *mockRepository) Sign(ctx context.Context, id uuid.UUID, slot authz.SignatureType, signature string) (*Agreement, error) {
	if m.signError != nil {
		return nil, m.signError
	}
	stored, ok := m.agreements[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	switch slot {
	case authz.SignatureTenant:
		stored.TenantSignature = signature
	case authz.SignatureOwner:
		stored.OwnerSignature = signature
	case authz.SignatureAgency:
		stored.AgencySignature = signature
	case authz.SignatureBroker:
		stored.BrokerSignature = signature
	case authz.SignatureWitness:
		stored.WitnessSignature = signature
	}
	if stored.fullySigned() {
		stored.Status = authz.StatusAtivo
	}
	clone := *stored
	return &clone, nil
}

var _ RepositoryPort = (*mockRepository)(nil)

type mockApprovals struct {
	logs []shared.ApprovalLog
}

func (m *mockApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockApprovals) List(ctx context.Context, module string, ref uuid.UUID) ([]shared.ApprovalLog, error) {
	var out []shared.ApprovalLog
	for _, l := range m.logs {
		if l.Module == module && l.RefID == ref {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockEnqueuer struct {
	reminders []uuid.UUID
}

func (m *mockEnqueuer) EnqueueSignatureReminder(ctx context.Context, agreementID uuid.UUID) error {
	m.reminders = append(m.reminders, agreementID)
	return nil
}

// ============================================================================
// FIXTURES
// ============================================================================

var (
	managerCtx = authz.UserContext{UserID: "u-mgr", Role: authz.RoleAgencyManager, AgencyID: "ag-1"}
	brokerCtx  = authz.UserContext{UserID: "u-brk", Role: authz.RoleBroker, BrokerID: "br-1", AgencyID: "ag-1"}
	tenantCtx  = authz.UserContext{UserID: "t-1", Role: authz.RoleInquilino}
	ownerCtx   = authz.UserContext{UserID: "o-1", Role: authz.RoleProprietario}
	adminCtx   = authz.UserContext{UserID: "u-adm", Role: authz.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *mockRepository, *mockApprovals, *mockEnqueuer) {
	t.Helper()
	repo := newMockRepository()
	approvals := &mockApprovals{}
	tasks := &mockEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, authz.NewAuthorizer(), approvals, tasks, logger)
	return svc, repo, approvals, tasks
}

func seedAgreement(repo *mockRepository, status authz.AgreementStatus) *Agreement {
	agreement := &Agreement{
		ID:       uuid.New(),
		Number:   "AGR-TEST01",
		Title:    "Contrato de administração",
		Status:   status,
		AgencyID: "ag-1",
		BrokerID: "br-1",
		TenantID: "t-1",
		OwnerID:  "o-1",
	}
	repo.agreements[agreement.ID] = agreement
	return agreement
}

// ============================================================================
// CREATE / GET / LIST
// ============================================================================

func TestCreateAgreementScopesToActorAgency(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), managerCtx, CreateInput{
		Title:    "Contrato novo",
		AgencyID: "ag-other",
	})
	require.NoError(t, err)

	assert.Equal(t, authz.StatusRascunho, created.Status)
	assert.Equal(t, "ag-1", created.AgencyID)
	assert.Contains(t, created.Number, "AGR-")
	assert.Equal(t, "u-mgr", created.CreatedBy)
}

func TestCreateAgreementBrokerScope(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), brokerCtx, CreateInput{Title: "Contrato corretor"})
	require.NoError(t, err)

	assert.Equal(t, "br-1", created.BrokerID)
	assert.Equal(t, "ag-1", created.AgencyID)
}

func TestCreateAgreementTenantDenied(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), tenantCtx, CreateInput{Title: "Contrato"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestGetAgreementScoped(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusRascunho)

	got, err := svc.Get(context.Background(), tenantCtx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, agreement.ID, got.ID)

	otherTenant := authz.UserContext{UserID: "t-2", Role: authz.RoleInquilino}
	_, err = svc.Get(context.Background(), otherTenant, agreement.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestListScopesByRole(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	seedAgreement(repo, authz.StatusRascunho)
	other := seedAgreement(repo, authz.StatusRascunho)
	other.AgencyID = "ag-2"
	other.TenantID = "t-9"
	other.BrokerID = "br-9"

	items, pagination, err := svc.List(context.Background(), managerCtx, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ag-1", items[0].AgencyID)
	assert.Equal(t, 1, pagination.Total)

	all, _, err := svc.List(context.Background(), adminCtx, "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// ============================================================================
// UPDATE / DELETE
// ============================================================================

func TestUpdateDraft(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusRascunho)

	updated, err := svc.Update(context.Background(), managerCtx, agreement.ID, UpdateInput{Title: "Contrato revisado"})
	require.NoError(t, err)
	assert.Equal(t, "Contrato revisado", updated.Title)
}

func TestUpdateNonDraftDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	_, err := svc.Update(context.Background(), managerCtx, agreement.ID, UpdateInput{Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
	assert.Contains(t, err.Error(), msgNotEditable)
}

func TestDeleteDraft(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusRascunho)

	require.NoError(t, svc.Delete(context.Background(), managerCtx, agreement.ID))
	_, err := repo.Get(context.Background(), agreement.ID)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDeletePendingDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	err := svc.Delete(context.Background(), managerCtx, agreement.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgNotDeletable)
}

// ============================================================================
// WORKFLOW
// ============================================================================

func TestSendForSignature(t *testing.T) {
	svc, repo, approvals, tasks := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusRascunho)

	sent, err := svc.SendForSignature(context.Background(), managerCtx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.StatusPendenteAssinatura, sent.Status)

	require.Len(t, approvals.logs, 1)
	assert.Equal(t, shared.ApprovalSend, approvals.logs[0].Action)
	require.Len(t, tasks.reminders, 1)
	assert.Equal(t, agreement.ID, tasks.reminders[0])
}

func TestSendForSignatureNotDraft(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusAtivo)

	_, err := svc.SendForSignature(context.Background(), managerCtx, agreement.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgNotDraft)
}

func TestSignTenantSlot(t *testing.T) {
	svc, repo, approvals, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	signed, err := svc.Sign(context.Background(), tenantCtx, agreement.ID, authz.SignatureTenant, "assinatura-t1")
	require.NoError(t, err)
	assert.Equal(t, "assinatura-t1", signed.TenantSignature)
	assert.Equal(t, authz.StatusPendenteAssinatura, signed.Status)

	require.Len(t, approvals.logs, 1)
	assert.Equal(t, shared.ApprovalSign, approvals.logs[0].Action)
	assert.Equal(t, string(authz.SignatureTenant), approvals.logs[0].Note)
}

func TestSignActivatesWhenMandatorySlotsFilled(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)
	agreement.OwnerSignature = "assinatura-o1"
	agreement.AgencySignature = "assinatura-ag1"

	signed, err := svc.Sign(context.Background(), tenantCtx, agreement.ID, authz.SignatureTenant, "assinatura-t1")
	require.NoError(t, err)
	assert.Equal(t, authz.StatusAtivo, signed.Status)
}

func TestSignWrongSlotDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	_, err := svc.Sign(context.Background(), tenantCtx, agreement.ID, authz.SignatureOwner, "assinatura")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgWrongSigner)
}

func TestSignAlreadySigned(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)
	agreement.TenantSignature = "assinatura-t1"

	_, err := svc.Sign(context.Background(), tenantCtx, agreement.ID, authz.SignatureTenant, "outra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgAlreadySigned)
}

func TestSignNotPendingDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusRascunho)

	_, err := svc.Sign(context.Background(), tenantCtx, agreement.ID, authz.SignatureTenant, "assinatura")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgNotSignable)
}

func TestApproveByManager(t *testing.T) {
	svc, repo, approvals, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	approved, err := svc.Approve(context.Background(), managerCtx, agreement.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, authz.StatusAprovado, approved.Status)

	require.Len(t, approvals.logs, 1)
	assert.Equal(t, shared.ApprovalApprove, approvals.logs[0].Action)
	assert.Equal(t, "ok", approvals.logs[0].Note)
}

func TestApproveByBrokerDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	_, err := svc.Approve(context.Background(), brokerCtx, agreement.ID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestApproveNotPendingDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusAtivo)

	_, err := svc.Approve(context.Background(), managerCtx, agreement.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgNotApprovable)
}

func TestRejectByManager(t *testing.T) {
	svc, repo, approvals, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	rejected, err := svc.Reject(context.Background(), managerCtx, agreement.ID, "dados incompletos")
	require.NoError(t, err)
	assert.Equal(t, authz.StatusRejeitado, rejected.Status)
	require.Len(t, approvals.logs, 1)
	assert.Equal(t, shared.ApprovalReject, approvals.logs[0].Action)
}

func TestCancelPending(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	cancelled, err := svc.Cancel(context.Background(), managerCtx, agreement.ID, "")
	require.NoError(t, err)
	assert.Equal(t, authz.StatusCancelado, cancelled.Status)
}

func TestCancelTerminalDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusEncerrado)

	_, err := svc.Cancel(context.Background(), managerCtx, agreement.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgAlreadyTerminal)
}

// ============================================================================
// ACTION MENU / HISTORY
// ============================================================================

func TestActionsMenuForTenant(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusPendenteAssinatura)

	menu, err := svc.Actions(context.Background(), tenantCtx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, []authz.Action{authz.ActionView, authz.ActionSign}, menu.Actions)
	assert.Equal(t, []authz.SignatureType{authz.SignatureTenant}, menu.Slots)
}

func TestHistory(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	agreement := seedAgreement(repo, authz.StatusRascunho)

	_, err := svc.SendForSignature(context.Background(), managerCtx, agreement.ID)
	require.NoError(t, err)
	_, err = svc.Sign(context.Background(), tenantCtx, agreement.ID, authz.SignatureTenant, "assinatura")
	require.NoError(t, err)

	logs, err := svc.History(context.Background(), managerCtx, agreement.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, shared.ApprovalSend, logs[0].Action)
	assert.Equal(t, shared.ApprovalSign, logs[1].Action)
}
