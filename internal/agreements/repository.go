package agreements

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/db"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
)

// ListFilter narrows a listing to the caller's scope. Empty fields are not
// applied; Status filters to a single lifecycle state.
type ListFilter struct {
	AgencyID string
	BrokerID string
	TenantID string
	OwnerID  string
	Status   authz.AgreementStatus
	Page     int
	PerPage  int
}

// RepositoryPort defines data access methods for agreements.
type RepositoryPort interface {
	Create(ctx context.Context, agreement *Agreement) error
	Get(ctx context.Context, id uuid.UUID) (*Agreement, error)
	List(ctx context.Context, filter ListFilter) ([]Agreement, int, error)
	Update(ctx context.Context, agreement *Agreement) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status authz.AgreementStatus) error
	Sign(ctx context.Context, id uuid.UUID, slot authz.SignatureType, signature string) (*Agreement, error)
}

const agreementColumns = `id, number, title, terms, status, agency_id, broker_id, tenant_id, owner_id,
COALESCE(tenant_signature, ''), COALESCE(owner_signature, ''), COALESCE(agency_signature, ''),
COALESCE(broker_signature, ''), COALESCE(witness_signature, ''),
end_date, created_by, created_at, updated_at`

var signatureColumns = map[authz.SignatureType]string{
	authz.SignatureTenant:  "tenant_signature",
	authz.SignatureOwner:   "owner_signature",
	authz.SignatureAgency:  "agency_signature",
	authz.SignatureBroker:  "broker_signature",
	authz.SignatureWitness: "witness_signature",
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new agreement.
func (r *Repository) Create(ctx context.Context, agreement *Agreement) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO agreements
(id, number, title, terms, status, agency_id, broker_id, tenant_id, owner_id, end_date, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11, NOW(), NOW())`,
		agreement.ID, agreement.Number, agreement.Title, agreement.Terms, string(agreement.Status),
		agreement.AgencyID, agreement.BrokerID, agreement.TenantID, agreement.OwnerID,
		agreement.EndDate, agreement.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: agreement number %s", httpx.ErrDuplicate, agreement.Number)
		}
		return err
	}
	return nil
}

// Get fetches an agreement by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Agreement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = $1`, id)
	agreement, err := scanAgreement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return agreement, nil
}

// List returns agreements matching the filter plus the unpaged total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Agreement, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}
	add(" AND agency_id = $%d", filter.AgencyID)
	add(" AND broker_id = $%d", filter.BrokerID)
	add(" AND tenant_id = $%d", filter.TenantID)
	add(" AND owner_id = $%d", filter.OwnerID)
	add(" AND status = $%d", string(filter.Status))

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM agreements"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + agreementColumns + " FROM agreements" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var agreements []Agreement
	for rows.Next() {
		agreement, err := scanAgreement(rows)
		if err != nil {
			return nil, 0, err
		}
		agreements = append(agreements, *agreement)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return agreements, total, nil
}

// Update persists editable draft fields.
func (r *Repository) Update(ctx context.Context, agreement *Agreement) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agreements
SET title = $2, terms = $3, end_date = $4, updated_at = NOW()
WHERE id = $1`, agreement.ID, agreement.Title, agreement.Terms, agreement.EndDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an agreement.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agreements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SetStatus transitions the lifecycle state.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status authz.AgreementStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agreements SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Sign fills a signature slot and, once every mandatory slot is populated,
// activates the agreement in the same transaction.
func (r *Repository) Sign(ctx context.Context, id uuid.UUID, slot authz.SignatureType, signature string) (*Agreement, error) {
	column, ok := signatureColumns[slot]
	if !ok {
		return nil, fmt.Errorf("%w: unknown signature slot %q", httpx.ErrValidation, slot)
	}

	var agreement *Agreement
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE agreements SET `+column+` = $2, updated_at = NOW() WHERE id = $1`,
			id, signature)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}

		row := tx.QueryRow(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = $1`, id)
		agreement, err = scanAgreement(row)
		if err != nil {
			return err
		}
		if agreement.fullySigned() {
			if _, err := tx.Exec(ctx, `UPDATE agreements SET status = $2, updated_at = NOW() WHERE id = $1`,
				id, string(authz.StatusAtivo)); err != nil {
				return err
			}
			agreement.Status = authz.StatusAtivo
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// CloseExpired marks active agreements past their end date as ended and
// returns the number of rows affected. Used by the expiry scan job.
func (r *Repository) CloseExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE agreements SET status = $1, updated_at = NOW()
WHERE status = $2 AND end_date IS NOT NULL AND end_date < NOW()`,
		string(authz.StatusEncerrado), string(authz.StatusAtivo))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAgreement(row pgx.Row) (*Agreement, error) {
	var a Agreement
	var agencyID, brokerID, tenantID, ownerID *string
	var status string
	err := row.Scan(&a.ID, &a.Number, &a.Title, &a.Terms, &status,
		&agencyID, &brokerID, &tenantID, &ownerID,
		&a.TenantSignature, &a.OwnerSignature, &a.AgencySignature,
		&a.BrokerSignature, &a.WitnessSignature,
		&a.EndDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = authz.AgreementStatus(status)
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	a.AgencyID = deref(agencyID)
	a.BrokerID = deref(brokerID)
	a.TenantID = deref(tenantID)
	a.OwnerID = deref(ownerID)
	return &a, nil
}

var _ RepositoryPort = (*Repository)(nil)
