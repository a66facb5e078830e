package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

const uniqueViolation = "23505"

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Create inserts the lead. The unique index on email is the real duplicate
// arbiter; a violation surfaces as entity.ErrEmailAlreadyExists.
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, first_name, last_name, email, resume_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.ResumeKey,
		lead.Status,
		lead.CreatedAt,
		lead.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, first_name, last_name, email, resume_key, status, created_at, updated_at, contacted_at
		FROM leads
		WHERE id = $1
	`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}

	return lead, nil
}

// ExistsByEmail is the advisory duplicate pre-check. It narrows the race
// window; Create's unique constraint is what actually guarantees uniqueness.
func (r *LeadRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return exists, nil
}

func (r *LeadRepository) List(ctx context.Context, offset, limit int) ([]*entity.Lead, int, error) {
	return r.list(ctx, "", offset, limit)
}

func (r *LeadRepository) ListByStatus(ctx context.Context, status entity.LeadStatus, offset, limit int) ([]*entity.Lead, int, error) {
	return r.list(ctx, status, offset, limit)
}

func (r *LeadRepository) list(ctx context.Context, status entity.LeadStatus, offset, limit int) ([]*entity.Lead, int, error) {
	query := `
		SELECT id, first_name, last_name, email, resume_key, status, created_at, updated_at, contacted_at
		FROM leads
	`
	countQuery := `SELECT COUNT(*) FROM leads`

	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		countQuery += ` WHERE status = $1`
		args = append(args, status)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctx, query, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate leads: %w", err)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	return leads, total, nil
}

func (r *LeadRepository) CountByStatus(ctx context.Context, status entity.LeadStatus) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}

	return count, nil
}

// UpdateStatus persists the status fields after the state machine has
// validated the transition on the in-memory lead.
func (r *LeadRepository) UpdateStatus(ctx context.Context, lead *entity.Lead) error {
	query := `
		UPDATE leads
		SET status = $2, updated_at = $3, contacted_at = $4
		WHERE id = $1
	`

	var contactedAt sql.NullTime
	if lead.ContactedAt != nil {
		contactedAt = sql.NullTime{Time: *lead.ContactedAt, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, lead.ID, lead.Status, lead.UpdatedAt, contactedAt)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrLeadNotFound
	}

	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrLeadNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var lead entity.Lead
	var contactedAt sql.NullTime

	err := row.Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.ResumeKey,
		&lead.Status,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&contactedAt,
	)
	if err != nil {
		return nil, err
	}

	if contactedAt.Valid {
		t := contactedAt.Time.UTC()
		lead.ContactedAt = &t
	}

	return &lead, nil
}
