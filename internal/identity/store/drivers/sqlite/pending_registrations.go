package sqlite

import (
	"context"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
)

type pendingRegistrationsRepo struct {
	db dbtx
}

const pendingColumns = `id, email, password_hash, nickname, failed_attempts, created_at`

func (r *pendingRegistrationsRepo) GetByEmail(ctx context.Context, email string) (domain.PendingRegistration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_registrations WHERE email = ?`, email)

	var p domain.PendingRegistration
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Nickname, &p.FailedAttempts, &p.CreatedAt)
	if err != nil {
		return domain.PendingRegistration{}, mapNotFound(err)
	}
	return p, nil
}

func (r *pendingRegistrationsRepo) Create(ctx context.Context, p domain.PendingRegistration) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_registrations (id, email, password_hash, nickname, failed_attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.PasswordHash, p.Nickname, p.FailedAttempts, createdAt,
	)
	return mapConstraint(err)
}

func (r *pendingRegistrationsRepo) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE pending_registrations
		SET failed_attempts = failed_attempts + 1
		WHERE id = ?
		RETURNING failed_attempts`, id)

	var attempts int
	if err := row.Scan(&attempts); err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *pendingRegistrationsRepo) ResetFailedAttempts(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_registrations SET failed_attempts = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// Delete is intentionally a no-op when the row is already gone: the cleanup
// sweep and a concurrent finalize may both target the same registration.
func (r *pendingRegistrationsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_registrations WHERE id = ?`, id)
	return err
}

func (r *pendingRegistrationsRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]domain.PendingRegistration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_registrations WHERE created_at < ? ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingRegistration
	for rows.Next() {
		var p domain.PendingRegistration
		if err := rows.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Nickname, &p.FailedAttempts, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
