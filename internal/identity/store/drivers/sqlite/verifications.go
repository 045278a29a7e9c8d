package sqlite

import (
	"context"

	"github.com/planitee/identity/internal/identity/domain"
)

type verificationsRepo struct {
	db dbtx
}

func (r *verificationsRepo) Create(ctx context.Context, v domain.Verification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (id, subject_kind, subject_id, code, created_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, string(v.Subject.Kind), v.Subject.ID, v.Code, v.CreatedAt, v.ExpiresAt, v.Consumed,
	)
	return mapConstraint(err)
}

func (r *verificationsRepo) GetLatestUnconsumedBySubject(ctx context.Context, subject domain.VerificationSubject) (domain.Verification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, subject_kind, subject_id, code, created_at, expires_at, consumed
		FROM verifications
		WHERE subject_kind = ? AND subject_id = ? AND consumed = FALSE
		ORDER BY created_at DESC
		LIMIT 1`,
		string(subject.Kind), subject.ID,
	)

	var v domain.Verification
	var kind string
	err := row.Scan(&v.ID, &kind, &v.Subject.ID, &v.Code, &v.CreatedAt, &v.ExpiresAt, &v.Consumed)
	if err != nil {
		return domain.Verification{}, mapNotFound(err)
	}
	v.Subject.Kind = domain.SubjectKind(kind)
	return v, nil
}

func (r *verificationsRepo) MarkConsumed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verifications SET consumed = TRUE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *verificationsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE id = ?`, id)
	return err
}

func (r *verificationsRepo) DeleteUnconsumedBySubject(ctx context.Context, subject domain.VerificationSubject) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verifications WHERE subject_kind = ? AND subject_id = ? AND consumed = FALSE`,
		string(subject.Kind), subject.ID)
	return err
}

func (r *verificationsRepo) DeleteBySubject(ctx context.Context, subject domain.VerificationSubject) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verifications WHERE subject_kind = ? AND subject_id = ?`,
		string(subject.Kind), subject.ID)
	return err
}
