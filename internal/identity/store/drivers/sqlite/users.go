package sqlite

import (
	"context"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, nickname, password_hash, personality, gender,
	hobbies, favorite_foods, profile_image, active, failed_attempts, created_at`

func (r *usersRepo) scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var gender, hobbies, favoriteFoods string

	err := row.Scan(
		&u.ID, &u.Email, &u.Nickname, &u.PasswordHash,
		&u.Personality, &gender, &hobbies, &favoriteFoods, &u.ProfileImage,
		&u.Active, &u.FailedAttempts, &u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Gender = domain.Gender(gender)
	u.Hobbies = domain.SplitList(hobbies)
	u.FavoriteFoods = domain.SplitList(favoriteFoods)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByNickname(ctx context.Context, nickname string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE nickname = ?`, nickname)
	return r.scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, nickname, password_hash, personality, gender,
			hobbies, favorite_foods, profile_image, active, failed_attempts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Nickname, u.PasswordHash,
		u.Personality, string(u.Gender),
		domain.JoinList(u.Hobbies), domain.JoinList(u.FavoriteFoods), u.ProfileImage,
		u.Active, u.FailedAttempts, createdAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, newHash, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
