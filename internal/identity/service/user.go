package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/jwtx"
	"github.com/planitee/identity/pkg/slogx"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)

// UserService reads and mutates accounts, and resolves session tokens to
// identities for the authentication gate.
type UserService struct {
	Store store.Store
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate checks a login. Unknown email, wrong password, and disabled
// accounts all collapse into ErrInvalidCredentials so a login response never
// discloses which it was.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user for login", slog.Any("error", err))
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("login with wrong password", slog.String("user_id", user.ID))
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return domain.User{}, err
	}

	if !user.Active {
		log.Warn("login on inactive account", slog.String("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// UpdatePassword hashes and stores a new password. Used to complete the
// password reset flow after the code check.
func (s *UserService) UpdatePassword(ctx context.Context, email, newPassword string) error {
	log := slogx.FromContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash new password", slog.Any("error", err))
		return err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("failed to update password hash", slog.Any("error", err))
		return err
	}

	log.Info("password updated", slog.String("user_id", user.ID))
	return nil
}

// Resolve implements httpx.IdentityResolver for the session gate: token
// claims only become an identity if the account still exists and is active.
func (s *UserService) Resolve(ctx context.Context, claims jwtx.Claims) (httpx.Identity, error) {
	user, err := s.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return httpx.Identity{}, err
	}
	if !user.Active {
		return httpx.Identity{}, ErrAccountInactive
	}

	return httpx.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
	}, nil
}
