package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/planitee/identity/pkg/idx"
	"github.com/planitee/identity/pkg/slogx"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrEmailTaken      = errors.New("email already taken")
	ErrNicknameTaken   = errors.New("nickname already taken")
	ErrPendingNotFound = errors.New("pending registration not found")
)

// RegistrationService owns the first and last stage of signup: staging a
// registration behind an email check, and promoting it to a durable account.
// Code issuance and checking between the two stages is VerificationService's
// job.
type RegistrationService struct {
	Store store.Store
}

// Start stages a new registration. The password is hashed here, once; the
// hash is carried verbatim into the account at finalize.
func (s *RegistrationService) Start(ctx context.Context, email, password, nickname string) (domain.PendingRegistration, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" || nickname == "" {
		log.Warn("registration start missing required fields")
		return domain.PendingRegistration{}, ErrInvalidRequest
	}

	// The email must be free across both accounts and staged registrations.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		log.Warn("registration attempted with registered email", slog.String("email", email))
		return domain.PendingRegistration{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email against users", slog.Any("error", err))
		return domain.PendingRegistration{}, err
	}

	if _, err := s.Store.PendingRegistrations().GetByEmail(ctx, email); err == nil {
		log.Warn("registration attempted with already-pending email", slog.String("email", email))
		return domain.PendingRegistration{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email against pending registrations", slog.Any("error", err))
		return domain.PendingRegistration{}, err
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.PendingRegistration{}, err
	}

	pending := domain.PendingRegistration{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Nickname:     nickname,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Store.PendingRegistrations().Create(ctx, pending); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent start won the race for this email.
			return domain.PendingRegistration{}, ErrEmailTaken
		}
		log.Error("failed to create pending registration", slog.Any("error", err))
		return domain.PendingRegistration{}, err
	}

	log.Info("registration started",
		slog.String("pending_id", pending.ID),
		slog.String("email", email),
	)
	return pending, nil
}

// Finalize promotes a pending registration to an account. The verification
// records for the registration, the staged row, and the new user row are all
// settled in one transaction so a crash cannot leave the email half-claimed.
func (s *RegistrationService) Finalize(ctx context.Context, email string, profile domain.Profile) (domain.User, error) {
	log := slogx.FromContext(ctx)

	pending, err := s.Store.PendingRegistrations().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("finalize attempted without pending registration", slog.String("email", email))
			return domain.User{}, ErrPendingNotFound
		}
		log.Error("failed to fetch pending registration", slog.Any("error", err))
		return domain.User{}, err
	}

	if _, err := s.Store.Users().GetUserByNickname(ctx, pending.Nickname); err == nil {
		log.Warn("finalize attempted with taken nickname", slog.String("nickname", pending.Nickname))
		return domain.User{}, ErrNicknameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check nickname availability", slog.Any("error", err))
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        pending.Email,
		Nickname:     pending.Nickname,
		PasswordHash: pending.PasswordHash,
		Profile:      profile,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	subject := domain.NewPendingSubject(pending.ID)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Verifications().DeleteBySubject(ctx, subject); err != nil {
			return err
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.PendingRegistrations().Delete(ctx, pending.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Unique index caught a concurrent finalize or signup.
			return domain.User{}, ErrNicknameTaken
		}
		log.Error("failed to finalize registration",
			slog.String("pending_id", pending.ID),
			slog.Any("error", err),
		)
		return domain.User{}, err
	}

	log.Info("registration finalized",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("nickname", user.Nickname),
	)
	return user, nil
}
