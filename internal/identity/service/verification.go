package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/planitee/identity/pkg/idx"
	"github.com/planitee/identity/pkg/slogx"
)

var (
	ErrVerificationNotFound = errors.New("no verification code outstanding")
	ErrCodeExpired          = errors.New("verification code expired")
	ErrTooManyAttempts      = errors.New("too many failed verification attempts")
	ErrDispatchFailed       = errors.New("verification email dispatch failed")
)

const (
	DefaultCodeTTL     = 5 * time.Minute
	DefaultMaxAttempts = 5
)

// Mailer delivers verification codes. Satisfied by mail.Dispatcher.
type Mailer interface {
	SendRegistrationCode(ctx context.Context, to, nickname string, code, ttlMinutes int) error
	SendPasswordResetCode(ctx context.Context, to string, code, ttlMinutes int) error
}

// VerificationService issues and checks emailed codes for both subject kinds:
// pending registrations (signup confirmation) and accounts (password reset).
type VerificationService struct {
	Store  store.Store
	Mailer Mailer

	// CodeTTL and MaxAttempts fall back to the defaults when zero.
	CodeTTL     time.Duration
	MaxAttempts int

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *VerificationService) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultCodeTTL
}

func (s *VerificationService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}

// SendRegistrationCode issues a fresh code for a pending registration and
// mails it. Reissuing invalidates any outstanding code and resets the
// failed-attempt counter.
func (s *VerificationService) SendRegistrationCode(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	// An already-registered email means the flow is over, not that a code
	// should be sent.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email against users", slog.Any("error", err))
		return err
	}

	pending, err := s.Store.PendingRegistrations().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPendingNotFound
		}
		log.Error("failed to fetch pending registration", slog.Any("error", err))
		return err
	}

	subject := domain.NewPendingSubject(pending.ID)
	record, err := s.issue(ctx, subject, func(tx store.Tx) error {
		return tx.PendingRegistrations().ResetFailedAttempts(ctx, pending.ID)
	})
	if err != nil {
		return err
	}

	ttlMinutes := int(s.codeTTL().Minutes())
	if err := s.Mailer.SendRegistrationCode(ctx, pending.Email, pending.Nickname, record.Code, ttlMinutes); err != nil {
		// The stored record stays valid; the caller retries by reissuing.
		log.Error("failed to dispatch registration code",
			slog.String("pending_id", pending.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	log.Info("registration code issued",
		slog.String("pending_id", pending.ID),
		slog.Time("expires_at", record.ExpiresAt),
	)
	return nil
}

// SendPasswordResetCode issues a fresh code against an existing account.
func (s *VerificationService) SendPasswordResetCode(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return err
	}

	subject := domain.NewAccountSubject(user.ID)
	record, err := s.issue(ctx, subject, nil)
	if err != nil {
		return err
	}

	ttlMinutes := int(s.codeTTL().Minutes())
	if err := s.Mailer.SendPasswordResetCode(ctx, user.Email, record.Code, ttlMinutes); err != nil {
		log.Error("failed to dispatch password reset code",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	log.Info("password reset code issued",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", record.ExpiresAt),
	)
	return nil
}

// issue atomically replaces any outstanding unconsumed code for the subject
// with a fresh one. extra, when non-nil, runs in the same transaction.
func (s *VerificationService) issue(ctx context.Context, subject domain.VerificationSubject, extra func(tx store.Tx) error) (domain.Verification, error) {
	code, err := cryptox.GenerateVerificationCode()
	if err != nil {
		return domain.Verification{}, err
	}

	now := s.now()
	record := domain.Verification{
		ID:        idx.NewAt(now).String(),
		Subject:   subject,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.codeTTL()),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Verifications().DeleteUnconsumedBySubject(ctx, subject); err != nil {
			return err
		}
		if err := tx.Verifications().Create(ctx, record); err != nil {
			return err
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		return domain.Verification{}, err
	}
	return record, nil
}

// CheckRegistrationCode validates a submitted signup code. A mismatch counts
// against the registration's attempt budget and reports (false, nil); the
// budget itself is enforced before the code is even compared, so a correct
// code after the cap still fails.
func (s *VerificationService) CheckRegistrationCode(ctx context.Context, email string, code int) (bool, error) {
	log := slogx.FromContext(ctx)

	pending, err := s.Store.PendingRegistrations().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrPendingNotFound
		}
		log.Error("failed to fetch pending registration", slog.Any("error", err))
		return false, err
	}

	subject := domain.NewPendingSubject(pending.ID)
	record, err := s.Store.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrVerificationNotFound
		}
		log.Error("failed to fetch verification record", slog.Any("error", err))
		return false, err
	}

	if pending.FailedAttempts >= s.maxAttempts() {
		log.Warn("verification attempt budget exhausted",
			slog.String("pending_id", pending.ID),
			slog.Int("failed_attempts", pending.FailedAttempts),
		)
		return false, ErrTooManyAttempts
	}

	if record.ExpiredAt(s.now()) {
		return false, ErrCodeExpired
	}

	if record.Code != code {
		attempts, err := s.Store.PendingRegistrations().IncrementFailedAttempts(ctx, pending.ID)
		if err != nil {
			log.Error("failed to record wrong-code attempt", slog.Any("error", err))
			return false, err
		}
		log.Debug("verification code mismatch",
			slog.String("pending_id", pending.ID),
			slog.Int("failed_attempts", attempts),
		)
		return false, nil
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Verifications().MarkConsumed(ctx, record.ID); err != nil {
			return err
		}
		return tx.PendingRegistrations().ResetFailedAttempts(ctx, pending.ID)
	})
	if err != nil {
		log.Error("failed to consume verification record", slog.Any("error", err))
		return false, err
	}

	log.Info("registration code verified", slog.String("pending_id", pending.ID))
	return true, nil
}

// CheckPasswordResetCode validates a reset code against an account subject.
// A matching record is deleted outright rather than marked consumed: unlike
// signup there is no later stage that needs the consumed row as evidence.
func (s *VerificationService) CheckPasswordResetCode(ctx context.Context, email string, code int) (bool, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrUserNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return false, err
	}

	subject := domain.NewAccountSubject(user.ID)
	record, err := s.Store.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrVerificationNotFound
		}
		log.Error("failed to fetch verification record", slog.Any("error", err))
		return false, err
	}

	if record.ExpiredAt(s.now()) {
		return false, ErrCodeExpired
	}

	if record.Code != code {
		return false, nil
	}

	if err := s.Store.Verifications().Delete(ctx, record.ID); err != nil {
		log.Error("failed to delete consumed reset record", slog.Any("error", err))
		return false, err
	}

	log.Info("password reset code verified", slog.String("user_id", user.ID))
	return true, nil
}
