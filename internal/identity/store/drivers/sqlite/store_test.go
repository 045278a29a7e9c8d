package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/internal/identity/store/drivers/sqlite"
	"github.com/planitee/identity/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newUser(email, nickname string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: "$argon2id$stub",
		Profile: domain.Profile{
			Personality:   "INFP",
			Gender:        domain.GenderOther,
			Hobbies:       []string{"cycling", "chess"},
			FavoriteFoods: []string{"ramen"},
		},
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("alice@example.com", "alice")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("lookups return the stored user", func(t *testing.T) {
		byID, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)
		require.Equal(t, []string{"cycling", "chess"}, byID.Hobbies)
		require.Equal(t, domain.GenderOther, byID.Gender)
		require.True(t, byID.Active)

		byEmail, err := s.Users().GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byNickname, err := s.Users().GetUserByNickname(ctx, u.Nickname)
		require.NoError(t, err)
		require.Equal(t, u.ID, byNickname.ID)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := newUser(u.Email, "someone-else")
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("duplicate nickname maps to ErrAlreadyExists", func(t *testing.T) {
		dup := newUser("fresh@example.com", u.Nickname)
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$argon2id$new"))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "$argon2id$new", got.PasswordHash)

		require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, "missing", "x"), store.ErrNotFound)
	})
}

func TestPendingRegistrationsRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := domain.PendingRegistration{
		ID:           idx.New().String(),
		Email:        "bob@example.com",
		PasswordHash: "$argon2id$stub",
		Nickname:     "bob",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.PendingRegistrations().Create(ctx, p))

	t.Run("get by email", func(t *testing.T) {
		got, err := s.PendingRegistrations().GetByEmail(ctx, p.Email)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
		require.Zero(t, got.FailedAttempts)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := p
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.PendingRegistrations().Create(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("failed attempts counter", func(t *testing.T) {
		n, err := s.PendingRegistrations().IncrementFailedAttempts(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = s.PendingRegistrations().IncrementFailedAttempts(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		require.NoError(t, s.PendingRegistrations().ResetFailedAttempts(ctx, p.ID))

		got, err := s.PendingRegistrations().GetByEmail(ctx, p.Email)
		require.NoError(t, err)
		require.Zero(t, got.FailedAttempts)

		_, err = s.PendingRegistrations().IncrementFailedAttempts(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list created before cutoff", func(t *testing.T) {
		old := domain.PendingRegistration{
			ID:           idx.New().String(),
			Email:        "stale@example.com",
			PasswordHash: "$argon2id$stub",
			Nickname:     "stale",
			CreatedAt:    time.Now().UTC().Add(-time.Hour),
		}
		require.NoError(t, s.PendingRegistrations().Create(ctx, old))

		listed, err := s.PendingRegistrations().ListCreatedBefore(ctx, time.Now().UTC().Add(-30*time.Minute))
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, old.ID, listed[0].ID)
	})

	t.Run("delete is a no-op on an absent row", func(t *testing.T) {
		require.NoError(t, s.PendingRegistrations().Delete(ctx, p.ID))
		require.NoError(t, s.PendingRegistrations().Delete(ctx, p.ID))

		_, err := s.PendingRegistrations().GetByEmail(ctx, p.Email)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestVerificationsRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	subject := domain.NewPendingSubject(idx.New().String())
	now := time.Now().UTC()

	mkVerification := func(subject domain.VerificationSubject, code int, createdAt time.Time) domain.Verification {
		return domain.Verification{
			ID:        idx.New().String(),
			Subject:   subject,
			Code:      code,
			CreatedAt: createdAt,
			ExpiresAt: createdAt.Add(5 * time.Minute),
		}
	}

	t.Run("latest unconsumed wins", func(t *testing.T) {
		older := mkVerification(subject, 1111, now.Add(-2*time.Minute))
		newer := mkVerification(subject, 2222, now)
		require.NoError(t, s.Verifications().Create(ctx, older))
		require.NoError(t, s.Verifications().Create(ctx, newer))

		got, err := s.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
		require.NoError(t, err)
		require.Equal(t, newer.ID, got.ID)
		require.Equal(t, 2222, got.Code)
		require.Equal(t, domain.SubjectPending, got.Subject.Kind)
	})

	t.Run("subjects do not bleed into each other", func(t *testing.T) {
		// Same id under the account kind must not match the pending subject.
		other := domain.NewAccountSubject(subject.ID)
		require.NoError(t, s.Verifications().Create(ctx, mkVerification(other, 3333, now)))

		got, err := s.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
		require.NoError(t, err)
		require.Equal(t, 2222, got.Code)
	})

	t.Run("consumed records are skipped", func(t *testing.T) {
		got, err := s.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
		require.NoError(t, err)
		require.NoError(t, s.Verifications().MarkConsumed(ctx, got.ID))

		got, err = s.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
		require.NoError(t, err)
		require.Equal(t, 1111, got.Code)

		require.ErrorIs(t, s.Verifications().MarkConsumed(ctx, "missing"), store.ErrNotFound)
	})

	t.Run("delete unconsumed leaves consumed history", func(t *testing.T) {
		require.NoError(t, s.Verifications().DeleteUnconsumedBySubject(ctx, subject))

		_, err := s.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete by subject removes everything", func(t *testing.T) {
		require.NoError(t, s.Verifications().DeleteBySubject(ctx, subject))

		// The consumed record from the earlier subtest is gone too; only the
		// account-kind record from the bleed test remains.
		got, err := s.Verifications().GetLatestUnconsumedBySubject(ctx, domain.NewAccountSubject(subject.ID))
		require.NoError(t, err)
		require.Equal(t, 3333, got.Code)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		u := newUser("carol@example.com", "carol")
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "carol@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := domain.PendingRegistration{
		ID:           idx.New().String(),
		Email:        "dave@example.com",
		PasswordHash: "$argon2id$stub",
		Nickname:     "dave",
		CreatedAt:    time.Now().UTC(),
	}

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PendingRegistrations().Create(ctx, p); err != nil {
			return err
		}
		return tx.Verifications().Create(ctx, domain.Verification{
			ID:        idx.New().String(),
			Subject:   domain.NewPendingSubject(p.ID),
			Code:      4321,
			CreatedAt: time.Now().UTC(),
			ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
		})
	})
	require.NoError(t, err)

	got, err := s.Verifications().GetLatestUnconsumedBySubject(ctx, domain.NewPendingSubject(p.ID))
	require.NoError(t, err)
	require.Equal(t, 4321, got.Code)
}
