package service

import (
	"context"
	"testing"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/planitee/identity/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestRegistrationStart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := &RegistrationService{Store: s}

	t.Run("rejects blank fields", func(t *testing.T) {
		_, err := svc.Start(ctx, "", "secret", "alice")
		require.ErrorIs(t, err, ErrInvalidRequest)
		_, err = svc.Start(ctx, "alice@example.com", "", "alice")
		require.ErrorIs(t, err, ErrInvalidRequest)
		_, err = svc.Start(ctx, "alice@example.com", "secret", "")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("stages a registration with a hashed password", func(t *testing.T) {
		pending, err := svc.Start(ctx, "alice@example.com", "hunter2hunter2", "alice")
		require.NoError(t, err)
		require.NotEmpty(t, pending.ID)
		require.Zero(t, pending.FailedAttempts)

		require.NotEqual(t, "hunter2hunter2", pending.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("hunter2hunter2", pending.PasswordHash))
	})

	t.Run("second start for the same email conflicts", func(t *testing.T) {
		_, err := svc.Start(ctx, "alice@example.com", "otherpass", "alice2")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("registered email conflicts", func(t *testing.T) {
		seedUser(t, s, "bob@example.com", "bob", "pass-bob-123")

		_, err := svc.Start(ctx, "bob@example.com", "whatever1", "bob2")
		require.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestRegistrationFinalize(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := &RegistrationService{Store: s}

	t.Run("missing pending registration", func(t *testing.T) {
		_, err := svc.Finalize(ctx, "ghost@example.com", domain.Profile{})
		require.ErrorIs(t, err, ErrPendingNotFound)
	})

	t.Run("promotes pending to account atomically", func(t *testing.T) {
		pending := seedPending(t, s, "carol@example.com", "carol", time.Now().UTC())

		// Leave a verification trail behind, as the real flow does.
		subject := domain.NewPendingSubject(pending.ID)
		require.NoError(t, s.Verifications().Create(ctx, domain.Verification{
			ID:        idx.New().String(),
			Subject:   subject,
			Code:      1234,
			CreatedAt: time.Now().UTC(),
			ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
			Consumed:  true,
		}))

		profile := domain.Profile{
			Personality:   "ENTP",
			Gender:        domain.GenderFemale,
			Hobbies:       []string{"climbing"},
			FavoriteFoods: []string{"pho", "tacos"},
		}
		user, err := svc.Finalize(ctx, "carol@example.com", profile)
		require.NoError(t, err)
		require.Equal(t, "carol@example.com", user.Email)
		require.Equal(t, "carol", user.Nickname)
		require.Equal(t, pending.PasswordHash, user.PasswordHash, "hash is carried verbatim")
		require.True(t, user.Active)

		stored, err := s.Users().GetUserByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.Equal(t, profile, stored.Profile)

		_, err = s.PendingRegistrations().GetByEmail(ctx, "carol@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Verifications().GetLatestUnconsumedBySubject(ctx, subject)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("finalize twice fails", func(t *testing.T) {
		_, err := svc.Finalize(ctx, "carol@example.com", domain.Profile{})
		require.ErrorIs(t, err, ErrPendingNotFound)
	})

	t.Run("nickname taken by an account", func(t *testing.T) {
		seedUser(t, s, "dan@example.com", "dan", "pass-dan-123")
		seedPending(t, s, "dan2@example.com", "dan", time.Now().UTC())

		_, err := svc.Finalize(ctx, "dan2@example.com", domain.Profile{})
		require.ErrorIs(t, err, ErrNicknameTaken)
	})
}
