package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// verificationFixture wires a VerificationService against an in-memory store
// with a controllable clock.
type verificationFixture struct {
	store  store.Store
	mailer *fakeMailer
	svc    *VerificationService
	clock  time.Time
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()

	f := &verificationFixture{
		store:  newTestStore(t),
		mailer: &fakeMailer{},
		clock:  time.Now().UTC(),
	}
	f.svc = &VerificationService{
		Store:  f.store,
		Mailer: f.mailer,
		Now:    func() time.Time { return f.clock },
	}
	return f
}

func (f *verificationFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func TestSendRegistrationCode(t *testing.T) {
	ctx := context.Background()

	t.Run("no pending registration", func(t *testing.T) {
		f := newVerificationFixture(t)
		require.ErrorIs(t, f.svc.SendRegistrationCode(ctx, "ghost@example.com"), ErrPendingNotFound)
	})

	t.Run("registered email refuses issuance", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedUser(t, f.store, "done@example.com", "done", "pass-done-12")
		require.ErrorIs(t, f.svc.SendRegistrationCode(ctx, "done@example.com"), ErrEmailTaken)
	})

	t.Run("issues and mails a four digit code", func(t *testing.T) {
		f := newVerificationFixture(t)
		pending := seedPending(t, f.store, "eve@example.com", "eve", f.clock)

		require.NoError(t, f.svc.SendRegistrationCode(ctx, "eve@example.com"))
		require.Len(t, f.mailer.registration, 1)
		require.Equal(t, "eve@example.com", f.mailer.registration[0].To)
		require.Equal(t, "eve", f.mailer.registration[0].Nickname)

		record, err := f.store.Verifications().GetLatestUnconsumedBySubject(ctx, domain.NewPendingSubject(pending.ID))
		require.NoError(t, err)
		require.Equal(t, f.mailer.registration[0].Code, record.Code)
		require.GreaterOrEqual(t, record.Code, cryptox.VerificationCodeMin)
		require.LessOrEqual(t, record.Code, cryptox.VerificationCodeMax)
		require.Equal(t, f.clock.Add(5*time.Minute).Unix(), record.ExpiresAt.Unix())
	})

	t.Run("reissue invalidates the prior code and resets attempts", func(t *testing.T) {
		f := newVerificationFixture(t)
		pending := seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		require.NoError(t, f.svc.SendRegistrationCode(ctx, "eve@example.com"))
		firstCode := f.mailer.lastRegistrationCode(t)

		// Burn an attempt against the first code.
		wrong := firstCode + 1
		if wrong > cryptox.VerificationCodeMax {
			wrong = cryptox.VerificationCodeMin
		}
		_, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", wrong)
		require.NoError(t, err)

		f.advance(time.Minute)
		require.NoError(t, f.svc.SendRegistrationCode(ctx, "eve@example.com"))

		// Only the latest record remains unconsumed, and the counter is back
		// at zero.
		record, err := f.store.Verifications().GetLatestUnconsumedBySubject(ctx, domain.NewPendingSubject(pending.ID))
		require.NoError(t, err)
		require.Equal(t, f.mailer.lastRegistrationCode(t), record.Code)

		got, err := f.store.PendingRegistrations().GetByEmail(ctx, "eve@example.com")
		require.NoError(t, err)
		require.Zero(t, got.FailedAttempts)
	})

	t.Run("dispatch failure keeps the stored record", func(t *testing.T) {
		f := newVerificationFixture(t)
		pending := seedPending(t, f.store, "flaky@example.com", "flaky", f.clock)
		f.mailer.fail = errors.New("smtp down")

		err := f.svc.SendRegistrationCode(ctx, "flaky@example.com")
		require.ErrorIs(t, err, ErrDispatchFailed)

		_, err = f.store.Verifications().GetLatestUnconsumedBySubject(ctx, domain.NewPendingSubject(pending.ID))
		require.NoError(t, err, "record survives a failed dispatch; retry is a reissue")
	})
}

func TestCheckRegistrationCode(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, f *verificationFixture, email string) int {
		t.Helper()
		require.NoError(t, f.svc.SendRegistrationCode(ctx, email))
		return f.mailer.lastRegistrationCode(t)
	}

	// wrongFor returns an in-range code that is not the right one.
	wrongFor := func(code int) int {
		if code == cryptox.VerificationCodeMax {
			return cryptox.VerificationCodeMin
		}
		return code + 1
	}

	t.Run("missing pending registration", func(t *testing.T) {
		f := newVerificationFixture(t)
		_, err := f.svc.CheckRegistrationCode(ctx, "ghost@example.com", 1234)
		require.ErrorIs(t, err, ErrPendingNotFound)
	})

	t.Run("no outstanding code", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		_, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", 1234)
		require.ErrorIs(t, err, ErrVerificationNotFound)
	})

	t.Run("accepts just inside the window", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		code := issue(t, f, "eve@example.com")

		f.advance(4*time.Minute + 59*time.Second)
		ok, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", code)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("expired just outside the window", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		code := issue(t, f, "eve@example.com")

		f.advance(5*time.Minute + time.Second)
		_, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", code)
		require.ErrorIs(t, err, ErrCodeExpired)
	})

	t.Run("mismatch burns an attempt and reports false", func(t *testing.T) {
		f := newVerificationFixture(t)
		pending := seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		code := issue(t, f, "eve@example.com")

		ok, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", wrongFor(code))
		require.NoError(t, err)
		require.False(t, ok)

		got, err := f.store.PendingRegistrations().GetByEmail(ctx, "eve@example.com")
		require.NoError(t, err)
		require.Equal(t, 1, got.FailedAttempts)
		_ = pending
	})

	t.Run("attempt cap holds even for the right code", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		code := issue(t, f, "eve@example.com")

		for i := 0; i < DefaultMaxAttempts; i++ {
			ok, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", wrongFor(code))
			require.NoError(t, err)
			require.False(t, ok)
		}

		_, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", code)
		require.ErrorIs(t, err, ErrTooManyAttempts)
	})

	t.Run("success consumes the record and resets the counter", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedPending(t, f.store, "eve@example.com", "eve", f.clock)
		code := issue(t, f, "eve@example.com")

		_, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", wrongFor(code))
		require.NoError(t, err)

		ok, err := f.svc.CheckRegistrationCode(ctx, "eve@example.com", code)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := f.store.PendingRegistrations().GetByEmail(ctx, "eve@example.com")
		require.NoError(t, err)
		require.Zero(t, got.FailedAttempts)

		// Consumed means gone as far as another check is concerned.
		_, err = f.svc.CheckRegistrationCode(ctx, "eve@example.com", code)
		require.ErrorIs(t, err, ErrVerificationNotFound)
	})
}

func TestPasswordResetCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		f := newVerificationFixture(t)
		require.ErrorIs(t, f.svc.SendPasswordResetCode(ctx, "ghost@example.com"), ErrUserNotFound)
		_, err := f.svc.CheckPasswordResetCode(ctx, "ghost@example.com", 1234)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("full reset round trip deletes the record", func(t *testing.T) {
		f := newVerificationFixture(t)
		user := seedUser(t, f.store, "grace@example.com", "grace", "pass-grace-1")

		require.NoError(t, f.svc.SendPasswordResetCode(ctx, "grace@example.com"))
		code := f.mailer.lastResetCode(t)

		ok, err := f.svc.CheckPasswordResetCode(ctx, "grace@example.com", code)
		require.NoError(t, err)
		require.True(t, ok)

		// Deleted outright, not marked consumed.
		_, err = f.store.Verifications().GetLatestUnconsumedBySubject(ctx, domain.NewAccountSubject(user.ID))
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = f.svc.CheckPasswordResetCode(ctx, "grace@example.com", code)
		require.ErrorIs(t, err, ErrVerificationNotFound)
	})

	t.Run("mismatch reports false without consuming", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedUser(t, f.store, "grace@example.com", "grace", "pass-grace-1")
		require.NoError(t, f.svc.SendPasswordResetCode(ctx, "grace@example.com"))
		code := f.mailer.lastResetCode(t)

		wrong := code + 1
		if wrong > cryptox.VerificationCodeMax {
			wrong = cryptox.VerificationCodeMin
		}
		ok, err := f.svc.CheckPasswordResetCode(ctx, "grace@example.com", wrong)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = f.svc.CheckPasswordResetCode(ctx, "grace@example.com", code)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("expired reset code", func(t *testing.T) {
		f := newVerificationFixture(t)
		seedUser(t, f.store, "grace@example.com", "grace", "pass-grace-1")
		require.NoError(t, f.svc.SendPasswordResetCode(ctx, "grace@example.com"))
		code := f.mailer.lastResetCode(t)

		f.advance(6 * time.Minute)
		_, err := f.svc.CheckPasswordResetCode(ctx, "grace@example.com", code)
		require.ErrorIs(t, err, ErrCodeExpired)
	})
}
