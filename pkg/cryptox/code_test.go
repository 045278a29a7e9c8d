package cryptox_test

import (
	"testing"

	"github.com/planitee/identity/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCodeStaysInRange(t *testing.T) {
	t.Parallel()

	for range 1000 {
		code, err := cryptox.GenerateVerificationCode()
		require.NoError(t, err)
		require.GreaterOrEqual(t, code, cryptox.VerificationCodeMin)
		require.LessOrEqual(t, code, cryptox.VerificationCodeMax)
	}
}

func TestGenerateVerificationCodeVaries(t *testing.T) {
	t.Parallel()

	seen := make(map[int]struct{})
	for range 200 {
		code, err := cryptox.GenerateVerificationCode()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}

	// 200 draws from 9000 values collapsing onto a handful would indicate
	// a broken entropy source.
	require.Greater(t, len(seen), 100)
}
