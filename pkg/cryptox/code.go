package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Bounds for emailed verification codes. Four digits keeps the code easy to
// type on a phone; the attempt cap in the verification service is what makes
// the small space acceptable.
const (
	VerificationCodeMin = 1000
	VerificationCodeMax = 9999
)

// GenerateVerificationCode returns a uniformly distributed code in
// [VerificationCodeMin, VerificationCodeMax]. crypto/rand keeps successive
// codes independent; rand.Int rejects biased draws so every code in the
// range is equally likely.
func GenerateVerificationCode() (int, error) {
	span := int64(VerificationCodeMax - VerificationCodeMin + 1)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, fmt.Errorf("cryptox: failed to generate verification code: %w", err)
	}
	return VerificationCodeMin + int(n.Int64()), nil
}
