package domain

import (
	"strings"
	"time"
)

// Gender is the optional self-reported gender on a profile.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
)

// ParseGender normalizes a user-supplied gender value. Unknown values map to
// unspecified rather than erroring; the field is optional.
func ParseGender(s string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOther:
		return GenderOther
	default:
		return GenderUnspecified
	}
}

// User is a durable account. It is only ever created by finalizing a pending
// registration; password hashes are carried over from stage 1 verbatim.
type User struct {
	ID           string
	Email        string // unique
	Nickname     string // unique
	PasswordHash string // argon2id encoded

	Profile

	Active         bool
	FailedAttempts int
	CreatedAt      time.Time
}

// Profile holds the optional attributes collected at finalize.
type Profile struct {
	Personality   string // free-form personality tag, e.g. "INFP"
	Gender        Gender
	Hobbies       []string
	FavoriteFoods []string
	ProfileImage  string // opaque reference to an externally stored image
}

// JoinList flattens a list attribute into its stored comma-delimited form.
func JoinList(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return strings.Join(cleaned, ",")
}

// SplitList parses a stored comma-delimited attribute back into a list.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
