package domain

import "time"

// PendingRegistration is a stage-1 signup that has not yet been promoted to a
// durable User. The email is unique across both pending registrations and
// accounts. FailedAttempts is the authoritative counter for wrong-code
// submissions; it resets on reissue and on success.
type PendingRegistration struct {
	ID             string
	Email          string // unique
	PasswordHash   string // argon2id, hashed at stage 1
	Nickname       string
	FailedAttempts int
	CreatedAt      time.Time
}
