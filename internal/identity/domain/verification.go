package domain

import "time"

// SubjectKind discriminates who a verification record belongs to.
type SubjectKind string

const (
	// SubjectPending targets a not-yet-confirmed registration.
	SubjectPending SubjectKind = "pending"
	// SubjectAccount targets an existing account (password reset).
	SubjectAccount SubjectKind = "account"
)

// VerificationSubject is a tagged reference to the owner of a verification
// record: exactly one of a pending registration or an account, never both.
// Construct it through NewPendingSubject / NewAccountSubject so the pairing
// of kind and id cannot drift.
type VerificationSubject struct {
	Kind SubjectKind
	ID   string
}

func NewPendingSubject(pendingID string) VerificationSubject {
	return VerificationSubject{Kind: SubjectPending, ID: pendingID}
}

func NewAccountSubject(userID string) VerificationSubject {
	return VerificationSubject{Kind: SubjectAccount, ID: userID}
}

// Verification is a short-lived emailed code bound to one subject. At most
// one unconsumed record exists per subject: issuing a new code deletes any
// prior unconsumed ones in the same transaction.
type Verification struct {
	ID        string
	Subject   VerificationSubject
	Code      int // four digits, 1000-9999
	CreatedAt time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// ExpiredAt reports whether the record is past its window at the given time.
func (v Verification) ExpiredAt(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
