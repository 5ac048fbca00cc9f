package domain

import "time"

// PendingCode is the single-use, time-limited numeric credential bridging
// staff acceptance and self-service redemption. Only the SHA-256
// fingerprint of the code is kept at rest; the raw digits are delivered
// to the applicant once and never stored.
//
// At most one pending code exists per user. Issuing a new one overwrites
// the old. Redemption consumes it exactly once. Expiry is checked lazily
// at redemption time.
type PendingCode struct {
	UserID        string
	CodeHash      string
	Department    Department
	SubDepartment SubDepartment
	Platform      Platform
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the code's TTL has elapsed.
func (c PendingCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
