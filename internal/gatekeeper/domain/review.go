package domain

import "time"

// ReviewDecision is a staff verdict on a submitted application.
type ReviewDecision string

const (
	DecisionAccept ReviewDecision = "accept"
	DecisionDeny   ReviewDecision = "deny"
)

// Valid reports whether d is a known decision.
func (d ReviewDecision) Valid() bool {
	return d == DecisionAccept || d == DecisionDeny
}

// ReviewTicket is the decision artifact published for a submitted
// application. It accepts exactly one decision; later attempts are no-ops.
type ReviewTicket struct {
	ID         string
	UserID     string
	Decision   ReviewDecision // empty until decided
	ReviewerID string         // empty until decided
	CreatedAt  time.Time
	DecidedAt  *time.Time
}

// Decided reports whether the ticket has already received its decision.
func (t ReviewTicket) Decided() bool {
	return t.DecidedAt != nil
}

// Cooldown blocks a denied applicant from reapplying until it expires.
type Cooldown struct {
	UserID    string
	Reason    string
	ExpiresAt time.Time
}

// Active reports whether the cooldown is still in force.
func (c Cooldown) Active(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}
