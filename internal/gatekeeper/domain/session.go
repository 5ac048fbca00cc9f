package domain

import "time"

// SessionStatus is the lifecycle state of an application session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
	SessionAccepted   SessionStatus = "accepted"
	SessionDenied     SessionStatus = "denied"
	SessionTimedOut   SessionStatus = "timed_out"
)

// Terminal reports whether the status ends the session's lifecycle.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionAccepted, SessionDenied, SessionTimedOut:
		return true
	}
	return false
}

// Answer is one collected (question, text) pair. Answers are append-only
// and keep questionnaire order.
type Answer struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Text       string `json:"text"`
}

// ApplicationSession is one user's in-flight application. At most one
// session exists per user at a time.
type ApplicationSession struct {
	UserID        string
	Department    Department
	SubDepartment SubDepartment
	Platform      Platform
	Answers       []Answer
	Status        SessionStatus
	StartedAt     time.Time
	Deadline      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Expired reports whether the session's overall deadline has passed.
func (s ApplicationSession) Expired(now time.Time) bool {
	return now.After(s.Deadline)
}

// Remaining returns the time left before the overall deadline, floored at zero.
func (s ApplicationSession) Remaining(now time.Time) time.Duration {
	left := s.Deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
