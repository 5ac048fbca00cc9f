package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// DefaultSessionWindow is the overall deadline for finishing the
// questionnaire, measured from session creation.
const DefaultSessionWindow = 35 * time.Minute

var (
	ErrSessionActive     = errors.New("an application is already in progress")
	ErrSessionNotFound   = errors.New("no application session found")
	ErrOnCooldown        = errors.New("applicant is on a reapply cooldown")
	ErrInvalidDepartment = errors.New("invalid department")
	ErrInvalidPlatform   = errors.New("invalid platform")
)

// SessionService owns application session lifecycle: creation with the
// single-active-session and cooldown checks, lookup, and teardown.
type SessionService struct {
	Store store.Store

	// Window is the overall session deadline. Zero means DefaultSessionWindow.
	Window time.Duration

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *SessionService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultSessionWindow
}

// Create starts a new application session for the user. It fails with
// ErrSessionActive while another session is live, and with ErrOnCooldown
// while a deny cooldown is in force.
func (s *SessionService) Create(
	ctx context.Context,
	userID string,
	department domain.Department,
	platform domain.Platform,
) (domain.ApplicationSession, error) {
	log := slogx.FromContext(ctx)

	if !department.Valid() {
		return domain.ApplicationSession{}, ErrInvalidDepartment
	}
	if !platform.Valid() {
		return domain.ApplicationSession{}, ErrInvalidPlatform
	}

	now := s.now()

	cooldown, err := s.Store.Cooldowns().GetCooldown(ctx, userID)
	switch {
	case err == nil:
		if cooldown.Active(now) {
			log.Warn("application blocked by reapply cooldown",
				slog.String("user_id", userID),
				slog.Time("expires_at", cooldown.ExpiresAt),
			)
			return domain.ApplicationSession{}, ErrOnCooldown
		}
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to check reapply cooldown", slog.Any("error", err))
		return domain.ApplicationSession{}, err
	}

	session := domain.ApplicationSession{
		UserID:        userID,
		Department:    department,
		SubDepartment: domain.SubDepartmentNone,
		Platform:      platform,
		Status:        domain.SessionInProgress,
		StartedAt:     now,
		Deadline:      now.Add(s.window()),
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.ApplicationSession{}, ErrSessionActive
		}
		log.Error("failed to create application session", slog.Any("error", err))
		return domain.ApplicationSession{}, err
	}

	log.Info("application session created",
		slog.String("user_id", userID),
		slog.String("department", string(department)),
		slog.String("platform", string(platform)),
		slog.Time("deadline", session.Deadline),
	)

	return session, nil
}

// Get returns the user's live session.
func (s *SessionService) Get(ctx context.Context, userID string) (domain.ApplicationSession, error) {
	session, err := s.Store.Sessions().GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ApplicationSession{}, ErrSessionNotFound
		}
		return domain.ApplicationSession{}, err
	}
	return session, nil
}

// Remove tears the session down on a terminal transition, freeing the
// user's slot for a future application.
func (s *SessionService) Remove(ctx context.Context, userID string) error {
	return s.Store.Sessions().DeleteSession(ctx, userID)
}
