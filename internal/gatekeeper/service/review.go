package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/pkg/idx"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// DefaultDenyCooldown is how long a denied applicant must wait before
// reapplying.
const DefaultDenyCooldown = 12 * time.Hour

var (
	ErrNotAuthorized   = errors.New("reviewer is not authorized to decide applications")
	ErrTicketNotFound  = errors.New("review ticket not found")
	ErrInvalidDecision = errors.New("invalid review decision")
)

// CodeIssuer mints the one-time code on acceptance. Implemented by
// CodeService; an interface so review tests can fake it.
type CodeIssuer interface {
	Issue(ctx context.Context, userID string, d domain.Department, sub domain.SubDepartment, p domain.Platform) (string, error)
}

// ReviewService publishes finished applications for a staff decision
// and applies exactly one decision per ticket.
type ReviewService struct {
	Store    store.Store
	Notifier Notifier
	Auth     Authorizer
	Codes    CodeIssuer

	// DenyCooldown is the reapply block applied on denial.
	// Zero means DefaultDenyCooldown.
	DenyCooldown time.Duration

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ReviewService) denyCooldown() time.Duration {
	if s.DenyCooldown > 0 {
		return s.DenyCooldown
	}
	return DefaultDenyCooldown
}

// Publish renders the submitted session as a decision artifact in the
// operator channel and persists the ticket awaiting exactly one decision.
func (s *ReviewService) Publish(ctx context.Context, session domain.ApplicationSession) (string, error) {
	log := slogx.FromContext(ctx)

	ticket := domain.ReviewTicket{
		ID:     idx.New().String(),
		UserID: session.UserID,
	}
	if err := s.Store.ReviewTickets().CreateReviewTicket(ctx, ticket); err != nil {
		log.Error("failed to create review ticket", slog.Any("error", err))
		return "", err
	}

	if err := s.Notifier.NotifyOperator(ctx, renderTicket(ticket.ID, session)); err != nil {
		log.Warn("failed to post review ticket to operator channel",
			slog.String("ticket_id", ticket.ID),
			slog.Any("error", err),
		)
	}

	log.Info("application published for review",
		slog.String("ticket_id", ticket.ID),
		slog.String("user_id", session.UserID),
		slog.String("department", string(session.Department)),
	)
	return ticket.ID, nil
}

// Decide applies a reviewer's verdict. Unauthorized callers are
// rejected without any state change. A second decision on the same
// ticket is a no-op: the first verdict stands and nil is returned.
func (s *ReviewService) Decide(
	ctx context.Context,
	ticketID string,
	decision domain.ReviewDecision,
	reviewerID string,
) error {
	log := slogx.FromContext(ctx)

	if !decision.Valid() {
		return ErrInvalidDecision
	}

	allowed, err := s.Auth.CanReview(ctx, reviewerID)
	if err != nil {
		log.Error("failed to check reviewer authorization", slog.Any("error", err))
		return err
	}
	if !allowed {
		log.Warn("unauthorized review attempt",
			slog.String("ticket_id", ticketID),
			slog.String("reviewer_id", reviewerID),
		)
		return ErrNotAuthorized
	}

	ticket, err := s.Store.ReviewTickets().GetReviewTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTicketNotFound
		}
		return err
	}
	if ticket.Decided() {
		log.Debug("ignoring repeat decision on decided ticket",
			slog.String("ticket_id", ticketID),
			slog.String("reviewer_id", reviewerID),
		)
		return nil
	}

	// The conditional update is the idempotency point: if another
	// reviewer decided concurrently, we lose the race and back off.
	err = s.Store.ReviewTickets().MarkReviewTicketDecided(ctx, ticketID, decision, reviewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		log.Error("failed to record review decision", slog.Any("error", err))
		return err
	}

	session, err := s.Store.Sessions().GetSession(ctx, ticket.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Session timed out or was torn down between submission and
			// decision. The verdict is recorded; there is nothing to act on.
			log.Warn("decided ticket has no live session",
				slog.String("ticket_id", ticketID),
				slog.String("user_id", ticket.UserID),
			)
			return ErrSessionNotFound
		}
		return err
	}

	switch decision {
	case domain.DecisionAccept:
		err = s.accept(ctx, session)
	case domain.DecisionDeny:
		err = s.deny(ctx, session)
	}
	if err != nil {
		return err
	}

	log.Info("application decided",
		slog.String("ticket_id", ticketID),
		slog.String("user_id", ticket.UserID),
		slog.String("decision", string(decision)),
		slog.String("reviewer_id", reviewerID),
	)
	return nil
}

func (s *ReviewService) accept(ctx context.Context, session domain.ApplicationSession) error {
	log := slogx.FromContext(ctx)

	s.notifyUser(ctx, session.UserID,
		"Congratulations, your application has been accepted! Your one-time access code is on its way.")

	if _, err := s.Codes.Issue(ctx, session.UserID, session.Department, session.SubDepartment, session.Platform); err != nil {
		log.Error("failed to issue access code",
			slog.String("user_id", session.UserID),
			slog.Any("error", err),
		)
		return err
	}

	return s.Store.Sessions().DeleteSession(ctx, session.UserID)
}

func (s *ReviewService) deny(ctx context.Context, session domain.ApplicationSession) error {
	log := slogx.FromContext(ctx)

	cooldown := s.denyCooldown()
	err := s.Store.Cooldowns().SetCooldown(ctx, domain.Cooldown{
		UserID:    session.UserID,
		Reason:    "application denied",
		ExpiresAt: s.now().Add(cooldown),
	})
	if err != nil {
		log.Error("failed to set reapply cooldown",
			slog.String("user_id", session.UserID),
			slog.Any("error", err),
		)
		return err
	}

	s.notifyUser(ctx, session.UserID, fmt.Sprintf(
		"Unfortunately your application was denied. You may reapply in %d hours.",
		int(cooldown.Hours()),
	))

	return s.Store.Sessions().DeleteSession(ctx, session.UserID)
}

func (s *ReviewService) notifyUser(ctx context.Context, userID, content string) {
	if err := s.Notifier.NotifyUser(ctx, userID, content); err != nil {
		slogx.FromContext(ctx).Warn("failed to deliver decision notice",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// renderTicket formats the decision artifact posted to the operator
// channel. Plain text; embed rendering belongs to the presentation layer.
func renderTicket(ticketID string, session domain.ApplicationSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application %s from <@%s>\n", ticketID, session.UserID)
	fmt.Fprintf(&b, "Department: %s", session.Department)
	if session.Department.HasSubDepartments() {
		fmt.Fprintf(&b, " (%s)", session.SubDepartment)
	}
	fmt.Fprintf(&b, " | Platform: %s\n", session.Platform)
	for _, a := range session.Answers {
		fmt.Fprintf(&b, "%s: %s\n> %s\n", a.QuestionID, a.Question, a.Text)
	}
	return b.String()
}
