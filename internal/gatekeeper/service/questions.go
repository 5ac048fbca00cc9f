package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// DefaultQuestionCap bounds the wait for a single answer. The effective
// per-question timeout is min(remaining session time, this cap).
const DefaultQuestionCap = 5 * time.Minute

var (
	ErrNoPendingQuestion = errors.New("no question is awaiting an answer")
	ErrSessionTimedOut   = errors.New("application session timed out")
)

// ReviewPublisher receives the finished session. Implemented by
// ReviewService; narrowed to an interface so question flow tests can fake it.
type ReviewPublisher interface {
	Publish(ctx context.Context, session domain.ApplicationSession) (string, error)
}

// QuestionService drives one user through their department's ordered
// question list, one question at a time. Each user's run is an
// independent goroutine; the only shared state is the waiter registry,
// which is never held across a suspension.
type QuestionService struct {
	Store    store.Store
	Notifier Notifier
	Review   ReviewPublisher

	// QuestionCap bounds the per-question wait. Zero means DefaultQuestionCap.
	QuestionCap time.Duration

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time

	mu      sync.Mutex
	waiters map[string]chan string
}

func (s *QuestionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *QuestionService) questionCap() time.Duration {
	if s.QuestionCap > 0 {
		return s.QuestionCap
	}
	return DefaultQuestionCap
}

// Answer feeds the user's next message into their running questionnaire.
// It only succeeds while the user's run is suspended on a question;
// otherwise ErrNoPendingQuestion is returned and the message is dropped.
func (s *QuestionService) Answer(ctx context.Context, userID, text string) error {
	s.mu.Lock()
	ch, ok := s.waiters[userID]
	s.mu.Unlock()
	if !ok {
		return ErrNoPendingQuestion
	}

	select {
	case ch <- strings.TrimSpace(text):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrNoPendingQuestion
	}
}

// register installs the user's answer channel for the duration of a run.
// The channel is unbuffered on purpose: a send only succeeds while the
// run is actually blocked on a question, which is exactly the window in
// which an answer is wanted.
func (s *QuestionService) register(userID string) chan string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.waiters == nil {
		s.waiters = make(map[string]chan string)
	}
	ch := make(chan string)
	s.waiters[userID] = ch
	return ch
}

func (s *QuestionService) unregister(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.waiters, userID)
}

// Run executes the full questionnaire for the user's live session:
// the sub-department pre-question where applicable, then every
// department question in order, then submission and hand-off to review.
//
// Timeout is the only failure mode. It is terminal: the user is
// notified and the session removed before Run returns ErrSessionTimedOut.
func (s *QuestionService) Run(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	session, err := s.Store.Sessions().GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.Status != domain.SessionInProgress {
		return ErrSessionNotFound
	}

	ch := s.register(userID)
	defer s.unregister(userID)

	if session.Department.HasSubDepartments() {
		sub, err := s.askSubDepartment(ctx, ch, session)
		if err != nil {
			return s.timeout(ctx, userID, err)
		}
		if err := s.Store.Sessions().UpdateSubDepartment(ctx, userID, sub); err != nil {
			log.Error("failed to record sub-department", slog.Any("error", err))
			return err
		}
		session.SubDepartment = sub
	}

	for _, q := range domain.QuestionsFor(session.Department) {
		text, err := s.ask(ctx, ch, session, q)
		if err != nil {
			return s.timeout(ctx, userID, err)
		}

		answer := domain.Answer{QuestionID: q.ID, Question: q.Prompt, Text: text}
		if err := s.Store.Sessions().AppendAnswer(ctx, userID, answer); err != nil {
			log.Error("failed to append answer",
				slog.String("user_id", userID),
				slog.String("question_id", q.ID),
				slog.Any("error", err),
			)
			return err
		}
	}

	if err := s.Store.Sessions().UpdateSessionStatus(ctx, userID, domain.SessionSubmitted); err != nil {
		log.Error("failed to mark session submitted", slog.Any("error", err))
		return err
	}
	session.Status = domain.SessionSubmitted

	s.notify(ctx, userID, "Your application has been submitted. Staff will review it shortly.")

	session, err = s.Store.Sessions().GetSession(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.Review.Publish(ctx, session); err != nil {
		log.Error("failed to publish session for review", slog.Any("error", err))
		return err
	}

	log.Info("questionnaire completed",
		slog.String("user_id", userID),
		slog.String("department", string(session.Department)),
		slog.Int("answers", len(session.Answers)),
	)
	return nil
}

// askSubDepartment runs the closed-choice pre-question for departments
// with sub-departments, re-prompting until a valid choice arrives.
func (s *QuestionService) askSubDepartment(
	ctx context.Context,
	ch <-chan string,
	session domain.ApplicationSession,
) (domain.SubDepartment, error) {
	options := domain.SubDepartmentsOf(session.Department)
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = string(o)
	}
	prompt := fmt.Sprintf("Which sub-department are you applying for? (%s)", strings.Join(labels, " / "))

	for {
		text, err := s.await(ctx, ch, session, prompt)
		if err != nil {
			return "", err
		}
		for _, o := range options {
			if strings.EqualFold(text, string(o)) {
				return o, nil
			}
		}
		prompt = fmt.Sprintf("Please answer with one of: %s", strings.Join(labels, " / "))
	}
}

// ask presents one question and waits for an acceptable answer,
// re-prompting on invalid closed-choice input.
func (s *QuestionService) ask(
	ctx context.Context,
	ch <-chan string,
	session domain.ApplicationSession,
	q domain.Question,
) (string, error) {
	prompt := q.Prompt
	for {
		text, err := s.await(ctx, ch, session, prompt)
		if err != nil {
			return "", err
		}

		if q.ClosedChoice() {
			// Closed-choice answers are matched case-insensitively and
			// stored in their canonical casing.
			matched := false
			for _, c := range q.Choices {
				if strings.EqualFold(text, c) {
					text = c
					matched = true
					break
				}
			}
			if !matched {
				prompt = fmt.Sprintf("Please answer with one of: %s", strings.Join(q.Choices, " / "))
				continue
			}
		} else if text == "" {
			prompt = "Please send a non-empty answer.\n" + q.Prompt
			continue
		}

		return text, nil
	}
}

// await sends the prompt and suspends until the user's next message,
// the per-question timeout, the overall deadline, or context cancellation.
func (s *QuestionService) await(
	ctx context.Context,
	ch <-chan string,
	session domain.ApplicationSession,
	prompt string,
) (string, error) {
	now := s.now()
	if session.Expired(now) {
		return "", ErrSessionTimedOut
	}

	s.notify(ctx, session.UserID, prompt)

	wait := session.Remaining(now)
	if c := s.questionCap(); wait > c {
		wait = c
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case text := <-ch:
		return text, nil
	case <-timer.C:
		return "", ErrSessionTimedOut
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// timeout tears the session down exactly once. The waiter is already
// unregistered by the deferred cleanup in Run before any late answer
// could observe a half-dead session, so teardown cannot double-fire.
func (s *QuestionService) timeout(ctx context.Context, userID string, cause error) error {
	log := slogx.FromContext(ctx)

	if !errors.Is(cause, ErrSessionTimedOut) {
		return cause
	}

	s.unregister(userID)
	s.notify(ctx, userID, "Your application timed out. You can start a new one whenever you're ready.")

	if err := s.Store.Sessions().DeleteSession(ctx, userID); err != nil {
		log.Error("failed to remove timed out session",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	log.Info("application session timed out", slog.String("user_id", userID))
	return ErrSessionTimedOut
}

// notify delivers a user message best-effort. Delivery failures are
// logged and swallowed; the questionnaire itself keeps its own timing.
func (s *QuestionService) notify(ctx context.Context, userID, content string) {
	if err := s.Notifier.NotifyUser(ctx, userID, content); err != nil {
		slogx.FromContext(ctx).Warn("failed to deliver message",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}
