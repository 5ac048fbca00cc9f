package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.ApplicationSession) error {
	answers, err := marshalAnswers(s.Answers)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO application_sessions
			(user_id, department, sub_department, platform, answers, status, started_at, deadline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, string(s.Department), string(s.SubDepartment), string(s.Platform),
		answers, string(s.Status), s.StartedAt, s.Deadline,
	)
	return mapConflict(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, userID string) (domain.ApplicationSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, department, sub_department, platform, answers, status,
		       started_at, deadline, created_at, updated_at
		FROM application_sessions
		WHERE user_id = ?`,
		userID,
	)

	var (
		s       domain.ApplicationSession
		answers string
	)
	err := row.Scan(
		&s.UserID, &s.Department, &s.SubDepartment, &s.Platform, &answers,
		&s.Status, &s.StartedAt, &s.Deadline, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.ApplicationSession{}, mapNotFound(err)
	}

	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return domain.ApplicationSession{}, err
	}
	return s, nil
}

// AppendAnswer rewrites the answers JSON inside a single UPDATE using the
// SQLite json functions, so concurrent appends for different users never
// interfere and no read-modify-write round trip is needed.
func (r *sessionsRepo) AppendAnswer(ctx context.Context, userID string, a domain.Answer) error {
	encoded, err := json.Marshal(a)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE application_sessions
		SET answers = json_insert(answers, '$[#]', json(?)),
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`,
		string(encoded), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) UpdateSessionStatus(ctx context.Context, userID string, status domain.SessionStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE application_sessions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`,
		string(status), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) UpdateSubDepartment(ctx context.Context, userID string, sub domain.SubDepartment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE application_sessions
		SET sub_department = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`,
		string(sub), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM application_sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM application_sessions
		WHERE status = ? AND deadline < ?`,
		string(domain.SessionInProgress), time.Now().UTC(),
	)
	return err
}

func marshalAnswers(answers []domain.Answer) (string, error) {
	if answers == nil {
		answers = []domain.Answer{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
