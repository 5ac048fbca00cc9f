package sqlite

import (
	"context"
	"database/sql"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
)

type reviewTicketsRepo struct {
	db dbtx
}

func (r *reviewTicketsRepo) CreateReviewTicket(ctx context.Context, t domain.ReviewTicket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO review_tickets (id, user_id) VALUES (?, ?)`,
		t.ID, t.UserID,
	)
	return mapConflict(err)
}

func (r *reviewTicketsRepo) GetReviewTicket(ctx context.Context, id string) (domain.ReviewTicket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, decision, reviewer_id, created_at, decided_at
		FROM review_tickets
		WHERE id = ?`,
		id,
	)

	var (
		t         domain.ReviewTicket
		decision  sql.NullString
		reviewer  sql.NullString
		decidedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &decision, &reviewer, &t.CreatedAt, &decidedAt)
	if err != nil {
		return domain.ReviewTicket{}, mapNotFound(err)
	}

	t.Decision = domain.ReviewDecision(decision.String)
	t.ReviewerID = reviewer.String
	if decidedAt.Valid {
		at := decidedAt.Time
		t.DecidedAt = &at
	}
	return t, nil
}

// MarkReviewTicketDecided only matches undecided tickets; the WHERE clause
// is what makes double decisions lose the race atomically.
func (r *reviewTicketsRepo) MarkReviewTicketDecided(ctx context.Context, id string, decision domain.ReviewDecision, reviewerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE review_tickets
		SET decision = ?, reviewer_id = ?, decided_at = CURRENT_TIMESTAMP
		WHERE id = ? AND decided_at IS NULL`,
		string(decision), reviewerID, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *reviewTicketsRepo) DeleteDecidedReviewTickets(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM review_tickets WHERE decided_at IS NOT NULL`)
	return err
}
