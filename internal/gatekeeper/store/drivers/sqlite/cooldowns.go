package sqlite

import (
	"context"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
)

type cooldownsRepo struct {
	db dbtx
}

func (r *cooldownsRepo) SetCooldown(ctx context.Context, c domain.Cooldown) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reapply_cooldowns (user_id, reason, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			reason = excluded.reason,
			expires_at = excluded.expires_at`,
		c.UserID, c.Reason, c.ExpiresAt,
	)
	return err
}

func (r *cooldownsRepo) GetCooldown(ctx context.Context, userID string) (domain.Cooldown, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, reason, expires_at
		FROM reapply_cooldowns
		WHERE user_id = ?`,
		userID,
	)

	var c domain.Cooldown
	if err := row.Scan(&c.UserID, &c.Reason, &c.ExpiresAt); err != nil {
		return domain.Cooldown{}, mapNotFound(err)
	}
	return c, nil
}

func (r *cooldownsRepo) DeleteExpiredCooldowns(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reapply_cooldowns WHERE expires_at < ?`, time.Now().UTC())
	return err
}
