package sqlite

import (
	"context"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
)

type pendingCodesRepo struct {
	db dbtx
}

func (r *pendingCodesRepo) UpsertPendingCode(ctx context.Context, c domain.PendingCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_codes
			(user_id, code_hash, department, sub_department, platform, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			code_hash = excluded.code_hash,
			department = excluded.department,
			sub_department = excluded.sub_department,
			platform = excluded.platform,
			issued_at = excluded.issued_at,
			expires_at = excluded.expires_at`,
		c.UserID, c.CodeHash, string(c.Department), string(c.SubDepartment),
		string(c.Platform), c.IssuedAt, c.ExpiresAt,
	)
	return err
}

func (r *pendingCodesRepo) GetPendingCodeByUserID(ctx context.Context, userID string) (domain.PendingCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, code_hash, department, sub_department, platform, issued_at, expires_at
		FROM pending_codes
		WHERE user_id = ?`,
		userID,
	)

	var c domain.PendingCode
	err := row.Scan(
		&c.UserID, &c.CodeHash, &c.Department, &c.SubDepartment,
		&c.Platform, &c.IssuedAt, &c.ExpiresAt,
	)
	if err != nil {
		return domain.PendingCode{}, mapNotFound(err)
	}
	return c, nil
}

func (r *pendingCodesRepo) DeletePendingCode(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_codes WHERE user_id = ?`, userID)
	return err
}

func (r *pendingCodesRepo) DeleteExpiredPendingCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
