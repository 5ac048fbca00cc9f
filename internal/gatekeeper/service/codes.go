package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/pkg/cryptox"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

const (
	// DefaultCodeTTL is the redemption window of a freshly issued code.
	DefaultCodeTTL = 5 * time.Minute

	// CodeDigits is the fixed width of an access code.
	CodeDigits = 6
)

// CodeService mints one-time numeric access codes on acceptance and
// delivers them to the applicant.
type CodeService struct {
	Store    store.Store
	Notifier Notifier

	// RedeemURL is the browser entry point included in the delivery DM.
	RedeemURL string

	// TTL is the code validity window. Zero means DefaultCodeTTL.
	TTL time.Duration

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (s *CodeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CodeService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultCodeTTL
}

// Issue mints a uniformly random fixed-width code for the user,
// overwriting any code they already hold, and DMs it together with the
// redemption link. Only the code's fingerprint is persisted; delivery
// failure is logged and swallowed since the operator can always re-issue.
func (s *CodeService) Issue(
	ctx context.Context,
	userID string,
	department domain.Department,
	sub domain.SubDepartment,
	platform domain.Platform,
) (string, error) {
	log := slogx.FromContext(ctx)

	code, err := cryptox.GenerateNumericCode(CodeDigits)
	if err != nil {
		log.Error("failed to generate access code", slog.Any("error", err))
		return "", err
	}

	now := s.now()
	pending := domain.PendingCode{
		UserID:        userID,
		CodeHash:      cryptox.FingerprintToken(code),
		Department:    department,
		SubDepartment: sub,
		Platform:      platform,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.ttl()),
	}

	if err := s.Store.PendingCodes().UpsertPendingCode(ctx, pending); err != nil {
		log.Error("failed to store pending code",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return "", err
	}

	message := fmt.Sprintf(
		"Your one-time access code is **%s**. It expires in %d minutes.\nRedeem it here: %s",
		code, int(s.ttl().Minutes()), s.RedeemURL,
	)
	if err := s.Notifier.NotifyUser(ctx, userID, message); err != nil {
		log.Warn("failed to deliver access code",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	if err := s.Notifier.NotifyOperator(ctx, fmt.Sprintf(
		"Issued access code for <@%s> (%s/%s on %s), valid until %s.",
		userID, department, sub, platform, pending.ExpiresAt.Format(time.RFC3339),
	)); err != nil {
		log.Warn("failed to post code audit line", slog.Any("error", err))
	}

	log.Info("access code issued",
		slog.String("user_id", userID),
		slog.String("department", string(department)),
		slog.String("platform", string(platform)),
		slog.Time("expires_at", pending.ExpiresAt),
	)
	return code, nil
}
