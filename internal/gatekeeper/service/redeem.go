package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/discord"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/pkg/cryptox"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

var (
	// ErrNoActiveAuthorization means the identified user holds no pending
	// code, including the case where it was already redeemed.
	ErrNoActiveAuthorization = errors.New("no active authorization found")

	// ErrCodeExpired means the pending code's TTL elapsed. The record is
	// deleted on detection; the user must ask staff for a re-issue.
	ErrCodeExpired = errors.New("access code expired")

	// ErrCodeMismatch means the submitted pin did not match. The pending
	// code survives so the user can retry until it expires.
	ErrCodeMismatch = errors.New("invalid access code")

	// ErrPlatformNotConfigured means no target guild is mapped for the
	// code's platform. This is an operator misconfiguration, not user error.
	ErrPlatformNotConfigured = errors.New("platform is not configured")
)

// ProviderError wraps a failure from the identity provider, tagged with
// the step of the redemption chain that failed. The HTTP layer surfaces
// the upstream text to the caller.
type ProviderError struct {
	Step string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IdentityProvider is the slice of the Discord client the redemption
// chain depends on.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (*discord.TokenResponse, error)
	Identify(ctx context.Context, accessToken string) (*discord.User, error)
	AddGuildMember(ctx context.Context, guildID, userID, accessToken string) error
}

// Provisioner applies roles and callsign after a successful join.
// It is fire-and-forget; failures never surface to the redeeming browser.
type Provisioner interface {
	Apply(ctx context.Context, userID string, d domain.Department, sub domain.SubDepartment, p domain.Platform)
}

// RedeemService runs the externally reachable redemption chain: code
// exchange, identification, pending-code validation and the guild join.
// It holds no locks across the provider calls; the pending-code store
// operations are individually atomic per user.
type RedeemService struct {
	Store     store.Store
	Provider  IdentityProvider
	Provision Provisioner
	Notifier  Notifier

	// Guilds maps each platform to its target guild.
	Guilds map[domain.Platform]string

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (s *RedeemService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Redeem exchanges the OAuth authorization code, identifies the caller,
// validates their pending code against the submitted pin and joins them
// to the platform's guild. On success the pending code is consumed and
// provisioning is dispatched asynchronously.
func (s *RedeemService) Redeem(ctx context.Context, authCode, pin string) (*discord.User, error) {
	log := slogx.FromContext(ctx)

	token, err := s.Provider.ExchangeCode(ctx, authCode)
	if err != nil {
		log.Warn("token exchange failed", slog.Any("error", err))
		return nil, &ProviderError{Step: "token exchange", Err: err}
	}

	user, err := s.Provider.Identify(ctx, token.AccessToken)
	if err != nil {
		log.Warn("identity fetch failed", slog.Any("error", err))
		return nil, &ProviderError{Step: "identity fetch", Err: err}
	}

	pending, err := s.Store.PendingCodes().GetPendingCodeByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("redemption without pending code", slog.String("user_id", user.ID))
			return nil, ErrNoActiveAuthorization
		}
		log.Error("failed to look up pending code", slog.Any("error", err))
		return nil, err
	}

	if pending.Expired(s.now()) {
		if err := s.Store.PendingCodes().DeletePendingCode(ctx, user.ID); err != nil {
			log.Error("failed to delete expired code", slog.Any("error", err))
		}
		log.Info("redemption with expired code", slog.String("user_id", user.ID))
		return nil, ErrCodeExpired
	}

	// Pin mismatch keeps the record: the user may retry until TTL expiry.
	if cryptox.FingerprintToken(pin) != pending.CodeHash {
		log.Warn("redemption with wrong pin", slog.String("user_id", user.ID))
		return nil, ErrCodeMismatch
	}

	guildID, ok := s.Guilds[pending.Platform]
	if !ok {
		log.Error("no guild configured for platform",
			slog.String("platform", string(pending.Platform)),
		)
		return nil, ErrPlatformNotConfigured
	}

	if err := s.Provider.AddGuildMember(ctx, guildID, user.ID, token.AccessToken); err != nil {
		log.Warn("guild join failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil, &ProviderError{Step: "guild join", Err: err}
	}

	if err := s.Store.PendingCodes().DeletePendingCode(ctx, user.ID); err != nil {
		log.Error("failed to consume pending code",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil, err
	}

	// Provisioning and the audit line run after the response; their
	// failures never affect the already-successful redemption.
	bg := context.WithoutCancel(ctx)
	go s.Provision.Apply(bg, user.ID, pending.Department, pending.SubDepartment, pending.Platform)
	go func() {
		err := s.Notifier.NotifyOperator(bg, fmt.Sprintf(
			"<@%s> (%s) redeemed their access code for %s/%s on %s.",
			user.ID, user.Username, pending.Department, pending.SubDepartment, pending.Platform,
		))
		if err != nil {
			slogx.FromContext(bg).Warn("failed to post redemption audit line", slog.Any("error", err))
		}
	}()

	log.Info("access code redeemed",
		slog.String("user_id", user.ID),
		slog.String("platform", string(pending.Platform)),
	)
	return user, nil
}
