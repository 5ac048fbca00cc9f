package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// GuildManager is the slice of the Discord client provisioning needs.
type GuildManager interface {
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	SetMemberNickname(ctx context.Context, guildID, userID, nick string) error
}

// ProvisionService attaches the role package and callsign to a freshly
// joined member. Every side effect is individually best-effort: a failed
// nickname change never blocks role attachment and vice versa, and
// nothing here can fail the redemption that already completed.
type ProvisionService struct {
	Guild    GuildManager
	Notifier Notifier

	// Table maps (platform, department, sub-department) to role packages.
	Table domain.ProvisioningTable

	// Guilds maps each platform to its target guild.
	Guilds map[domain.Platform]string

	// SuffixFn picks the callsign's numeric suffix. Nil means a random
	// value in [0, 1000).
	SuffixFn func() int
}

func (s *ProvisionService) suffix() int {
	if s.SuffixFn != nil {
		return s.SuffixFn()
	}
	return rand.IntN(1000)
}

// Apply provisions the member: callsign nickname first, then each role
// in the package. Failures are logged and skipped.
func (s *ProvisionService) Apply(
	ctx context.Context,
	userID string,
	department domain.Department,
	sub domain.SubDepartment,
	platform domain.Platform,
) {
	log := slogx.FromContext(ctx)

	guildID, ok := s.Guilds[platform]
	if !ok {
		log.Error("no guild configured for platform, skipping provisioning",
			slog.String("user_id", userID),
			slog.String("platform", string(platform)),
		)
		return
	}

	callsign := domain.Callsign(department, sub, s.suffix())
	if err := s.Guild.SetMemberNickname(ctx, guildID, userID, callsign); err != nil {
		log.Warn("failed to set callsign",
			slog.String("user_id", userID),
			slog.String("callsign", callsign),
			slog.Any("error", err),
		)
	}

	pkg, ok := s.Table.Lookup(platform, department, sub)
	if !ok {
		log.Error("no role package for member, roles not attached",
			slog.String("user_id", userID),
			slog.String("platform", string(platform)),
			slog.String("department", string(department)),
			slog.String("sub_department", string(sub)),
		)
		return
	}

	attached := 0
	for _, roleID := range pkg.RoleIDs {
		if err := s.Guild.AddMemberRole(ctx, guildID, userID, roleID); err != nil {
			log.Warn("failed to attach role",
				slog.String("user_id", userID),
				slog.String("role_id", roleID),
				slog.Any("error", err),
			)
			continue
		}
		attached++
	}

	if err := s.Notifier.NotifyUser(ctx, userID, fmt.Sprintf(
		"Welcome aboard! Your callsign is %s.", callsign,
	)); err != nil {
		log.Warn("failed to deliver welcome message",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	log.Info("member provisioned",
		slog.String("user_id", userID),
		slog.String("callsign", callsign),
		slog.Int("roles_attached", attached),
		slog.Int("roles_total", len(pkg.RoleIDs)),
	)
}
