package service

import (
	"context"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/discord"
)

// Messenger is the slice of the Discord client the notifier needs.
type Messenger interface {
	SendDM(ctx context.Context, userID, content string) error
	SendChannel(ctx context.Context, channelID, content string) error
}

// DiscordNotifier delivers pipeline messages over Discord: DMs to
// applicants and audit lines to the operator channel.
type DiscordNotifier struct {
	Client            Messenger
	OperatorChannelID string
}

func (n *DiscordNotifier) NotifyUser(ctx context.Context, userID, content string) error {
	return n.Client.SendDM(ctx, userID, content)
}

func (n *DiscordNotifier) NotifyOperator(ctx context.Context, content string) error {
	return n.Client.SendChannel(ctx, n.OperatorChannelID, content)
}

// MemberReader fetches guild members for authorization checks.
type MemberReader interface {
	GetGuildMember(ctx context.Context, guildID, userID string) (*discord.Member, error)
}

// RoleAuthorizer authorizes reviewers by membership of a staff role in
// the home guild.
type RoleAuthorizer struct {
	Client       MemberReader
	GuildID      string
	StaffRoleIDs []string
}

func (a *RoleAuthorizer) CanReview(ctx context.Context, reviewerID string) (bool, error) {
	member, err := a.Client.GetGuildMember(ctx, a.GuildID, reviewerID)
	if err != nil {
		return false, err
	}

	for _, held := range member.Roles {
		for _, staff := range a.StaffRoleIDs {
			if held == staff {
				return true, nil
			}
		}
	}
	return false, nil
}
