package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
)

func newProvisionService(guild *fakeGuild, notifier *fakeNotifier) *ProvisionService {
	return &ProvisionService{
		Guild:    guild,
		Notifier: notifier,
		Table: domain.ProvisioningTable{
			{Platform: domain.PlatformPS5, Department: domain.DepartmentPSO, SubDepartment: domain.SubDepartmentBCSO}: {
				RoleIDs: []string{"role-member", "role-pso", "role-bcso"},
			},
			{Platform: domain.PlatformPS4, Department: domain.DepartmentCO, SubDepartment: domain.SubDepartmentNone}: {
				RoleIDs: []string{"role-member", "role-civ"},
			},
		},
		Guilds: map[domain.Platform]string{
			domain.PlatformPS4: "guild-ps4",
			domain.PlatformPS5: "guild-ps5",
		},
		SuffixFn: func() int { return 417 },
	}
}

func TestProvisionServiceApply(t *testing.T) {
	t.Parallel()

	t.Run("sets callsign and attaches the role package", func(t *testing.T) {
		t.Parallel()
		guild := &fakeGuild{}
		notifier := &fakeNotifier{}
		svc := newProvisionService(guild, notifier)

		svc.Apply(context.Background(), "user-1", domain.DepartmentPSO, domain.SubDepartmentBCSO, domain.PlatformPS5)

		require.Equal(t, "SD-417", guild.nick)
		require.Equal(t, []string{"role-member", "role-pso", "role-bcso"}, guild.roles)

		msgs := notifier.userMessages("user-1")
		require.Len(t, msgs, 1)
		require.Contains(t, msgs[0], "SD-417")
	})

	t.Run("nickname failure does not block role attachment", func(t *testing.T) {
		t.Parallel()
		guild := &fakeGuild{nickErr: errors.New("missing permissions")}
		svc := newProvisionService(guild, &fakeNotifier{})

		svc.Apply(context.Background(), "user-2", domain.DepartmentCO, domain.SubDepartmentNone, domain.PlatformPS4)

		require.Equal(t, []string{"role-member", "role-civ"}, guild.roles)
	})

	t.Run("one failed role does not stop the rest", func(t *testing.T) {
		t.Parallel()
		guild := &fakeGuild{roleErr: map[string]error{"role-pso": errors.New("role gone")}}
		svc := newProvisionService(guild, &fakeNotifier{})

		svc.Apply(context.Background(), "user-3", domain.DepartmentPSO, domain.SubDepartmentBCSO, domain.PlatformPS5)

		require.Equal(t, []string{"role-member", "role-bcso"}, guild.roles)
	})

	t.Run("unmapped combination attaches nothing", func(t *testing.T) {
		t.Parallel()
		guild := &fakeGuild{}
		svc := newProvisionService(guild, &fakeNotifier{})

		svc.Apply(context.Background(), "user-4", domain.DepartmentSAFR, domain.SubDepartmentNone, domain.PlatformPS5)

		require.Empty(t, guild.roles)
		// The callsign is still applied; the table miss only affects roles.
		require.Equal(t, "FR-417", guild.nick)
	})
}
