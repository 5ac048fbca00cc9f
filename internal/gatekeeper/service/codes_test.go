package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/pkg/cryptox"
)

func TestCodeServiceIssue(t *testing.T) {
	t.Parallel()

	t.Run("mints a six digit code and stores its fingerprint", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		notifier := &fakeNotifier{}
		svc := &CodeService{Store: st, Notifier: notifier, RedeemURL: "https://gate.example.com/auth"}

		code, err := svc.Issue(context.Background(), "user-1", domain.DepartmentPSO, domain.SubDepartmentSASP, domain.PlatformPS5)
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

		pending, err := st.PendingCodes().GetPendingCodeByUserID(context.Background(), "user-1")
		require.NoError(t, err)
		require.Equal(t, cryptox.FingerprintToken(code), pending.CodeHash)
		require.NotEqual(t, code, pending.CodeHash)
		require.Equal(t, DefaultCodeTTL, pending.ExpiresAt.Sub(pending.IssuedAt))

		msgs := notifier.userMessages("user-1")
		require.Len(t, msgs, 1)
		require.Contains(t, msgs[0], code)
		require.Contains(t, msgs[0], "https://gate.example.com/auth")

		require.Len(t, notifier.operatorMessages(), 1)
	})

	t.Run("re-issue overwrites the previous code", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		svc := &CodeService{Store: st, Notifier: &fakeNotifier{}}
		ctx := context.Background()

		first, err := svc.Issue(ctx, "user-2", domain.DepartmentCO, domain.SubDepartmentNone, domain.PlatformPS4)
		require.NoError(t, err)
		second, err := svc.Issue(ctx, "user-2", domain.DepartmentCO, domain.SubDepartmentNone, domain.PlatformPS4)
		require.NoError(t, err)

		pending, err := st.PendingCodes().GetPendingCodeByUserID(ctx, "user-2")
		require.NoError(t, err)
		require.Equal(t, cryptox.FingerprintToken(second), pending.CodeHash)
		if first != second {
			require.NotEqual(t, cryptox.FingerprintToken(first), pending.CodeHash)
		}
	})

	t.Run("delivery failure does not fail issuance", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		svc := &CodeService{Store: st, Notifier: &fakeNotifier{failUser: true}}

		_, err := svc.Issue(context.Background(), "user-3", domain.DepartmentSAFR, domain.SubDepartmentNone, domain.PlatformPS5)
		require.NoError(t, err)

		_, err = st.PendingCodes().GetPendingCodeByUserID(context.Background(), "user-3")
		require.NoError(t, err)
	})

	t.Run("honours a custom TTL", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		svc := &CodeService{Store: st, Notifier: &fakeNotifier{}, TTL: 10 * time.Minute}

		_, err := svc.Issue(context.Background(), "user-4", domain.DepartmentCO, domain.SubDepartmentNone, domain.PlatformPS4)
		require.NoError(t, err)

		pending, err := st.PendingCodes().GetPendingCodeByUserID(context.Background(), "user-4")
		require.NoError(t, err)
		require.Equal(t, 10*time.Minute, pending.ExpiresAt.Sub(pending.IssuedAt))
	})
}
