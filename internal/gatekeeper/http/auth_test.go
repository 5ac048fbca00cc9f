package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/discord"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/service"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store/drivers/sqlite"
	"github.com/lsrpnetwork/gatekeeper/pkg/cryptox"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

type stubConsent struct{}

func (stubConsent) ConsentURL(state string) string {
	return "https://discord.test/oauth2/authorize?state=" + url.QueryEscape(state)
}

type stubProvider struct {
	user        discord.User
	exchangeErr error
}

func (p *stubProvider) ExchangeCode(context.Context, string) (*discord.TokenResponse, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &discord.TokenResponse{AccessToken: "user-token"}, nil
}

func (p *stubProvider) Identify(context.Context, string) (*discord.User, error) {
	u := p.user
	return &u, nil
}

func (p *stubProvider) AddGuildMember(context.Context, string, string, string) error {
	return nil
}

type stubProvisioner struct{}

func (stubProvisioner) Apply(context.Context, string, domain.Department, domain.SubDepartment, domain.Platform) {
}

type stubNotifier struct{}

func (stubNotifier) NotifyUser(context.Context, string, string) error { return nil }
func (stubNotifier) NotifyOperator(context.Context, string) error     { return nil }

func newAuthTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "gatekeeper_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newAuthHandler(t *testing.T, st store.Store, provider *stubProvider) *AuthHandler {
	t.Helper()

	return &AuthHandler{
		Redeem: &service.RedeemService{
			Store:     st,
			Provider:  provider,
			Provision: stubProvisioner{},
			Notifier:  stubNotifier{},
			Guilds:    map[domain.Platform]string{domain.PlatformPS5: "guild-ps5"},
		},
		Consent: stubConsent{},
		State:   &StateSigner{Secret: []byte("test-secret-test-secret-test-1234")},
	}
}

func seedPendingCode(t *testing.T, st store.Store, userID, code string) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, st.PendingCodes().UpsertPendingCode(context.Background(), domain.PendingCode{
		UserID:        userID,
		CodeHash:      cryptox.FingerprintToken(code),
		Department:    domain.DepartmentCO,
		SubDepartment: domain.SubDepartmentNone,
		Platform:      domain.PlatformPS5,
		IssuedAt:      now,
		ExpiresAt:     now.Add(5 * time.Minute),
	}))
}

func TestAuthHandleGet(t *testing.T) {
	t.Parallel()

	t.Run("without code redirects to consent", func(t *testing.T) {
		t.Parallel()
		h := newAuthHandler(t, newAuthTestStore(t), &stubProvider{})

		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/auth", nil))

		require.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "discord.test", loc.Host)

		// The state in the redirect must verify with our signer.
		require.NoError(t, h.State.Verify(loc.Query().Get("state")))
	})

	t.Run("with code renders the pin form", func(t *testing.T) {
		t.Parallel()
		h := newAuthHandler(t, newAuthTestStore(t), &stubProvider{})

		state, err := h.State.Mint()
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet,
			"/auth?code=abc123&state="+url.QueryEscape(state), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		require.Contains(t, rec.Body.String(), `name="pin"`)
		require.Contains(t, rec.Body.String(), "code=abc123")
	})

	t.Run("with code but bad state is rejected", func(t *testing.T) {
		t.Parallel()
		h := newAuthHandler(t, newAuthTestStore(t), &stubProvider{})

		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/auth?code=abc123&state=forged", nil))

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func postPin(t *testing.T, h *AuthHandler, code, pin string) *httptest.ResponseRecorder {
	t.Helper()

	state, err := h.State.Mint()
	require.NoError(t, err)

	form := url.Values{}
	form.Set("pin", pin)
	req := httptest.NewRequest(http.MethodPost,
		"/auth?code="+url.QueryEscape(code)+"&state="+url.QueryEscape(state),
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.HandlePost(rec, req)
	return rec
}

func TestAuthHandlePost(t *testing.T) {
	t.Parallel()

	t.Run("successful redemption", func(t *testing.T) {
		t.Parallel()
		st := newAuthTestStore(t)
		h := newAuthHandler(t, st, &stubProvider{user: discord.User{ID: "user-1"}})
		seedPendingCode(t, st, "user-1", "482913")

		rec := postPin(t, h, "abc123", "482913")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Success")

		_, err := st.PendingCodes().GetPendingCodeByUserID(context.Background(), "user-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("repeat redemption reports no active authorization", func(t *testing.T) {
		t.Parallel()
		st := newAuthTestStore(t)
		h := newAuthHandler(t, st, &stubProvider{user: discord.User{ID: "user-2"}})
		seedPendingCode(t, st, "user-2", "482913")

		require.Equal(t, http.StatusOK, postPin(t, h, "abc123", "482913").Code)

		rec := postPin(t, h, "abc123", "482913")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "No active authorization")
	})

	t.Run("wrong pin leaves the code intact", func(t *testing.T) {
		t.Parallel()
		st := newAuthTestStore(t)
		h := newAuthHandler(t, st, &stubProvider{user: discord.User{ID: "user-3"}})
		seedPendingCode(t, st, "user-3", "482913")

		rec := postPin(t, h, "abc123", "000000")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid code")

		_, err := st.PendingCodes().GetPendingCodeByUserID(context.Background(), "user-3")
		require.NoError(t, err)
	})

	t.Run("provider failure surfaces upstream text", func(t *testing.T) {
		t.Parallel()
		st := newAuthTestStore(t)
		h := newAuthHandler(t, st, &stubProvider{
			exchangeErr: &discord.APIError{StatusCode: 400, Message: "Invalid code in request"},
		})

		rec := postPin(t, h, "stale", "482913")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "token exchange")
		require.Contains(t, rec.Body.String(), "Invalid code in request")
	})

	t.Run("missing pin", func(t *testing.T) {
		t.Parallel()
		h := newAuthHandler(t, newAuthTestStore(t), &stubProvider{})

		rec := postPin(t, h, "abc123", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing state", func(t *testing.T) {
		t.Parallel()
		h := newAuthHandler(t, newAuthTestStore(t), &stubProvider{})

		req := httptest.NewRequest(http.MethodPost, "/auth?code=abc123", nil)
		rec := httptest.NewRecorder()
		h.HandlePost(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouterSystemEndpoints(t *testing.T) {
	t.Parallel()

	st := newAuthTestStore(t)
	router := NewRouter("test", st, slogx.Discard())
	router.RedeemService = &service.RedeemService{Store: st, Provider: &stubProvider{}, Provision: stubProvisioner{}, Notifier: stubNotifier{}}
	router.Consent = stubConsent{}
	router.State = &StateSigner{Secret: []byte("test-secret-test-secret-test-1234")}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}
