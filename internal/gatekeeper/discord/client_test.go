package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("bot-token", "client-id", "client-secret", "https://example.com/auth")
	c.BaseURL = srv.URL
	c.HTTPClient = &http.Client{Timeout: 2 * time.Second}
	return c
}

func TestConsentURL(t *testing.T) {
	t.Parallel()

	c := NewClient("bot-token", "client-id", "client-secret", "https://example.com/auth")
	raw := c.ConsentURL("opaque-state")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/api/v10/oauth2/authorize", u.Path)

	q := u.Query()
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "https://example.com/auth", q.Get("redirect_uri"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, OAuthScopes, q.Get("scope"))
	require.Equal(t, "opaque-state", q.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/oauth2/token", r.URL.Path)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "authorization_code", r.Form.Get("grant_type"))
			require.Equal(t, "the-code", r.Form.Get("code"))
			require.Equal(t, "client-secret", r.Form.Get("client_secret"))

			_ = json.NewEncoder(w).Encode(TokenResponse{
				AccessToken: "user-token",
				TokenType:   "Bearer",
				ExpiresIn:   604800,
				Scope:       OAuthScopes,
			})
		}))

		token, err := c.ExchangeCode(context.Background(), "the-code")
		require.NoError(t, err)
		require.Equal(t, "user-token", token.AccessToken)
	})

	t.Run("rejected code", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message": "Invalid \"code\" in request.", "code": 50035}`))
		}))

		_, err := c.ExchangeCode(context.Background(), "stale-code")
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, 50035, apiErr.Code)
	})
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/@me", r.URL.Path)
		require.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(User{ID: "123456789", Username: "applicant"})
	}))

	user, err := c.Identify(context.Background(), "user-token")
	require.NoError(t, err)
	require.Equal(t, "123456789", user.ID)
	require.Equal(t, "applicant", user.Username)
}

func TestAddGuildMember(t *testing.T) {
	t.Parallel()

	t.Run("fresh join", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, "/guilds/guild-1/members/user-1", r.URL.Path)
			require.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "user-token", body["access_token"])

			w.WriteHeader(http.StatusCreated)
		}))

		require.NoError(t, c.AddGuildMember(context.Background(), "guild-1", "user-1", "user-token"))
	})

	t.Run("join answered with member object", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"user": {"id": "user-1"}, "roles": []}`))
		}))

		require.NoError(t, c.AddGuildMember(context.Background(), "guild-1", "user-1", "user-token"))
	})

	t.Run("already in guild via 204", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		require.NoError(t, c.AddGuildMember(context.Background(), "guild-1", "user-1", "user-token"))
	})

	t.Run("already in guild via 400", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message": "User is already a member of this guild", "code": 30007}`))
		}))

		require.NoError(t, c.AddGuildMember(context.Background(), "guild-1", "user-1", "user-token"))
	})

	t.Run("missing permission", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "Missing Permissions", "code": 50013}`))
		}))

		err := c.AddGuildMember(context.Background(), "guild-1", "user-1", "user-token")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})
}

func TestAddMemberRole(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/guilds/guild-1/members/user-1/roles/role-9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.AddMemberRole(context.Background(), "guild-1", "user-1", "role-9"))
}

func TestSetMemberNickname(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "SD-417 | applicant", body["nick"])

		_, _ = w.Write([]byte(`{"nick": "SD-417 | applicant"}`))
	}))

	require.NoError(t, c.SetMemberNickname(context.Background(), "guild-1", "user-1", "SD-417 | applicant"))
}

func TestSendDM(t *testing.T) {
	t.Parallel()

	t.Run("opens channel then posts", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/@me/channels":
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Equal(t, "user-1", body["recipient_id"])
				_, _ = w.Write([]byte(`{"id": "dm-channel-1"}`))
			case "/channels/dm-channel-1/messages":
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Equal(t, "your code is 123456", body["content"])
				_, _ = w.Write([]byte(`{"id": "message-1"}`))
			default:
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
		}))

		require.NoError(t, c.SendDM(context.Background(), "user-1", "your code is 123456"))
	})

	t.Run("closed DMs", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/users/@me/channels" {
				_, _ = w.Write([]byte(`{"id": "dm-channel-1"}`))
				return
			}
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "Cannot send messages to this user", "code": 50007}`))
		}))

		err := c.SendDM(context.Background(), "user-1", "hello")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 50007, apiErr.Code)
	})
}
