package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/service"
	"github.com/lsrpnetwork/gatekeeper/pkg/httpx"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// ConsentURLBuilder builds the identity provider's authorize URL.
// Implemented by the Discord client.
type ConsentURLBuilder interface {
	ConsentURL(state string) string
}

var pinFormTemplate = template.Must(template.New("pin").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Enter your access code</title>
</head>
<body>
	<h1>Almost there!</h1>
	<p>Enter the 6-digit code you received in your DMs.</p>
	<form method="POST" action="{{.Action}}">
		<input type="text" name="pin" inputmode="numeric" pattern="[0-9]{6}" maxlength="6" autofocus required>
		<button type="submit">Join</button>
	</form>
</body>
</html>
`))

// AuthHandler serves the /auth endpoint, the browser-facing half of the
// pipeline. GET without a code starts the consent round trip, GET with a
// code renders the pin form, POST runs the redemption chain.
type AuthHandler struct {
	Redeem  *service.RedeemService
	Consent ConsentURLBuilder
	State   *StateSigner
}

// HandleGet dispatches between the consent redirect and the pin form.
func (h *AuthHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		state, err := h.State.Mint()
		if err != nil {
			slogx.FromContext(r.Context()).Error("failed to mint state", slog.Any("error", err))
			httpx.WriteText(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
			return
		}
		http.Redirect(w, r, h.Consent.ConsentURL(state), http.StatusFound)
		return
	}

	if err := h.State.Verify(r.URL.Query().Get("state")); err != nil {
		httpx.WriteText(w, http.StatusBadRequest, "Invalid or expired sign-in attempt. Please start over.")
		return
	}

	// The authorization code and state ride along in the form action so
	// the POST lands back here with both intact.
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", r.URL.Query().Get("state"))

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pinFormTemplate.Execute(w, struct{ Action string }{Action: "/auth?" + q.Encode()})
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to render pin form", slog.Any("error", err))
	}
}

// HandlePost runs the full redemption chain and translates its outcome
// into the short plain-text responses the browser shows the user.
func (h *AuthHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	code := r.URL.Query().Get("code")
	if code == "" {
		httpx.WriteText(w, http.StatusBadRequest, "Missing authorization code. Please start over.")
		return
	}
	if err := h.State.Verify(r.URL.Query().Get("state")); err != nil {
		httpx.WriteText(w, http.StatusBadRequest, "Invalid or expired sign-in attempt. Please start over.")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.WriteText(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	pin := r.PostForm.Get("pin")
	if pin == "" {
		httpx.WriteText(w, http.StatusBadRequest, "Please enter your access code.")
		return
	}

	_, err := h.Redeem.Redeem(r.Context(), code, pin)
	if err != nil {
		h.writeRedeemError(w, log, err)
		return
	}

	httpx.WriteText(w, http.StatusOK, "Success! You've been added to the server. You can close this tab.")
}

func (h *AuthHandler) writeRedeemError(w http.ResponseWriter, log *slog.Logger, err error) {
	var provErr *service.ProviderError

	switch {
	case errors.Is(err, service.ErrNoActiveAuthorization):
		httpx.WriteText(w, http.StatusBadRequest, "No active authorization found. Ask staff for a new code.")
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteText(w, http.StatusBadRequest, "Your access code has expired. Ask staff to issue a new one.")
	case errors.Is(err, service.ErrCodeMismatch):
		httpx.WriteText(w, http.StatusBadRequest, "Invalid code. Check your DMs and try again.")
	case errors.Is(err, service.ErrPlatformNotConfigured):
		httpx.WriteText(w, http.StatusInternalServerError, "This platform is not configured. Please contact staff.")
	case errors.As(err, &provErr):
		httpx.WriteText(w, http.StatusBadRequest, provErr.Error())
	default:
		log.Error("redemption failed", slog.Any("error", err))
		httpx.WriteText(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
