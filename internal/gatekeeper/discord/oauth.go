package discord

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// OAuthScopes are the scopes the consent screen requests. "identify"
// lets us read the user's id, "guilds.join" lets the bot add them to
// the guild on their behalf.
const OAuthScopes = "identify guilds.join"

// TokenResponse is the OAuth2 token endpoint's success payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// User is the subset of the Discord user object the pipeline cares about.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ConsentURL builds the authorization URL the browser is redirected to
// when it arrives without a code. The state parameter round-trips
// through Discord untouched.
func (c *Client) ConsentURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", OAuthScopes)
	if state != "" {
		q.Set("state", state)
	}
	return c.url("/oauth2/authorize") + "?" + q.Encode()
}

// ExchangeCode swaps an authorization code for an access token using
// the authorization_code grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/oauth2/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var token TokenResponse
	if err := decodeJSON(resp, &token, http.StatusOK); err != nil {
		return nil, err
	}
	return &token, nil
}

// Identify fetches the user behind an OAuth2 access token.
func (c *Client) Identify(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/users/@me"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}
