// Package discord is a minimal REST client for the handful of Discord
// endpoints the access pipeline needs: the OAuth2 code exchange, user
// identification, guild joins, role grants, nicknames and messaging.
//
// It deliberately avoids a gateway connection. Everything here is plain
// HTTPS against the Discord API, authenticated either with the bot token
// or with a user's OAuth2 bearer token.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production Discord API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// Client talks to the Discord REST API. The zero value is not usable;
// construct it with NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// BotToken authenticates guild management and messaging calls.
	BotToken string

	// OAuth2 application credentials used by the code exchange.
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// NewClient creates a Discord API client for the given application.
func NewClient(botToken, clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BotToken:     botToken,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
	}
}

func (c *Client) url(path string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + path
}

// doBotRequest performs a request authenticated with the bot token.
// A nil body sends no payload; otherwise body is JSON-encoded.
func (c *Client) doBotRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+c.BotToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeJSON reads the body once, mapping any unexpected status to an
// *APIError and otherwise unmarshalling into target. A nil target
// discards the payload.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseAPIError(resp, bodyBytes)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatusNoContent drains the body and returns a typed error unless
// the response is 204 No Content.
func checkStatusNoContent(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp, bodyBytes)
	}
	return nil
}
