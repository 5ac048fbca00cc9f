package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AddGuildMember joins the user to the guild using their OAuth2 access
// token. Discord answers 200 or 201 with the member object for a join
// and 204 when the user is already a member; all count as success, as
// does the already-a-member 400 some API versions return instead.
func (c *Client) AddGuildMember(ctx context.Context, guildID, userID, accessToken string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	resp, err := c.doBotRequest(ctx, http.MethodPut, path, map[string]string{
		"access_token": accessToken,
	})
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		resp.Body.Close()
		return nil
	}

	err = checkStatusNoContent(resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "already a member") {
		return nil
	}
	return err
}

// Member is the subset of the guild member object the pipeline uses.
type Member struct {
	Nick  string   `json:"nick"`
	Roles []string `json:"roles"`
}

// GetGuildMember fetches a guild member, mainly for role checks.
func (c *Client) GetGuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	resp, err := c.doBotRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var member Member
	if err := decodeJSON(resp, &member, http.StatusOK); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMemberRole grants a single role to a guild member.
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	resp, err := c.doBotRequest(ctx, http.MethodPut, path, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// SetMemberNickname sets the member's guild nickname.
func (c *Client) SetMemberNickname(ctx context.Context, guildID, userID, nick string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	resp, err := c.doBotRequest(ctx, http.MethodPatch, path, map[string]string{
		"nick": nick,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}
