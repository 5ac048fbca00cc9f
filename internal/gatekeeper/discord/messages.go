package discord

import (
	"context"
	"fmt"
	"net/http"
)

// SendChannel posts a plain-text message to a channel the bot can see.
func (c *Client) SendChannel(ctx context.Context, channelID, content string) error {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	resp, err := c.doBotRequest(ctx, http.MethodPost, path, map[string]string{
		"content": content,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// SendDM opens (or reuses) the user's DM channel and posts a message to
// it. Users who block DMs surface as a 403 APIError from the second call.
func (c *Client) SendDM(ctx context.Context, userID, content string) error {
	resp, err := c.doBotRequest(ctx, http.MethodPost, "/users/@me/channels", map[string]string{
		"recipient_id": userID,
	})
	if err != nil {
		return err
	}

	var channel struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &channel, http.StatusOK); err != nil {
		return err
	}

	return c.SendChannel(ctx, channel.ID, content)
}
