package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"nhooyr.io/websocket"
)

// Live streams newly synced takes from /feed/live until ctx ends or fn returns an error.
func (c *Client) Live(ctx context.Context, fixtureID string, fn func(FeedItem) error) error {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(c.BaseURL), "/") + "/feed/live")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if fixtureID != "" {
		u.RawQuery = url.Values{"fixtureId": {fixtureID}}.Encode()
	}

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		var item FeedItem
		if err := json.Unmarshal(data, &item); err != nil {
			continue
		}
		if err := fn(item); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "done")
			return err
		}
	}
}
