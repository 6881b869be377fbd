package emby

import (
	"context"
	"fmt"
	"net/url"
)

const sessionParams = "IncludeDeviceInformation=true" +
	"&IncludePlaybackState=true" +
	"&ExcludeInactive=false" +
	"&ActiveWithinSeconds=86400"

// Sessions retrieves all sessions known to the server. Some servers only list
// sessions controllable by the requesting user on the plain endpoint, so if
// the result looks truncated the query is retried with ControllableByUserId.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.get(ctx, "/Sessions?"+sessionParams, &sessions); err != nil {
		return nil, err
	}

	if len(sessions) <= 1 {
		uid, err := c.UserID(ctx)
		if err == nil && uid != "" {
			var controllable []Session
			path := fmt.Sprintf("/Sessions?%s&ControllableByUserId=%s", sessionParams, url.QueryEscape(uid))
			if err := c.get(ctx, path, &controllable); err == nil && len(controllable) > len(sessions) {
				sessions = controllable
			}
		}
	}

	return sessions, nil
}

// Play resumes playback in a session
func (c *Client) Play(ctx context.Context, sessionID string) error {
	return c.post(ctx, fmt.Sprintf("/Sessions/%s/Playing/Unpause", url.PathEscape(sessionID)))
}

// Pause pauses playback in a session
func (c *Client) Pause(ctx context.Context, sessionID string) error {
	return c.post(ctx, fmt.Sprintf("/Sessions/%s/Playing/Pause", url.PathEscape(sessionID)))
}

// Stop stops playback in a session
func (c *Client) Stop(ctx context.Context, sessionID string) error {
	return c.post(ctx, fmt.Sprintf("/Sessions/%s/Playing/Stop", url.PathEscape(sessionID)))
}

// Seek seeks to a position (in seconds) in a session
func (c *Client) Seek(ctx context.Context, sessionID string, positionSeconds float64) error {
	ticks := SecondsToTicks(positionSeconds)
	return c.post(ctx, fmt.Sprintf("/Sessions/%s/Playing/Seek?PositionTicks=%d", url.PathEscape(sessionID), ticks))
}
