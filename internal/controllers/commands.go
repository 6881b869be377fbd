package controllers

import (
	"context"
	"fmt"
)

// Command is one of the supported transport commands
type Command string

const (
	CommandPlay  Command = "play"
	CommandPause Command = "pause"
	CommandStop  Command = "stop"
	CommandSeek  Command = "seek"
)

// ErrUnknownSession is returned for commands aimed at a key that is not
// currently live
var ErrUnknownSession = fmt.Errorf("no live session for key")

// SendCommand passes a transport command through to the server session
// behind an entity key. The only validation is that the key currently
// exists; command applicability is the server's problem.
func (c *SessionController) SendCommand(ctx context.Context, key string, cmd Command, positionSeconds float64) error {
	c.mu.RLock()
	sessionID, ok := c.sessionIDs[key]
	c.mu.RUnlock()
	if !ok || sessionID == "" {
		return fmt.Errorf("%w: %s", ErrUnknownSession, key)
	}

	switch cmd {
	case CommandPlay:
		return c.api.Play(ctx, sessionID)
	case CommandPause:
		return c.api.Pause(ctx, sessionID)
	case CommandStop:
		return c.api.Stop(ctx, sessionID)
	case CommandSeek:
		return c.api.Seek(ctx, sessionID, positionSeconds)
	default:
		return fmt.Errorf("unsupported command: %s", cmd)
	}
}
