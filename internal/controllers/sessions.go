package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/aggregate"
	"github.com/lyfesaver74/embywatch/internal/classify"
	"github.com/lyfesaver74/embywatch/internal/config"
	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/identity"
	"github.com/lyfesaver74/embywatch/internal/metrics"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
	"github.com/lyfesaver74/embywatch/internal/resolver"
)

// Sensor entity keys for the session-derived aggregates
const (
	KeyActiveStreams   = "active_streams"
	KeyBandwidth       = "bandwidth_usage"
	KeyTranscodingLoad = "transcoding_load"
	KeyMultisession    = "multisession_users"
)

// SessionAPI is the slice of the Emby client the session cycle needs
type SessionAPI interface {
	Sessions(ctx context.Context) ([]emby.Session, error)
	ItemImageURL(itemID string) string
	UserImageURL(userID string) string
	Play(ctx context.Context, sessionID string) error
	Pause(ctx context.Context, sessionID string) error
	Stop(ctx context.Context, sessionID string) error
	Seek(ctx context.Context, sessionID string, positionSeconds float64) error
}

// SessionController runs the session poll cycle: fetch, classify, resolve,
// stabilize identities, aggregate, publish.
type SessionController struct {
	api       SessionAPI
	resolver  *resolver.Resolver
	ids       *identity.Manager
	publisher publish.Publisher
	store     *models.Store
	cfg       *config.Config
	logger    *logrus.Logger

	mu         sync.RWMutex
	sessionIDs map[string]string // entity key → server session id, for commands
}

// NewSessionController creates a new session controller
func NewSessionController(
	api SessionAPI,
	res *resolver.Resolver,
	ids *identity.Manager,
	publisher publish.Publisher,
	store *models.Store,
	cfg *config.Config,
	logger *logrus.Logger,
) *SessionController {
	c := &SessionController{
		api:        api,
		resolver:   res,
		ids:        ids,
		publisher:  publisher,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		sessionIDs: make(map[string]string),
	}

	if store != nil {
		if records, err := store.LoadIdentities(); err == nil {
			ids.Seed(records)
		}
	}

	return c
}

// Poll executes one session poll cycle
func (c *SessionController) Poll(ctx context.Context) error {
	start := time.Now()
	sessions, err := c.api.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sessions: %w", err)
	}

	now := time.Now().UTC()
	tracked, diff := c.ids.Apply(sessions, now)

	entries := make([]aggregate.Entry, 0, len(tracked))
	keyToSession := make(map[string]string, len(tracked))
	for i := range tracked {
		t := &tracked[i]
		player := c.buildPlayer(ctx, t, now)
		entries = append(entries, aggregate.Entry{Player: player, Raw: &t.Session})
		keyToSession[t.Key] = t.Session.ID

		if c.cfg.EnableSessionPlayers {
			c.publisher.Publish(models.EntityPlayer, t.Key, player, playerAttributes(player))
		}
	}

	if c.cfg.EnableSessionPlayers {
		for _, key := range diff.Removed {
			c.publisher.Remove(models.EntityPlayer, key)
		}
	}

	c.publishAggregates(entries, len(sessions))

	c.mu.Lock()
	c.sessionIDs = keyToSession
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveIdentities(c.ids.Export()); err != nil {
			c.logger.WithError(err).Warn("Failed to persist identity table")
		}
		summary := aggregate.ActiveStreams(entries, len(sessions))
		if err := c.store.SaveSnapshot(models.CategorySessions, summary); err != nil {
			c.logger.WithError(err).Warn("Failed to persist session snapshot")
		}
	}

	c.logger.WithFields(logrus.Fields{
		"sessions": len(sessions),
		"created":  len(diff.Created),
		"removed":  len(diff.Removed),
		"duration": time.Since(start).String(),
	}).Debug("Session poll completed")

	return nil
}

// buildPlayer classifies one raw session into its derived player state. A
// failed program resolution degrades that session's live-TV fields only.
func (c *SessionController) buildPlayer(ctx context.Context, t *identity.Tracked, now time.Time) *models.Player {
	s := &t.Session

	player := &models.Player{
		Key:        t.Key,
		SessionID:  s.ID,
		AppName:    appName(s),
		DeviceName: s.DeviceName,
		UserName:   s.UserName,
		State:      classify.Status(s),
		Playback:   classify.Analyze(s),
		Media:      classify.Variant(s, c.api.ItemImageURL),
		ObservedAt: now,
	}
	player.Video, player.Audio = classify.Streams(s)
	player.PlaybackPercent = classify.PlaybackPercent(s)
	if s.UserID != "" {
		player.UserImage = c.api.UserImageURL(s.UserID)
	}

	if player.Media.Kind == models.MediaKindLiveTV && player.Media.LiveTV != nil {
		c.resolver.Resolve(ctx, player.Media.LiveTV, classify.ProgramID(s))
	}

	return player
}

func (c *SessionController) publishAggregates(entries []aggregate.Entry, totalSessions int) {
	if c.cfg.EnableActiveStreams {
		streams := aggregate.ActiveStreams(entries, totalSessions)
		metrics.ActiveStreams.Set(float64(streams.Count))
		c.publisher.Publish(models.EntitySensor, KeyActiveStreams, streams, nil)
	}
	if c.cfg.EnableBandwidth {
		bw := aggregate.Bandwidth(entries)
		metrics.BandwidthMBps.Set(bw.TotalMBps)
		c.publisher.Publish(models.EntitySensor, KeyBandwidth, bw, nil)
	}
	if c.cfg.EnableTranscoding {
		c.publisher.Publish(models.EntitySensor, KeyTranscodingLoad, aggregate.TranscodingLoad(entries), nil)
	}
	if c.cfg.EnableMultisession {
		c.publisher.Publish(models.EntitySensor, KeyMultisession, aggregate.Multisession(entries), nil)
	}
}

// MarkUnavailable flags every session-derived entity as stale; the last
// published state is retained.
func (c *SessionController) MarkUnavailable() {
	c.mu.RLock()
	keys := make([]string, 0, len(c.sessionIDs))
	for key := range c.sessionIDs {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	if c.cfg.EnableSessionPlayers {
		for _, key := range keys {
			c.publisher.Unavailable(models.EntityPlayer, key)
		}
	}
	for _, key := range []string{KeyActiveStreams, KeyBandwidth, KeyTranscodingLoad, KeyMultisession} {
		c.publisher.Unavailable(models.EntitySensor, key)
	}
}

func appName(s *emby.Session) string {
	if s.Client != "" {
		return s.Client
	}
	if s.Application != "" {
		return s.Application
	}
	return "Emby"
}

// playerAttributes flattens the attributes dashboards read most often
func playerAttributes(p *models.Player) map[string]interface{} {
	attrs := map[string]interface{}{
		"app_name":        p.AppName,
		"device_name":     p.DeviceName,
		"user":            p.UserName,
		"playback_method": string(p.Playback.Method),
	}
	if p.UserImage != "" {
		attrs["user_img"] = p.UserImage
	}
	if p.PlaybackPercent != nil {
		attrs["playback_percent"] = *p.PlaybackPercent
	}
	if p.Video != nil {
		attrs["video_codec"] = p.Video.Codec
		if p.Video.Resolution != "" {
			attrs["video_resolution"] = p.Video.Resolution
		}
		if p.Video.Bitrate != "" {
			attrs["video_bitrate"] = p.Video.Bitrate
		}
	}
	if p.Audio != nil {
		attrs["audio_codec"] = p.Audio.Codec
		if p.Audio.Bitrate != "" {
			attrs["audio_bitrate"] = p.Audio.Bitrate
		}
	}
	if p.Playback.Method == models.PlaybackTranscoding {
		if p.Playback.TranscodeVideo != "" {
			attrs["transcode_video_codec"] = p.Playback.TranscodeVideo
		}
		if p.Playback.TranscodeAudio != "" {
			attrs["transcode_audio_codec"] = p.Playback.TranscodeAudio
		}
		if p.Playback.TranscodeBitrate != "" {
			attrs["transcode_bitrate"] = p.Playback.TranscodeBitrate
		}
	}
	if live := p.Media.LiveTV; live != nil {
		attrs["channel_name"] = live.ChannelName
		if live.ChannelNumber != "" {
			attrs["channel_number"] = live.ChannelNumber
		}
		attrs["program_source"] = string(live.ProgramSource)
		if prog := live.Program; prog != nil {
			attrs["program_series"] = prog.Series
			if prog.Overview != "" {
				attrs["program_overview"] = prog.Overview
			}
		}
	}
	return attrs
}
