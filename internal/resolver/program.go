// Package resolver resolves current program metadata for live-TV sessions.
// Live sessions frequently omit direct program linkage right after a channel
// change, so resolution walks a fallback chain: direct program id, then a
// guide search for the entry airing now, then channel data only.
package resolver

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
)

// GuideAPI is the slice of the Emby client the resolver needs
type GuideAPI interface {
	ProgramByID(ctx context.Context, programID string) (*emby.Program, error)
	AiringProgram(ctx context.Context, channelID string) (*emby.Program, error)
	ChannelByID(ctx context.Context, channelID string) (*emby.Channel, error)
	ItemImageURL(itemID string) string
}

// Resolver resolves live-TV programs with a short-lived cache so the guide
// is not re-queried on every session poll.
type Resolver struct {
	api    GuideAPI
	cache  *cache.Cache
	logger *logrus.Logger
	now    func() time.Time
}

// NewResolver creates a new program resolver
func NewResolver(api GuideAPI, logger *logrus.Logger) *Resolver {
	return &Resolver{
		api:    api,
		cache:  cache.New(20*time.Second, time.Minute),
		logger: logger,
		now:    time.Now,
	}
}

// Resolve fills in the program, program source, channel number and computed
// duration/position of a live-TV variant. Resolution failures degrade to
// source "none"; they are expected and never returned as errors.
func (r *Resolver) Resolve(ctx context.Context, live *models.LiveTVInfo, programID string) {
	now := r.now().UTC()

	prog := r.lookup(ctx, live.ChannelID, programID)
	if prog != nil {
		live.Program = prog
		live.ProgramSource = prog.Source
		if !prog.Start.IsZero() && !prog.End.IsZero() && prog.End.After(prog.Start) {
			duration := prog.End.Sub(prog.Start).Seconds()
			position := now.Sub(prog.Start).Seconds()
			if position < 0 {
				position = 0
			}
			if position > duration {
				position = duration
			}
			live.DurationSeconds = &duration
			live.PositionSeconds = &position
		}
	} else {
		live.ProgramSource = models.ProgramSourceNone
	}

	r.fillChannelNumber(ctx, live)
}

func (r *Resolver) lookup(ctx context.Context, channelID, programID string) *models.ProgramInfo {
	key := "chan:" + channelID
	if programID != "" {
		key = "prog:" + programID
	}
	if cached, ok := r.cache.Get(key); ok {
		return cached.(*models.ProgramInfo)
	}

	prog := r.fetch(ctx, channelID, programID)
	// Negative results are cached too: a channel with no guide data should
	// not be re-queried every poll.
	r.cache.SetDefault(key, prog)
	return prog
}

func (r *Resolver) fetch(ctx context.Context, channelID, programID string) *models.ProgramInfo {
	if programID != "" {
		raw, err := r.api.ProgramByID(ctx, programID)
		if err != nil {
			r.logger.WithError(err).WithField("program_id", programID).Debug("Program lookup failed")
		} else if raw != nil {
			return r.convert(raw, models.ProgramSourceID)
		}
	}

	if channelID != "" {
		raw, err := r.api.AiringProgram(ctx, channelID)
		if err != nil {
			r.logger.WithError(err).WithField("channel_id", channelID).Debug("Guide search failed")
		} else if raw != nil {
			return r.convert(raw, models.ProgramSourceSearch)
		}
	}

	return nil
}

func (r *Resolver) convert(raw *emby.Program, source models.ProgramSource) *models.ProgramInfo {
	prog := &models.ProgramInfo{
		ID:       raw.ID,
		Series:   seriesName(raw),
		Overview: raw.Overview,
		Source:   source,
	}
	if t, ok := emby.ParseDate(raw.StartDate); ok {
		prog.Start = t.UTC()
	}
	if t, ok := emby.ParseDate(raw.EndDate); ok {
		prog.End = t.UTC()
	}
	if raw.ID != "" {
		prog.ImageURL = r.api.ItemImageURL(raw.ID)
	}
	if number := firstNonEmpty(raw.ChannelNumber, raw.Number); number != "" && raw.ChannelID != "" {
		r.cache.Set("channum:"+raw.ChannelID, number, 10*time.Minute)
	}
	return prog
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func seriesName(raw *emby.Program) string {
	if raw.SeriesName != "" {
		return raw.SeriesName
	}
	return raw.Name
}

// fillChannelNumber backfills a missing channel number from the resolved
// program or, failing that, the channel record itself.
func (r *Resolver) fillChannelNumber(ctx context.Context, live *models.LiveTVInfo) {
	if live.ChannelNumber != "" || live.ChannelID == "" {
		return
	}

	key := "channum:" + live.ChannelID
	if cached, ok := r.cache.Get(key); ok {
		live.ChannelNumber = cached.(string)
		return
	}

	ch, err := r.api.ChannelByID(ctx, live.ChannelID)
	if err != nil || ch == nil {
		return
	}
	number := ch.Number
	if number == "" {
		number = ch.ChannelNumber
	}
	if number != "" {
		r.cache.Set(key, number, 10*time.Minute)
		live.ChannelNumber = number
	}
}
