// Package classify turns raw Emby session payloads into the typed media
// variant and playback model. Everything here is pure: no network, no clock
// beyond the caller-supplied now.
package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
)

// ImageURLFunc builds a poster URL from an item id. Injected so the
// classifier stays independent of the client.
type ImageURLFunc func(itemID string) string

// Variant classifies a raw session into its media-type variant. Sessions
// without a now-playing item are idle (MediaKindNone); unrecognized playable
// item types fall back to movie-shaped attributes rather than dropping the
// session.
func Variant(s *emby.Session, imageURL ImageURLFunc) models.MediaVariant {
	np := s.NowPlayingItem
	if np == nil {
		return models.MediaVariant{Kind: models.MediaKindNone}
	}

	switch strings.ToLower(np.Type) {
	case "episode":
		return models.MediaVariant{Kind: models.MediaKindEpisode, Episode: episodeInfo(s, np, imageURL)}
	case "tvchannel", "livetvchannel", "program":
		return models.MediaVariant{Kind: models.MediaKindLiveTV, LiveTV: liveTVInfo(np)}
	default:
		// "movie" and anything else playable
		return models.MediaVariant{Kind: models.MediaKindMovie, Movie: movieInfo(s, np, imageURL)}
	}
}

func movieInfo(s *emby.Session, np *emby.NowPlayingItem, imageURL ImageURLFunc) *models.MovieInfo {
	info := &models.MovieInfo{
		Title:     np.Name,
		ContentID: np.ID,
	}
	info.DurationSeconds, info.PositionSeconds = progress(s, np)
	if imageURL != nil {
		info.PosterURL = imageURL(np.ID)
	}
	return info
}

func episodeInfo(s *emby.Session, np *emby.NowPlayingItem, imageURL ImageURLFunc) *models.EpisodeInfo {
	info := &models.EpisodeInfo{
		Title:       np.Name,
		SeriesTitle: np.SeriesName,
		Season:      np.ParentIndexNumber,
		Episode:     np.IndexNumber,
		ContentID:   np.ID,
	}
	info.DurationSeconds, info.PositionSeconds = progress(s, np)
	if imageURL != nil {
		info.PosterURL = imageURL(np.ID)
	}
	return info
}

func liveTVInfo(np *emby.NowPlayingItem) *models.LiveTVInfo {
	channelID := np.ChannelID
	if channelID == "" {
		channelID = np.ID
	}
	return &models.LiveTVInfo{
		ChannelID: channelID,
		// The now-playing name is the channel name for live TV; there is
		// deliberately no title field on this variant.
		ChannelName:   np.Name,
		ChannelNumber: np.ChannelNumber,
		ProgramSource: models.ProgramSourceNone,
	}
}

func progress(s *emby.Session, np *emby.NowPlayingItem) (duration, position *float64) {
	if np.RunTimeTicks > 0 {
		d := emby.TicksToSeconds(np.RunTimeTicks)
		duration = &d
	}
	if s.PlayState != nil && s.PlayState.PositionTicks > 0 {
		p := emby.TicksToSeconds(s.PlayState.PositionTicks)
		position = &p
	}
	return duration, position
}

// ProgramID digs the live-TV program id out of the places different server
// versions put it.
func ProgramID(s *emby.Session) string {
	np := s.NowPlayingItem
	if np == nil {
		return ""
	}
	if np.ProgramID != "" {
		return np.ProgramID
	}
	if np.CurrentProgram != nil && np.CurrentProgram.ID != "" {
		return np.CurrentProgram.ID
	}
	return ""
}

// Status derives the playback state from the play-state flags
func Status(s *emby.Session) models.PlayStatus {
	ps := s.PlayState
	hasItem := s.NowPlayingItem != nil
	if ps != nil && ps.IsPaused {
		return models.PlayStatusPaused
	}
	if hasItem {
		return models.PlayStatusPlaying
	}
	return models.PlayStatusIdle
}

// PlaybackPercent computes position/duration as a percentage clamped to
// [0,100]. Nil when duration is absent or zero.
func PlaybackPercent(s *emby.Session) *float64 {
	np := s.NowPlayingItem
	if np == nil || np.RunTimeTicks <= 0 || s.PlayState == nil {
		return nil
	}
	pct := float64(s.PlayState.PositionTicks) / float64(np.RunTimeTicks) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	pct = round1(pct)
	return &pct
}

// Streams extracts the first video and audio stream of the playing item
func Streams(s *emby.Session) (video, audio *models.StreamInfo) {
	np := s.NowPlayingItem
	if np == nil {
		return nil, nil
	}
	for i := range np.MediaStreams {
		st := &np.MediaStreams[i]
		switch st.Type {
		case "Video":
			if video == nil {
				video = &models.StreamInfo{
					Codec:      st.Codec,
					Framerate:  st.RealFrameRate,
					Bitrate:    formatKbps(st.BitRate),
					BitrateBps: st.BitRate,
				}
				if st.Width > 0 && st.Height > 0 {
					video.Resolution = fmt.Sprintf("%dx%d", st.Width, st.Height)
				}
			}
		case "Audio":
			if audio == nil {
				audio = &models.StreamInfo{
					Codec:      st.Codec,
					Channels:   st.Channels,
					Bitrate:    formatKbps(st.BitRate),
					BitrateBps: st.BitRate,
					Language:   st.Language,
				}
			}
		}
	}
	return video, audio
}

func formatKbps(bps int64) string {
	if bps <= 0 {
		return ""
	}
	return fmt.Sprintf("%dkbps", bps/1000)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
