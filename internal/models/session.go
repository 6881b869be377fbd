package models

import "time"

// Player is the derived, typed view of one playback session. Its Key is
// stable across polls for a given (device, user) pair; the server-assigned
// SessionID is carried only for command pass-through and may churn freely.
type Player struct {
	Key       string `json:"key"`
	SessionID string `json:"session_id"`

	AppName    string `json:"app_name,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	UserImage  string `json:"user_image,omitempty"`

	State PlayStatus `json:"state"`

	Video *StreamInfo `json:"video,omitempty"`
	Audio *StreamInfo `json:"audio,omitempty"`

	Playback        PlaybackInfo `json:"playback"`
	PlaybackPercent *float64     `json:"playback_percent,omitempty"`
	Media           MediaVariant `json:"media"`

	ObservedAt time.Time `json:"observed_at"`
}

// StreamInfo describes one decoded media stream of the playing item
type StreamInfo struct {
	Codec      string  `json:"codec,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	Framerate  float64 `json:"framerate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
	Bitrate    string  `json:"bitrate,omitempty"` // "<n>kbps"
	BitrateBps int64   `json:"-"`
	Language   string  `json:"language,omitempty"`
}

// PlaybackInfo is the transcode analyzer's output for a session
type PlaybackInfo struct {
	Method           PlaybackMethod `json:"method"`
	TranscodeVideo   string         `json:"transcode_video_codec,omitempty"`
	TranscodeAudio   string         `json:"transcode_audio_codec,omitempty"`
	TranscodeBitrate string         `json:"transcode_bitrate,omitempty"` // "<n>kbps"
	Reasons          []string       `json:"reasons,omitempty"`
}

// MediaVariant is a tagged union over the session's media type. Exactly one
// of the payload pointers is non-nil when Kind is not MediaKindNone.
type MediaVariant struct {
	Kind    MediaKind    `json:"kind"`
	Movie   *MovieInfo   `json:"movie,omitempty"`
	Episode *EpisodeInfo `json:"episode,omitempty"`
	LiveTV  *LiveTVInfo  `json:"livetv,omitempty"`
}

// MovieInfo carries movie-shaped attributes. Unrecognized playable item
// types also land here rather than dropping the session.
type MovieInfo struct {
	Title           string   `json:"title,omitempty"`
	ContentID       string   `json:"content_id,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	PositionSeconds *float64 `json:"position_seconds,omitempty"`
	PosterURL       string   `json:"poster_url,omitempty"`
}

// EpisodeInfo carries episode attributes on top of the movie-shaped base
type EpisodeInfo struct {
	Title           string   `json:"title,omitempty"`
	SeriesTitle     string   `json:"series_title,omitempty"`
	Season          *int     `json:"season,omitempty"`
	Episode         *int     `json:"episode,omitempty"`
	ContentID       string   `json:"content_id,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	PositionSeconds *float64 `json:"position_seconds,omitempty"`
	PosterURL       string   `json:"poster_url,omitempty"`
}

// LiveTVInfo carries channel attributes and the resolved program. It has no
// title field: dashboards read channel_name and the program instead.
type LiveTVInfo struct {
	ChannelID       string        `json:"channel_id,omitempty"`
	ChannelName     string        `json:"channel_name,omitempty"`
	ChannelNumber   string        `json:"channel_number,omitempty"`
	Program         *ProgramInfo  `json:"program,omitempty"`
	ProgramSource   ProgramSource `json:"program_source"`
	DurationSeconds *float64      `json:"duration_seconds,omitempty"`
	PositionSeconds *float64      `json:"position_seconds,omitempty"`
}

// ProgramInfo is the resolved guide entry for a live-TV session. It lives
// only for the poll cycle that produced it.
type ProgramInfo struct {
	ID       string        `json:"id,omitempty"`
	Series   string        `json:"series,omitempty"`
	Overview string        `json:"overview,omitempty"`
	Start    time.Time     `json:"start,omitempty"`
	End      time.Time     `json:"end,omitempty"`
	ImageURL string        `json:"image_url,omitempty"`
	Source   ProgramSource `json:"source"`
}
