package models

import "time"

// ActiveStreams summarizes concurrent playback across the server
type ActiveStreams struct {
	Count         int      `json:"count"`
	TotalSessions int      `json:"total_sessions"`
	Users         []string `json:"users,omitempty"`
}

// StreamBandwidth is the per-stream detail behind the bandwidth aggregate
type StreamBandwidth struct {
	User      string  `json:"user"`
	Device    string  `json:"device"`
	Media     string  `json:"media"`
	VideoMbps float64 `json:"video_bitrate_mbps"`
	AudioMbps float64 `json:"audio_bitrate_mbps"`
	TotalMbps float64 `json:"total_bitrate_mbps"`
}

// Bandwidth is the cross-session bandwidth aggregate in MB/s
type Bandwidth struct {
	TotalMBps     float64           `json:"total_mbps"`
	ActiveStreams int               `json:"active_streams"`
	Streams       []StreamBandwidth `json:"streams,omitempty"`
}

// TranscodeDetail describes one transcoding session
type TranscodeDetail struct {
	User          string   `json:"user"`
	Device        string   `json:"device"`
	Media         string   `json:"media"`
	TargetVideo   string   `json:"target_video,omitempty"`
	TargetAudio   string   `json:"target_audio,omitempty"`
	TargetBitrate string   `json:"target_bitrate,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
}

// TranscodingLoad is the share of active streams being transcoded
type TranscodingLoad struct {
	Percent  float64           `json:"percent"`
	Count    int               `json:"count"`
	Sessions []TranscodeDetail `json:"sessions,omitempty"`
}

// MultisessionUser is one user with two or more concurrent active sessions
type MultisessionUser struct {
	User    string   `json:"user"`
	Count   int      `json:"count"`
	Devices []string `json:"devices"`
}

// Multisession lists users streaming on multiple devices at once
type Multisession struct {
	Count int                `json:"count"`
	Users []MultisessionUser `json:"users,omitempty"`
}

// ActivityItem is one recent server activity-log entry
type ActivityItem struct {
	Date string `json:"date,omitempty"`
	User string `json:"user,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// ServerStats is the server-wide derived summary
type ServerStats struct {
	Version          string         `json:"version,omitempty"`
	OperatingSystem  string         `json:"operating_system,omitempty"`
	Architecture     string         `json:"architecture,omitempty"`
	ActiveSessions   int            `json:"active_sessions"`
	TotalSessions    int            `json:"total_sessions"`
	UniqueUsers      int            `json:"unique_users"`
	UniqueDevices    int            `json:"unique_devices"`
	ContentTypes     map[string]int `json:"content_types,omitempty"`
	RecentActivities []ActivityItem `json:"recent_activities,omitempty"`
}

// RecordingInfo is one active or scheduled recording
type RecordingInfo struct {
	Name    string `json:"name"`
	Channel string `json:"channel,omitempty"`
	Start   string `json:"start_time,omitempty"`
	End     string `json:"end_time,omitempty"`
}

// SeriesRecordingInfo is one recurring recording rule
type SeriesRecordingInfo struct {
	Name             string `json:"name"`
	Channel          string `json:"channel,omitempty"`
	RecordAnyTime    bool   `json:"record_any_time"`
	RecordAnyChannel bool   `json:"record_any_channel"`
}

// Recordings groups the three recording categories; counts are list lengths
type Recordings struct {
	Active    []RecordingInfo       `json:"active_recordings"`
	Scheduled []RecordingInfo       `json:"scheduled_recordings"`
	Series    []SeriesRecordingInfo `json:"series_recordings"`
}

// ActiveCount returns the number of in-progress recordings
func (r *Recordings) ActiveCount() int { return len(r.Active) }

// LibraryStats carries global media counts. LastUpdated reflects the most
// recent successful fetch, not the most recent publish.
type LibraryStats struct {
	Libraries       int       `json:"libraries"`
	TotalMovies     int       `json:"total_movies"`
	TotalSeries     int       `json:"total_series"`
	TotalEpisodes   int       `json:"total_episodes"`
	TotalSongs      int       `json:"total_songs"`
	TotalBooks      int       `json:"total_books"`
	TotalAudiobooks int       `json:"total_audiobooks"`
	TotalTrailers   int       `json:"total_trailers"`
	TotalBoxsets    int       `json:"total_boxsets"`
	TotalPlaylists  int       `json:"total_playlists"`
	LastUpdated     time.Time `json:"last_updated"`
}

// MediaListItem is one entry of a latest/upcoming media list
type MediaListItem struct {
	ID               string   `json:"id,omitempty"`
	Title            string   `json:"title,omitempty"`
	Series           string   `json:"series,omitempty"`
	Season           *int     `json:"season,omitempty"`
	Episode          *int     `json:"episode,omitempty"`
	PremiereDate     string   `json:"premiere_date,omitempty"`
	RuntimeSeconds   int      `json:"runtime,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	IMDBID           string   `json:"imdb_id,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	Tagline          string   `json:"tagline,omitempty"`
	ResolutionHeight int      `json:"resolution_height,omitempty"`
	ImageURL         string   `json:"image,omitempty"`
}

// MediaList is a small ordered list entity (latest movies, upcoming episodes)
type MediaList struct {
	Items []MediaListItem `json:"items"`
}
