package models

// MediaKind tags the mutually exclusive media-type variants of a session
type MediaKind string

const (
	MediaKindNone    MediaKind = "none"
	MediaKindMovie   MediaKind = "movie"
	MediaKindEpisode MediaKind = "episode"
	MediaKindLiveTV  MediaKind = "livetv"
)

// PlayStatus represents the derived playback state of a session
type PlayStatus string

const (
	PlayStatusPlaying PlayStatus = "playing"
	PlayStatusPaused  PlayStatus = "paused"
	PlayStatusIdle    PlayStatus = "idle"
)

// PlaybackMethod distinguishes direct play from server-side transcoding
type PlaybackMethod string

const (
	PlaybackDirect      PlaybackMethod = "direct"
	PlaybackTranscoding PlaybackMethod = "transcoding"
)

// ProgramSource records how a live-TV program was resolved
type ProgramSource string

const (
	ProgramSourceID     ProgramSource = "program_id"
	ProgramSourceSearch ProgramSource = "channel_search"
	ProgramSourceNone   ProgramSource = "none"
)

// RecordingKind distinguishes the three recording categories
type RecordingKind string

const (
	RecordingActive    RecordingKind = "active"
	RecordingScheduled RecordingKind = "scheduled"
	RecordingSeries    RecordingKind = "series"
)

// Category identifies an independently scheduled poll domain
type Category string

const (
	CategorySessions    Category = "sessions"
	CategoryRecordings  Category = "recordings"
	CategoryServerStats Category = "server_stats"
	CategoryLibrary     Category = "library"
)

// EntityKind identifies the externally published entity classes
type EntityKind string

const (
	EntityPlayer EntityKind = "player"
	EntitySensor EntityKind = "sensor"
)
