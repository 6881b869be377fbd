package emby

import "time"

// Emby expresses durations and positions in ticks of 100ns.
const ticksPerSecond = 10_000_000

// TicksToSeconds converts Emby ticks to seconds.
func TicksToSeconds(ticks int64) float64 {
	return float64(ticks) / ticksPerSecond
}

// SecondsToTicks converts seconds to Emby ticks.
func SecondsToTicks(seconds float64) int64 {
	return int64(seconds * ticksPerSecond)
}

// Session is a raw session record from /Sessions
type Session struct {
	ID              string           `json:"Id"`
	UserID          string           `json:"UserId"`
	UserName        string           `json:"UserName"`
	Client          string           `json:"Client"`
	Application     string           `json:"Application"`
	DeviceID        string           `json:"DeviceId"`
	DeviceName      string           `json:"DeviceName"`
	RemoteEndPoint  string           `json:"RemoteEndPoint"`
	NowPlayingItem  *NowPlayingItem  `json:"NowPlayingItem"`
	PlayState       *PlayState       `json:"PlayState"`
	// Some server versions attach TranscodingInfo at the session level,
	// others inside PlayState.
	TranscodingInfo *TranscodingInfo `json:"TranscodingInfo"`
	VideoBitrate    int64            `json:"VideoBitrate"`
	AudioBitrate    int64            `json:"AudioBitrate"`
	Bitrate         int64            `json:"Bitrate"`
}

// NowPlayingItem describes the media currently playing in a session
type NowPlayingItem struct {
	ID                string        `json:"Id"`
	Name              string        `json:"Name"`
	Type              string        `json:"Type"`
	SeriesName        string        `json:"SeriesName"`
	ParentIndexNumber *int          `json:"ParentIndexNumber"`
	IndexNumber       *int          `json:"IndexNumber"`
	RunTimeTicks      int64         `json:"RunTimeTicks"`
	Container         string        `json:"Container"`
	MediaStreams      []MediaStream `json:"MediaStreams"`
	ChannelID         string        `json:"ChannelId"`
	ChannelName       string        `json:"ChannelName"`
	ChannelNumber     string        `json:"ChannelNumber"`
	ProgramID         string        `json:"ProgramId"`
	CurrentProgram    *Program      `json:"CurrentProgram"`
	AlbumArtist       string        `json:"AlbumArtist"`
	Artist            string        `json:"Artist"`
}

// PlayState describes playback progress and transcoding targets
type PlayState struct {
	PositionTicks         int64            `json:"PositionTicks"`
	IsPaused              bool             `json:"IsPaused"`
	IsPlaying             bool             `json:"IsPlaying"`
	PlayMethod            string           `json:"PlayMethod"`
	VideoBitrate          int64            `json:"VideoBitrate"`
	AudioBitrate          int64            `json:"AudioBitrate"`
	Bitrate               int64            `json:"Bitrate"`
	TranscodingVideoCodec string           `json:"TranscodingVideoCodec"`
	TranscodingAudioCodec string           `json:"TranscodingAudioCodec"`
	TranscodingInfo       *TranscodingInfo `json:"TranscodingInfo"`
}

// TranscodingInfo describes the transcode target when the server is converting
type TranscodingInfo struct {
	VideoCodec        string   `json:"VideoCodec"`
	AudioCodec        string   `json:"AudioCodec"`
	Container         string   `json:"Container"`
	Bitrate           int64    `json:"Bitrate"`
	VideoBitrate      int64    `json:"VideoBitrate"`
	AudioBitrate      int64    `json:"AudioBitrate"`
	Width             int      `json:"Width"`
	Height            int      `json:"Height"`
	IsHLS             bool     `json:"IsHls"`
	TranscodeReasons  []string `json:"TranscodeReasons"`
	TranscodingReason string   `json:"TranscodingReason"`
	CompletionPercent float64  `json:"CompletionPercentage"`
}

// IsEmpty reports whether the block carries no target information at all.
// Servers occasionally attach an empty object instead of omitting the field.
func (t *TranscodingInfo) IsEmpty() bool {
	if t == nil {
		return true
	}
	return t.VideoCodec == "" && t.AudioCodec == "" && t.Container == "" &&
		t.Bitrate == 0 && t.VideoBitrate == 0 && t.AudioBitrate == 0 &&
		t.Width == 0 && t.Height == 0 &&
		len(t.TranscodeReasons) == 0 && t.TranscodingReason == ""
}

// MediaStream is one stream (video/audio/subtitle) of a media source
type MediaStream struct {
	Type          string  `json:"Type"`
	Codec         string  `json:"Codec"`
	Width         int     `json:"Width"`
	Height        int     `json:"Height"`
	BitRate       int64   `json:"BitRate"`
	RealFrameRate float64 `json:"RealFrameRate"`
	AspectRatio   string  `json:"AspectRatio"`
	Channels      int     `json:"Channels"`
	SampleRate    int     `json:"SampleRate"`
	Language      string  `json:"Language"`
}

// Program is a raw live-TV guide entry
type Program struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	SeriesName    string `json:"SeriesName"`
	Overview      string `json:"Overview"`
	StartDate     string `json:"StartDate"`
	EndDate       string `json:"EndDate"`
	ChannelID     string `json:"ChannelId"`
	ChannelName   string `json:"ChannelName"`
	ChannelNumber string `json:"ChannelNumber"`
	Number        string `json:"Number"`
}

// Channel is a raw live-TV channel record
type Channel struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	Number        string `json:"Number"`
	ChannelNumber string `json:"ChannelNumber"`
}

// Timer is a raw recording timer from /LiveTv/Timers
type Timer struct {
	ID          string   `json:"Id"`
	Name        string   `json:"Name"`
	ChannelName string   `json:"ChannelName"`
	Status      string   `json:"Status"`
	StartDate   string   `json:"StartDate"`
	EndDate     string   `json:"EndDate"`
	ProgramInfo *Program `json:"ProgramInfo"`
}

// SeriesTimer is a raw recurring recording rule from /LiveTv/SeriesTimers
type SeriesTimer struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	ChannelName      string `json:"ChannelName"`
	ChannelID        string `json:"ChannelId"`
	RecordAnyTime    bool   `json:"RecordAnyTime"`
	RecordAnyChannel bool   `json:"RecordAnyChannel"`
}

// ActiveRecording is an entry from /LiveTv/Recordings/Active
type ActiveRecording struct {
	Name        string `json:"Name"`
	ProgramName string `json:"ProgramName"`
	ChannelName string `json:"ChannelName"`
	ChannelID   string `json:"ChannelId"`
	StartDate   string `json:"StartDate"`
	EndDate     string `json:"EndDate"`
}

// ActivityEntry is one row of the server activity log
type ActivityEntry struct {
	ID       int64  `json:"Id"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	UserName string `json:"UserName"`
	Date     string `json:"Date"`
	Severity string `json:"Severity"`
}

// SystemInfo is the /System/Info payload
type SystemInfo struct {
	ID                 string `json:"Id"`
	ServerName         string `json:"ServerName"`
	Version            string `json:"Version"`
	OperatingSystem    string `json:"OperatingSystem"`
	SystemArchitecture string `json:"SystemArchitecture"`
}

// ItemCounts is the /Items/Counts payload
type ItemCounts struct {
	MovieCount     int `json:"MovieCount"`
	SeriesCount    int `json:"SeriesCount"`
	EpisodeCount   int `json:"EpisodeCount"`
	SongCount      int `json:"SongCount"`
	BookCount      int `json:"BookCount"`
	AudioBookCount int `json:"AudioBookCount"`
	TrailerCount   int `json:"TrailerCount"`
	BoxSetCount    int `json:"BoxSetCount"`
	PlaylistCount  int `json:"PlaylistCount"`
}

// LibraryView is one library folder from /Users/{id}/Views
type LibraryView struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType"`
}

// Item is a generic library item (movies, episodes, upcoming entries)
type Item struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	SeriesName        string            `json:"SeriesName"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	IndexNumber       *int              `json:"IndexNumber"`
	PremiereDate      string            `json:"PremiereDate"`
	ReleaseDate       string            `json:"ReleaseDate"`
	RunTimeTicks      int64             `json:"RunTimeTicks"`
	CommunityRating   float64           `json:"CommunityRating"`
	Genres            []string          `json:"Genres"`
	Taglines          []string          `json:"Taglines"`
	OriginalTitle     string            `json:"OriginalTitle"`
	MediaStreams      []MediaStream     `json:"MediaStreams"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
}

// User is a raw user record from /Users
type User struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Policy struct {
		IsAdministrator bool `json:"IsAdministrator"`
	} `json:"Policy"`
}

// itemsPage wraps list endpoints that return {"Items": [...]}
type itemsPage[T any] struct {
	Items            []T `json:"Items"`
	TotalRecordCount int `json:"TotalRecordCount"`
}

// ParseDate parses the ISO-8601 timestamps Emby emits, tolerating a trailing Z.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
