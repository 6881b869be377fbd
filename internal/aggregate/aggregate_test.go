package aggregate

import (
	"testing"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
)

func playingEntry(user, device string, raw *emby.Session) Entry {
	if raw == nil {
		raw = &emby.Session{}
	}
	raw.UserName = user
	raw.DeviceName = device
	if raw.NowPlayingItem == nil {
		raw.NowPlayingItem = &emby.NowPlayingItem{ID: "item", Name: "Something", Type: "Movie"}
	}
	return Entry{
		Player: &models.Player{
			UserName:   user,
			DeviceName: device,
			State:      models.PlayStatusPlaying,
			Media:      models.MediaVariant{Kind: models.MediaKindMovie, Movie: &models.MovieInfo{Title: "Something"}},
		},
		Raw: raw,
	}
}

func idleEntry(user, device string) Entry {
	return Entry{
		Player: &models.Player{
			UserName:   user,
			DeviceName: device,
			State:      models.PlayStatusIdle,
			Media:      models.MediaVariant{Kind: models.MediaKindNone},
		},
		Raw: &emby.Session{UserName: user, DeviceName: device},
	}
}

func TestActiveStreams(t *testing.T) {
	entries := []Entry{
		playingEntry("john", "Chrome", nil),
		playingEntry("jane", "Roku", nil),
		idleEntry("bob", "Shield"),
	}

	out := ActiveStreams(entries, 3)

	if out.Count != 2 {
		t.Errorf("Expected 2 active streams, got %d", out.Count)
	}
	if out.TotalSessions != 3 {
		t.Errorf("Expected 3 total sessions, got %d", out.TotalSessions)
	}
	if len(out.Users) != 2 || out.Users[0] != "jane" || out.Users[1] != "john" {
		t.Errorf("Users mismatch: %v", out.Users)
	}
}

func TestBandwidth(t *testing.T) {
	// Three active streams at 8000 kbps video each
	entries := []Entry{
		playingEntry("john", "Chrome", &emby.Session{
			PlayState: &emby.PlayState{VideoBitrate: 8000000},
		}),
		playingEntry("jane", "Roku", &emby.Session{
			PlayState: &emby.PlayState{VideoBitrate: 8000000},
		}),
		playingEntry("bob", "Shield", &emby.Session{
			PlayState: &emby.PlayState{VideoBitrate: 8000000},
		}),
	}

	out := Bandwidth(entries)

	if out.ActiveStreams != 3 {
		t.Errorf("Expected 3 active streams, got %d", out.ActiveStreams)
	}
	// 24,000,000 bps / 8 / 1024 / 1024 = 2.86 MB/s
	if out.TotalMBps != 2.86 {
		t.Errorf("Expected 2.86 MB/s, got %v", out.TotalMBps)
	}
	if len(out.Streams) != 3 {
		t.Fatalf("Expected 3 per-stream entries, got %d", len(out.Streams))
	}
	// 8,000,000 bps / 1024 / 1024 = 7.63 Mbps
	if out.Streams[0].VideoMbps != 7.63 {
		t.Errorf("Per-stream video Mbps mismatch: %v", out.Streams[0].VideoMbps)
	}
}

func TestBandwidthFallbackToSessionBitrate(t *testing.T) {
	entries := []Entry{
		playingEntry("john", "Chrome", &emby.Session{Bitrate: 8000000}),
	}

	out := Bandwidth(entries)
	// 8,000,000 bps / 8 / 1024 / 1024 = 0.95 MB/s
	if out.TotalMBps != 0.95 {
		t.Errorf("Expected 0.95 MB/s from session-level fallback, got %v", out.TotalMBps)
	}
}

func TestBandwidthMissingDataContributesZero(t *testing.T) {
	entries := []Entry{
		playingEntry("john", "Chrome", &emby.Session{}),
		playingEntry("jane", "Roku", &emby.Session{Bitrate: 8000000}),
	}

	out := Bandwidth(entries)
	if out.ActiveStreams != 2 {
		t.Errorf("Expected both streams counted, got %d", out.ActiveStreams)
	}
	if out.TotalMBps != 0.95 {
		t.Errorf("Expected only jane's bitrate summed, got %v", out.TotalMBps)
	}
}

func TestTranscodingLoad(t *testing.T) {
	transcoding := playingEntry("john", "Chrome", nil)
	transcoding.Player.Playback = models.PlaybackInfo{
		Method:         models.PlaybackTranscoding,
		TranscodeVideo: "h264",
		Reasons:        []string{"VideoCodecNotSupported"},
	}
	direct := playingEntry("jane", "Roku", nil)
	direct.Player.Playback = models.PlaybackInfo{Method: models.PlaybackDirect}

	out := TranscodingLoad([]Entry{transcoding, direct, idleEntry("bob", "Shield")})

	if out.Count != 1 {
		t.Errorf("Expected 1 transcoding session, got %d", out.Count)
	}
	if out.Percent != 50.0 {
		t.Errorf("Expected 50.0 percent, got %v", out.Percent)
	}
	if len(out.Sessions) != 1 || out.Sessions[0].TargetVideo != "h264" {
		t.Errorf("Detail mismatch: %+v", out.Sessions)
	}
	if len(out.Sessions[0].Reasons) != 1 || out.Sessions[0].Reasons[0] != "VideoCodecNotSupported" {
		t.Errorf("Reasons should pass through verbatim: %v", out.Sessions[0].Reasons)
	}
}

func TestTranscodingLoadNoActiveStreams(t *testing.T) {
	out := TranscodingLoad([]Entry{idleEntry("bob", "Shield")})
	if out.Percent != 0 || out.Count != 0 {
		t.Errorf("No active streams should mean zero load: %+v", out)
	}
}

func TestMultisession(t *testing.T) {
	entries := []Entry{
		playingEntry("john", "Chrome", nil),
		playingEntry("john", "Roku", nil),
		playingEntry("jane", "Shield", nil),
	}

	out := Multisession(entries)

	if out.Count != 1 {
		t.Fatalf("Expected 1 multisession user, got %d", out.Count)
	}
	u := out.Users[0]
	if u.User != "john" || u.Count != 2 {
		t.Errorf("User group mismatch: %+v", u)
	}
	if len(u.Devices) != 2 || u.Devices[0] != "Chrome" || u.Devices[1] != "Roku" {
		t.Errorf("Device identities mismatch: %v", u.Devices)
	}
}

func TestMultisessionUnknownUser(t *testing.T) {
	entries := []Entry{
		playingEntry("", "Kiosk A", nil),
		playingEntry("", "Kiosk B", nil),
	}

	out := Multisession(entries)
	if out.Count != 1 || out.Users[0].User != "Unknown" {
		t.Errorf("User-less sessions should group under Unknown: %+v", out)
	}
}

func TestServerStats(t *testing.T) {
	entries := []Entry{
		playingEntry("john", "Chrome", nil),
		playingEntry("jane", "Roku", nil),
		idleEntry("john", "Shield"),
	}
	info := &emby.SystemInfo{Version: "4.8.0.0", OperatingSystem: "Linux", SystemArchitecture: "X64"}
	activities := []emby.ActivityEntry{
		{Name: "a", Date: "2024-06-01T10:00:00Z"},
		{Name: "b", Date: "2024-06-01T12:00:00Z"},
		{Name: "c", Date: "2024-06-01T11:00:00Z"},
		{Name: "d", Date: "2024-06-01T09:00:00Z"},
		{Name: "e", Date: "2024-06-01T08:00:00Z"},
		{Name: "f", Date: "2024-06-01T07:00:00Z"},
		{Name: "g", Date: "2024-06-01T13:00:00Z"},
	}

	out := ServerStats(entries, info, activities)

	if out.Version != "4.8.0.0" || out.OperatingSystem != "Linux" {
		t.Errorf("System info mismatch: %+v", out)
	}
	if out.ActiveSessions != 2 || out.TotalSessions != 3 {
		t.Errorf("Session counts mismatch: active=%d total=%d", out.ActiveSessions, out.TotalSessions)
	}
	if out.UniqueUsers != 2 {
		t.Errorf("Expected 2 unique users, got %d", out.UniqueUsers)
	}
	if out.UniqueDevices != 3 {
		t.Errorf("Expected 3 unique devices, got %d", out.UniqueDevices)
	}
	if out.ContentTypes["movie"] != 2 {
		t.Errorf("Content type breakdown mismatch: %v", out.ContentTypes)
	}
	if len(out.RecentActivities) != 5 {
		t.Fatalf("Expected 5 recent activities, got %d", len(out.RecentActivities))
	}
	if out.RecentActivities[0].Name != "g" || out.RecentActivities[1].Name != "b" {
		t.Errorf("Activities should be newest first: %+v", out.RecentActivities)
	}
}

func TestServerStatsNoSystemInfo(t *testing.T) {
	out := ServerStats([]Entry{playingEntry("john", "Chrome", nil)}, nil, nil)
	if out.Version != "" {
		t.Errorf("Missing system info should leave version empty, got %s", out.Version)
	}
	if out.ActiveSessions != 1 {
		t.Errorf("Sessions still counted without system info, got %d", out.ActiveSessions)
	}
}
