// Package aggregate computes cross-session derived sensors from one poll
// cycle's classified sessions. All functions are synchronous and operate on
// the consistent snapshot the session controller hands them.
package aggregate

import (
	"math"
	"sort"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
)

const recentActivityLimit = 5

// Entry pairs a classified player with the raw session it came from. The raw
// record is kept alongside because bandwidth estimates read bitrate fields
// the typed model deliberately does not carry.
type Entry struct {
	Player *models.Player
	Raw    *emby.Session
}

func (e Entry) active() bool {
	return e.Player != nil && e.Player.Media.Kind != models.MediaKindNone
}

// ActiveStreams counts sessions with a playing item and lists their users
func ActiveStreams(entries []Entry, totalSessions int) models.ActiveStreams {
	out := models.ActiveStreams{TotalSessions: totalSessions}
	seen := make(map[string]bool)
	for _, e := range entries {
		if !e.active() {
			continue
		}
		out.Count++
		if u := e.Player.UserName; u != "" && !seen[u] {
			seen[u] = true
			out.Users = append(out.Users, u)
		}
	}
	sort.Strings(out.Users)
	return out
}

// Bandwidth sums per-session video+audio bitrate estimates across active
// streams in MB/s. Sessions without bitrate data contribute zero.
func Bandwidth(entries []Entry) models.Bandwidth {
	var out models.Bandwidth
	var totalBps int64

	for _, e := range entries {
		if !e.active() {
			continue
		}
		out.ActiveStreams++

		vbr, abr := sessionBitrates(e.Raw)
		streamTotal := vbr + abr
		if streamTotal == 0 {
			streamTotal = fallbackBitrate(e.Raw)
		}
		totalBps += streamTotal

		out.Streams = append(out.Streams, models.StreamBandwidth{
			User:      e.Player.UserName,
			Device:    e.Player.DeviceName,
			Media:     mediaName(e.Raw),
			VideoMbps: toMbps(vbr),
			AudioMbps: toMbps(abr),
			TotalMbps: toMbps(vbr + abr),
		})
	}

	out.TotalMBps = round2(float64(totalBps) / 8 / 1024 / 1024)
	return out
}

// TranscodingLoad is the percentage of active streams being transcoded.
// Zero when nothing is playing.
func TranscodingLoad(entries []Entry) models.TranscodingLoad {
	var out models.TranscodingLoad
	var active int

	for _, e := range entries {
		if !e.active() {
			continue
		}
		active++
		if e.Player.Playback.Method != models.PlaybackTranscoding {
			continue
		}
		out.Count++
		out.Sessions = append(out.Sessions, models.TranscodeDetail{
			User:          e.Player.UserName,
			Device:        e.Player.DeviceName,
			Media:         mediaName(e.Raw),
			TargetVideo:   e.Player.Playback.TranscodeVideo,
			TargetAudio:   e.Player.Playback.TranscodeAudio,
			TargetBitrate: e.Player.Playback.TranscodeBitrate,
			Reasons:       e.Player.Playback.Reasons,
		})
	}

	if active > 0 {
		out.Percent = round1(float64(out.Count) / float64(active) * 100)
	}
	return out
}

// Multisession groups active sessions by user and reports users with two or
// more concurrent sessions, along with their device identities.
func Multisession(entries []Entry) models.Multisession {
	type group struct {
		count   int
		devices []string
	}
	groups := make(map[string]*group)
	var order []string

	for _, e := range entries {
		if !e.active() {
			continue
		}
		user := e.Player.UserName
		if user == "" {
			user = "Unknown"
		}
		g, ok := groups[user]
		if !ok {
			g = &group{}
			groups[user] = g
			order = append(order, user)
		}
		g.count++
		if d := e.Player.DeviceName; d != "" {
			g.devices = append(g.devices, d)
		}
	}

	var out models.Multisession
	for _, user := range order {
		g := groups[user]
		if g.count < 2 {
			continue
		}
		out.Users = append(out.Users, models.MultisessionUser{
			User:    user,
			Count:   g.count,
			Devices: g.devices,
		})
	}
	out.Count = len(out.Users)
	return out
}

// ServerStats combines session totals, a content-type breakdown of active
// streams, and the most recent activity-log entries sorted newest first.
func ServerStats(entries []Entry, info *emby.SystemInfo, activities []emby.ActivityEntry) models.ServerStats {
	out := models.ServerStats{
		TotalSessions: len(entries),
		ContentTypes:  make(map[string]int),
	}
	if info != nil {
		out.Version = info.Version
		out.OperatingSystem = info.OperatingSystem
		out.Architecture = info.SystemArchitecture
	}

	users := make(map[string]bool)
	devices := make(map[string]bool)
	for _, e := range entries {
		if e.Player != nil {
			if e.Player.UserName != "" {
				users[e.Player.UserName] = true
			}
			if e.Player.DeviceName != "" {
				devices[e.Player.DeviceName] = true
			}
		}
		if !e.active() {
			continue
		}
		out.ActiveSessions++
		out.ContentTypes[string(e.Player.Media.Kind)]++
	}
	out.UniqueUsers = len(users)
	out.UniqueDevices = len(devices)

	// Newest first by timestamp, truncated. Never re-sorted by any other key.
	sorted := make([]emby.ActivityEntry, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	if len(sorted) > recentActivityLimit {
		sorted = sorted[:recentActivityLimit]
	}
	for _, act := range sorted {
		out.RecentActivities = append(out.RecentActivities, models.ActivityItem{
			Date: act.Date,
			User: act.UserName,
			Name: act.Name,
			Type: act.Type,
		})
	}

	return out
}

// sessionBitrates prefers explicit play-state bitrates, then the transcode
// target, then session-level fields.
func sessionBitrates(s *emby.Session) (video, audio int64) {
	if s == nil {
		return 0, 0
	}
	ps := s.PlayState
	tinfo := s.TranscodingInfo
	if tinfo.IsEmpty() && ps != nil {
		tinfo = ps.TranscodingInfo
	}

	if ps != nil && ps.VideoBitrate > 0 {
		video = ps.VideoBitrate
	} else if !tinfo.IsEmpty() && tinfo.VideoBitrate > 0 {
		video = tinfo.VideoBitrate
	} else if s.VideoBitrate > 0 {
		video = s.VideoBitrate
	}

	if ps != nil && ps.AudioBitrate > 0 {
		audio = ps.AudioBitrate
	} else if !tinfo.IsEmpty() && tinfo.AudioBitrate > 0 {
		audio = tinfo.AudioBitrate
	} else if s.AudioBitrate > 0 {
		audio = s.AudioBitrate
	}

	return video, audio
}

func fallbackBitrate(s *emby.Session) int64 {
	if s == nil {
		return 0
	}
	tinfo := s.TranscodingInfo
	if tinfo.IsEmpty() && s.PlayState != nil {
		tinfo = s.PlayState.TranscodingInfo
	}
	if !tinfo.IsEmpty() && tinfo.Bitrate > 0 {
		return tinfo.Bitrate
	}
	return s.Bitrate
}

func mediaName(s *emby.Session) string {
	if s == nil || s.NowPlayingItem == nil {
		return ""
	}
	return s.NowPlayingItem.Name
}

func toMbps(bps int64) float64 {
	return round2(float64(bps) / 1024 / 1024)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
