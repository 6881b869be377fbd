package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/utils"
)

type fakeGuide struct {
	programs map[string]*emby.Program
	airing   map[string]*emby.Program
	channels map[string]*emby.Channel

	programCalls int
	airingCalls  int
}

func (f *fakeGuide) ProgramByID(ctx context.Context, programID string) (*emby.Program, error) {
	f.programCalls++
	if p, ok := f.programs[programID]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeGuide) AiringProgram(ctx context.Context, channelID string) (*emby.Program, error) {
	f.airingCalls++
	if p, ok := f.airing[channelID]; ok {
		return p, nil
	}
	return nil, nil
}

func (f *fakeGuide) ChannelByID(ctx context.Context, channelID string) (*emby.Channel, error) {
	if c, ok := f.channels[channelID]; ok {
		return c, nil
	}
	return nil, nil
}

func (f *fakeGuide) ItemImageURL(itemID string) string {
	return "http://emby/Items/" + itemID + "/Images/Primary"
}

func newTestResolver(guide *fakeGuide, now time.Time) *Resolver {
	r := NewResolver(guide, utils.NewLogger("error"))
	r.now = func() time.Time { return now }
	return r
}

func TestResolveByProgramID(t *testing.T) {
	now := time.Date(2024, 6, 1, 20, 30, 0, 0, time.UTC)
	guide := &fakeGuide{
		programs: map[string]*emby.Program{
			"prog-1": {
				ID:         "prog-1",
				Name:       "Evening News",
				SeriesName: "Evening News",
				Overview:   "Daily headlines",
				StartDate:  "2024-06-01T20:00:00Z",
				EndDate:    "2024-06-01T21:00:00Z",
			},
		},
	}
	r := newTestResolver(guide, now)

	live := &models.LiveTVInfo{ChannelID: "channel-1", ChannelName: "BBC One", ChannelNumber: "1"}
	r.Resolve(context.Background(), live, "prog-1")

	if live.ProgramSource != models.ProgramSourceID {
		t.Fatalf("Expected program_id source, got %s", live.ProgramSource)
	}
	if live.Program == nil || live.Program.Series != "Evening News" {
		t.Fatalf("Program mismatch: %+v", live.Program)
	}
	if live.DurationSeconds == nil || *live.DurationSeconds != 3600 {
		t.Errorf("Duration mismatch: %v", live.DurationSeconds)
	}
	if live.PositionSeconds == nil || *live.PositionSeconds != 1800 {
		t.Errorf("Position mismatch: %v", live.PositionSeconds)
	}
	if live.Program.ImageURL != "http://emby/Items/prog-1/Images/Primary" {
		t.Errorf("Image URL mismatch: %s", live.Program.ImageURL)
	}
}

func TestResolveByGuideSearch(t *testing.T) {
	now := time.Date(2024, 6, 1, 22, 10, 0, 0, time.UTC)
	guide := &fakeGuide{
		airing: map[string]*emby.Program{
			"channel-7": {
				ID:        "prog-22",
				Name:      "News at Ten",
				StartDate: "2024-06-01T22:00:00Z",
				EndDate:   "2024-06-01T22:30:00Z",
			},
		},
	}
	r := newTestResolver(guide, now)

	// No program id on the session, straight to the guide search
	live := &models.LiveTVInfo{ChannelID: "channel-7", ChannelName: "ITV"}
	r.Resolve(context.Background(), live, "")

	if live.ProgramSource != models.ProgramSourceSearch {
		t.Fatalf("Expected channel_search source, got %s", live.ProgramSource)
	}
	if live.Program == nil || live.Program.Series != "News at Ten" {
		t.Fatalf("Program mismatch: %+v", live.Program)
	}
	if live.DurationSeconds == nil || *live.DurationSeconds != 1800 {
		t.Errorf("Duration mismatch: %v", live.DurationSeconds)
	}
	if live.PositionSeconds == nil || *live.PositionSeconds != 600 {
		t.Errorf("Position mismatch: %v", live.PositionSeconds)
	}
}

func TestResolveNothingFound(t *testing.T) {
	guide := &fakeGuide{}
	r := newTestResolver(guide, time.Now())

	live := &models.LiveTVInfo{ChannelID: "channel-9", ChannelName: "Empty"}
	r.Resolve(context.Background(), live, "")

	if live.ProgramSource != models.ProgramSourceNone {
		t.Errorf("Expected none source, got %s", live.ProgramSource)
	}
	if live.Program != nil {
		t.Errorf("No program object should be attached: %+v", live.Program)
	}
}

func TestResolvePositionClamped(t *testing.T) {
	// Clock skew can put now before the program start
	now := time.Date(2024, 6, 1, 19, 59, 0, 0, time.UTC)
	guide := &fakeGuide{
		programs: map[string]*emby.Program{
			"prog-1": {
				ID:        "prog-1",
				Name:      "Late Start",
				StartDate: "2024-06-01T20:00:00Z",
				EndDate:   "2024-06-01T21:00:00Z",
			},
		},
	}
	r := newTestResolver(guide, now)

	live := &models.LiveTVInfo{ChannelID: "channel-1"}
	r.Resolve(context.Background(), live, "prog-1")

	if live.PositionSeconds == nil || *live.PositionSeconds != 0 {
		t.Errorf("Position should clamp to 0, got %v", live.PositionSeconds)
	}
}

func TestResolveCaching(t *testing.T) {
	now := time.Date(2024, 6, 1, 20, 30, 0, 0, time.UTC)
	guide := &fakeGuide{
		programs: map[string]*emby.Program{
			"prog-1": {
				ID:        "prog-1",
				Name:      "Cached Show",
				StartDate: "2024-06-01T20:00:00Z",
				EndDate:   "2024-06-01T21:00:00Z",
			},
		},
	}
	r := newTestResolver(guide, now)

	live := &models.LiveTVInfo{ChannelID: "channel-1"}
	r.Resolve(context.Background(), live, "prog-1")
	r.Resolve(context.Background(), live, "prog-1")

	if guide.programCalls != 1 {
		t.Errorf("Expected a single guide query, got %d", guide.programCalls)
	}
}

func TestResolveNegativeCaching(t *testing.T) {
	guide := &fakeGuide{}
	r := newTestResolver(guide, time.Now())

	live := &models.LiveTVInfo{ChannelID: "channel-9"}
	r.Resolve(context.Background(), live, "")
	r.Resolve(context.Background(), live, "")

	if guide.airingCalls != 1 {
		t.Errorf("Missing guide data should not be re-queried, got %d calls", guide.airingCalls)
	}
}

func TestChannelNumberBackfill(t *testing.T) {
	guide := &fakeGuide{
		channels: map[string]*emby.Channel{
			"channel-5": {ID: "channel-5", Name: "Five", Number: "5"},
		},
	}
	r := newTestResolver(guide, time.Now())

	live := &models.LiveTVInfo{ChannelID: "channel-5", ChannelName: "Five"}
	r.Resolve(context.Background(), live, "")

	if live.ChannelNumber != "5" {
		t.Errorf("Expected backfilled channel number 5, got %q", live.ChannelNumber)
	}
}

func TestChannelNumberFromProgram(t *testing.T) {
	now := time.Date(2024, 6, 1, 20, 30, 0, 0, time.UTC)
	guide := &fakeGuide{
		programs: map[string]*emby.Program{
			"prog-1": {
				ID:            "prog-1",
				Name:          "Show",
				ChannelID:     "channel-3",
				ChannelNumber: "3",
				StartDate:     "2024-06-01T20:00:00Z",
				EndDate:       "2024-06-01T21:00:00Z",
			},
		},
	}
	r := newTestResolver(guide, now)

	live := &models.LiveTVInfo{ChannelID: "channel-3"}
	r.Resolve(context.Background(), live, "prog-1")

	if live.ChannelNumber != "3" {
		t.Errorf("Program channel number should backfill, got %q", live.ChannelNumber)
	}
}
