package emby

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const programFields = "Overview,Genres,StartDate,EndDate,SeriesName," +
	"SeasonNumber,EpisodeNumber,ChannelName,ChannelNumber"

// ProgramByID fetches a guide entry directly by its program id
func (c *Client) ProgramByID(ctx context.Context, programID string) (*Program, error) {
	var prog Program
	path := fmt.Sprintf("/LiveTv/Programs/%s?Fields=%s%s",
		url.PathEscape(programID), programFields, c.userQuery(ctx))
	if err := c.get(ctx, path, &prog); err != nil {
		return nil, err
	}
	if prog.ID == "" {
		return nil, nil
	}
	return &prog, nil
}

// AiringProgram searches the guide for the program currently airing on a
// channel. The per-channel programs endpoint is tried when the global guide
// query comes back empty.
func (c *Client) AiringProgram(ctx context.Context, channelID string) (*Program, error) {
	userQ := c.userQuery(ctx)

	var page itemsPage[Program]
	path := fmt.Sprintf("/LiveTv/Programs?ChannelIds=%s&IsAiring=true&Limit=1&Fields=%s%s",
		url.QueryEscape(channelID), programFields, userQ)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	if len(page.Items) > 0 {
		return &page.Items[0], nil
	}

	path = fmt.Sprintf("/LiveTv/Channels/%s/Programs?IsAiring=true&Limit=1&Fields=%s%s",
		url.PathEscape(channelID), programFields, userQ)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	if len(page.Items) > 0 {
		return &page.Items[0], nil
	}
	return nil, nil
}

// ChannelByID fetches a live-TV channel record
func (c *Client) ChannelByID(ctx context.Context, channelID string) (*Channel, error) {
	var ch Channel
	path := fmt.Sprintf("/LiveTv/Channels/%s", url.PathEscape(channelID))
	if err := c.get(ctx, path, &ch); err != nil {
		return nil, err
	}
	if ch.ID == "" {
		return nil, nil
	}
	return &ch, nil
}

// Timers retrieves all recording timers
func (c *Client) Timers(ctx context.Context) ([]Timer, error) {
	var page itemsPage[Timer]
	path := "/LiveTv/Timers?" + c.userQuery(ctx)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SeriesTimers retrieves all recurring recording rules
func (c *Client) SeriesTimers(ctx context.Context) ([]SeriesTimer, error) {
	var page itemsPage[SeriesTimer]
	path := "/LiveTv/SeriesTimers?" + c.userQuery(ctx)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ActiveRecordings retrieves in-progress recordings. This is a backup source:
// timers already carry in-progress status, but some tuner backends only show
// up here.
func (c *Client) ActiveRecordings(ctx context.Context) ([]ActiveRecording, error) {
	var page itemsPage[ActiveRecording]
	if err := c.get(ctx, "/LiveTv/Recordings/Active", &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TimerIsActive reports whether a timer is recording right now, either by
// status or by its start/end window containing now.
func TimerIsActive(t Timer, now time.Time) bool {
	if t.Status == "InProgress" || t.Status == "Recording" {
		return true
	}
	start, okStart := ParseDate(timerStart(t))
	end, okEnd := ParseDate(timerEnd(t))
	return okStart && okEnd && !now.Before(start) && !now.After(end)
}

// TimerIsScheduled reports whether a timer starts in the future
func TimerIsScheduled(t Timer, now time.Time) bool {
	start, ok := ParseDate(timerStart(t))
	return ok && start.After(now)
}

// TimerName prefers the program name over the bare timer name
func TimerName(t Timer) string {
	if t.ProgramInfo != nil && t.ProgramInfo.Name != "" {
		return t.ProgramInfo.Name
	}
	return t.Name
}

// TimerChannel prefers the program's channel name over the timer's
func TimerChannel(t Timer) string {
	if t.ProgramInfo != nil && t.ProgramInfo.ChannelName != "" {
		return t.ProgramInfo.ChannelName
	}
	return t.ChannelName
}

func timerStart(t Timer) string {
	if t.ProgramInfo != nil && t.ProgramInfo.StartDate != "" {
		return t.ProgramInfo.StartDate
	}
	return t.StartDate
}

func timerEnd(t Timer) string {
	if t.ProgramInfo != nil && t.ProgramInfo.EndDate != "" {
		return t.ProgramInfo.EndDate
	}
	return t.EndDate
}

// TimerWindow returns the effective start/end timestamps for a timer
func TimerWindow(t Timer) (string, string) {
	return timerStart(t), timerEnd(t)
}
