package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
)

// KeyRecordings is the recordings sensor entity key
const KeyRecordings = "recordings"

// RecordingsAPI is the slice of the Emby client the recordings cycle needs
type RecordingsAPI interface {
	Timers(ctx context.Context) ([]emby.Timer, error)
	ActiveRecordings(ctx context.Context) ([]emby.ActiveRecording, error)
	SeriesTimers(ctx context.Context) ([]emby.SeriesTimer, error)
}

// RecordingsController polls the three recording categories independently;
// counts are list lengths, no cross-referencing.
type RecordingsController struct {
	api       RecordingsAPI
	publisher publish.Publisher
	store     *models.Store
	logger    *logrus.Logger
}

// NewRecordingsController creates a new recordings controller
func NewRecordingsController(api RecordingsAPI, publisher publish.Publisher, store *models.Store, logger *logrus.Logger) *RecordingsController {
	return &RecordingsController{
		api:       api,
		publisher: publisher,
		store:     store,
		logger:    logger,
	}
}

// Poll executes one recordings poll cycle
func (c *RecordingsController) Poll(ctx context.Context) error {
	timers, err := c.api.Timers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch timers: %w", err)
	}

	now := time.Now().UTC()
	recordings := models.Recordings{
		Active:    []models.RecordingInfo{},
		Scheduled: []models.RecordingInfo{},
		Series:    []models.SeriesRecordingInfo{},
	}

	for _, t := range timers {
		start, end := emby.TimerWindow(t)
		info := models.RecordingInfo{
			Name:    emby.TimerName(t),
			Channel: emby.TimerChannel(t),
			Start:   start,
			End:     end,
		}
		switch {
		case emby.TimerIsActive(t, now):
			recordings.Active = append(recordings.Active, info)
		case emby.TimerIsScheduled(t, now):
			recordings.Scheduled = append(recordings.Scheduled, info)
		}
	}

	// The active-recordings endpoint is a backup source for tuner backends
	// that don't reflect in-progress state on timers; de-dup by name.
	if active, err := c.api.ActiveRecordings(ctx); err != nil {
		c.logger.WithError(err).Debug("Active recordings backup fetch failed")
	} else {
		known := make(map[string]bool, len(recordings.Active))
		for _, rec := range recordings.Active {
			known[rec.Name] = true
		}
		for _, item := range active {
			name := item.Name
			if name == "" {
				name = item.ProgramName
			}
			if name == "" || known[name] {
				continue
			}
			channel := item.ChannelName
			if channel == "" {
				channel = item.ChannelID
			}
			recordings.Active = append(recordings.Active, models.RecordingInfo{
				Name:    name,
				Channel: channel,
				Start:   item.StartDate,
				End:     item.EndDate,
			})
		}
	}

	series, err := c.api.SeriesTimers(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to fetch series timers")
	} else {
		for _, st := range series {
			channel := st.ChannelName
			if channel == "" {
				channel = st.ChannelID
			}
			recordings.Series = append(recordings.Series, models.SeriesRecordingInfo{
				Name:             st.Name,
				Channel:          channel,
				RecordAnyTime:    st.RecordAnyTime,
				RecordAnyChannel: st.RecordAnyChannel,
			})
		}
	}

	c.publisher.Publish(models.EntitySensor, KeyRecordings, recordings, map[string]interface{}{
		"active_count":    len(recordings.Active),
		"scheduled_count": len(recordings.Scheduled),
		"series_count":    len(recordings.Series),
	})

	if c.store != nil {
		if err := c.store.SaveSnapshot(models.CategoryRecordings, recordings); err != nil {
			c.logger.WithError(err).Warn("Failed to persist recordings snapshot")
		}
	}

	return nil
}

// MarkUnavailable flags the recordings entity as stale
func (c *RecordingsController) MarkUnavailable() {
	c.publisher.Unavailable(models.EntitySensor, KeyRecordings)
}
