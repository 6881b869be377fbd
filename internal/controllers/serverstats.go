package controllers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/aggregate"
	"github.com/lyfesaver74/embywatch/internal/classify"
	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
)

// KeyServerStats is the server stats sensor entity key
const KeyServerStats = "server_stats"

const activityFetchLimit = 10

// ServerStatsAPI is the slice of the Emby client the server-stats cycle needs
type ServerStatsAPI interface {
	SystemInfo(ctx context.Context) (*emby.SystemInfo, error)
	ActivityLog(ctx context.Context, limit int) ([]emby.ActivityEntry, error)
	Sessions(ctx context.Context) ([]emby.Session, error)
	ItemImageURL(itemID string) string
}

// ServerStatsController polls system info, the activity log and sessions on
// its own cadence and derives the server-wide summary. It classifies its own
// session snapshot rather than sharing the session cycle's, keeping the
// categories' failure domains independent.
type ServerStatsController struct {
	api       ServerStatsAPI
	publisher publish.Publisher
	store     *models.Store
	logger    *logrus.Logger
}

// NewServerStatsController creates a new server stats controller
func NewServerStatsController(api ServerStatsAPI, publisher publish.Publisher, store *models.Store, logger *logrus.Logger) *ServerStatsController {
	return &ServerStatsController{
		api:       api,
		publisher: publisher,
		store:     store,
		logger:    logger,
	}
}

// Poll executes one server-stats poll cycle. Activity-log and system-info
// failures degrade the summary; only a session fetch failure fails the poll.
func (c *ServerStatsController) Poll(ctx context.Context) error {
	sessions, err := c.api.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sessions: %w", err)
	}

	info, err := c.api.SystemInfo(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to fetch system info")
	}

	activities, err := c.api.ActivityLog(ctx, activityFetchLimit)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to fetch activity log")
	}

	entries := make([]aggregate.Entry, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		player := &models.Player{
			UserName:   s.UserName,
			DeviceName: s.DeviceName,
			Media:      classify.Variant(s, c.api.ItemImageURL),
		}
		entries = append(entries, aggregate.Entry{Player: player, Raw: s})
	}

	stats := aggregate.ServerStats(entries, info, activities)
	c.publisher.Publish(models.EntitySensor, KeyServerStats, stats, nil)

	if c.store != nil {
		if err := c.store.SaveSnapshot(models.CategoryServerStats, stats); err != nil {
			c.logger.WithError(err).Warn("Failed to persist server stats snapshot")
		}
	}

	return nil
}

// MarkUnavailable flags the server stats entity as stale
func (c *ServerStatsController) MarkUnavailable() {
	c.publisher.Unavailable(models.EntitySensor, KeyServerStats)
}
