package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/config"
	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
)

// Sensor entity keys for the library-derived entities
const (
	KeyLibraryStats     = "library_stats"
	KeyLatestMovies     = "latest_movies"
	KeyLatestEpisodes   = "latest_episodes"
	KeyUpcomingEpisodes = "upcoming_episodes"
)

const mediaListLimit = 5

// LibraryAPI is the slice of the Emby client the library cycle needs
type LibraryAPI interface {
	ItemCounts(ctx context.Context) (*emby.ItemCounts, error)
	LibraryViews(ctx context.Context) ([]emby.LibraryView, error)
	LatestMovies(ctx context.Context, limit int) ([]emby.Item, error)
	LatestEpisodes(ctx context.Context, limit int) ([]emby.Item, error)
	UpcomingEpisodes(ctx context.Context, limit int) ([]emby.Item, error)
	ItemImageURL(itemID string) string
}

// LibraryController polls library counts and the latest/upcoming lists on
// the slowest cadence. A failed fetch keeps the previously cached values;
// last_updated only ever reflects successful fetches.
type LibraryController struct {
	api       LibraryAPI
	publisher publish.Publisher
	store     *models.Store
	cfg       *config.Config
	logger    *logrus.Logger

	mu     sync.Mutex
	cached *models.LibraryStats
}

// NewLibraryController creates a new library controller, restoring the
// cached stats from the snapshot store when available.
func NewLibraryController(api LibraryAPI, publisher publish.Publisher, store *models.Store, cfg *config.Config, logger *logrus.Logger) *LibraryController {
	c := &LibraryController{
		api:       api,
		publisher: publisher,
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}

	if store != nil {
		var stats models.LibraryStats
		if ok, err := store.LoadSnapshot(models.CategoryLibrary, &stats); err == nil && ok {
			c.cached = &stats
		}
	}

	return c
}

// Poll executes one library poll cycle. A stats failure keeps the last
// known values published and still lets the media lists refresh, but the
// error is returned so the scheduler's failure accounting sees it.
func (c *LibraryController) Poll(ctx context.Context) error {
	var statsErr error
	if c.cfg.EnableLibraryStats {
		if statsErr = c.pollStats(ctx); statsErr != nil {
			c.logger.WithError(statsErr).Warn("Library stats fetch failed, keeping cached values")
			c.publishCached()
			if emby.IsUnauthorized(statsErr) {
				return statsErr
			}
		}
	}

	c.pollLists(ctx)
	return statsErr
}

func (c *LibraryController) pollStats(ctx context.Context) error {
	counts, err := c.api.ItemCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch item counts: %w", err)
	}
	views, err := c.api.LibraryViews(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch library views: %w", err)
	}

	stats := &models.LibraryStats{
		Libraries:       len(views),
		TotalMovies:     counts.MovieCount,
		TotalSeries:     counts.SeriesCount,
		TotalEpisodes:   counts.EpisodeCount,
		TotalSongs:      counts.SongCount,
		TotalBooks:      counts.BookCount,
		TotalAudiobooks: counts.AudioBookCount,
		TotalTrailers:   counts.TrailerCount,
		TotalBoxsets:    counts.BoxSetCount,
		TotalPlaylists:  counts.PlaylistCount,
		LastUpdated:     time.Now().UTC(),
	}

	c.mu.Lock()
	c.cached = stats
	c.mu.Unlock()

	c.publisher.Publish(models.EntitySensor, KeyLibraryStats, stats, nil)

	if c.store != nil {
		if err := c.store.SaveSnapshot(models.CategoryLibrary, stats); err != nil {
			c.logger.WithError(err).Warn("Failed to persist library snapshot")
		}
	}
	return nil
}

func (c *LibraryController) publishCached() {
	c.mu.Lock()
	cached := c.cached
	c.mu.Unlock()
	if cached != nil {
		c.publisher.Publish(models.EntitySensor, KeyLibraryStats, cached, nil)
	}
}

// pollLists fetches the latest/upcoming lists; each list fails independently
func (c *LibraryController) pollLists(ctx context.Context) {
	if c.cfg.EnableLatestMovies {
		c.publishList(ctx, KeyLatestMovies, c.api.LatestMovies)
	}
	if c.cfg.EnableLatestEpisodes {
		c.publishList(ctx, KeyLatestEpisodes, c.api.LatestEpisodes)
	}
	if c.cfg.EnableUpcomingEpisodes {
		c.publishList(ctx, KeyUpcomingEpisodes, c.api.UpcomingEpisodes)
	}
}

func (c *LibraryController) publishList(ctx context.Context, key string, fetch func(context.Context, int) ([]emby.Item, error)) {
	items, err := fetch(ctx, mediaListLimit)
	if err != nil {
		c.logger.WithError(err).WithField("list", key).Warn("Media list fetch failed")
		c.publisher.Unavailable(models.EntitySensor, key)
		return
	}

	list := models.MediaList{Items: make([]models.MediaListItem, 0, len(items))}
	for _, it := range items {
		list.Items = append(list.Items, c.normalizeItem(it))
	}
	c.publisher.Publish(models.EntitySensor, key, list, map[string]interface{}{
		"count": len(list.Items),
	})
}

func (c *LibraryController) normalizeItem(it emby.Item) models.MediaListItem {
	item := models.MediaListItem{
		ID:           it.ID,
		Title:        it.Name,
		Series:       it.SeriesName,
		Season:       it.ParentIndexNumber,
		Episode:      it.IndexNumber,
		PremiereDate: it.PremiereDate,
		Rating:       it.CommunityRating,
		Genres:       it.Genres,
	}
	if item.PremiereDate == "" {
		item.PremiereDate = it.ReleaseDate
	}
	if it.RunTimeTicks > 0 {
		item.RuntimeSeconds = int(emby.TicksToSeconds(it.RunTimeTicks))
	}
	if len(it.Taglines) > 0 {
		item.Tagline = it.Taglines[0]
	} else {
		item.Tagline = it.OriginalTitle
	}
	if imdb, ok := it.ProviderIDs["Imdb"]; ok {
		item.IMDBID = imdb
	} else if imdb, ok := it.ProviderIDs["ImdbId"]; ok {
		item.IMDBID = imdb
	}
	for _, st := range it.MediaStreams {
		if st.Type == "Video" && st.Height > 0 {
			item.ResolutionHeight = st.Height
			break
		}
	}
	if it.ID != "" {
		item.ImageURL = c.api.ItemImageURL(it.ID)
	}
	return item
}

// MarkUnavailable flags every library-derived entity as stale
func (c *LibraryController) MarkUnavailable() {
	for _, key := range []string{KeyLibraryStats, KeyLatestMovies, KeyLatestEpisodes, KeyUpcomingEpisodes} {
		c.publisher.Unavailable(models.EntitySensor, key)
	}
}
