package emby

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"
)

const itemFields = "PremiereDate,ReleaseDate,DateCreated,SeriesName,RunTimeTicks," +
	"Genres,Taglines,OriginalTitle,MediaStreams,ProviderIds,IndexNumber,ParentIndexNumber"

const excludeFolderTypes = "CollectionFolder,Folder,Playlist,BoxSet"

// ItemCounts retrieves global library counts by media kind
func (c *Client) ItemCounts(ctx context.Context) (*ItemCounts, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	var counts ItemCounts
	path := fmt.Sprintf("/Items/Counts?UserId=%s", url.QueryEscape(uid))
	if err := c.get(ctx, path, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

// LibraryViews retrieves the user's library folders
func (c *Client) LibraryViews(ctx context.Context) ([]LibraryView, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	var page itemsPage[LibraryView]
	path := fmt.Sprintf("/Users/%s/Views", url.PathEscape(uid))
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// userItems queries /Users/{uid}/Items with defaults that exclude folders
func (c *Client) userItems(ctx context.Context, includeTypes, sortBy, sortOrder string, limit int, extra string) ([]Item, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf(
		"/Users/%s/Items?IncludeItemTypes=%s&SortBy=%s&SortOrder=%s&Limit=%d&Fields=%s&Recursive=true&ExcludeItemTypes=%s",
		url.PathEscape(uid), includeTypes, sortBy, sortOrder, limit, itemFields, excludeFolderTypes)
	if extra != "" {
		path += "&" + extra
	}

	var page itemsPage[Item]
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// LatestMovies retrieves the most recently added movies
func (c *Client) LatestMovies(ctx context.Context, limit int) ([]Item, error) {
	items, err := c.userItems(ctx, "Movie", "DateCreated", "Descending", limit*2, "")
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// LatestEpisodes retrieves the most recently added episodes
func (c *Client) LatestEpisodes(ctx context.Context, limit int) ([]Item, error) {
	items, err := c.userItems(ctx, "Episode", "DateCreated", "Descending", limit*2, "")
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// UpcomingEpisodes retrieves episodes airing in the future. /Shows/Upcoming is
// preferred; an unaired-items query is the fallback when it returns nothing.
// Results are filtered to future premiere dates and sorted soonest first.
func (c *Client) UpcomingEpisodes(ctx context.Context, limit int) ([]Item, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	fields := "PremiereDate,SeriesName,RunTimeTicks,IndexNumber,ParentIndexNumber"

	var page itemsPage[Item]
	path := fmt.Sprintf("/Shows/Upcoming?UserId=%s&Limit=%d&Fields=%s", url.QueryEscape(uid), limit*8, fields)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	items := page.Items

	now := time.Now().UTC()
	if len(items) == 0 {
		horizon := now.Add(365 * 24 * time.Hour)
		extra := fmt.Sprintf("MinPremiereDate=%s&MaxPremiereDate=%s&IsUnaired=true",
			url.QueryEscape(now.Format(time.RFC3339)), url.QueryEscape(horizon.Format(time.RFC3339)))
		items, err = c.userItems(ctx, "Episode", "PremiereDate", "Ascending", limit*12, extra)
		if err != nil {
			return nil, err
		}
	}

	var upcoming []Item
	for _, it := range items {
		if dt, ok := ParseDate(it.PremiereDate); ok && !dt.Before(now) {
			upcoming = append(upcoming, it)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].PremiereDate < upcoming[j].PremiereDate
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}
