package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"channel_metrics/internal/domain"
)

const pageLimit = 50

// Config holds YouTube Data API client configuration.
type Config struct {
	BaseURL  string
	Key      string
	PageSize int
	Timeout  time.Duration
}

// Client talks to the Data API v3. Lookups fail soft: any upstream error
// surfaces as domain.ErrNotFound so one bad channel never aborts a batch.
// There are no retries anywhere; a failed call degrades that channel only.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	pageSize   int
	logger     *slog.Logger
}

// New creates a new Data API client.
func New(cfg Config, logger *slog.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > pageLimit {
		pageSize = pageLimit
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		key:      cfg.Key,
		pageSize: pageSize,
		logger:   logger.With("source", "youtube"),
	}
}

// ResolveChannel resolves a channel handle or canonical ID to its metadata.
// Identifiers that do not carry the canonical "UC" prefix go through a
// search-by-name lookup first, taking the first hit.
func (c *Client) ResolveChannel(ctx context.Context, identifier string) (*domain.Channel, error) {
	channelID := identifier
	if !strings.HasPrefix(identifier, "UC") {
		var search searchResponse
		err := c.get(ctx, "search", url.Values{
			"q":          {identifier},
			"type":       {"channel"},
			"part":       {"id"},
			"maxResults": {"1"},
		}, &search)
		if err != nil {
			c.logger.Error("channel search failed", "identifier", identifier, "error", err)
			return nil, fmt.Errorf("channel %q: %w", identifier, domain.ErrNotFound)
		}
		if len(search.Items) == 0 {
			return nil, fmt.Errorf("channel %q: %w", identifier, domain.ErrNotFound)
		}
		channelID = search.Items[0].ID.ChannelID
	}

	var list channelListResponse
	err := c.get(ctx, "channels", url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {channelID},
	}, &list)
	if err != nil {
		c.logger.Error("channel lookup failed", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("channel %q: %w", identifier, domain.ErrNotFound)
	}
	if len(list.Items) == 0 {
		return nil, fmt.Errorf("channel %q: %w", identifier, domain.ErrNotFound)
	}

	item := list.Items[0]
	return &domain.Channel{
		ID:              item.ID,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		PublishedAt:     item.Snippet.PublishedAt,
		ViewCount:       orZero(item.Statistics.ViewCount),
		SubscriberCount: orZero(item.Statistics.SubscriberCount),
		VideoCount:      orZero(item.Statistics.VideoCount),
		PlaylistID:      item.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

// ListVideos pages through an uploads playlist, at most pageLimit items per
// page, and merges per-video statistics keyed by video ID. Playlist order is
// preserved in the result. Stops when the API reports no further page or
// maxResults is reached.
func (c *Client) ListVideos(ctx context.Context, playlistID string, maxResults int) ([]domain.Video, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	var videos []domain.Video
	pageToken := ""

	for {
		remaining := maxResults - len(videos)
		pageSize := c.pageSize
		if remaining < pageSize {
			pageSize = remaining
		}

		params := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {fmt.Sprintf("%d", pageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page playlistItemsResponse
		if err := c.get(ctx, "playlistItems", params, &page); err != nil {
			c.logger.Error("playlist listing failed", "playlist_id", playlistID, "error", err)
			return nil, fmt.Errorf("playlist %q: %w", playlistID, domain.ErrNotFound)
		}

		ids := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			ids = append(ids, item.ContentDetails.VideoID)
		}

		stats, err := c.videoStats(ctx, ids)
		if err != nil {
			c.logger.Error("video statistics lookup failed", "playlist_id", playlistID, "error", err)
			return nil, fmt.Errorf("playlist %q: %w", playlistID, domain.ErrNotFound)
		}

		for _, item := range page.Items {
			video := domain.Video{
				ID:          item.ContentDetails.VideoID,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: item.Snippet.PublishedAt,
			}
			if s, ok := stats[video.ID]; ok {
				video.ViewCount = orZero(s.viewCount)
				video.LikeCount = orZero(s.likeCount)
				video.CommentCount = orZero(s.commentCount)
				video.Duration = s.duration
			} else {
				video.ViewCount = "0"
				video.LikeCount = "0"
				video.CommentCount = "0"
			}
			videos = append(videos, video)
		}

		c.logger.Debug("fetched playlist page",
			"playlist_id", playlistID,
			"page_items", len(page.Items),
			"total", len(videos),
		)

		if page.NextPageToken == "" || len(videos) >= maxResults {
			break
		}
		pageToken = page.NextPageToken
	}

	return videos, nil
}

type videoStat struct {
	viewCount    string
	likeCount    string
	commentCount string
	duration     string
}

func (c *Client) videoStats(ctx context.Context, ids []string) (map[string]videoStat, error) {
	stats := make(map[string]videoStat, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	var list videoListResponse
	err := c.get(ctx, "videos", url.Values{
		"part": {"statistics,contentDetails"},
		"id":   {strings.Join(ids, ",")},
	}, &list)
	if err != nil {
		return nil, err
	}

	for _, item := range list.Items {
		stats[item.ID] = videoStat{
			viewCount:    item.Statistics.ViewCount,
			likeCount:    item.Statistics.LikeCount,
			commentCount: item.Statistics.CommentCount,
			duration:     item.ContentDetails.Duration,
		}
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.key)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// orZero substitutes "0" for counters the API omits, e.g. hidden subscriber
// counts or disabled comments.
func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
