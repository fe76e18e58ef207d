package transform

import (
	"fmt"
	"strconv"
	"time"

	"channel_metrics/internal/domain"
)

// Timestamps in raw snapshots use the platform's fixed ISO-8601 UTC form.
const timestampLayout = "2006-01-02T15:04:05Z"

// Row is one line of transformed output: a video joined to its channel's
// attributes plus the run's partition columns. Struct tags define the
// parquet schema.
type Row struct {
	ChannelID          string    `parquet:"channel_id"`
	ChannelTitle       string    `parquet:"channel_title"`
	ChannelDescription string    `parquet:"channel_description"`
	ChannelPublishedAt time.Time `parquet:"channel_published_at,timestamp(millisecond)"`
	SubscriberCount    int64     `parquet:"subscriber_count"`
	VideoCount         int64     `parquet:"video_count"`
	ChannelViewCount   int64     `parquet:"channel_view_count"`
	PlaylistID         string    `parquet:"playlist_id"`

	VideoID          string    `parquet:"video_id"`
	VideoTitle       string    `parquet:"video_title"`
	VideoDescription string    `parquet:"video_description"`
	PublishedAt      time.Time `parquet:"published_at,timestamp(millisecond)"`
	ViewCount        int64     `parquet:"view_count"`
	LikeCount        int64     `parquet:"like_count"`
	CommentCount     int64     `parquet:"comment_count"`
	Duration         string    `parquet:"duration"`

	Year               int32     `parquet:"year"`
	Month              int32     `parquet:"month"`
	Day                int32     `parquet:"day"`
	ProcessedTimestamp time.Time `parquet:"processed_timestamp,timestamp(millisecond)"`
}

// ChannelRecord is a channel's attributes after casting, keyed for the join.
type ChannelRecord struct {
	ID              string
	Title           string
	Description     string
	PublishedAt     time.Time
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
	PlaylistID      string
}

// VideoRecord is a video's attributes after casting, carrying the owning
// channel's identifier as its join key.
type VideoRecord struct {
	ChannelID    string
	ID           string
	Title        string
	Description  string
	PublishedAt  time.Time
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	Duration     string
}

// FlattenResult pairs the per-video rows with the channel records they join
// against.
type FlattenResult struct {
	Videos   []VideoRecord
	Channels []ChannelRecord
}

// Flatten crosses each snapshot's channel attributes with its videos, one
// record per video, casting string counters to int64 and parsing
// timestamps. Any non-numeric counter or malformed timestamp is a
// *domain.ParseError and fails the whole run; unlike the analysis stage
// there is no skip-on-error here.
func Flatten(snapshots []domain.Snapshot) (*FlattenResult, error) {
	result := &FlattenResult{}

	for _, snap := range snapshots {
		ch := snap.Channel

		publishedAt, err := parseTimestamp("channel_info.published_at", ch.PublishedAt)
		if err != nil {
			return nil, err
		}
		subscribers, err := parseCount("channel_info.subscriber_count", ch.SubscriberCount)
		if err != nil {
			return nil, err
		}
		videoCount, err := parseCount("channel_info.video_count", ch.VideoCount)
		if err != nil {
			return nil, err
		}
		channelViews, err := parseCount("channel_info.view_count", ch.ViewCount)
		if err != nil {
			return nil, err
		}

		result.Channels = append(result.Channels, ChannelRecord{
			ID:              ch.ID,
			Title:           ch.Title,
			Description:     ch.Description,
			PublishedAt:     publishedAt,
			SubscriberCount: subscribers,
			VideoCount:      videoCount,
			ViewCount:       channelViews,
			PlaylistID:      ch.PlaylistID,
		})

		for _, v := range snap.Videos {
			publishedAt, err := parseTimestamp("video.published_at", v.PublishedAt)
			if err != nil {
				return nil, err
			}
			views, err := parseCount("video.view_count", v.ViewCount)
			if err != nil {
				return nil, err
			}
			likes, err := parseCount("video.like_count", v.LikeCount)
			if err != nil {
				return nil, err
			}
			comments, err := parseCount("video.comment_count", v.CommentCount)
			if err != nil {
				return nil, err
			}

			channelID := v.ChannelID
			if channelID == "" {
				channelID = ch.ID
			}

			result.Videos = append(result.Videos, VideoRecord{
				ChannelID:    channelID,
				ID:           v.ID,
				Title:        v.Title,
				Description:  v.Description,
				PublishedAt:  publishedAt,
				ViewCount:    views,
				LikeCount:    likes,
				CommentCount: comments,
				Duration:     v.Duration,
			})
		}
	}

	return result, nil
}

// Join inner-joins video records onto channel records by channel ID and
// stamps the partition columns and processing timestamp. Videos whose
// channel ID matches no channel record are dropped silently; that data
// loss is intentional and covered by tests.
func Join(videos []VideoRecord, channels []ChannelRecord, part Partition, processedAt time.Time) []Row {
	byID := make(map[string]ChannelRecord, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}

	rows := make([]Row, 0, len(videos))
	for _, v := range videos {
		ch, ok := byID[v.ChannelID]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			ChannelID:          ch.ID,
			ChannelTitle:       ch.Title,
			ChannelDescription: ch.Description,
			ChannelPublishedAt: ch.PublishedAt,
			SubscriberCount:    ch.SubscriberCount,
			VideoCount:         ch.VideoCount,
			ChannelViewCount:   ch.ViewCount,
			PlaylistID:         ch.PlaylistID,

			VideoID:          v.ID,
			VideoTitle:       v.Title,
			VideoDescription: v.Description,
			PublishedAt:      v.PublishedAt,
			ViewCount:        v.ViewCount,
			LikeCount:        v.LikeCount,
			CommentCount:     v.CommentCount,
			Duration:         v.Duration,

			Year:               int32(part.Year),
			Month:              int32(part.Month),
			Day:                int32(part.Day),
			ProcessedTimestamp: processedAt,
		})
	}

	return rows
}

func parseCount(field string, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("flatten: %w", &domain.ParseError{Field: field, Value: value, Err: err})
	}
	return n, nil
}

func parseTimestamp(field string, value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("flatten: %w", &domain.ParseError{Field: field, Value: value, Err: err})
	}
	return t, nil
}
