// Package analysis derives per-snapshot statistics: the top videos by view
// count and a month-by-month upload trend over the trailing year.
package analysis

import (
	"sort"
	"strconv"
	"time"

	"channel_metrics/internal/domain"
)

const (
	topVideoLimit = 10
	trendWindow   = 365 * 24 * time.Hour

	// Timestamps arrive in the platform's fixed ISO-8601 UTC form.
	timestampLayout = "2006-01-02T15:04:05Z"
)

// Analyze is a pure function of its inputs; now is injected so tests can
// pin it. Videos with timestamps that do not parse are left out of the
// trend buckets rather than failing the summary; upstream only guarantees
// string-typed fields, not their content.
func Analyze(channel domain.Channel, videos []domain.Video, now time.Time) domain.Analysis {
	analysis := domain.Analysis{
		ChannelStats: domain.ChannelStats{
			Name:        channel.Title,
			Subscribers: channel.SubscriberCount,
			TotalVideos: channel.VideoCount,
			TotalViews:  channel.ViewCount,
		},
		VideoTrends: make(map[string]int),
	}

	byViews := make([]domain.Video, len(videos))
	copy(byViews, videos)
	sort.SliceStable(byViews, func(i, j int) bool {
		return viewCount(byViews[i]) > viewCount(byViews[j])
	})

	limit := topVideoLimit
	if len(byViews) < limit {
		limit = len(byViews)
	}
	for _, v := range byViews[:limit] {
		analysis.TopVideos = append(analysis.TopVideos, domain.TopVideo{
			Title:       v.Title,
			VideoID:     v.ID,
			ViewCount:   v.ViewCount,
			PublishedAt: v.PublishedAt,
		})
	}

	cutoff := now.Add(-trendWindow)
	for _, v := range videos {
		published, err := time.Parse(timestampLayout, v.PublishedAt)
		if err != nil {
			continue
		}
		if !published.Before(cutoff) {
			analysis.VideoTrends[published.Format("2006-01")]++
		}
	}

	return analysis
}

// viewCount ranks unparsable counts as zero so a single bad value cannot
// abort the summary.
func viewCount(v domain.Video) int64 {
	n, err := strconv.ParseInt(v.ViewCount, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
