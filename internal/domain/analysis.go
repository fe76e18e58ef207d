package domain

// ChannelStats summarizes channel-level counters for the analysis block.
type ChannelStats struct {
	Name        string `json:"name"`
	Subscribers string `json:"subscribers"`
	TotalVideos string `json:"total_videos"`
	TotalViews  string `json:"total_views"`
}

// TopVideo is one entry of the top-10 ranking.
type TopVideo struct {
	Title       string `json:"title"`
	VideoID     string `json:"video_id"`
	ViewCount   string `json:"view_count"`
	PublishedAt string `json:"published_at"`
}

// Analysis holds derived statistics for one snapshot: the top videos by
// view count and upload counts bucketed by month over the trailing year.
type Analysis struct {
	ChannelStats ChannelStats   `json:"channel_stats"`
	TopVideos    []TopVideo     `json:"top_videos"`
	VideoTrends  map[string]int `json:"video_trends"`
}
