package domain

// Channel holds channel metadata as delivered by the platform API.
// Counter fields stay strings until the transform stage casts them.
type Channel struct {
	ID              string `json:"channel_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	PublishedAt     string `json:"published_at"`
	ViewCount       string `json:"view_count"`
	SubscriberCount string `json:"subscriber_count"`
	VideoCount      string `json:"video_count"`
	PlaylistID      string `json:"playlist_id"`
}

// Video is a single upload belonging to a channel.
type Video struct {
	ID           string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"published_at"`
	ViewCount    string `json:"view_count"`
	LikeCount    string `json:"like_count"`
	CommentCount string `json:"comment_count"`
	Duration     string `json:"duration"`
	ChannelID    string `json:"channel_id"`
}

// Snapshot is the unit of raw storage: one channel, its videos and the
// derived analysis, written once per extraction run.
type Snapshot struct {
	Channel  Channel  `json:"channel_info"`
	Videos   []Video  `json:"videos"`
	Analysis Analysis `json:"analysis"`
}
