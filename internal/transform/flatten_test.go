package transform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel_metrics/internal/domain"
)

func testChannel() domain.Channel {
	return domain.Channel{
		ID:              "UC123",
		Title:           "Test",
		Description:     "A channel",
		PublishedAt:     "2020-06-01T00:00:00Z",
		ViewCount:       "1000",
		SubscriberCount: "100",
		VideoCount:      "5",
		PlaylistID:      "UU123",
	}
}

func testVideo(id string) domain.Video {
	return domain.Video{
		ID:           id,
		Title:        "video " + id,
		PublishedAt:  "2025-01-15T08:30:00Z",
		ViewCount:    "50",
		LikeCount:    "7",
		CommentCount: "3",
		Duration:     "PT4M13S",
		ChannelID:    "UC123",
	}
}

func snapshot(channel domain.Channel, videos ...domain.Video) domain.Snapshot {
	return domain.Snapshot{Channel: channel, Videos: videos}
}

func TestFlatten_CastsCountersWithoutSwapping(t *testing.T) {
	result, err := Flatten([]domain.Snapshot{snapshot(testChannel(), testVideo("v1"))})
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	require.Len(t, result.Videos, 1)

	ch := result.Channels[0]
	assert.Equal(t, int64(100), ch.SubscriberCount)
	assert.Equal(t, int64(5), ch.VideoCount)
	assert.Equal(t, int64(1000), ch.ViewCount)

	v := result.Videos[0]
	assert.Equal(t, int64(50), v.ViewCount)
	assert.Equal(t, int64(7), v.LikeCount)
	assert.Equal(t, int64(3), v.CommentCount)
}

func TestFlatten_ParsesTimestamps(t *testing.T) {
	result, err := Flatten([]domain.Snapshot{snapshot(testChannel(), testVideo("v1"))})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), result.Channels[0].PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC), result.Videos[0].PublishedAt)
}

func TestFlatten_NonNumericCountIsTypedFailure(t *testing.T) {
	bad := testVideo("v1")
	bad.ViewCount = "abc"

	result, err := Flatten([]domain.Snapshot{snapshot(testChannel(), bad)})

	require.Error(t, err)
	assert.Nil(t, result)

	var parseErr *domain.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "video.view_count", parseErr.Field)
	assert.Equal(t, "abc", parseErr.Value)
}

func TestFlatten_MalformedTimestampIsTypedFailure(t *testing.T) {
	bad := testVideo("v1")
	bad.PublishedAt = "2025-01-15 08:30:00"

	_, err := Flatten([]domain.Snapshot{snapshot(testChannel(), bad)})

	var parseErr *domain.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "video.published_at", parseErr.Field)
}

func TestFlatten_EmptyChannelIDFallsBackToOwner(t *testing.T) {
	v := testVideo("v1")
	v.ChannelID = ""

	result, err := Flatten([]domain.Snapshot{snapshot(testChannel(), v)})
	require.NoError(t, err)

	assert.Equal(t, "UC123", result.Videos[0].ChannelID)
}

func TestJoin_OneRowPerMatchedVideo(t *testing.T) {
	result, err := Flatten([]domain.Snapshot{
		snapshot(testChannel(), testVideo("v1"), testVideo("v2"), testVideo("v3")),
	})
	require.NoError(t, err)

	part := Partition{Year: 2025, Month: 3, Day: 7}
	processedAt := time.Date(2025, 3, 7, 1, 0, 0, 0, time.UTC)

	rows := Join(result.Videos, result.Channels, part, processedAt)

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, "UC123", row.ChannelID)
		assert.Equal(t, "Test", row.ChannelTitle)
		assert.Equal(t, int64(100), row.SubscriberCount)
		assert.Equal(t, int32(2025), row.Year)
		assert.Equal(t, int32(3), row.Month)
		assert.Equal(t, int32(7), row.Day)
		assert.Equal(t, processedAt, row.ProcessedTimestamp)
	}
}

func TestJoin_DropsUnmatchedVideosSilently(t *testing.T) {
	orphan := testVideo("orphan")
	orphan.ChannelID = "UC999"

	result, err := Flatten([]domain.Snapshot{
		snapshot(testChannel(), testVideo("v1"), orphan),
	})
	require.NoError(t, err)

	rows := Join(result.Videos, result.Channels, Partition{Year: 2025, Month: 3, Day: 7}, time.Now())

	// Intentional data loss: the orphan is absent, not an error.
	require.Len(t, rows, 1)
	assert.Equal(t, "v1", rows[0].VideoID)
}

func TestJoin_ChannelAndVideoCountsNotSwapped(t *testing.T) {
	result, err := Flatten([]domain.Snapshot{snapshot(testChannel(), testVideo("v1"))})
	require.NoError(t, err)

	rows := Join(result.Videos, result.Channels, Partition{Year: 2025, Month: 3, Day: 7}, time.Now())

	require.Len(t, rows, 1)
	assert.Equal(t, int64(100), rows[0].SubscriberCount)
	assert.Equal(t, int64(50), rows[0].ViewCount)
	assert.Equal(t, int64(1000), rows[0].ChannelViewCount)
}

func TestJoin_MultipleChannels(t *testing.T) {
	other := testChannel()
	other.ID = "UC456"
	other.Title = "Other"
	otherVideo := testVideo("w1")
	otherVideo.ChannelID = "UC456"

	result, err := Flatten([]domain.Snapshot{
		snapshot(testChannel(), testVideo("v1")),
		snapshot(other, otherVideo),
	})
	require.NoError(t, err)

	rows := Join(result.Videos, result.Channels, Partition{Year: 2025, Month: 3, Day: 7}, time.Now())

	require.Len(t, rows, 2)
	assert.Equal(t, "Test", rows[0].ChannelTitle)
	assert.Equal(t, "Other", rows[1].ChannelTitle)
}
