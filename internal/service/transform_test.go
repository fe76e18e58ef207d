package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"channel_metrics/internal/domain"
	"channel_metrics/internal/service/mocks"
	"channel_metrics/internal/transform"
)

type TransformServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	raw       *mocks.MockRawStore
	writer    *mocks.MockRowWriter
	runs      *mocks.MockRunStore
	txManager *mocks.MockTransactionManager

	service *TransformService
	logger  *slog.Logger
	now     time.Time
	part    transform.Partition
}

func (s *TransformServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.raw = mocks.NewMockRawStore(s.ctrl)
	s.writer = mocks.NewMockRowWriter(s.ctrl)
	s.runs = mocks.NewMockRunStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.now = time.Date(2025, 3, 7, 0, 5, 0, 0, time.UTC)
	s.part = transform.PartitionFor(s.now)

	s.service = NewTransformService(
		s.raw,
		s.writer,
		s.runs,
		s.txManager,
		s.logger,
		func() time.Time { return s.now },
	)
}

func (s *TransformServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestTransformServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransformServiceTestSuite))
}

func (s *TransformServiceTestSuite) rawObject(channelID string, videoIDs ...string) domain.RawObject {
	snap := domain.Snapshot{
		Channel: domain.Channel{
			ID:              channelID,
			Title:           "Channel " + channelID,
			PublishedAt:     "2020-01-01T00:00:00Z",
			ViewCount:       "1000",
			SubscriberCount: "100",
			VideoCount:      "2",
			PlaylistID:      "UU" + channelID,
		},
	}
	for _, id := range videoIDs {
		snap.Videos = append(snap.Videos, domain.Video{
			ID:           id,
			PublishedAt:  "2025-01-15T00:00:00Z",
			ViewCount:    "50",
			LikeCount:    "1",
			CommentCount: "0",
			Duration:     "PT1M",
			ChannelID:    channelID,
		})
	}
	return domain.RawObject{
		Key:           "raw/year=2025/month=03/day=07/Channel_" + channelID + ".json",
		Snapshot:      snap,
		Fields:        []string{"channel_info", "videos", "analysis"},
		ChannelFields: []string{"channel_id", "title", "description", "published_at", "view_count", "subscriber_count", "video_count", "playlist_id"},
	}
}

func (s *TransformServiceTestSuite) expectLedger(status string) {
	s.txManager.EXPECT().
		WithTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
	s.runs.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run *domain.RunRecord) (int64, error) {
			s.Equal("transform", run.Stage)
			s.Equal(status, run.Status)
			return 1, nil
		})
}

func (s *TransformServiceTestSuite) TestRun_WritesJoinedRowsToPartition() {
	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return([]domain.RawObject{s.rawObject("UC1", "v1", "v2")}, nil)

	s.writer.EXPECT().
		WritePartition(gomock.Any(), gomock.Any(), s.part).
		DoAndReturn(func(_ context.Context, rows []transform.Row, _ transform.Partition) error {
			s.Len(rows, 2)
			s.Equal("UC1", rows[0].ChannelID)
			s.Equal(int64(100), rows[0].SubscriberCount)
			s.Equal(int64(50), rows[0].ViewCount)
			s.Equal(int32(2025), rows[0].Year)
			s.Equal(int32(3), rows[0].Month)
			s.Equal(int32(7), rows[0].Day)
			return nil
		})
	s.expectLedger("ok")

	err := s.service.Run(context.Background())
	s.NoError(err)
}

func (s *TransformServiceTestSuite) TestRun_ListFailureAborts() {
	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return(nil, errors.New("storage unavailable"))
	s.expectLedger("failed")

	err := s.service.Run(context.Background())

	s.Error(err)
	s.Contains(err.Error(), "read raw partition")
}

func (s *TransformServiceTestSuite) TestRun_ParseFailureAbortsWithoutWriting() {
	bad := s.rawObject("UC1", "v1")
	bad.Snapshot.Videos[0].ViewCount = "abc"

	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return([]domain.RawObject{bad}, nil)
	s.expectLedger("failed")

	err := s.service.Run(context.Background())

	s.Error(err)
	var parseErr *domain.ParseError
	s.ErrorAs(err, &parseErr)
	// WritePartition was never expected: nothing may be committed.
}

func (s *TransformServiceTestSuite) TestRun_WriteFailureAborts() {
	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return([]domain.RawObject{s.rawObject("UC1", "v1")}, nil)
	s.writer.EXPECT().
		WritePartition(gomock.Any(), gomock.Any(), s.part).
		Return(errors.New("put failed"))
	s.expectLedger("failed")

	err := s.service.Run(context.Background())

	s.Error(err)
	s.Contains(err.Error(), "write partition")
}

func (s *TransformServiceTestSuite) TestRun_SchemaMismatchIsAdvisoryOnly() {
	obj := s.rawObject("UC1", "v1")
	obj.Fields = []string{"channel_info", "videos"} // analysis missing
	obj.ChannelFields = append(obj.ChannelFields, "unexpected_field")

	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return([]domain.RawObject{obj}, nil)
	s.writer.EXPECT().WritePartition(gomock.Any(), gomock.Any(), s.part).Return(nil)
	s.expectLedger("ok")

	err := s.service.Run(context.Background())
	s.NoError(err)
}

func (s *TransformServiceTestSuite) TestRun_EmptyPartitionWritesEmptyOutput() {
	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return(nil, nil)
	s.writer.EXPECT().
		WritePartition(gomock.Any(), gomock.Any(), s.part).
		DoAndReturn(func(_ context.Context, rows []transform.Row, _ transform.Partition) error {
			s.Empty(rows)
			return nil
		})
	s.expectLedger("ok")

	err := s.service.Run(context.Background())
	s.NoError(err)
}

func (s *TransformServiceTestSuite) TestRun_UnmatchedVideosDropped() {
	obj := s.rawObject("UC1", "v1")
	obj.Snapshot.Videos[0].ChannelID = "UC999"

	s.raw.EXPECT().
		ListSnapshots(gomock.Any(), s.part).
		Return([]domain.RawObject{obj}, nil)
	s.writer.EXPECT().
		WritePartition(gomock.Any(), gomock.Any(), s.part).
		DoAndReturn(func(_ context.Context, rows []transform.Row, _ transform.Partition) error {
			s.Empty(rows)
			return nil
		})
	s.expectLedger("ok")

	err := s.service.Run(context.Background())
	s.NoError(err)
}
