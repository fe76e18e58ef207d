package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"channel_metrics/internal/domain"
	"channel_metrics/internal/transform"
)

type Source interface {
	ResolveChannel(ctx context.Context, identifier string) (*domain.Channel, error)
	ListVideos(ctx context.Context, playlistID string, maxResults int) ([]domain.Video, error)
}

type RawStore interface {
	PutSnapshot(ctx context.Context, snap *domain.Snapshot, runTime time.Time) (string, error)
	ListSnapshots(ctx context.Context, part transform.Partition) ([]domain.RawObject, error)
}

type RowWriter interface {
	WritePartition(ctx context.Context, rows []transform.Row, part transform.Partition) error
}

type RunStore interface {
	Insert(ctx context.Context, run *domain.RunRecord) (int64, error)
}

type SourceStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SourceState, error)
	Upsert(ctx context.Context, state *domain.SourceState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishRun(ctx context.Context, outcome *domain.SourceOutcome) error
	Close() error
}
