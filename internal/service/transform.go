package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"channel_metrics/internal/domain"
	"channel_metrics/internal/transform"
)

// TransformService runs the transformation stage as a one-shot job: read
// the current date's raw snapshots, advisory-validate their schema,
// flatten and join, then overwrite the date partition of the transformed
// zone. Any failure aborts the whole run; the partition write is the only
// output and happens last, so an aborted run commits nothing.
type TransformService struct {
	raw       RawStore
	writer    RowWriter
	runs      RunStore
	txManager TransactionManager
	logger    *slog.Logger
	now       func() time.Time
}

func NewTransformService(
	raw RawStore,
	writer RowWriter,
	runs RunStore,
	txManager TransactionManager,
	logger *slog.Logger,
	now func() time.Time,
) *TransformService {
	if now == nil {
		now = time.Now
	}
	return &TransformService{
		raw:       raw,
		writer:    writer,
		runs:      runs,
		txManager: txManager,
		logger:    logger.With("stage", "transform"),
		now:       now,
	}
}

func (s *TransformService) Run(ctx context.Context) error {
	started := s.now()
	part := transform.PartitionFor(started)

	s.logger.Info("starting transformation", "partition", part.Path())

	raws, err := s.raw.ListSnapshots(ctx, part)
	if err != nil {
		s.logger.Error("failed to read raw partition", "partition", part.Path(), "error", err)
		s.recordRun(ctx, started, len(raws), "failed")
		return fmt.Errorf("read raw partition %s: %w", part.Path(), err)
	}

	snapshots := make([]domain.Snapshot, 0, len(raws))
	for _, raw := range raws {
		s.validateSchema(raw)
		snapshots = append(snapshots, raw.Snapshot)
	}

	flattened, err := transform.Flatten(snapshots)
	if err != nil {
		s.logger.Error("failed to flatten snapshots", "partition", part.Path(), "error", err)
		s.recordRun(ctx, started, len(raws), "failed")
		return fmt.Errorf("flatten: %w", err)
	}

	rows := transform.Join(flattened.Videos, flattened.Channels, part, started.UTC())

	s.logger.Info("transformed rows",
		"snapshots", len(snapshots),
		"videos", len(flattened.Videos),
		"rows", len(rows),
		"dropped", len(flattened.Videos)-len(rows),
	)

	if err := s.writer.WritePartition(ctx, rows, part); err != nil {
		s.logger.Error("failed to write partition", "partition", part.Path(), "error", err)
		s.recordRun(ctx, started, len(raws), "failed")
		return fmt.Errorf("write partition %s: %w", part.Path(), err)
	}

	s.recordRun(ctx, started, len(raws), "ok")

	s.logger.Info("transformation completed",
		"partition", part.Path(),
		"rows", len(rows),
		"duration", time.Since(started),
	)

	return nil
}

// validateSchema warns on field-set mismatches. Advisory only: a mismatch
// never blocks the run.
func (s *TransformService) validateSchema(raw domain.RawObject) {
	if report := transform.ValidateSnapshotFields(raw.Fields); !report.Clean() {
		s.logger.Warn("snapshot schema mismatch",
			"key", raw.Key,
			"missing", report.Missing,
			"extra", report.Extra,
		)
	}
	if report := transform.ValidateChannelFields(raw.ChannelFields); !report.Clean() {
		s.logger.Warn("channel schema mismatch",
			"key", raw.Key,
			"missing", report.Missing,
			"extra", report.Extra,
		)
	}
	if len(raw.VideoFields) > 0 {
		if report := transform.ValidateVideoFields(raw.VideoFields); !report.Clean() {
			s.logger.Warn("video schema mismatch",
				"key", raw.Key,
				"missing", report.Missing,
				"extra", report.Extra,
			)
		}
	}
}

func (s *TransformService) recordRun(ctx context.Context, started time.Time, objects int, status string) {
	if s.runs == nil || s.txManager == nil {
		return
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := s.runs.Insert(txCtx, &domain.RunRecord{
			SourceID:   "transform",
			Stage:      "transform",
			VideoCount: objects,
			Status:     status,
			StartedAt:  started,
			FinishedAt: s.now(),
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to record run", "error", err)
	}
}
