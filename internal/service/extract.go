package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"channel_metrics/internal/analysis"
	"channel_metrics/internal/config"
	"channel_metrics/internal/domain"
)

// ExtractService runs the extraction stage: for each configured channel,
// resolve it, list its uploads, derive the analysis summary and land a
// snapshot in the raw zone. Channels are processed sequentially; any
// per-channel failure skips that channel and the batch continues. Nothing
// here retries.
type ExtractService struct {
	source      Source
	raw         RawStore
	runs        RunStore
	sourceState SourceStateStore
	txManager   TransactionManager
	publisher   Publisher
	logger      *slog.Logger
	config      config.ExtractConfig
	now         func() time.Time
}

func NewExtractService(
	source Source,
	raw RawStore,
	runs RunStore,
	sourceState SourceStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.ExtractConfig,
	now func() time.Time,
) *ExtractService {
	if now == nil {
		now = time.Now
	}
	return &ExtractService{
		source:      source,
		raw:         raw,
		runs:        runs,
		sourceState: sourceState,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger.With("stage", "extract"),
		config:      cfg,
		now:         now,
	}
}

func (s *ExtractService) Run(ctx context.Context) (*domain.ExtractStats, error) {
	startTime := s.now()
	s.logger.Info("starting extraction",
		"channels", len(s.config.Channels),
		"max_videos", s.config.MaxVideos,
	)

	stats := &domain.ExtractStats{Channels: len(s.config.Channels)}

	for _, identifier := range s.config.Channels {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		outcome := s.extractChannel(ctx, identifier)
		stats.Outcomes = append(stats.Outcomes, outcome)

		switch outcome.Status {
		case domain.OutcomeOK:
			stats.Extracted++
		case domain.OutcomeSkipped:
			stats.Skipped++
		}

		if s.publisher != nil && outcome.Status == domain.OutcomeOK {
			if err := s.publisher.PublishRun(ctx, &outcome); err != nil {
				s.logger.Error("failed to publish run event", "channel", identifier, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("extraction completed",
		"extracted", stats.Extracted,
		"skipped", stats.Skipped,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *ExtractService) extractChannel(ctx context.Context, identifier string) domain.SourceOutcome {
	started := s.now()
	logger := s.logger.With("channel", identifier)

	channel, err := s.source.ResolveChannel(ctx, identifier)
	if err != nil {
		logger.Error("failed to resolve channel", "error", err)
		return domain.SourceOutcome{Source: identifier, Status: domain.OutcomeSkipped, Reason: "resolve: " + err.Error()}
	}

	videos, err := s.source.ListVideos(ctx, channel.PlaylistID, s.config.MaxVideos)
	if err != nil {
		logger.Error("failed to list videos", "error", err)
		return domain.SourceOutcome{Source: identifier, Status: domain.OutcomeSkipped, Reason: "list videos: " + err.Error()}
	}

	// Back-reference each video to its owning channel; the transform
	// stage joins on it.
	for i := range videos {
		videos[i].ChannelID = channel.ID
	}

	snapshot := &domain.Snapshot{
		Channel:  *channel,
		Videos:   videos,
		Analysis: analysis.Analyze(*channel, videos, s.now().UTC()),
	}

	key, err := s.raw.PutSnapshot(ctx, snapshot, s.now())
	if err != nil {
		logger.Error("failed to store snapshot", "error", err)
		return domain.SourceOutcome{Source: identifier, Status: domain.OutcomeSkipped, Reason: "store: " + err.Error()}
	}

	outcome := domain.SourceOutcome{
		Source:    identifier,
		Status:    domain.OutcomeOK,
		ObjectKey: key,
		Videos:    len(videos),
	}

	s.recordRun(ctx, &outcome, started)

	logger.Info("extracted channel",
		"channel_id", channel.ID,
		"videos", len(videos),
		"key", key,
	)

	return outcome
}

// recordRun writes the ledger entry for one channel. The ledger is
// bookkeeping: failures are logged, never fatal to the batch.
func (s *ExtractService) recordRun(ctx context.Context, outcome *domain.SourceOutcome, started time.Time) {
	if s.runs == nil || s.txManager == nil {
		return
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := s.runs.Insert(txCtx, &domain.RunRecord{
			SourceID:   outcome.Source,
			Stage:      "extract",
			ObjectKey:  outcome.ObjectKey,
			VideoCount: outcome.Videos,
			Status:     string(outcome.Status),
			StartedAt:  started,
			FinishedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		state, err := s.sourceState.Get(txCtx, outcome.Source)
		if err != nil {
			return fmt.Errorf("get source state: %w", err)
		}
		state.LastRunAt = s.now()
		state.TotalRuns++
		state.TotalVideos += int64(outcome.Videos)
		if err := s.sourceState.Upsert(txCtx, state); err != nil {
			return fmt.Errorf("upsert source state: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("failed to record run", "channel", outcome.Source, "error", err)
	}
}
