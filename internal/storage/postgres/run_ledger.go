package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"channel_metrics/internal/domain"
)

// RunStore records pipeline runs in the ledger. Bookkeeping only: callers
// log ledger errors and keep going.
type RunStore struct {
	db *sqlx.DB
}

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Insert(ctx context.Context, run *domain.RunRecord) (int64, error) {
	query := `
		INSERT INTO extraction_runs (
			source_id, stage, object_key, video_count, status, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id, query,
		run.SourceID,
		run.Stage,
		run.ObjectKey,
		run.VideoCount,
		run.Status,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListBySource returns a source's runs, newest first.
func (s *RunStore) ListBySource(ctx context.Context, sourceID string, limit int) ([]domain.RunRecord, error) {
	query := `
		SELECT id, source_id, stage, object_key, video_count, status, started_at, finished_at
		FROM extraction_runs
		WHERE source_id = $1
		ORDER BY started_at DESC
		LIMIT $2`

	var runs []domain.RunRecord
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &runs, query, sourceID, limit)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// SourceStateStore keeps cumulative per-source ledger totals.
type SourceStateStore struct {
	db *sqlx.DB
}

func NewSourceStateStore(db *sqlx.DB) *SourceStateStore {
	return &SourceStateStore{db: db}
}

func (s *SourceStateStore) Get(ctx context.Context, sourceID string) (*domain.SourceState, error) {
	var state domain.SourceState
	query := `
		SELECT source_id, last_run_at, total_runs, total_videos
		FROM source_state
		WHERE source_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, sourceID)
	if err == sql.ErrNoRows {
		// Empty state for sources never seen before
		return &domain.SourceState{
			SourceID:  sourceID,
			LastRunAt: time.Time{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SourceStateStore) Upsert(ctx context.Context, state *domain.SourceState) error {
	query := `
		INSERT INTO source_state (source_id, last_run_at, total_runs, total_videos)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_id) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			total_runs = EXCLUDED.total_runs,
			total_videos = EXCLUDED.total_videos`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.SourceID,
		state.LastRunAt,
		state.TotalRuns,
		state.TotalVideos,
	)
	return err
}
