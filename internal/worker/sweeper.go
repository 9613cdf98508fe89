package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/search"
)

type Store interface {
	PurgeDeletedTasks(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper permanently removes tasks soft-deleted more than Grace ago and
// refresh tokens past their expiry.
type Sweeper struct {
	Store    Store
	Index    search.Index
	Grace    time.Duration
	Interval time.Duration
	Log      *slog.Logger

	now func() time.Time
}

type SweepResult struct {
	PurgedTasks   int
	ExpiredTokens int64
}

func (s *Sweeper) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.clock()

	ids, err := s.Store.PurgeDeletedTasks(ctx, now.Add(-s.Grace))
	if err != nil {
		return res, err
	}
	res.PurgedTasks = len(ids)

	if s.Index != nil {
		for _, id := range ids {
			if err := s.Index.RemoveTask(ctx, id); err != nil {
				s.logger().Warn("sweep_unindex_failed", "task_id", id, "error", err)
			}
		}
	}

	n, err := s.Store.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		return res, err
	}
	res.ExpiredTokens = n
	return res, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	l := s.logger().With("worker", "sweeper")
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	l.Info("sweeper_started", "interval", s.Interval.String(), "grace", s.Grace.String())
	for {
		select {
		case <-ctx.Done():
			l.Info("sweeper_stopped")
			return
		case <-t.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.Error("sweep_failed", "error", err)
				continue
			}
			if res.PurgedTasks > 0 || res.ExpiredTokens > 0 {
				l.Info("sweep_done", "purged_tasks", res.PurgedTasks, "expired_tokens", res.ExpiredTokens)
			}
		}
	}
}
