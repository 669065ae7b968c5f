package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// SweepJobArgs is the periodic settlement sweep. It carries no payload; the
// sweep always evaluates everything currently expired.
type SweepJobArgs struct{}

func (SweepJobArgs) Kind() string { return "settle_challenges" }

// Sweeper settles everything expired as of now and reports how many records
// changed state. Both challenge engines implement it.
type Sweeper interface {
	SettleExpired(ctx context.Context, now time.Time) (int, error)
}

// SweepWorker drives the lazy-plus-sweep settlement model: reads settle
// opportunistically, and this worker guarantees every expired challenge is
// eventually closed even if nobody looks at it. Guarded state transitions
// keep the two paths exactly-once.
type SweepWorker struct {
	river.WorkerDefaults[SweepJobArgs]
	daily  Sweeper
	player Sweeper
	log    *slog.Logger
}

func NewSweepWorker(daily, player Sweeper, log *slog.Logger) *SweepWorker {
	if log == nil {
		log = slog.Default()
	}
	return &SweepWorker{daily: daily, player: player, log: log}
}

func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepJobArgs]) error {
	now := time.Now().UTC()

	dailySettled, err := w.daily.SettleExpired(ctx, now)
	if err != nil {
		return err
	}
	playerSettled, err := w.player.SettleExpired(ctx, now)
	if err != nil {
		return err
	}

	if dailySettled+playerSettled > 0 {
		w.log.Info("settlement sweep", "daily_settled", dailySettled, "player_settled", playerSettled)
	}
	return nil
}
