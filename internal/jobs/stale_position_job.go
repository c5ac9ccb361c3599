package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/geo"

	"github.com/robfig/cron/v3"
)

// StalePositionJob evicts drivers whose last fix aged past the liveness
// window from the position index. Proximity queries already skip stale
// entries; the eviction keeps the index from growing with silent drivers.
type StalePositionJob struct {
	index  *geo.Index
	cron   *cron.Cron
	logger *slog.Logger
}

// NewStalePositionJob creates the recurring index eviction job.
func NewStalePositionJob(index *geo.Index, logger *slog.Logger) *StalePositionJob {
	return &StalePositionJob{
		index:  index,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "stale_position_job"),
	}
}

// Start begins the eviction job, running once a minute.
func (j *StalePositionJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", func() {
		ctx := context.Background()

		if evicted := j.index.EvictStale(time.Now()); evicted > 0 {
			j.logger.InfoContext(ctx, "Evicted stale driver positions", "count", evicted)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stale position job started (running every minute)")
	return nil
}

// Stop stops the eviction job.
func (j *StalePositionJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Stale position job stopped")
}
