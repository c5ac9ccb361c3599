package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// PartitionMaintenanceJob keeps the location history table healthy: it
// pre-creates the partitions upcoming writes need and drops partitions
// older than the retention horizon. Runs nightly.
type PartitionMaintenanceJob struct {
	store     ports.LocationRepository
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewPartitionMaintenanceJob creates the nightly partition maintenance job.
// Retention decides how far back position history is kept.
func NewPartitionMaintenanceJob(
	store ports.LocationRepository,
	retention time.Duration,
	logger *slog.Logger,
) *PartitionMaintenanceJob {
	return &PartitionMaintenanceJob{
		store:     store,
		retention: retention,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "partition_maintenance_job"),
	}
}

// Start begins the maintenance job, running daily at 03:00.
func (j *PartitionMaintenanceJob) Start() error {
	_, err := j.cron.AddFunc("0 0 3 * * *", func() {
		j.Run(context.Background())
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Partition maintenance job started (running daily)")
	return nil
}

// Run performs one maintenance pass. Called by the schedule and once at
// startup so the first write of a fresh deployment finds its partition.
func (j *PartitionMaintenanceJob) Run(ctx context.Context) {
	now := time.Now().UTC()

	if err := j.store.EnsurePartitions(ctx, now); err != nil {
		j.logger.ErrorContext(ctx, "Failed to ensure location partitions", "error", err)
		return
	}

	if err := j.store.DropExpired(ctx, now.Add(-j.retention)); err != nil {
		j.logger.ErrorContext(ctx, "Failed to drop expired location partitions", "error", err)
	}
}

// Stop stops the maintenance job.
func (j *PartitionMaintenanceJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Partition maintenance job stopped")
}
