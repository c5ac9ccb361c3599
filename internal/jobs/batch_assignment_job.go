package jobs

import (
	"context"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// BatchAssignmentJob periodically matches the pending-order backlog against
// available drivers. Runs every five seconds so freshly created orders do
// not sit unassigned for long.
type BatchAssignmentJob struct {
	handler commands.BatchAssignCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewBatchAssignmentJob creates the recurring batch assignment job.
func NewBatchAssignmentJob(handler commands.BatchAssignCommandHandler, logger *slog.Logger) *BatchAssignmentJob {
	return &BatchAssignmentJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "batch_assignment_job"),
	}
}

// Start begins the batch assignment job, running every five seconds.
func (j *BatchAssignmentJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * * *", func() {
		ctx := context.Background()

		result, err := j.handler.Handle(ctx, commands.NewBatchAssignCommand(true))
		if err != nil {
			j.logger.ErrorContext(ctx, "Batch assignment run failed", "error", err)
			return
		}

		// An empty backlog is the normal case and not worth a log line.
		if len(result.Assignments) > 0 || len(result.Unassigned) > 0 {
			j.logger.InfoContext(ctx, "Batch assignment run finished",
				"assigned", len(result.Assignments),
				"unassigned", len(result.Unassigned))
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Batch assignment job started (running every 5 seconds)")
	return nil
}

// Stop stops the batch assignment job.
func (j *BatchAssignmentJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Batch assignment job stopped")
}
