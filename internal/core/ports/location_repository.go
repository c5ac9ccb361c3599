package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// LocationSample is a single driver position fix accepted by the ingestion
// pipeline. The (DriverID, RecordedAt) pair is the idempotency key: storage
// silently drops duplicates.
type LocationSample struct {
	DriverID   kernel.UUID
	Position   kernel.GeoPoint
	RecordedAt time.Time
}

// LocationRepository defines the persistence contract for the append-only
// location history. The table is time-partitioned; partition maintenance
// runs as a background job.
type LocationRepository interface {
	// AppendBatch inserts a batch of samples, skipping duplicates on the
	// (driver_id, recorded_at) key, and carries each driver's newest sample
	// over to their durable last-known position. Partial success is not
	// possible: either the whole batch lands or the error is returned for
	// dead-lettering.
	AppendBatch(ctx context.Context, samples []LocationSample) error

	// EnsurePartitions creates the time partitions needed to cover writes
	// around now, including the next period so the boundary crossing never
	// fails an insert.
	EnsurePartitions(ctx context.Context, now time.Time) error

	// DropExpired removes partitions whose entire range is older than the
	// retention horizon.
	DropExpired(ctx context.Context, olderThan time.Time) error
}
