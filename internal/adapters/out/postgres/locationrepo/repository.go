// Package locationrepo persists the append-only driver position history.
// The backing table is range-partitioned by recorded_at into weekly
// partitions; writes always target the current week, and retention works by
// dropping whole partitions instead of deleting rows.
package locationrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	tableName = "driver_locations"

	// partitionPeriod is the width of one partition.
	partitionPeriod = 7 * 24 * time.Hour
)

// GormLocationRepository implements LocationRepository using GORM on a
// partitioned PostgreSQL table.
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GORM location repository.
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Migrate creates the parent partitioned table. GORM's AutoMigrate cannot
// declare PARTITION BY, so the DDL is explicit. Partitions themselves are
// created by EnsurePartitions.
func (r *GormLocationRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(`
		CREATE TABLE IF NOT EXISTS driver_locations (
			driver_id   uuid             NOT NULL,
			lat         double precision NOT NULL,
			lon         double precision NOT NULL,
			recorded_at timestamptz      NOT NULL,
			PRIMARY KEY (driver_id, recorded_at)
		) PARTITION BY RANGE (recorded_at)
	`).Error
}

// AppendBatch inserts a batch of samples in one statement and refreshes
// each driver's persisted last-known position. Duplicates on the
// (driver_id, recorded_at) key are silently skipped, which makes pipeline
// retries idempotent.
func (r *GormLocationRepository) AppendBatch(ctx context.Context, samples []ports.LocationSample) error {
	if len(samples) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO driver_locations (driver_id, lat, lon, recorded_at) VALUES ")

	args := make([]any, 0, len(samples)*4)
	for i, s := range samples {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args,
			s.DriverID.Bytes(),
			s.Position.Latitude(),
			s.Position.Longitude(),
			s.RecordedAt.UTC(),
		)
	}

	sb.WriteString(" ON CONFLICT (driver_id, recorded_at) DO NOTHING")

	if err := r.db.WithContext(ctx).Exec(sb.String(), args...).Error; err != nil {
		return err
	}

	return r.updateLastPositions(ctx, samples)
}

// updateLastPositions carries the newest sample per driver over to the
// drivers table. The last_seen_at guard keeps replayed or out-of-order
// batches from moving a driver backwards in time; samples for unknown
// driver ids match no row and are ignored.
func (r *GormLocationRepository) updateLastPositions(ctx context.Context, samples []ports.LocationSample) error {
	latest := make(map[kernel.UUID]ports.LocationSample, len(samples))
	for _, s := range samples {
		if cur, ok := latest[s.DriverID]; !ok || s.RecordedAt.After(cur.RecordedAt) {
			latest[s.DriverID] = s
		}
	}

	for _, s := range latest {
		err := r.db.WithContext(ctx).Exec(`
			UPDATE drivers
			SET last_lat = ?, last_lon = ?, last_seen_at = ?
			WHERE id = ? AND (last_seen_at IS NULL OR last_seen_at < ?)`,
			s.Position.Latitude(), s.Position.Longitude(), s.RecordedAt.UTC(),
			s.DriverID.Bytes(), s.RecordedAt.UTC(),
		).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// EnsurePartitions creates the weekly partitions covering now and the
// following week, so inserts keep landing across the boundary before the
// next maintenance run.
func (r *GormLocationRepository) EnsurePartitions(ctx context.Context, now time.Time) error {
	current := periodStart(now)
	for _, start := range []time.Time{current, current.Add(partitionPeriod)} {
		if err := r.createPartition(ctx, start); err != nil {
			return err
		}
	}

	return nil
}

// DropExpired removes partitions whose entire range lies before the
// retention horizon.
func (r *GormLocationRepository) DropExpired(ctx context.Context, olderThan time.Time) error {
	names, err := r.partitionNames(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		start, ok := partitionStart(name)
		if !ok {
			continue
		}
		if start.Add(partitionPeriod).After(olderThan) {
			continue
		}

		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", pq.QuoteIdentifier(name))
		if err := r.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *GormLocationRepository) createPartition(ctx context.Context, start time.Time) error {
	end := start.Add(partitionPeriod)
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s PARTITION OF driver_locations FOR VALUES FROM ('%s') TO ('%s')",
		pq.QuoteIdentifier(partitionName(start)),
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)

	return r.db.WithContext(ctx).Exec(stmt).Error
}

// partitionNames lists the current child partitions of the history table.
func (r *GormLocationRepository) partitionNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.relname
		FROM pg_inherits i
		JOIN pg_class c ON c.oid = i.inhrelid
		JOIN pg_class p ON p.oid = i.inhparent
		WHERE p.relname = ?
	`, tableName).Scan(&names).Error
	if err != nil {
		return nil, err
	}

	return names, nil
}

// periodStart truncates a timestamp down to the Monday its partition week
// begins on.
func periodStart(t time.Time) time.Time {
	day := t.UTC().Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func partitionName(start time.Time) string {
	return fmt.Sprintf("%s_%s", tableName, start.Format("20060102"))
}

// partitionStart parses the week start back out of a partition name.
func partitionStart(name string) (time.Time, bool) {
	suffix, ok := strings.CutPrefix(name, tableName+"_")
	if !ok {
		return time.Time{}, false
	}

	start, err := time.Parse("20060102", suffix)
	if err != nil {
		return time.Time{}, false
	}

	return start, true
}
