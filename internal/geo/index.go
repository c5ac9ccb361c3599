package geo

import (
	"math"
	"sort"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// DefaultLiveness is how long a position sample counts as current. Drivers
// whose newest sample is older are excluded from proximity results until
// they report again.
const DefaultLiveness = 5 * time.Minute

// metersPerDegreeLat is the approximate north-south extent of one degree.
const metersPerDegreeLat = 111_320.0

// Neighbor is one proximity query hit, nearest first in query results.
type Neighbor struct {
	DriverID       kernel.UUID
	Position       kernel.GeoPoint
	RecordedAt     time.Time
	DistanceMeters float64
}

type entry struct {
	position   kernel.GeoPoint
	recordedAt time.Time
	cell       string
}

// Index is an in-memory geospatial index of driver positions, bucketed by
// geohash cell.
//
// Writes are last-write-wins on the sample's recorded time, so the
// out-of-order delivery the ingestion pipeline allows can never move a
// driver backwards. The index is process-local and rebuilt from ingestion
// traffic; it is safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	precision int
	liveness  time.Duration

	byDriver map[kernel.UUID]*entry
	cells    map[string]map[kernel.UUID]*entry
}

// NewIndex creates an index with the given cell precision and liveness
// window. Zero values select DefaultPrecision and DefaultLiveness.
func NewIndex(precision int, liveness time.Duration) *Index {
	if precision <= 0 || precision > 12 {
		precision = DefaultPrecision
	}
	if liveness <= 0 {
		liveness = DefaultLiveness
	}
	return &Index{
		precision: precision,
		liveness:  liveness,
		byDriver:  make(map[kernel.UUID]*entry),
		cells:     make(map[string]map[kernel.UUID]*entry),
	}
}

// Upsert applies a position sample. Samples not newer than the driver's
// current entry are dropped. Returns whether the index changed.
func (idx *Index) Upsert(driverID kernel.UUID, position kernel.GeoPoint, recordedAt time.Time) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.byDriver[driverID]; ok {
		if !recordedAt.After(existing.recordedAt) {
			return false
		}
		idx.removeLocked(driverID, existing)
	}

	e := &entry{
		position:   position,
		recordedAt: recordedAt,
		cell:       Encode(position.Latitude(), position.Longitude(), idx.precision),
	}
	idx.byDriver[driverID] = e
	bucket, ok := idx.cells[e.cell]
	if !ok {
		bucket = make(map[kernel.UUID]*entry)
		idx.cells[e.cell] = bucket
	}
	bucket[driverID] = e
	return true
}

// Remove drops the driver from the index, for deactivation and offline.
func (idx *Index) Remove(driverID kernel.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if e, ok := idx.byDriver[driverID]; ok {
		idx.removeLocked(driverID, e)
	}
}

// Near returns up to k drivers within radiusMeters of the point, nearest
// first, skipping entries outside the liveness window. k <= 0 means no
// limit.
func (idx *Index) Near(point kernel.GeoPoint, radiusMeters float64, k int, now time.Time) []Neighbor {
	latDelta := radiusMeters / metersPerDegreeLat
	lonScale := math.Cos(point.Latitude() * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01
	}
	lonDelta := radiusMeters / (metersPerDegreeLat * lonScale)

	candidates := CoverBoundingBox(
		point.Latitude()-latDelta, point.Latitude()+latDelta,
		point.Longitude()-lonDelta, point.Longitude()+lonDelta,
		idx.precision,
	)

	cutoff := now.Add(-idx.liveness)

	idx.mu.RLock()
	var hits []Neighbor
	for _, cell := range candidates {
		for driverID, e := range idx.cells[cell] {
			if e.recordedAt.Before(cutoff) {
				continue
			}
			d, err := point.DistanceTo(e.position)
			if err != nil || d > radiusMeters {
				continue
			}
			hits = append(hits, Neighbor{
				DriverID:       driverID,
				Position:       e.position,
				RecordedAt:     e.recordedAt,
				DistanceMeters: d,
			})
		}
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceMeters != hits[j].DistanceMeters {
			return hits[i].DistanceMeters < hits[j].DistanceMeters
		}
		return hits[i].DriverID.String() < hits[j].DriverID.String()
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Position returns the driver's current entry, if present.
func (idx *Index) Position(driverID kernel.UUID) (kernel.GeoPoint, time.Time, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.byDriver[driverID]
	if !ok {
		return kernel.GeoPoint{}, time.Time{}, false
	}
	return e.position, e.recordedAt, true
}

// EvictStale removes entries whose sample is older than the liveness
// window and returns how many were dropped. Run periodically so cells do
// not accumulate entries for drivers that went silent.
func (idx *Index) EvictStale(now time.Time) int {
	cutoff := now.Add(-idx.liveness)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	evicted := 0
	for driverID, e := range idx.byDriver {
		if e.recordedAt.Before(cutoff) {
			idx.removeLocked(driverID, e)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of indexed drivers.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.byDriver)
}

func (idx *Index) removeLocked(driverID kernel.UUID, e *entry) {
	delete(idx.byDriver, driverID)
	if bucket, ok := idx.cells[e.cell]; ok {
		delete(bucket, driverID)
		if len(bucket) == 0 {
			delete(idx.cells, e.cell)
		}
	}
}
