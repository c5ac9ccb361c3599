package ingestion_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/geo"
	"dispatch/internal/ingestion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore collects appended samples and can be told to fail.
type memoryStore struct {
	mu      sync.Mutex
	samples map[string]ports.LocationSample
	fail    error
	batches int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{samples: make(map[string]ports.LocationSample)}
}

func (s *memoryStore) AppendBatch(_ context.Context, batch []ports.LocationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return s.fail
	}
	s.batches++
	for _, sample := range batch {
		// same dedup key as the real table
		key := sample.DriverID.String() + "/" + sample.RecordedAt.UTC().Format(time.RFC3339Nano)
		s.samples[key] = sample
	}
	return nil
}

func (s *memoryStore) EnsurePartitions(context.Context, time.Time) error { return nil }
func (s *memoryStore) DropExpired(context.Context, time.Time) error      { return nil }

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func sampleAt(t *testing.T, driverID kernel.UUID, lat, lon float64, recordedAt time.Time) ports.LocationSample {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return ports.LocationSample{DriverID: driverID, Position: p, RecordedAt: recordedAt}
}

func drain(t *testing.T, p *ingestion.Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))
}

func TestPipeline_Submit(t *testing.T) {
	t.Run("sample lands in index immediately and in storage after drain", func(t *testing.T) {
		store := newMemoryStore()
		index := geo.NewIndex(0, 0)
		p := ingestion.NewPipeline(ingestion.Config{}, index, store, nil, nil)

		driverID := kernel.NewUUID()
		now := time.Now()

		require.NoError(t, p.Submit(sampleAt(t, driverID, 52.52, 13.40, now)))

		// index sees the position before any batch is flushed
		_, _, ok := p.Position(driverID)
		assert.True(t, ok)

		drain(t, p)
		assert.Equal(t, 1, store.count())
	})

	t.Run("rejects malformed samples", func(t *testing.T) {
		store := newMemoryStore()
		p := ingestion.NewPipeline(ingestion.Config{}, geo.NewIndex(0, 0), store, nil, nil)
		defer drain(t, p)

		now := time.Now()
		valid := sampleAt(t, kernel.NewUUID(), 52.52, 13.40, now)

		var malformed *ingestion.MalformedSampleError

		missingID := valid
		missingID.DriverID = kernel.UUID{}
		require.ErrorAs(t, p.Submit(missingID), &malformed)

		badPosition := valid
		badPosition.Position = kernel.GeoPoint{}
		require.ErrorAs(t, p.Submit(badPosition), &malformed)

		zeroTime := valid
		zeroTime.RecordedAt = time.Time{}
		require.ErrorAs(t, p.Submit(zeroTime), &malformed)

		tooOld := valid
		tooOld.RecordedAt = now.Add(-time.Hour)
		require.ErrorAs(t, p.Submit(tooOld), &malformed)

		future := valid
		future.RecordedAt = now.Add(time.Hour)
		require.ErrorAs(t, p.Submit(future), &malformed)
	})

	t.Run("duplicate delivery does not double count", func(t *testing.T) {
		store := newMemoryStore()
		p := ingestion.NewPipeline(ingestion.Config{}, geo.NewIndex(0, 0), store, nil, nil)

		driverID := kernel.NewUUID()
		s := sampleAt(t, driverID, 52.52, 13.40, time.Now())

		require.NoError(t, p.Submit(s))
		require.NoError(t, p.Submit(s))
		require.NoError(t, p.Submit(s))

		drain(t, p)
		assert.Equal(t, 1, store.count())
	})

	t.Run("submitting after close fails", func(t *testing.T) {
		store := newMemoryStore()
		p := ingestion.NewPipeline(ingestion.Config{}, geo.NewIndex(0, 0), store, nil, nil)
		drain(t, p)

		err := p.Submit(sampleAt(t, kernel.NewUUID(), 52.52, 13.40, time.Now()))

		require.ErrorIs(t, err, ingestion.ErrPipelineClosed)
	})
}

func TestPipeline_Overload(t *testing.T) {
	// one worker with a tiny queue and a store that blocks until released
	release := make(chan struct{})
	blocking := &blockingStore{release: release}
	p := ingestion.NewPipeline(ingestion.Config{
		QueueSize: 2,
		Workers:   1,
		BatchSize: 1,
	}, geo.NewIndex(0, 0), blocking, nil, nil)

	now := time.Now()
	overloaded := false
	for i := 0; i < 50; i++ {
		err := p.Submit(sampleAt(t, kernel.NewUUID(), 52.52, 13.40, now))
		if errors.Is(err, ingestion.ErrOverloaded) {
			overloaded = true
			break
		}
	}
	assert.True(t, overloaded, "a full queue must shed load")

	close(release)
	drain(t, p)
}

type blockingStore struct {
	release chan struct{}
}

func (s *blockingStore) AppendBatch(context.Context, []ports.LocationSample) error {
	<-s.release
	return nil
}
func (s *blockingStore) EnsurePartitions(context.Context, time.Time) error { return nil }
func (s *blockingStore) DropExpired(context.Context, time.Time) error      { return nil }

func TestPipeline_DeadLetter(t *testing.T) {
	store := newMemoryStore()
	store.fail = errors.New("disk on fire")

	var mu sync.Mutex
	var deadLettered []ports.LocationSample
	dead := func(samples []ports.LocationSample, cause error) {
		mu.Lock()
		defer mu.Unlock()
		deadLettered = append(deadLettered, samples...)
	}

	p := ingestion.NewPipeline(ingestion.Config{
		Workers:      1,
		BatchSize:    1,
		WriteRetries: 2,
		RetryBackoff: time.Millisecond,
	}, geo.NewIndex(0, 0), store, dead, nil)

	require.NoError(t, p.Submit(sampleAt(t, kernel.NewUUID(), 52.52, 13.40, time.Now())))
	drain(t, p)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, deadLettered, 1)
}

// failingStore rejects every batch and records when each attempt arrived.
type failingStore struct {
	mu    sync.Mutex
	calls []time.Time
}

func (s *failingStore) AppendBatch(context.Context, []ports.LocationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, time.Now())
	return errors.New("disk on fire")
}
func (s *failingStore) EnsurePartitions(context.Context, time.Time) error { return nil }
func (s *failingStore) DropExpired(context.Context, time.Time) error      { return nil }

func (s *failingStore) attempts() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.calls...)
}

func TestPipeline_FlushRetryBackoff(t *testing.T) {
	store := &failingStore{}
	dead := func([]ports.LocationSample, error) {}
	p := ingestion.NewPipeline(ingestion.Config{
		Workers:      1,
		BatchSize:    1,
		WriteRetries: 3,
		RetryBackoff: 30 * time.Millisecond,
	}, geo.NewIndex(0, 0), store, dead, nil)

	require.NoError(t, p.Submit(sampleAt(t, kernel.NewUUID(), 52.52, 13.40, time.Now())))
	drain(t, p)

	attempts := store.attempts()
	require.Len(t, attempts, 3)
	assert.GreaterOrEqual(t, attempts[1].Sub(attempts[0]), 30*time.Millisecond)
	assert.GreaterOrEqual(t, attempts[2].Sub(attempts[1]), 60*time.Millisecond,
		"pause must double between attempts")
}

func TestPipeline_Burst(t *testing.T) {
	// 50 drivers, 10k samples submitted from concurrent producers
	store := newMemoryStore()
	index := geo.NewIndex(0, 0)
	p := ingestion.NewPipeline(ingestion.Config{
		QueueSize: 20_000,
		Workers:   4,
		BatchSize: 500,
	}, index, store, nil, nil)

	drivers := make([]kernel.UUID, 50)
	for i := range drivers {
		drivers[i] = kernel.NewUUID()
	}

	now := time.Now()
	const producers = 10
	const perProducer = 1_000

	var wg sync.WaitGroup
	for w := 0; w < producers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				d := drivers[(w*perProducer+i)%len(drivers)]
				s := sampleAt(t, d, 52.5+float64(i%100)*0.0001, 13.4, now.Add(time.Duration(w*perProducer+i)*time.Millisecond))
				_ = p.Submit(s)
			}
		}(w)
	}
	wg.Wait()
	drain(t, p)

	// all samples have unique (driver, recorded time) keys, none dropped
	assert.Equal(t, producers*perProducer, store.count())
	assert.Equal(t, len(drivers), index.Len())
}
