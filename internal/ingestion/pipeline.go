package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/geo"
)

var (
	// ErrOverloaded is returned when the intake queue is full. Producers
	// drop the sample and report backpressure to the device; the pipeline
	// never blocks an HTTP handler.
	ErrOverloaded = errors.New("ingestion pipeline overloaded")

	// ErrPipelineClosed is returned when submitting after Close.
	ErrPipelineClosed = errors.New("ingestion pipeline closed")
)

// MalformedSampleError reports a sample rejected at the intake boundary.
type MalformedSampleError struct {
	Reason string
	Cause  error
}

func (e *MalformedSampleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed location sample: %s (cause: %v)", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed location sample: %s", e.Reason)
}

func (e *MalformedSampleError) Unwrap() error {
	return e.Cause
}

// DeadLetterFunc receives batches that exhausted their write attempts.
// Implementations must not block; the default logs and drops.
type DeadLetterFunc func(samples []ports.LocationSample, cause error)

// Config tunes the pipeline. Zero values select the defaults.
type Config struct {
	// QueueSize bounds the intake channel.
	QueueSize int
	// Workers is the number of batch-writing goroutines.
	Workers int
	// BatchSize is the maximum samples per storage write.
	BatchSize int
	// FlushInterval caps how long a partial batch may wait.
	FlushInterval time.Duration
	// WriteRetries is how many times a failed batch write is retried
	// before dead-lettering.
	WriteRetries int
	// RetryBackoff is the pause before the second write attempt; it
	// doubles on every further attempt.
	RetryBackoff time.Duration
	// MaxSampleAge rejects samples recorded too far in the past.
	MaxSampleAge time.Duration
	// MaxClockSkew rejects samples recorded too far in the future.
	MaxClockSkew time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 10_000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 200 * time.Millisecond
	}
	if c.WriteRetries <= 0 {
		c.WriteRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
	if c.MaxSampleAge <= 0 {
		c.MaxSampleAge = 10 * time.Minute
	}
	if c.MaxClockSkew <= 0 {
		c.MaxClockSkew = 30 * time.Second
	}
	return c
}

// Pipeline ingests high-rate driver position samples.
//
// Submit validates the sample, updates the geospatial index synchronously
// (proximity queries must see fresh positions immediately) and enqueues
// the sample for durable storage. Worker goroutines drain the queue into
// batches and append them to the location history; the (driver, recorded
// time) key makes redelivery idempotent. Batches that keep failing go to
// the dead letter hook instead of blocking the queue.
type Pipeline struct {
	cfg    Config
	index  *geo.Index
	store  ports.LocationRepository
	dead   DeadLetterFunc
	logger *slog.Logger

	queue chan ports.LocationSample
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool

	now func() time.Time
}

// NewPipeline creates and starts a pipeline. Close must be called to drain
// the queue on shutdown.
func NewPipeline(
	cfg Config,
	index *geo.Index,
	store ports.LocationRepository,
	dead DeadLetterFunc,
	logger *slog.Logger,
) *Pipeline {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		cfg:    cfg,
		index:  index,
		store:  store,
		dead:   dead,
		logger: logger.With("component", "ingestion"),
		queue:  make(chan ports.LocationSample, cfg.QueueSize),
		now:    time.Now,
	}
	if p.dead == nil {
		p.dead = p.logDeadLetter
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit accepts one sample. It never blocks: a full queue returns
// ErrOverloaded and the sample is dropped.
func (p *Pipeline) Submit(sample ports.LocationSample) error {
	if err := p.validate(sample); err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}

	// index update happens before the durable write on purpose: stale
	// proximity data costs more than a lost history row
	p.index.Upsert(sample.DriverID, sample.Position, sample.RecordedAt)

	select {
	case p.queue <- sample:
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		p.logger.Warn("intake queue full, dropping sample",
			"driver_id", sample.DriverID.String())
		return ErrOverloaded
	}
}

// Close stops intake and drains the queue. Returns ctx.Err if the drain
// does not finish in time; queued samples are then lost.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) validate(sample ports.LocationSample) error {
	if err := sample.DriverID.Validate(); err != nil {
		return &MalformedSampleError{Reason: "driver id is invalid", Cause: err}
	}
	if err := sample.Position.Validate(); err != nil {
		return &MalformedSampleError{Reason: "position is invalid", Cause: err}
	}
	if sample.RecordedAt.IsZero() {
		return &MalformedSampleError{Reason: "recorded time is missing"}
	}

	now := p.now()
	if sample.RecordedAt.Before(now.Add(-p.cfg.MaxSampleAge)) {
		return &MalformedSampleError{Reason: "sample is too old"}
	}
	if sample.RecordedAt.After(now.Add(p.cfg.MaxClockSkew)) {
		return &MalformedSampleError{Reason: "recorded time is in the future"}
	}
	return nil
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]ports.LocationSample, 0, p.cfg.BatchSize)
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case sample, ok := <-p.queue:
			if !ok {
				p.flush(batch)
				return
			}
			batch = append(batch, sample)
			if len(batch) >= p.cfg.BatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (p *Pipeline) flush(batch []ports.LocationSample) {
	if len(batch) == 0 {
		return
	}

	samples := make([]ports.LocationSample, len(batch))
	copy(samples, batch)

	var err error
	for attempt := 0; attempt < p.cfg.WriteRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(p.cfg.RetryBackoff << (attempt - 1))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = p.store.AppendBatch(ctx, samples)
		cancel()
		if err == nil {
			return
		}
		p.logger.Warn("batch write failed",
			"attempt", attempt+1,
			"batch_size", len(samples),
			"error", err)
	}

	p.dead(samples, err)
}

func (p *Pipeline) logDeadLetter(samples []ports.LocationSample, cause error) {
	p.logger.Error("dead-lettering location batch",
		"batch_size", len(samples),
		"error", cause)
}

// QueueDepth reports how many samples are waiting for a worker.
func (p *Pipeline) QueueDepth() int {
	return len(p.queue)
}

// Position returns the driver's current indexed position, if any.
func (p *Pipeline) Position(driverID kernel.UUID) (kernel.GeoPoint, time.Time, bool) {
	return p.index.Position(driverID)
}
