package cmd

import (
	"context"
	"fmt"
	"log/slog"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/googlemaps"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/locationrepo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/geo"
	"dispatch/internal/ingestion"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters, domain services and use case handlers
// together. Shared state (the scheduling ledger, the position index, the
// ingestion pipeline) is built once; handlers are cheap and built per call.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	uowFactory *postgres.GormUnitOfWorkFactory

	index     *geo.Index
	book      *services.ScheduleBook
	engine    *services.AssignmentEngine
	sequencer *services.RouteSequencer
	routing   ports.RoutingClient

	locationRepo *locationrepo.GormLocationRepository
	pipeline     *ingestion.Pipeline
}

// NewCompositionRoot builds the object graph. The routing client is only
// created when an API key is configured; without one the sequencer and the
// order estimates fall back to straight-line distances.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		logger:     logger,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		index:      geo.NewIndex(config.GeoPrecision, config.PositionLiveness),
		book:       services.NewScheduleBook(),
	}
	root.engine = services.NewAssignmentEngine(root.book, services.AssignmentConfig{
		UrgentInitialRadiusMeters: config.UrgentInitialRadiusMeters,
		UrgentRadiusStepMeters:    config.UrgentRadiusStepMeters,
		UrgentMaxRadiusMeters:     config.UrgentMaxRadiusMeters,
	})

	if config.GoogleMapsAPIKey != "" {
		routing, err := googlemaps.NewRoutingClient(config.GoogleMapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create routing client: %w", err)
		}
		root.routing = routing
		root.sequencer = services.NewRouteSequencer(googlemaps.NewRoutingEstimator(routing))
	} else {
		root.sequencer = services.NewRouteSequencer(nil)
	}

	root.locationRepo = locationrepo.NewGormLocationRepository(gormDB)
	root.pipeline = ingestion.NewPipeline(
		ingestion.Config{
			QueueSize:     config.IngestionQueueSize,
			Workers:       config.IngestionWorkers,
			BatchSize:     config.IngestionBatchSize,
			FlushInterval: config.IngestionFlushInterval,
		},
		root.index,
		root.locationRepo,
		nil,
		logger,
	)

	return root, nil
}

// LocationRepository exposes the location store for startup migrations.
func (c *CompositionRoot) LocationRepository() *locationrepo.GormLocationRepository {
	return c.locationRepo
}

// Pipeline exposes the ingestion pipeline for shutdown draining.
func (c *CompositionRoot) Pipeline() *ingestion.Pipeline {
	return c.pipeline
}

// RebuildScheduleBook loads every active order and restores its driver
// reservation. Must run before the HTTP server and the jobs start, so
// no assignment can double-book a slot that survived a restart.
func (c *CompositionRoot) RebuildScheduleBook(ctx context.Context) error {
	uow := c.uowFactory.Create()

	orders, err := uow.OrderRepository().GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active orders: %w", err)
	}

	reservations := make(map[kernel.UUID][]services.Reservation)
	for _, o := range orders {
		driverID := o.DriverID()
		if driverID == nil {
			continue
		}
		reservations[*driverID] = append(reservations[*driverID], services.Reservation{
			OrderID:  o.ID(),
			Interval: o.Interval(),
		})
	}

	if err := c.book.Rebuild(reservations); err != nil {
		return fmt.Errorf("failed to rebuild schedule book: %w", err)
	}

	c.logger.InfoContext(ctx, "Schedule book rebuilt",
		"drivers", len(reservations), "reservations", len(orders))
	return nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.routing, c.logger)
}

func (c *CompositionRoot) CreateAssignOrderCommandHandler() commands.AssignOrderCommandHandler {
	return commands.NewAssignOrderCommandHandler(c.crossUoWFactory(), c.book)
}

func (c *CompositionRoot) CreateMoveOrderCommandHandler() commands.MoveOrderCommandHandler {
	return commands.NewMoveOrderCommandHandler(c.crossUoWFactory(), c.book)
}

func (c *CompositionRoot) CreateMarkEnRouteCommandHandler() commands.MarkEnRouteCommandHandler {
	return commands.NewMarkEnRouteCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateMarkArrivedCommandHandler() commands.MarkArrivedCommandHandler {
	return commands.NewMarkArrivedCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateStartTripCommandHandler() commands.StartTripCommandHandler {
	return commands.NewStartTripCommandHandler(c.crossUoWFactory())
}

func (c *CompositionRoot) CreateCompleteOrderCommandHandler() commands.CompleteOrderCommandHandler {
	return commands.NewCompleteOrderCommandHandler(c.crossUoWFactory(), c.book)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.crossUoWFactory(), c.book)
}

func (c *CompositionRoot) CreateBatchAssignCommandHandler() commands.BatchAssignCommandHandler {
	return commands.NewBatchAssignCommandHandler(c.crossUoWFactory(), c.engine, c.book, c.index, c.logger)
}

func (c *CompositionRoot) CreateUrgentAssignCommandHandler() commands.UrgentAssignCommandHandler {
	return commands.NewUrgentAssignCommandHandler(c.crossUoWFactory(), c.engine, c.book, c.index)
}

func (c *CompositionRoot) CreateOptimizeRouteCommandHandler() commands.OptimizeRouteCommandHandler {
	return commands.NewOptimizeRouteCommandHandler(c.crossUoWFactory(), c.sequencer, c.index)
}

func (c *CompositionRoot) CreateCreateDriverCommandHandler() commands.CreateDriverCommandHandler {
	var f commands.DriverUoWFactory = FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateDriverCommandHandler(f)
}

func (c *CompositionRoot) CreateDeactivateDriverCommandHandler() commands.DeactivateDriverCommandHandler {
	return commands.NewDeactivateDriverCommandHandler(c.crossUoWFactory(), c.index)
}

func (c *CompositionRoot) CreateGetUnassignedOrdersQueryHandler() queries.GetUnassignedOrdersQueryHandler {
	return queries.NewGetUnassignedOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersByDriverQueryHandler() queries.GetActiveOrdersByDriverQueryHandler {
	return queries.NewGetActiveOrdersByDriverQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateFindNearestDriversQueryHandler() queries.FindNearestDriversQueryHandler {
	return queries.NewFindNearestDriversQueryHandler(c.index)
}

// CreateServer bundles every handler into the HTTP adapter.
func (c *CompositionRoot) CreateServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		CreateOrder:      c.CreateCreateOrderCommandHandler(),
		AssignOrder:      c.CreateAssignOrderCommandHandler(),
		MoveOrder:        c.CreateMoveOrderCommandHandler(),
		MarkEnRoute:      c.CreateMarkEnRouteCommandHandler(),
		MarkArrived:      c.CreateMarkArrivedCommandHandler(),
		StartTrip:        c.CreateStartTripCommandHandler(),
		CompleteOrder:    c.CreateCompleteOrderCommandHandler(),
		CancelOrder:      c.CreateCancelOrderCommandHandler(),
		BatchAssign:      c.CreateBatchAssignCommandHandler(),
		UrgentAssign:     c.CreateUrgentAssignCommandHandler(),
		OptimizeRoute:    c.CreateOptimizeRouteCommandHandler(),
		CreateDriver:     c.CreateCreateDriverCommandHandler(),
		DeactivateDriver: c.CreateDeactivateDriverCommandHandler(),

		FindNearestDrivers: c.CreateFindNearestDriversQueryHandler(),
		GetUnassigned:      c.CreateGetUnassignedOrdersQueryHandler(),
		GetDriverOrders:    c.CreateGetActiveOrdersByDriverQueryHandler(),
	}, c.pipeline)
}

// CreatePartitionMaintenanceJob is exposed separately so startup can run
// one maintenance pass before the first location write.
func (c *CompositionRoot) CreatePartitionMaintenanceJob() *jobs.PartitionMaintenanceJob {
	return jobs.NewPartitionMaintenanceJob(c.locationRepo, c.config.LocationRetention, c.logger)
}

// CreateJobManager bundles the background jobs.
func (c *CompositionRoot) CreateJobManager(maintenance *jobs.PartitionMaintenanceJob) *jobs.JobManager {
	return jobs.NewJobManager(
		jobs.NewBatchAssignmentJob(c.CreateBatchAssignCommandHandler(), c.logger),
		jobs.NewStalePositionJob(c.index, c.logger),
		maintenance,
	)
}

func (c *CompositionRoot) crossUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

// FuncOrderUoWFactory adapts a closure to commands.OrderUoWFactory.
type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

// FuncDriverUoWFactory adapts a closure to commands.DriverUoWFactory.
type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

// FuncUoWFactory adapts a closure to commands.UoWFactory.
type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
