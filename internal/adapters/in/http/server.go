// Package http exposes the dispatch operations over a REST API.
// It translates between HTTP payloads and application commands/queries;
// no business decisions live here.
package http

import (
	"net/http"
	"strconv"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/ingestion"

	"github.com/labstack/echo/v4"
)

const (
	defaultSearchRadiusMeters = 3_000
	defaultSearchLimit        = 10
)

// Handlers bundles the application entry points the server dispatches to.
type Handlers struct {
	CreateOrder      commands.CreateOrderCommandHandler
	AssignOrder      commands.AssignOrderCommandHandler
	MoveOrder        commands.MoveOrderCommandHandler
	MarkEnRoute      commands.MarkEnRouteCommandHandler
	MarkArrived      commands.MarkArrivedCommandHandler
	StartTrip        commands.StartTripCommandHandler
	CompleteOrder    commands.CompleteOrderCommandHandler
	CancelOrder      commands.CancelOrderCommandHandler
	BatchAssign      commands.BatchAssignCommandHandler
	UrgentAssign     commands.UrgentAssignCommandHandler
	OptimizeRoute    commands.OptimizeRouteCommandHandler
	CreateDriver     commands.CreateDriverCommandHandler
	DeactivateDriver commands.DeactivateDriverCommandHandler

	FindNearestDrivers queries.FindNearestDriversQueryHandler
	GetUnassigned      queries.GetUnassignedOrdersQueryHandler
	GetDriverOrders    queries.GetActiveOrdersByDriverQueryHandler
}

// Server handles the REST API. It coordinates between HTTP handlers and
// application use cases.
type Server struct {
	handlers Handlers
	pipeline *ingestion.Pipeline
}

// NewServer creates an HTTP server over the given application handlers and
// the location ingestion pipeline.
func NewServer(handlers Handlers, pipeline *ingestion.Pipeline) *Server {
	return &Server{
		handlers: handlers,
		pipeline: pipeline,
	}
}

// RegisterRoutes mounts all API routes on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/unassigned", s.GetUnassignedOrders)
	api.POST("/orders/:id/assign", s.AssignOrder)
	api.POST("/orders/:id/move", s.MoveOrder)
	api.POST("/orders/:id/enroute", s.MarkEnRoute)
	api.POST("/orders/:id/arrived", s.MarkArrived)
	api.POST("/orders/:id/start", s.StartTrip)
	api.POST("/orders/:id/complete", s.CompleteOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/urgent-assign", s.UrgentAssign)
	api.POST("/dispatch/run", s.RunBatchAssignment)

	api.POST("/drivers", s.CreateDriver)
	api.GET("/drivers/nearest", s.FindNearestDrivers)
	api.POST("/drivers/:id/deactivate", s.DeactivateDriver)
	api.GET("/drivers/:id/orders", s.GetDriverOrders)
	api.GET("/drivers/:id/route", s.OptimizeRoute)

	api.POST("/locations", s.SubmitLocation)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req CreateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	priority, err := order.ParsePriority(req.Priority)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(
		orderID,
		req.PickupLat, req.PickupLon,
		req.DropoffLat, req.DropoffLon,
		req.PickupAddress, req.DropoffAddress,
		req.WindowStart, req.WindowEnd,
		priority,
	)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.CreateOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: orderID.String()})
}

// GetUnassignedOrders handles GET /api/v1/orders/unassigned.
func (s *Server) GetUnassignedOrders(ctx echo.Context) error {
	query := queries.NewGetUnassignedOrdersQuery()

	orders, err := s.handlers.GetUnassigned.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toBacklogResponse(orders))
}

// AssignOrder handles POST /api/v1/orders/:id/assign.
func (s *Server) AssignOrder(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req AssignOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewAssignOrderCommand(orderID, driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.AssignOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// MoveOrder handles POST /api/v1/orders/:id/move.
func (s *Server) MoveOrder(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req MoveOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	var newDriverID *kernel.UUID
	if req.DriverID != nil {
		id, idErr := kernel.UUIDFromString(*req.DriverID)
		if idErr != nil {
			return badRequest(ctx, "invalid driver id")
		}
		newDriverID = &id
	}

	cmd, err := commands.NewMoveOrderCommand(orderID, req.WindowStart, req.WindowEnd, newDriverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.MoveOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// MarkEnRoute handles POST /api/v1/orders/:id/enroute.
func (s *Server) MarkEnRoute(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	cmd, err := commands.NewMarkEnRouteCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.MarkEnRoute.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// MarkArrived handles POST /api/v1/orders/:id/arrived.
func (s *Server) MarkArrived(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	cmd, err := commands.NewMarkArrivedCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.MarkArrived.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// StartTrip handles POST /api/v1/orders/:id/start.
func (s *Server) StartTrip(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	cmd, err := commands.NewStartTripCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.StartTrip.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CompleteOrder handles POST /api/v1/orders/:id/complete.
func (s *Server) CompleteOrder(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	cmd, err := commands.NewCompleteOrderCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.CompleteOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req CancelOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, req.Reason)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.CancelOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// UrgentAssign handles POST /api/v1/orders/:id/urgent-assign.
func (s *Server) UrgentAssign(ctx echo.Context) error {
	orderID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	cmd, err := commands.NewUrgentAssignCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	assignment, err := s.handlers.UrgentAssign.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toAssignmentResponse(assignment))
}

// RunBatchAssignment handles POST /api/v1/dispatch/run.
func (s *Server) RunBatchAssignment(ctx echo.Context) error {
	req := BatchAssignRequest{Commit: true}
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	result, err := s.handlers.BatchAssign.Handle(
		ctx.Request().Context(),
		commands.NewBatchAssignCommand(req.Commit),
	)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toBatchAssignResponse(result))
}

// CreateDriver handles POST /api/v1/drivers.
func (s *Server) CreateDriver(ctx echo.Context) error {
	var req CreateDriverRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID := kernel.NewUUID()
	cmd, err := commands.NewCreateDriverCommand(driverID, req.Name)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.CreateDriver.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: driverID.String()})
}

// FindNearestDrivers handles GET /api/v1/drivers/nearest.
func (s *Server) FindNearestDrivers(ctx echo.Context) error {
	lat, latErr := strconv.ParseFloat(ctx.QueryParam("lat"), 64)
	lon, lonErr := strconv.ParseFloat(ctx.QueryParam("lon"), 64)
	if latErr != nil || lonErr != nil {
		return badRequest(ctx, "lat and lon query parameters are required")
	}

	point, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	radius := float64(defaultSearchRadiusMeters)
	if raw := ctx.QueryParam("radius_m"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return badRequest(ctx, "invalid radius_m")
		}
	}

	limit := defaultSearchLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return badRequest(ctx, "invalid limit")
		}
	}

	query, err := queries.NewFindNearestDriversQuery(point, radius, limit)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	drivers, err := s.handlers.FindNearestDrivers.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toNearestResponse(drivers))
}

// DeactivateDriver handles POST /api/v1/drivers/:id/deactivate.
func (s *Server) DeactivateDriver(ctx echo.Context) error {
	driverID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewDeactivateDriverCommand(driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.handlers.DeactivateDriver.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetDriverOrders handles GET /api/v1/drivers/:id/orders.
func (s *Server) GetDriverOrders(ctx echo.Context) error {
	driverID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	query, err := queries.NewGetActiveOrdersByDriverQuery(driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	orders, err := s.handlers.GetDriverOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toDriverOrdersResponse(orders))
}

// OptimizeRoute handles GET /api/v1/drivers/:id/route.
func (s *Server) OptimizeRoute(ctx echo.Context) error {
	driverID, err := pathID(ctx)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewOptimizeRouteCommand(driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	stops, err := s.handlers.OptimizeRoute.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toRouteResponse(stops))
}

// SubmitLocation handles POST /api/v1/locations. Accepted samples get a 202;
// a full intake queue answers 429 and the client backs off.
func (s *Server) SubmitLocation(ctx echo.Context) error {
	var req LocationSampleRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	position, err := kernel.NewGeoPoint(req.Lat, req.Lon)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	sample := ports.LocationSample{
		DriverID:   driverID,
		Position:   position,
		RecordedAt: req.RecordedAt,
	}

	if err := s.pipeline.Submit(sample); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusAccepted)
}

func pathID(ctx echo.Context) (kernel.UUID, error) {
	return kernel.UUIDFromString(ctx.Param("id"))
}
