package http

import (
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
)

// ErrorResponse is the uniform error payload for all endpoints.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateOrderRequest carries everything needed to register a delivery order.
// The service window is half-open: [window_start, window_end).
type CreateOrderRequest struct {
	PickupLat      float64   `json:"pickup_lat"`
	PickupLon      float64   `json:"pickup_lon"`
	DropoffLat     float64   `json:"dropoff_lat"`
	DropoffLon     float64   `json:"dropoff_lon"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	Priority       string    `json:"priority,omitempty"`
}

// CreatedResponse returns the identifier of a newly created resource.
type CreatedResponse struct {
	ID string `json:"id"`
}

// AssignOrderRequest names the driver for a manual assignment.
type AssignOrderRequest struct {
	DriverID string `json:"driver_id"`
}

// MoveOrderRequest reschedules an order and optionally hands it to another
// driver.
type MoveOrderRequest struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	DriverID    *string   `json:"driver_id,omitempty"`
}

// CancelOrderRequest carries the mandatory cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// BatchAssignRequest controls whether a batch run commits its assignments
// or only previews them.
type BatchAssignRequest struct {
	Commit bool `json:"commit"`
}

// AssignmentResponse is one placed order in a batch or urgent run.
type AssignmentResponse struct {
	OrderID     string    `json:"order_id"`
	DriverID    string    `json:"driver_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// UnassignedResponse is one order a batch run could not place.
type UnassignedResponse struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// BatchAssignResponse summarizes a batch assignment run.
type BatchAssignResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
	Unassigned  []UnassignedResponse `json:"unassigned"`
}

// CreateDriverRequest registers a new driver.
type CreateDriverRequest struct {
	Name string `json:"name"`
}

// NearestDriverResponse is one hit of a proximity search, nearest first.
type NearestDriverResponse struct {
	DriverID       string    `json:"driver_id"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	RecordedAt     time.Time `json:"recorded_at"`
	DistanceMeters float64   `json:"distance_meters"`
}

// BacklogOrderResponse is one order still waiting for a driver.
type BacklogOrderResponse struct {
	ID            string    `json:"id"`
	Priority      string    `json:"priority"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	PickupLat     float64   `json:"pickup_lat"`
	PickupLon     float64   `json:"pickup_lon"`
	PickupAddress string    `json:"pickup_address"`
}

// DriverOrderResponse is one in-flight order in a driver's workload.
type DriverOrderResponse struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	DropoffLat     float64   `json:"dropoff_lat"`
	DropoffLon     float64   `json:"dropoff_lon"`
	DropoffAddress string    `json:"dropoff_address"`
}

// RouteStopResponse is one stop in a driver's suggested visiting order.
type RouteStopResponse struct {
	OrderID        string  `json:"order_id"`
	DistanceMeters float64 `json:"distance_meters"`
	DurationSecs   int64   `json:"duration_secs"`
}

// LocationSampleRequest is one reported driver position fix.
type LocationSampleRequest struct {
	DriverID   string    `json:"driver_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toAssignmentResponse(a services.Assignment) AssignmentResponse {
	return AssignmentResponse{
		OrderID:     a.OrderID.String(),
		DriverID:    a.DriverID.String(),
		WindowStart: a.Interval.Start(),
		WindowEnd:   a.Interval.End(),
	}
}

func toBatchAssignResponse(result services.AssignmentResult) BatchAssignResponse {
	response := BatchAssignResponse{
		Assignments: make([]AssignmentResponse, 0, len(result.Assignments)),
		Unassigned:  make([]UnassignedResponse, 0, len(result.Unassigned)),
	}
	for _, a := range result.Assignments {
		response.Assignments = append(response.Assignments, toAssignmentResponse(a))
	}
	for _, u := range result.Unassigned {
		response.Unassigned = append(response.Unassigned, UnassignedResponse{
			OrderID: u.OrderID.String(),
			Reason:  u.Reason,
		})
	}
	return response
}

func toBacklogResponse(orders []queries.GetUnassignedOrdersQueryResponse) []BacklogOrderResponse {
	response := make([]BacklogOrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, BacklogOrderResponse{
			ID:            o.ID.String(),
			Priority:      o.Priority.String(),
			WindowStart:   o.Interval.Start(),
			WindowEnd:     o.Interval.End(),
			PickupLat:     o.Pickup.Latitude(),
			PickupLon:     o.Pickup.Longitude(),
			PickupAddress: o.PickupAddress,
		})
	}
	return response
}

func toDriverOrdersResponse(orders []queries.GetActiveOrdersByDriverQueryResponse) []DriverOrderResponse {
	response := make([]DriverOrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, DriverOrderResponse{
			ID:             o.ID.String(),
			Status:         o.Status.String(),
			WindowStart:    o.Interval.Start(),
			WindowEnd:      o.Interval.End(),
			DropoffLat:     o.Dropoff.Latitude(),
			DropoffLon:     o.Dropoff.Longitude(),
			DropoffAddress: o.DropoffAddress,
		})
	}
	return response
}

func toNearestResponse(drivers []queries.FindNearestDriversQueryResponse) []NearestDriverResponse {
	response := make([]NearestDriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, NearestDriverResponse{
			DriverID:       d.DriverID.String(),
			Lat:            d.Position.Latitude(),
			Lon:            d.Position.Longitude(),
			RecordedAt:     d.RecordedAt,
			DistanceMeters: d.DistanceMeters,
		})
	}
	return response
}

func toRouteResponse(stops []services.SequencedStop) []RouteStopResponse {
	response := make([]RouteStopResponse, 0, len(stops))
	for _, s := range stops {
		response = append(response, RouteStopResponse{
			OrderID:        s.OrderID.String(),
			DistanceMeters: s.Leg.DistanceMeters,
			DurationSecs:   int64(s.Leg.Duration / time.Second),
		})
	}
	return response
}
