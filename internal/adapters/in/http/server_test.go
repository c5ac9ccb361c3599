package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/geo"
	"dispatch/internal/ingestion"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLocationStore struct{}

func (nopLocationStore) AppendBatch(context.Context, []ports.LocationSample) error { return nil }
func (nopLocationStore) EnsurePartitions(context.Context, time.Time) error         { return nil }
func (nopLocationStore) DropExpired(context.Context, time.Time) error              { return nil }

func testServer(t *testing.T, index *geo.Index) *Server {
	t.Helper()

	pipeline := ingestion.NewPipeline(ingestion.Config{}, index, nopLocationStore{}, nil, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pipeline.Close(ctx)
	})

	return NewServer(Handlers{
		FindNearestDrivers: queries.NewFindNearestDriversQueryHandler(index),
	}, pipeline)
}

func doRequest(server *Server, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	server.RegisterRoutes(e)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_SubmitLocation(t *testing.T) {
	t.Run("accepted sample lands in the index", func(t *testing.T) {
		index := geo.NewIndex(0, 0)
		server := testServer(t, index)
		driverID := kernel.NewUUID()

		body := fmt.Sprintf(
			`{"driver_id":%q,"lat":52.52,"lon":13.405,"recorded_at":%q}`,
			driverID.String(), time.Now().UTC().Format(time.RFC3339Nano),
		)

		rec := doRequest(server, http.MethodPost, "/api/v1/locations", body)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		_, _, ok := index.Position(driverID)
		assert.True(t, ok)
	})

	t.Run("bad driver id is a 400", func(t *testing.T) {
		server := testServer(t, geo.NewIndex(0, 0))

		body := `{"driver_id":"nope","lat":52.52,"lon":13.405,"recorded_at":"2024-03-15T10:00:00Z"}`
		rec := doRequest(server, http.MethodPost, "/api/v1/locations", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stale sample is a 400", func(t *testing.T) {
		server := testServer(t, geo.NewIndex(0, 0))

		body := fmt.Sprintf(
			`{"driver_id":%q,"lat":52.52,"lon":13.405,"recorded_at":"2020-01-01T00:00:00Z"}`,
			kernel.NewUUID().String(),
		)
		rec := doRequest(server, http.MethodPost, "/api/v1/locations", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_FindNearestDrivers(t *testing.T) {
	t.Run("returns neighbors nearest first", func(t *testing.T) {
		index := geo.NewIndex(0, 0)
		near, far := kernel.NewUUID(), kernel.NewUUID()

		nearPos, err := kernel.NewGeoPoint(52.5210, 13.4050)
		require.NoError(t, err)
		farPos, err := kernel.NewGeoPoint(52.5300, 13.4050)
		require.NoError(t, err)
		index.Upsert(near, nearPos, time.Now())
		index.Upsert(far, farPos, time.Now())

		server := testServer(t, index)

		rec := doRequest(server, http.MethodGet,
			"/api/v1/drivers/nearest?lat=52.52&lon=13.405&radius_m=5000&limit=5", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var result []NearestDriverResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result, 2)
		assert.Equal(t, near.String(), result[0].DriverID)
		assert.Equal(t, far.String(), result[1].DriverID)
	})

	t.Run("missing coordinates are a 400", func(t *testing.T) {
		server := testServer(t, geo.NewIndex(0, 0))

		rec := doRequest(server, http.MethodGet, "/api/v1/drivers/nearest?radius_m=5000", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
