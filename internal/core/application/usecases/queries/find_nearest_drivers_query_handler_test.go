package queries_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNearestDriversQueryHandler_Handle(t *testing.T) {
	center, err := kernel.NewGeoPoint(52.5200, 13.4050)
	require.NoError(t, err)

	t.Run("returns drivers nearest first", func(t *testing.T) {
		index := geo.NewIndex(0, 0)
		near, far := kernel.NewUUID(), kernel.NewUUID()

		nearPos, err := kernel.NewGeoPoint(52.5210, 13.4050)
		require.NoError(t, err)
		farPos, err := kernel.NewGeoPoint(52.5300, 13.4050)
		require.NoError(t, err)
		index.Upsert(near, nearPos, time.Now())
		index.Upsert(far, farPos, time.Now())

		query, err := queries.NewFindNearestDriversQuery(center, 5000, 10)
		require.NoError(t, err)

		handler := queries.NewFindNearestDriversQueryHandler(index)
		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.True(t, result[0].DriverID.IsEqual(near))
		assert.True(t, result[1].DriverID.IsEqual(far))
		assert.Less(t, result[0].DistanceMeters, result[1].DistanceMeters)
	})

	t.Run("honors the result limit", func(t *testing.T) {
		index := geo.NewIndex(0, 0)
		for range 5 {
			index.Upsert(kernel.NewUUID(), center, time.Now())
		}

		query, err := queries.NewFindNearestDriversQuery(center, 5000, 2)
		require.NoError(t, err)

		handler := queries.NewFindNearestDriversQueryHandler(index)
		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("empty index yields empty result", func(t *testing.T) {
		index := geo.NewIndex(0, 0)

		query, err := queries.NewFindNearestDriversQuery(center, 5000, 10)
		require.NoError(t, err)

		handler := queries.NewFindNearestDriversQueryHandler(index)
		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("rejects an unconstructed query", func(t *testing.T) {
		handler := queries.NewFindNearestDriversQueryHandler(geo.NewIndex(0, 0))

		_, err := handler.Handle(t.Context(), queries.FindNearestDriversQuery{})

		require.ErrorIs(t, err, queries.ErrFindNearestDriversQueryIsNotConstructed)
	})
}
