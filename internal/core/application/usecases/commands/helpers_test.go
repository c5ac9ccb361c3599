package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var testWindowStart = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testInterval(t *testing.T, startOffset, endOffset time.Duration) kernel.TimeInterval {
	t.Helper()
	iv, err := kernel.NewTimeInterval(testWindowStart.Add(startOffset), testWindowStart.Add(endOffset))
	require.NoError(t, err)
	return iv
}

func makePendingOrder(t *testing.T, priority order.Priority, iv kernel.TimeInterval) *order.Order {
	t.Helper()

	pickup, err := kernel.NewGeoPoint(52.5200, 13.4050)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(52.5000, 13.4500)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), pickup, dropoff, "Pickup St 1", "Dropoff Ave 2", iv, priority)
	require.NoError(t, err)
	return o
}

func makeDriver(t *testing.T, name string) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(kernel.NewUUID(), name)
	require.NoError(t, err)
	return d
}
