package queries_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetActiveOrdersByDriverQuery_Valid(t *testing.T) {
	driverID := kernel.NewUUID()

	query, err := queries.NewGetActiveOrdersByDriverQuery(driverID)

	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.True(t, query.DriverID().IsEqual(driverID))
}

func TestNewGetActiveOrdersByDriverQuery_InvalidDriverID(t *testing.T) {
	_, err := queries.NewGetActiveOrdersByDriverQuery(kernel.UUID{})

	require.Error(t, err)
}

func TestGetActiveOrdersByDriverQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetActiveOrdersByDriverQuery{}
	err := query.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrGetActiveOrdersByDriverQueryIsNotConstructed)
}
