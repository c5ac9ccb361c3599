package queries_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type GetActiveOrdersByDriverQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.GetActiveOrdersByDriverQueryHandler
}

func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(&orderrepo.OrderDTO{})
	suite.Require().NoError(err)

	suite.handler = queries.NewGetActiveOrdersByDriverQueryHandler(db)
}

func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders").Error
	suite.Require().NoError(err)
}

func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) TestHandle_NoOrders_ReturnsEmptySlice() {
	query, err := queries.NewGetActiveOrdersByDriverQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) TestHandle_ReturnsOnlyThatDriversActiveOrders() {
	driverID, otherID := kernel.NewUUID(), kernel.NewUUID()

	second := suite.saveAssignedOrder(driverID, 2*time.Hour, false)
	first := suite.saveAssignedOrder(driverID, time.Hour, false)
	suite.saveAssignedOrder(otherID, time.Hour, false)
	suite.saveAssignedOrder(driverID, 3*time.Hour, true)

	query, err := queries.NewGetActiveOrdersByDriverQuery(driverID)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2, "cancelled and foreign orders are excluded")
	suite.True(result[0].ID.IsEqual(first.ID()), "sorted by window start")
	suite.True(result[1].ID.IsEqual(second.ID()))
	suite.Equal(order.Assigned, result[0].Status)
	suite.Equal(second.DropoffAddress(), result[1].DropoffAddress)
}

func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	invalidQuery := queries.GetActiveOrdersByDriverQuery{}

	result, err := suite.handler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Nil(result)
}

// saveAssignedOrder persists an order assigned to the driver; when cancelled
// is true the order is cancelled afterwards so it no longer counts as active.
func (suite *GetActiveOrdersByDriverQueryHandlerTestSuite) saveAssignedOrder(
	driverID kernel.UUID, startOffset time.Duration, cancelled bool,
) *order.Order {
	base := time.Now().UTC().Truncate(time.Microsecond)

	pickup, err := kernel.NewGeoPoint(52.5200, 13.4050)
	suite.Require().NoError(err)
	dropoff, err := kernel.NewGeoPoint(52.5000, 13.4500)
	suite.Require().NoError(err)
	interval, err := kernel.NewTimeInterval(base.Add(startOffset), base.Add(startOffset+time.Hour))
	suite.Require().NoError(err)

	o, err := order.NewOrder(
		kernel.NewUUID(),
		pickup,
		dropoff,
		"Alexanderplatz 1, Berlin",
		"Tempelhofer Damm 45, Berlin",
		interval,
		order.PriorityNormal,
	)
	suite.Require().NoError(err)
	suite.Require().NoError(o.Assign(driverID))

	if cancelled {
		suite.Require().NoError(o.Cancel("reshuffled", base))
	}

	repo := orderrepo.NewGormOrderRepository(suite.db, &mockAggregateTracker{})
	suite.Require().NoError(repo.Add(context.Background(), o))
	return o
}

func TestGetActiveOrdersByDriverQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetActiveOrdersByDriverQueryHandlerTestSuite))
}
