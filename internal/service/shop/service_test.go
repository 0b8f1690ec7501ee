package shop

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

type testEnv struct {
	svc   *Service
	store *memory.Store
	hook  *logtest.Hook
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	store := memory.NewStore()
	svc := NewService(Repositories{
		Customers: memory.NewCustomerRepository(store),
		Products:  memory.NewProductRepository(store),
		Cart:      memory.NewCartRepository(store),
		Orders:    memory.NewOrderRepository(store),
	},
		WithLogger(logger.WithField("component", "shop-service-test")),
		WithMetrics(metrics.NewShopMetricsWithRegisterer(prometheus.NewRegistry())),
		WithHashCost(bcrypt.MinCost),
	)
	return testEnv{svc: svc, store: store, hook: hook}
}

func (e testEnv) seed(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	_, err := e.svc.RegisterCustomer(ctx, RegisterCustomerInput{ID: 1, Name: "Ann", Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, e.svc.CreateProduct(ctx, domain.Product{ID: 10, Name: "Kettle", Price: decimal.RequireFromString("9.99"), StockQuantity: 5}))
	require.NoError(t, e.svc.CreateProduct(ctx, domain.Product{ID: 11, Name: "Mug", Price: decimal.RequireFromString("3.50"), StockQuantity: 1}))
}

func TestRegisterCustomer_HashesPassword(t *testing.T) {
	env := newTestEnv(t)

	customer, err := env.svc.RegisterCustomer(context.Background(), RegisterCustomerInput{
		ID: 1, Name: "  Ann ", Email: "ann@example.com", Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "Ann", customer.Name)
	require.NotEqual(t, "secret", customer.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte("secret")))
}

func TestRegisterCustomer_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.RegisterCustomer(ctx, RegisterCustomerInput{ID: 1, Name: "Ann", Email: "a@x"})
	require.ErrorIs(t, err, domain.ErrPasswordRequired)

	_, err = env.svc.RegisterCustomer(ctx, RegisterCustomerInput{ID: 0, Name: "Ann", Email: "a@x", Password: "p"})
	require.ErrorIs(t, err, domain.ErrCustomerIDInvalid)

	_, err = env.svc.RegisterCustomer(ctx, RegisterCustomerInput{ID: 1, Name: " ", Email: "a@x", Password: "p"})
	require.ErrorIs(t, err, domain.ErrNameRequired)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = env.svc.RegisterCustomer(ctx, RegisterCustomerInput{ID: 1, Name: "Ann", Email: "a@x", Password: string(long)})
	require.ErrorIs(t, err, domain.ErrPasswordTooLong)
}

func TestRegisterCustomer_DuplicateLogsWarning(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	env.hook.Reset()

	_, err := env.svc.RegisterCustomer(context.Background(), RegisterCustomerInput{ID: 1, Name: "Bob", Email: "b@x", Password: "p"})
	require.ErrorIs(t, err, domain.ErrCustomerExists)

	entry := env.hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, log.WarnLevel, entry.Level)
	require.Equal(t, "register_customer", entry.Data["operation"])
}

func TestUpdateCustomer_BlankKeepsValues(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	before, err := env.svc.GetCustomer(ctx, 1)
	require.NoError(t, err)

	updated, err := env.svc.UpdateCustomer(ctx, domain.CustomerUpdate{ID: 1, Email: "new@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Ann", updated.Name)
	require.Equal(t, "new@example.com", updated.Email)
	require.Equal(t, before.PasswordHash, updated.PasswordHash)

	updated, err = env.svc.UpdateCustomer(ctx, domain.CustomerUpdate{ID: 1, Password: "changed"})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("changed")))

	stored, err := env.svc.GetCustomer(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, updated.PasswordHash, stored.PasswordHash)

	_, err = env.svc.UpdateCustomer(ctx, domain.CustomerUpdate{ID: 9, Name: "Ghost"})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCreateProduct_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.CreateProduct(ctx, domain.Product{ID: 1, Name: "X", Price: decimal.RequireFromString("1.999")})
	require.ErrorIs(t, err, domain.ErrPricePrecision)

	err = env.svc.CreateProduct(ctx, domain.Product{ID: 1, Name: "X", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, domain.ErrPriceNegative)

	err = env.svc.CreateProduct(ctx, domain.Product{ID: 1, Name: "X", Price: decimal.NewFromInt(1), StockQuantity: -1})
	require.ErrorIs(t, err, domain.ErrStockNegative)
}

func TestAddToCart_ChecksReferences(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	_, err := env.svc.AddToCart(ctx, 2, 10, 1)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
	_, err = env.svc.AddToCart(ctx, 1, 99, 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	_, err = env.svc.AddToCart(ctx, 1, 10, -1)
	require.ErrorIs(t, err, domain.ErrQtyInvalid)

	_, err = env.svc.AddToCart(ctx, 1, 10, 2)
	require.NoError(t, err)
	_, err = env.svc.AddToCart(ctx, 1, 11, 1)
	require.NoError(t, err)

	view, err := env.svc.ViewCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	require.True(t, view.Total.Equal(decimal.RequireFromString("23.48")), "total %s", view.Total)
}

func TestRemoveFromCart(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	_, err := env.svc.RemoveFromCart(ctx, 1, 10)
	require.ErrorIs(t, err, domain.ErrCartItemNotFound)

	_, err = env.svc.RemoveFromCart(ctx, 5, 10)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestPlaceOrder_Example(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	order, err := env.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{
		CustomerID:      1,
		ShippingAddress: " Main st. 1 ",
		Lines:           []domain.OrderLine{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.True(t, order.TotalPrice.Equal(decimal.RequireFromString("19.98")))
	require.Equal(t, "Main st. 1", order.ShippingAddress)

	product, err := env.svc.GetProduct(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 3, product.StockQuantity)

	orders, err := env.svc.OrdersByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)

	entry := env.hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "order placed", entry.Message)
	require.Equal(t, "19.98", entry.Data["total_price"])
}

func TestPlaceOrder_InsufficientStockIsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	_, err := env.svc.PlaceOrder(context.Background(), domain.PlaceOrderRequest{
		CustomerID:      1,
		ShippingAddress: "x",
		Lines:           []domain.OrderLine{{ProductID: 11, Quantity: 1}, {ProductID: 11, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.True(t, domain.IsConflict(err))
	require.Contains(t, err.Error(), "Mug")

	product, err := env.svc.GetProduct(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, 1, product.StockQuantity)
}

func TestPlaceOrder_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	_, err := env.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{CustomerID: 1, ShippingAddress: "x"})
	require.ErrorIs(t, err, domain.ErrItemsRequired)

	_, err = env.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{CustomerID: 1, ShippingAddress: "  ", Lines: []domain.OrderLine{{ProductID: 10, Quantity: 1}}})
	require.ErrorIs(t, err, domain.ErrShippingAddressRequired)

	_, err = env.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{CustomerID: 2, ShippingAddress: "x", Lines: []domain.OrderLine{{ProductID: 10, Quantity: 1}}})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = env.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{CustomerID: 1, ShippingAddress: "x", Lines: []domain.OrderLine{{ProductID: 77, Quantity: 1}}})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDeleteCustomer_WithOrdersIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := context.Background()

	_, err := env.svc.PlaceOrder(ctx, domain.PlaceOrderRequest{
		CustomerID: 1, ShippingAddress: "x", Lines: []domain.OrderLine{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	require.ErrorIs(t, env.svc.DeleteCustomer(ctx, 1), domain.ErrStillReferenced)
	require.ErrorIs(t, env.svc.DeleteCustomer(ctx, 42), domain.ErrCustomerNotFound)
	require.ErrorIs(t, env.svc.DeleteProduct(ctx, 42), domain.ErrProductNotFound)
	require.NoError(t, env.svc.DeleteProduct(ctx, 11))
}

func TestResultOf(t *testing.T) {
	cases := map[string]error{
		metrics.ResultOK:          nil,
		metrics.ResultInvalid:     domain.ErrQtyInvalid,
		metrics.ResultNotFound:    domain.ErrProductNotFound,
		metrics.ResultConflict:    domain.ErrInsufficientStock,
		metrics.ResultUnavailable: domain.ErrStorageUnavailable,
		metrics.ResultError:       errors.New("boom"),
	}
	for want, err := range cases {
		if got := resultOf(err); got != want {
			t.Errorf("resultOf(%v) = %s, want %s", err, got, want)
		}
	}
}
