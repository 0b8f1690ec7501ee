package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/shop"
)

// seedShop регистрирует клиента 1 и товар 10 (9.99, остаток 5).
func seedShop(t *testing.T, deps *Dependencies) {
	t.Helper()

	ctx := context.Background()
	if _, err := deps.Shop.RegisterCustomer(ctx, shop.RegisterCustomerInput{
		ID: 1, Name: "Ann", Email: "ann@example.com", Password: "secret",
	}); err != nil {
		t.Fatalf("register customer: %v", err)
	}
	if err := deps.Shop.CreateProduct(ctx, domain.Product{
		ID: 10, Name: "Kettle", Price: decimal.RequireFromString("9.99"), StockQuantity: 5,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}
}

func placeTestOrder(t *testing.T, deps *Dependencies) domain.Order {
	t.Helper()

	order, err := deps.Shop.PlaceOrder(context.Background(), domain.PlaceOrderRequest{
		CustomerID:      1,
		ShippingAddress: "Main st. 1",
		Lines:           []domain.OrderLine{{ProductID: 10, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}
