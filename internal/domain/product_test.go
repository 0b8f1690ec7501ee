package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestProductValidate(t *testing.T) {
	base := domain.Product{
		ID:            10,
		Name:          "Kettle",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: 5,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid product, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(p *domain.Product)
		want error
	}{
		{"zero id", func(p *domain.Product) { p.ID = 0 }, domain.ErrProductIDInvalid},
		{"blank name", func(p *domain.Product) { p.Name = "" }, domain.ErrNameRequired},
		{"negative price", func(p *domain.Product) { p.Price = decimal.RequireFromString("-1") }, domain.ErrPriceNegative},
		{"sub-cent price", func(p *domain.Product) { p.Price = decimal.RequireFromString("1.005") }, domain.ErrPricePrecision},
		{"negative stock", func(p *domain.Product) { p.StockQuantity = -1 }, domain.ErrStockNegative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mut(&p)
			if err := p.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestProductValidate_TrailingZerosAllowed(t *testing.T) {
	p := domain.Product{ID: 1, Name: "Mug", Price: decimal.RequireFromString("4.500")}
	if err := p.Validate(); err != nil {
		t.Fatalf("4.500 has two significant decimals, got %v", err)
	}
}

func TestProductInStock(t *testing.T) {
	p := domain.Product{StockQuantity: 3}
	if !p.InStock(3) {
		t.Fatal("expected 3 units to be in stock")
	}
	if p.InStock(4) {
		t.Fatal("expected 4 units to exceed stock")
	}
	if p.InStock(0) {
		t.Fatal("zero quantity must not be considered in stock")
	}
}
