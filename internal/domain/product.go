package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product: позиция каталога.
type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	Description   string
	StockQuantity int
}

// Validate проверяет инварианты товара.
func (p Product) Validate() error {
	if p.ID <= 0 {
		return ErrProductIDInvalid
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.Price.IsNegative() {
		return ErrPriceNegative
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return ErrPricePrecision
	}
	if p.StockQuantity < 0 {
		return ErrStockNegative
	}
	return nil
}

// InStock сообщает, хватает ли остатка на qty единиц.
func (p Product) InStock(qty int) bool {
	return qty > 0 && p.StockQuantity >= qty
}
