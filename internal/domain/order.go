package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem представляет одну позицию оформленного заказа.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	// UnitPrice: цена за единицу на момент оформления; последующие изменения
	// цены товара на неё не влияют.
	UnitPrice decimal.Decimal
}

// LineTotal возвращает UnitPrice * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order: заголовок заказа и его позиции.
type Order struct {
	ID              int64
	CustomerID      int64
	OrderDate       time.Time
	TotalPrice      decimal.Decimal
	ShippingAddress string
	Items           []OrderItem
}

// ItemsTotal пересчитывает сумму по позициям: Σ UnitPrice * Quantity.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// OrderLine: пара (товар, количество) в запросе на оформление.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// PlaceOrderRequest: входные данные для оформления заказа.
type PlaceOrderRequest struct {
	CustomerID      int64
	Lines           []OrderLine
	ShippingAddress string
}

// Validate проверяет запрос до обращения к хранилищу.
func (r PlaceOrderRequest) Validate() error {
	if r.CustomerID <= 0 {
		return ErrCustomerIDInvalid
	}
	if strings.TrimSpace(r.ShippingAddress) == "" {
		return ErrShippingAddressRequired
	}
	if len(r.Lines) == 0 {
		return ErrItemsRequired
	}
	for _, line := range r.Lines {
		if line.ProductID <= 0 {
			return ErrProductIDInvalid
		}
		if line.Quantity <= 0 {
			return ErrQtyInvalid
		}
	}
	return nil
}

// NormalizeLines складывает количества повторяющихся товаров, сохраняя порядок
// первого появления, чтобы в заказе была ровно одна позиция на товар.
func NormalizeLines(lines []OrderLine) []OrderLine {
	index := make(map[int64]int, len(lines))
	result := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			result[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(result)
		result = append(result, line)
	}
	return result
}
