package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine: одна строка корзины. Повторное добавление того же товара
// создаёт новую строку, а не увеличивает количество в существующей.
type CartLine struct {
	ID         int64
	CustomerID int64
	ProductID  int64
	Quantity   int
	CreatedAt  time.Time
}

// CartItem: строка корзины вместе с данными товара для отображения.
type CartItem struct {
	Line    CartLine
	Product Product
}

// Subtotal возвращает стоимость строки по текущей цене товара.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Line.Quantity)))
}
