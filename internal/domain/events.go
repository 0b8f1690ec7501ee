package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AggregateOrder: тип агрегата для событий заказа в outbox.
	AggregateOrder = "order"
	// EventOrderPlaced: заказ оформлен и остатки списаны.
	EventOrderPlaced = "order.placed"
)

// OrderPlacedItem: позиция в событии order.placed.
type OrderPlacedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPlacedEvent: полезная нагрузка события order.placed.
type OrderPlacedEvent struct {
	OrderID         int64             `json:"order_id"`
	CustomerID      int64             `json:"customer_id"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	ShippingAddress string            `json:"shipping_address"`
	Items           []OrderPlacedItem `json:"items"`
	PlacedAt        time.Time         `json:"placed_at"`
}

// NewOrderPlacedMessage собирает outbox-сообщение для оформленного заказа.
func NewOrderPlacedMessage(order Order) (OutboxMessage, error) {
	event := OrderPlacedEvent{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		TotalPrice:      order.TotalPrice,
		ShippingAddress: order.ShippingAddress,
		Items:           make([]OrderPlacedItem, 0, len(order.Items)),
		PlacedAt:        order.OrderDate,
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxMessage{}, err
	}

	return OutboxMessage{
		AggregateType: AggregateOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     EventOrderPlaced,
		Payload:       payload,
	}, nil
}
