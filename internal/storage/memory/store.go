package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Store: общее in-memory состояние для всех репозиториев.
// Один мьютекс на всё хранилище даёт атомарность оформления заказа:
// списание остатков, заказ, позиции и outbox меняются под одной блокировкой.
type Store struct {
	mu sync.RWMutex

	customers map[int64]domain.Customer
	products  map[int64]domain.Product
	cart      []domain.CartLine
	orders    []domain.Order
	outbox    map[string]*outboxRecord

	nextCartID      int64
	nextOrderID     int64
	nextOrderItemID int64

	now func() time.Time
}

// NewStore создаёт пустое in-memory хранилище для локального запуска и тестов.
func NewStore() *Store {
	return &Store{
		customers: make(map[int64]domain.Customer),
		products:  make(map[int64]domain.Product),
		outbox:    make(map[string]*outboxRecord),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) customerHasOrdersLocked(customerID int64) bool {
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			return true
		}
	}
	return false
}

func (s *Store) productHasOrdersLocked(productID int64) bool {
	for _, order := range s.orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

func copyOrder(order domain.Order) domain.Order {
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return order
}
