package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Place оформляет заказ под блокировкой хранилища. Все проверки выполняются
// до первой мутации, поэтому при ошибке состояние не меняется.
func (r *orderRepositoryInMemory) Place(_ context.Context, req domain.PlaceOrderRequest) (domain.Order, error) {
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}
	lines := domain.NormalizeLines(req.Lines)

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[req.CustomerID]; !ok {
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	products := make([]domain.Product, 0, len(lines))
	for _, line := range lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return domain.Order{}, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrProductNotFound)
		}
		if product.StockQuantity < line.Quantity {
			return domain.Order{}, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrInsufficientStock)
		}
		products = append(products, product)
	}

	s.nextOrderID++
	order := domain.Order{
		ID:              s.nextOrderID,
		CustomerID:      req.CustomerID,
		OrderDate:       s.now(),
		ShippingAddress: req.ShippingAddress,
		Items:           make([]domain.OrderItem, 0, len(lines)),
	}
	for i, line := range lines {
		s.nextOrderItemID++
		order.Items = append(order.Items, domain.OrderItem{
			ID:          s.nextOrderItemID,
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: products[i].Name,
			Quantity:    line.Quantity,
			UnitPrice:   products[i].Price,
		})
	}
	order.TotalPrice = order.ItemsTotal()

	msg, err := domain.NewOrderPlacedMessage(order)
	if err != nil {
		s.nextOrderID--
		s.nextOrderItemID -= int64(len(lines))
		return domain.Order{}, fmt.Errorf("build outbox message: %w", err)
	}

	for i, line := range lines {
		product := products[i]
		product.StockQuantity -= line.Quantity
		s.products[product.ID] = product
	}
	s.orders = append(s.orders, order)
	s.enqueueLocked(msg)

	return copyOrder(order), nil
}

func (r *orderRepositoryInMemory) ListByCustomer(_ context.Context, customerID int64) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			result = append(result, copyOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].OrderDate.After(result[j].OrderDate)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// SetProductPrice меняет цену товара; используется в тестах, чтобы убедиться,
// что исторические заказы не пересчитываются.
func (s *Store) SetProductPrice(productID int64, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.Price = price
	s.products[productID] = product
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
