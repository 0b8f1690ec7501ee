package memory

import (
	"context"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type cartRepositoryInMemory struct {
	store *Store
}

// NewCartRepository возвращает in-memory корзину.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepositoryInMemory{store: store}
}

// Add добавляет строку корзины; ссылки на клиента и товар проверяются так же,
// как внешние ключи в PostgreSQL.
func (r *cartRepositoryInMemory) Add(_ context.Context, customerID, productID int64, qty int) (domain.CartLine, error) {
	if qty <= 0 {
		return domain.CartLine{}, domain.ErrQtyInvalid
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customerID]; !ok {
		return domain.CartLine{}, domain.ErrCustomerNotFound
	}
	if _, ok := s.products[productID]; !ok {
		return domain.CartLine{}, domain.ErrProductNotFound
	}

	s.nextCartID++
	line := domain.CartLine{
		ID:         s.nextCartID,
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   qty,
		CreatedAt:  s.now(),
	}
	s.cart = append(s.cart, line)
	return line, nil
}

func (r *cartRepositoryInMemory) Remove(_ context.Context, customerID, productID int64) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.cart[:0]
	for _, line := range s.cart {
		if line.CustomerID == customerID && line.ProductID == productID {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	s.cart = kept

	if removed == 0 {
		return 0, domain.ErrCartItemNotFound
	}
	return removed, nil
}

func (r *cartRepositoryInMemory) List(_ context.Context, customerID int64) ([]domain.CartItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.CartItem, 0)
	for _, line := range s.cart {
		if line.CustomerID != customerID {
			continue
		}
		items = append(items, domain.CartItem{Line: line, Product: s.products[line.ProductID]})
	}
	return items, nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
