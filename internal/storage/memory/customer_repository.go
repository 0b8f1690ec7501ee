package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type customerRepositoryInMemory struct {
	store *Store
}

// NewCustomerRepository возвращает in-memory репозиторий клиентов поверх общего Store.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepositoryInMemory{store: store}
}

func (r *customerRepositoryInMemory) Create(_ context.Context, customer domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[customer.ID]; exists {
		return domain.ErrCustomerExists
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = s.now()
	}
	s.customers[customer.ID] = customer
	return nil
}

func (r *customerRepositoryInMemory) Get(_ context.Context, id int64) (domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *customerRepositoryInMemory) List(_ context.Context) ([]domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		result = append(result, customer)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *customerRepositoryInMemory) Update(_ context.Context, customer domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.customers[customer.ID]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	current.Name = customer.Name
	current.Email = customer.Email
	current.PasswordHash = customer.PasswordHash
	s.customers[customer.ID] = current
	return nil
}

func (r *customerRepositoryInMemory) Delete(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	if s.customerHasOrdersLocked(id) {
		return domain.ErrStillReferenced
	}

	// Корзина удаляется каскадно, как ON DELETE CASCADE в схеме PostgreSQL.
	kept := s.cart[:0]
	for _, line := range s.cart {
		if line.CustomerID != id {
			kept = append(kept, line)
		}
	}
	s.cart = kept
	delete(s.customers, id)
	return nil
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
