package domain

import "context"

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента. Возвращает ErrCustomerExists, если ID занят.
	Create(ctx context.Context, customer Customer) error
	// Get возвращает клиента по идентификатору или ErrCustomerNotFound.
	Get(ctx context.Context, id int64) (Customer, error)
	// List возвращает всех клиентов по возрастанию ID.
	List(ctx context.Context) ([]Customer, error)
	// Update перезаписывает имя, email и хэш пароля. ErrCustomerNotFound, если записи нет.
	Update(ctx context.Context, customer Customer) error
	// Delete удаляет клиента вместе с его корзиной. ErrCustomerNotFound, если записи нет,
	// ErrStillReferenced, если у клиента есть заказы.
	Delete(ctx context.Context, id int64) error
}

// ProductRepository описывает требования к каталогу товаров.
type ProductRepository interface {
	Create(ctx context.Context, product Product) error
	Get(ctx context.Context, id int64) (Product, error)
	// ListByIDs возвращает найденные товары в порядке ids; отсутствующие пропускаются.
	ListByIDs(ctx context.Context, ids []int64) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	// Delete удаляет товар. ErrProductNotFound, если записи нет,
	// ErrStillReferenced, если товар есть в оформленных заказах.
	Delete(ctx context.Context, id int64) error
}

// CartRepository описывает операции с корзиной.
type CartRepository interface {
	// Add добавляет новую строку корзины; идентификатор генерирует хранилище.
	Add(ctx context.Context, customerID, productID int64, qty int) (CartLine, error)
	// Remove удаляет все строки товара из корзины клиента и возвращает их число.
	// Если строк нет: ErrCartItemNotFound.
	Remove(ctx context.Context, customerID, productID int64) (int, error)
	// List возвращает содержимое корзины вместе с товарами.
	List(ctx context.Context, customerID int64) ([]CartItem, error)
}

// OrderRepository описывает хранилище заказов.
type OrderRepository interface {
	// Place атомарно оформляет заказ: заголовок, позиции, списание остатков
	// и событие в outbox. При любой ошибке изменения не применяются.
	Place(ctx context.Context, req PlaceOrderRequest) (Order, error)
	// ListByCustomer возвращает заказы клиента (новые первыми) с позициями.
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
}
