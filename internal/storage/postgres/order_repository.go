package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

type lockedProduct struct {
	name  string
	price decimal.Decimal
}

// Place оформляет заказ в одной транзакции: блокирует строки товаров,
// списывает остатки условным UPDATE, вставляет заголовок, позиции и
// сообщение outbox. Любая ошибка откатывает транзакцию целиком.
func (r *orderRepository) Place(ctx context.Context, req domain.PlaceOrderRequest) (domain.Order, error) {
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}
	lines := domain.NormalizeLines(req.Lines)

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, wrapErr("begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.ensureCustomerTx(ctx, tx, req.CustomerID); err != nil {
		return domain.Order{}, err
	}

	products, err := r.lockProductsTx(ctx, tx, lines)
	if err != nil {
		return domain.Order{}, err
	}

	for _, line := range lines {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $1
			WHERE product_id = $2
			  AND stock_quantity >= $1
		`, line.Quantity, line.ProductID)
		if err != nil {
			return domain.Order{}, wrapErr("decrement stock", err)
		}
		if err := expectAffected(res, domain.ErrInsufficientStock); err != nil {
			return domain.Order{}, fmt.Errorf("product %d: %w", line.ProductID, err)
		}
	}

	order := domain.Order{
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
		Items:           make([]domain.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		product := products[line.ProductID]
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: product.name,
			Quantity:    line.Quantity,
			UnitPrice:   product.price,
		})
	}
	order.TotalPrice = order.ItemsTotal()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, total_price, shipping_address)
		VALUES ($1, $2, $3)
		RETURNING order_id, order_date
	`, order.CustomerID, order.TotalPrice, order.ShippingAddress).Scan(&order.ID, &order.OrderDate); err != nil {
		return domain.Order{}, wrapErr("insert order", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING order_item_id
		`, order.ID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID); err != nil {
			return domain.Order{}, wrapErr("insert order item", err)
		}
	}

	msg, err := domain.NewOrderPlacedMessage(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("build outbox message: %w", err)
	}
	if _, err := insertOutboxMessage(ctx, tx, msg, time.Now().UTC()); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, wrapErr("commit place order", err)
	}

	return order, nil
}

func (r *orderRepository) ensureCustomerTx(ctx context.Context, tx *sql.Tx, customerID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT customer_id FROM customers WHERE customer_id = $1
	`, customerID).Scan(&id)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrCustomerNotFound
	}
	return wrapErr("check customer exists", err)
}

// lockProductsTx берёт блокировки строк товаров по возрастанию id, чтобы
// параллельные заказы с пересекающимися товарами не попадали в deadlock.
func (r *orderRepository) lockProductsTx(ctx context.Context, tx *sql.Tx, lines []domain.OrderLine) (map[int64]lockedProduct, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, name, price
		FROM products
		WHERE product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, wrapErr("lock products", err)
	}
	defer rows.Close()

	products := make(map[int64]lockedProduct, len(ids))
	for rows.Next() {
		var (
			id      int64
			product lockedProduct
		)
		if err := rows.Scan(&id, &product.name, &product.price); err != nil {
			return nil, wrapErr("scan locked product", err)
		}
		products[id] = product
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate locked products", err)
	}

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
		}
	}

	return products, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, customer_id, order_date, total_price, shipping_address
		FROM orders
		WHERE customer_id = $1
		ORDER BY order_date DESC, order_id DESC
	`, customerID)
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.OrderDate, &order.TotalPrice, &order.ShippingAddress,
		); err != nil {
			return nil, wrapErr("scan order row", err)
		}
		order.Items = make([]domain.OrderItem, 0)
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate order rows", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.loadItems(ctx, orders, index); err != nil {
		return nil, err
	}

	return orders, nil
}

// loadItems подгружает позиции всех заказов одним запросом.
func (r *orderRepository) loadItems(ctx context.Context, orders []domain.Order, index map[int64]int) error {
	ids := make([]int64, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_item_id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON p.product_id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.order_item_id
	`, pq.Array(ids))
	if err != nil {
		return wrapErr("load order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice,
		); err != nil {
			return wrapErr("scan order item", err)
		}
		i, ok := index[item.OrderID]
		if !ok {
			continue
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return wrapErr("iterate order items", err)
	}

	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
