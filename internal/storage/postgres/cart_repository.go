package postgres

import (
	"context"
	"database/sql"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Add(ctx context.Context, customerID, productID int64, qty int) (domain.CartLine, error) {
	if qty <= 0 {
		return domain.CartLine{}, domain.ErrQtyInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	line := domain.CartLine{CustomerID: customerID, ProductID: productID, Quantity: qty}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart (customer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING cart_id, created_at
	`, customerID, productID, qty).Scan(&line.ID, &line.CreatedAt)
	if err != nil {
		if notFound := missingReference(err); notFound != nil {
			return domain.CartLine{}, notFound
		}
		return domain.CartLine{}, wrapErr("insert cart line", err)
	}

	return line, nil
}

func (r *cartRepository) Remove(ctx context.Context, customerID, productID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart
		WHERE customer_id = $1
		  AND product_id = $2
	`, customerID, productID)
	if err != nil {
		return 0, wrapErr("delete cart lines", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("rows affected", err)
	}
	if affected == 0 {
		return 0, domain.ErrCartItemNotFound
	}

	return int(affected), nil
}

func (r *cartRepository) List(ctx context.Context, customerID int64) ([]domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.cart_id, c.customer_id, c.quantity, c.created_at,
		       p.product_id, p.name, p.price, p.description, p.stock_quantity
		FROM cart c
		JOIN products p ON p.product_id = c.product_id
		WHERE c.customer_id = $1
		ORDER BY c.cart_id
	`, customerID)
	if err != nil {
		return nil, wrapErr("list cart", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.Line.ID, &item.Line.CustomerID, &item.Line.Quantity, &item.Line.CreatedAt,
			&item.Product.ID, &item.Product.Name, &item.Product.Price,
			&item.Product.Description, &item.Product.StockQuantity,
		); err != nil {
			return nil, wrapErr("scan cart row", err)
		}
		item.Line.ProductID = item.Product.ID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate cart rows", err)
	}

	return items, nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
