package shop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
)

const maxPasswordBytes = 72

// Repositories: набор хранилищ, с которыми работает сервис.
type Repositories struct {
	Customers domain.CustomerRepository
	Products  domain.ProductRepository
	Cart      domain.CartRepository
	Orders    domain.OrderRepository
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics задаёт метрики. Без них операции не учитываются.
func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHashCost задаёт стоимость bcrypt (в тестах: bcrypt.MinCost).
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// Service реализует прикладной слой магазина: проверки входных данных, хэширование паролей,
// проверки существования и остатков перед обращением к хранилищу.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	cart      domain.CartRepository
	orders    domain.OrderRepository

	logger   *log.Entry
	metrics  *metrics.ShopMetrics
	hashCost int
}

// NewService создаёт сервис поверх переданных репозиториев.
func NewService(repos Repositories, options ...Option) *Service {
	s := &Service{
		customers: repos.Customers,
		products:  repos.Products,
		cart:      repos.Cart,
		orders:    repos.Orders,
		hashCost:  bcrypt.DefaultCost,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "shop-service")
	}
	if s.hashCost < bcrypt.MinCost || s.hashCost > bcrypt.MaxCost {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

// RegisterCustomerInput: данные регистрации; пароль передаётся в открытом виде.
type RegisterCustomerInput struct {
	ID       int64
	Name     string
	Email    string
	Password string
}

// CartView: содержимое корзины с итогом по текущим ценам.
type CartView struct {
	CustomerID int64
	Items      []domain.CartItem
	Total      decimal.Decimal
}

// RegisterCustomer хэширует пароль и сохраняет клиента.
func (s *Service) RegisterCustomer(ctx context.Context, in RegisterCustomerInput) (customer domain.Customer, err error) {
	defer s.observe("register_customer", time.Now(), &err, log.Fields{"customer_id": in.ID})

	if in.Password == "" {
		return domain.Customer{}, domain.ErrPasswordRequired
	}
	customer = domain.Customer{
		ID:    in.ID,
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	customer.PasswordHash, err = s.hashPassword(in.Password)
	if err != nil {
		return domain.Customer{}, err
	}
	if err = customer.Validate(); err != nil {
		return domain.Customer{}, err
	}
	if err = s.customers.Create(ctx, customer); err != nil {
		return domain.Customer{}, err
	}
	return s.customers.Get(ctx, customer.ID)
}

// UpdateCustomer применяет непустые поля; новый пароль хэшируется заново.
func (s *Service) UpdateCustomer(ctx context.Context, upd domain.CustomerUpdate) (customer domain.Customer, err error) {
	defer s.observe("update_customer", time.Now(), &err, log.Fields{"customer_id": upd.ID})

	current, err := s.customers.Get(ctx, upd.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	customer = upd.Apply(current)
	if upd.Password != "" {
		customer.PasswordHash, err = s.hashPassword(upd.Password)
		if err != nil {
			return domain.Customer{}, err
		}
	}
	if err = s.customers.Update(ctx, customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

// DeleteCustomer удаляет клиента вместе с корзиной.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_customer", time.Now(), &err, log.Fields{"customer_id": id})
	return s.customers.Delete(ctx, id)
}

// GetCustomer возвращает клиента по идентификатору.
func (s *Service) GetCustomer(ctx context.Context, id int64) (customer domain.Customer, err error) {
	defer s.observe("get_customer", time.Now(), &err, log.Fields{"customer_id": id})
	return s.customers.Get(ctx, id)
}

// ListCustomers возвращает всех клиентов.
func (s *Service) ListCustomers(ctx context.Context) (customers []domain.Customer, err error) {
	defer s.observe("list_customers", time.Now(), &err, nil)
	return s.customers.List(ctx)
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (err error) {
	defer s.observe("create_product", time.Now(), &err, log.Fields{"product_id": product.ID})

	product.Name = strings.TrimSpace(product.Name)
	product.Description = strings.TrimSpace(product.Description)
	if err = product.Validate(); err != nil {
		return err
	}
	return s.products.Create(ctx, product)
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_product", time.Now(), &err, log.Fields{"product_id": id})
	return s.products.Delete(ctx, id)
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (product domain.Product, err error) {
	defer s.observe("get_product", time.Now(), &err, log.Fields{"product_id": id})
	return s.products.Get(ctx, id)
}

// ListProducts возвращает весь каталог.
func (s *Service) ListProducts(ctx context.Context) (products []domain.Product, err error) {
	defer s.observe("list_products", time.Now(), &err, nil)
	return s.products.List(ctx)
}

// AddToCart проверяет клиента, товар и количество, затем добавляет новую строку.
func (s *Service) AddToCart(ctx context.Context, customerID, productID int64, qty int) (line domain.CartLine, err error) {
	defer s.observe("add_to_cart", time.Now(), &err, log.Fields{"customer_id": customerID, "product_id": productID})

	if qty <= 0 {
		return domain.CartLine{}, domain.ErrQtyInvalid
	}
	if _, err = s.customers.Get(ctx, customerID); err != nil {
		return domain.CartLine{}, err
	}
	if _, err = s.products.Get(ctx, productID); err != nil {
		return domain.CartLine{}, err
	}
	return s.cart.Add(ctx, customerID, productID, qty)
}

// RemoveFromCart удаляет все строки товара из корзины клиента.
func (s *Service) RemoveFromCart(ctx context.Context, customerID, productID int64) (removed int, err error) {
	defer s.observe("remove_from_cart", time.Now(), &err, log.Fields{"customer_id": customerID, "product_id": productID})

	if _, err = s.customers.Get(ctx, customerID); err != nil {
		return 0, err
	}
	return s.cart.Remove(ctx, customerID, productID)
}

// ViewCart возвращает корзину клиента и её стоимость по текущим ценам.
func (s *Service) ViewCart(ctx context.Context, customerID int64) (view CartView, err error) {
	defer s.observe("view_cart", time.Now(), &err, log.Fields{"customer_id": customerID})

	if _, err = s.customers.Get(ctx, customerID); err != nil {
		return CartView{}, err
	}
	items, err := s.cart.List(ctx, customerID)
	if err != nil {
		return CartView{}, err
	}

	view = CartView{CustomerID: customerID, Items: items, Total: decimal.Zero}
	for _, item := range items {
		view.Total = view.Total.Add(item.Subtotal())
	}
	return view, nil
}

// PlaceOrder заранее проверяет клиента и остатки, чтобы вернуть понятную ошибку,
// а затем оформляет заказ в хранилище. Окончательная проверка остатков
// выполняется хранилищем атомарно.
func (s *Service) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (order domain.Order, err error) {
	defer s.observe("place_order", time.Now(), &err, log.Fields{"customer_id": req.CustomerID, "lines": len(req.Lines)})

	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	if err = req.Validate(); err != nil {
		return domain.Order{}, err
	}
	req.Lines = domain.NormalizeLines(req.Lines)

	if _, err = s.customers.Get(ctx, req.CustomerID); err != nil {
		return domain.Order{}, err
	}
	if err = s.checkStock(ctx, req.Lines); err != nil {
		return domain.Order{}, err
	}

	order, err = s.orders.Place(ctx, req)
	if err != nil {
		return domain.Order{}, err
	}

	units := 0
	for _, item := range order.Items {
		units += item.Quantity
	}
	s.metrics.RecordOrderPlaced(order.TotalPrice, units)
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total_price": order.TotalPrice.StringFixed(2),
		"items":       len(order.Items),
	}).Info("order placed")

	return order, nil
}

// OrdersByCustomer возвращает историю заказов клиента.
func (s *Service) OrdersByCustomer(ctx context.Context, customerID int64) (orders []domain.Order, err error) {
	defer s.observe("orders_by_customer", time.Now(), &err, log.Fields{"customer_id": customerID})

	if _, err = s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.orders.ListByCustomer(ctx, customerID)
}

func (s *Service) checkStock(ctx context.Context, lines []domain.OrderLine) error {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return fmt.Errorf("product %d: %w", line.ProductID, domain.ErrProductNotFound)
		}
		if !product.InStock(line.Quantity) {
			return fmt.Errorf("product %d (%s): requested %d, available %d: %w",
				product.ID, product.Name, line.Quantity, product.StockQuantity, domain.ErrInsufficientStock)
		}
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// observe пишет метрику операции и логирует неуспешный результат.
// Ожидаемые ошибки (валидация, не найдено, конфликт) идут в Warn, остальные в Error.
func (s *Service) observe(operation string, start time.Time, errp *error, fields log.Fields) {
	var err error
	if errp != nil {
		err = *errp
	}

	result := resultOf(err)
	s.metrics.RecordOperation(operation, result, time.Since(start))
	if err == nil {
		return
	}

	entry := s.logger.WithFields(fields).WithField("operation", operation).WithError(err)
	switch result {
	case metrics.ResultUnavailable, metrics.ResultError:
		entry.Error("shop operation failed")
	default:
		entry.Warn("shop operation rejected")
	}
}

func resultOf(err error) string {
	switch domain.KindOf(err) {
	case domain.KindNone:
		return metrics.ResultOK
	case domain.KindInvalid:
		return metrics.ResultInvalid
	case domain.KindNotFound:
		return metrics.ResultNotFound
	case domain.KindConflict:
		return metrics.ResultConflict
	case domain.KindUnavailable:
		return metrics.ResultUnavailable
	default:
		return metrics.ResultError
	}
}
