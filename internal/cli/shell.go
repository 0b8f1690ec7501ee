package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/shop"
)

// Shop: операции магазина, доступные из меню.
type Shop interface {
	RegisterCustomer(ctx context.Context, in shop.RegisterCustomerInput) (domain.Customer, error)
	UpdateCustomer(ctx context.Context, upd domain.CustomerUpdate) (domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomer(ctx context.Context, id int64) (domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	AddToCart(ctx context.Context, customerID, productID int64, qty int) (domain.CartLine, error)
	RemoveFromCart(ctx context.Context, customerID, productID int64) (int, error)
	ViewCart(ctx context.Context, customerID int64) (shop.CartView, error)
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.Order, error)
	OrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
}

var (
	errInvalidNumber = errors.New("invalid number")
	errReadInput     = errors.New("read input")
)

type menuItem struct {
	key    string
	title  string
	action func(ctx context.Context) error
}

// Shell: интерактивное текстовое меню. Читает команды из in и пишет ответы в out.
type Shell struct {
	shop   Shop
	in     io.Reader
	out    io.Writer
	logger *log.Entry
	lines    <-chan string
	readErrs <-chan error
	menu     []menuItem
}

// NewShell создаёт меню поверх сервиса магазина.
func NewShell(svc Shop, in io.Reader, out io.Writer, logger *log.Entry) *Shell {
	if logger == nil {
		logger = log.WithField("component", "cli")
	}
	s := &Shell{shop: svc, in: in, out: out, logger: logger}
	s.menu = []menuItem{
		{"1", "Register Customer", s.registerCustomer},
		{"2", "Create Product", s.createProduct},
		{"3", "Delete Product", s.deleteProduct},
		{"4", "Add to Cart", s.addToCart},
		{"5", "Remove from Cart", s.removeFromCart},
		{"6", "View Cart", s.viewCart},
		{"7", "Place Order", s.placeOrder},
		{"8", "View Customer Order", s.viewCustomerOrders},
		{"9", "Update Customer Information", s.updateCustomer},
		{"10", "List All Customers", s.listCustomers},
		{"11", "List All Products", s.listProducts},
		{"12", "Exit", nil},
		{"13", "Delete Customer", s.deleteCustomer},
	}
	return s
}

// Run показывает меню, пока пользователь не выберет Exit, не закончится ввод
// или не будет отменён ctx.
func (s *Shell) Run(ctx context.Context) error {
	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	s.lines, s.readErrs = readLines(readCtx, s.in)

	for {
		s.printMenu()
		choice, err := s.prompt(ctx, fmt.Sprintf("Choose an operation (1-%d): ", len(s.menu)))
		if err != nil {
			return s.finish(err)
		}

		item, ok := s.lookup(choice)
		if !ok {
			s.println("Invalid choice. Please try again.")
			continue
		}
		if item.action == nil {
			s.println("Thank you for visiting...We hope to see you again soon!")
			return nil
		}

		if err := item.action(ctx); err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, errReadInput):
				return s.finish(err)
			case errors.Is(err, errInvalidNumber):
				s.println(err.Error())
			default:
				s.reportError(item.title, err)
			}
		}
	}
}

func (s *Shell) finish(err error) error {
	if errors.Is(err, io.EOF) {
		s.println("")
		s.logger.Debug("input closed, leaving shell")
		return nil
	}
	if errors.Is(err, errReadInput) {
		s.logger.WithError(err).Warn("failed to read input, leaving shell")
	}
	return err
}

func (s *Shell) printMenu() {
	s.println("\nE-commerce Application\n")
	for _, item := range s.menu {
		s.printf("%s. %s\n", item.key, item.title)
	}
}

func (s *Shell) lookup(choice string) (menuItem, bool) {
	for _, item := range s.menu {
		if item.key == choice {
			return item, true
		}
	}
	return menuItem{}, false
}

func (s *Shell) registerCustomer(ctx context.Context) error {
	id, err := s.promptID(ctx, "Enter customer Id: ")
	if err != nil {
		return err
	}
	name, err := s.prompt(ctx, "Enter customer name: ")
	if err != nil {
		return err
	}
	email, err := s.prompt(ctx, "Enter customer email: ")
	if err != nil {
		return err
	}
	password, err := s.prompt(ctx, "Enter customer password: ")
	if err != nil {
		return err
	}

	if _, err := s.shop.RegisterCustomer(ctx, shop.RegisterCustomerInput{
		ID: id, Name: name, Email: email, Password: password,
	}); err != nil {
		return err
	}
	s.println("Customer registered successfully.")
	return nil
}

func (s *Shell) createProduct(ctx context.Context) error {
	id, err := s.promptID(ctx, "Enter product Id: ")
	if err != nil {
		return err
	}
	name, err := s.prompt(ctx, "Enter product name: ")
	if err != nil {
		return err
	}
	price, err := s.promptDecimal(ctx, "Enter product price: ")
	if err != nil {
		return err
	}
	description, err := s.prompt(ctx, "Enter product description: ")
	if err != nil {
		return err
	}
	stock, err := s.promptInt(ctx, "Enter stock quantity: ")
	if err != nil {
		return err
	}

	if err := s.shop.CreateProduct(ctx, domain.Product{
		ID: id, Name: name, Price: price, Description: description, StockQuantity: stock,
	}); err != nil {
		return err
	}
	s.println("Product created successfully.")
	return nil
}

func (s *Shell) deleteProduct(ctx context.Context) error {
	id, err := s.promptID(ctx, "Enter product ID to delete: ")
	if err != nil {
		return err
	}
	if err := s.shop.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.println("Product deleted successfully.")
	return nil
}

func (s *Shell) deleteCustomer(ctx context.Context) error {
	id, err := s.promptID(ctx, "Enter customer ID to delete: ")
	if err != nil {
		return err
	}
	if err := s.shop.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.println("Customer deleted successfully.")
	return nil
}

func (s *Shell) addToCart(ctx context.Context) error {
	customerID, err := s.promptID(ctx, "Enter customer ID: ")
	if err != nil {
		return err
	}
	productID, err := s.promptID(ctx, "Enter product ID: ")
	if err != nil {
		return err
	}
	qty, err := s.promptInt(ctx, "Enter quantity: ")
	if err != nil {
		return err
	}

	if _, err := s.shop.AddToCart(ctx, customerID, productID, qty); err != nil {
		return err
	}
	s.println("Product added to cart successfully.")
	return nil
}

func (s *Shell) removeFromCart(ctx context.Context) error {
	customerID, err := s.promptID(ctx, "Enter customer ID: ")
	if err != nil {
		return err
	}
	productID, err := s.promptID(ctx, "Enter product ID to remove from cart: ")
	if err != nil {
		return err
	}

	if _, err := s.shop.RemoveFromCart(ctx, customerID, productID); err != nil {
		return err
	}
	s.printf("Product ID %d successfully removed from cart.\n", productID)
	return nil
}

func (s *Shell) viewCart(ctx context.Context) error {
	customerID, err := s.promptID(ctx, "Enter customer ID: ")
	if err != nil {
		return err
	}

	view, err := s.shop.ViewCart(ctx, customerID)
	if err != nil {
		return err
	}
	if len(view.Items) == 0 {
		s.println("Cart is empty.")
		return nil
	}

	s.println("Cart items:")
	for _, item := range view.Items {
		s.printf("- %s, Price: %s, Quantity: %d\n",
			item.Product.Name, item.Product.Price.StringFixed(2), item.Line.Quantity)
	}
	s.printf("Total: %s\n", view.Total.StringFixed(2))
	return nil
}

func (s *Shell) placeOrder(ctx context.Context) error {
	customerID, err := s.promptID(ctx, "Enter customer ID: ")
	if err != nil {
		return err
	}
	if _, err := s.shop.GetCustomer(ctx, customerID); err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			s.println("Customer not found. Please register first.")
			return nil
		}
		return err
	}
	address, err := s.prompt(ctx, "Enter shipping address: ")
	if err != nil {
		return err
	}

	var lines []domain.OrderLine
	selected := make(map[int64]int)
	for {
		productID, err := s.promptInt64(ctx, "Enter product ID to order (0 to finish): ")
		if err != nil {
			if errors.Is(err, errInvalidNumber) {
				s.println(err.Error())
				continue
			}
			return err
		}
		if productID == 0 {
			break
		}
		qty, err := s.promptInt(ctx, "Enter quantity: ")
		if err != nil {
			if errors.Is(err, errInvalidNumber) {
				s.println(err.Error())
				continue
			}
			return err
		}
		if qty <= 0 {
			s.println("Quantity must be greater than zero.")
			continue
		}

		product, err := s.shop.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				s.printf("Product with ID %d not found.\n", productID)
				continue
			}
			return err
		}
		if available := product.StockQuantity - selected[productID]; available < qty {
			s.printf("Not enough stock for %s. Available: %d\n", product.Name, available)
			continue
		}

		selected[productID] += qty
		lines = append(lines, domain.OrderLine{ProductID: productID, Quantity: qty})
	}

	if len(lines) == 0 {
		s.println("No products were selected for the order.")
		return nil
	}

	order, err := s.shop.PlaceOrder(ctx, domain.PlaceOrderRequest{
		CustomerID:      customerID,
		Lines:           lines,
		ShippingAddress: address,
	})
	if err != nil {
		return err
	}
	s.printf("Order placed successfully. Order ID: %d, Total: %s\n", order.ID, order.TotalPrice.StringFixed(2))
	return nil
}

func (s *Shell) viewCustomerOrders(ctx context.Context) error {
	customerID, err := s.promptID(ctx, "Enter customer ID to view orders: ")
	if err != nil {
		return err
	}

	orders, err := s.shop.OrdersByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		s.println("No orders found for this customer.")
		return nil
	}

	s.printf("Orders for Customer ID: %d\n", customerID)
	for _, order := range orders {
		s.printf("Order #%d, Date: %s, Total: %s, Ship to: %s\n",
			order.ID, order.OrderDate.Format("2006-01-02 15:04"), order.TotalPrice.StringFixed(2), order.ShippingAddress)
		for _, item := range order.Items {
			s.printf("- Product ID: %d (%s), Quantity: %d, Unit price: %s\n",
				item.ProductID, item.ProductName, item.Quantity, item.UnitPrice.StringFixed(2))
		}
	}
	return nil
}

func (s *Shell) updateCustomer(ctx context.Context) error {
	id, err := s.promptID(ctx, "Enter customer ID to update: ")
	if err != nil {
		return err
	}
	current, err := s.shop.GetCustomer(ctx, id)
	if err != nil {
		return err
	}

	s.println("Current customer information:")
	s.printf("Name: %s, Email: %s\n", current.Name, current.Email)

	name, err := s.prompt(ctx, "Enter new name (leave blank to keep current): ")
	if err != nil {
		return err
	}
	email, err := s.prompt(ctx, "Enter new email (leave blank to keep current): ")
	if err != nil {
		return err
	}
	password, err := s.prompt(ctx, "Enter new password (leave blank to keep current): ")
	if err != nil {
		return err
	}

	if _, err := s.shop.UpdateCustomer(ctx, domain.CustomerUpdate{
		ID: id, Name: name, Email: email, Password: password,
	}); err != nil {
		return err
	}
	s.println("Customer information updated successfully.")
	return nil
}

func (s *Shell) listCustomers(ctx context.Context) error {
	customers, err := s.shop.ListCustomers(ctx)
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		s.println("No customers found.")
		return nil
	}

	s.println("List of Customers:")
	for _, c := range customers {
		s.printf("ID: %d, Name: %s, Email: %s\n", c.ID, c.Name, c.Email)
	}
	return nil
}

func (s *Shell) listProducts(ctx context.Context) error {
	products, err := s.shop.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		s.println("No products found.")
		return nil
	}

	s.println("List of Products:")
	for _, p := range products {
		s.printf("ID: %d, Name: %s, Price: %s, Description: %s, Stock: %d\n",
			p.ID, p.Name, p.Price.StringFixed(2), p.Description, p.StockQuantity)
	}
	return nil
}

// reportError печатает сообщение по категории ошибки; детали уходят в лог.
func (s *Shell) reportError(action string, err error) {
	s.logger.WithError(err).WithField("action", action).Debug("menu action failed")

	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		s.println("Customer not found. Please register first.")
	case errors.Is(err, domain.ErrProductNotFound):
		s.println("Product not found.")
	case errors.Is(err, domain.ErrCartItemNotFound):
		s.println("Product is not in the cart.")
	case errors.Is(err, domain.ErrCustomerExists):
		s.println("Customer with this ID already exists.")
	case errors.Is(err, domain.ErrProductExists):
		s.println("Product with this ID already exists.")
	case errors.Is(err, domain.ErrStillReferenced):
		s.println("Cannot delete: the record is referenced by existing orders.")
	case errors.Is(err, domain.ErrInsufficientStock):
		s.printf("Not enough stock: %v\n", err)
	default:
		switch domain.KindOf(err) {
		case domain.KindInvalid:
			s.printf("Invalid input: %v.\n", err)
		case domain.KindUnavailable:
			s.println("Storage is unavailable, please try again later.")
		default:
			s.printf("Failed to %s.\n", strings.ToLower(action))
		}
	}
}

func (s *Shell) prompt(ctx context.Context, label string) (string, error) {
	s.printf("%s", label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			if err := <-s.readErrs; err != nil {
				return "", fmt.Errorf("%w: %w", errReadInput, err)
			}
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (s *Shell) promptInt64(ctx context.Context, label string) (int64, error) {
	raw, err := s.prompt(ctx, label)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidNumber, raw)
	}
	return value, nil
}

func (s *Shell) promptID(ctx context.Context, label string) (int64, error) {
	return s.promptInt64(ctx, label)
}

func (s *Shell) promptInt(ctx context.Context, label string) (int, error) {
	raw, err := s.prompt(ctx, label)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidNumber, raw)
	}
	return value, nil
}

func (s *Shell) promptDecimal(ctx context.Context, label string) (decimal.Decimal, error) {
	raw, err := s.prompt(ctx, label)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errInvalidNumber, raw)
	}
	return value, nil
}

func (s *Shell) println(text string) {
	_, _ = fmt.Fprintln(s.out, text)
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// readLines читает ввод построчно в отдельной горутине, чтобы prompt
// мог прерваться по ctx. Канал строк закрывается на EOF, ошибке чтения или
// отмене ctx. Ошибка сканера, если была, кладётся в errs до закрытия lines;
// errs закрывается вместе с lines.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		defer close(errs)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()
	return lines, errs
}
