package domain

import (
	"errors"
)

var (
	// Ошибка некорректного идентификатора клиента (<= 0).
	ErrCustomerIDInvalid = errors.New("customer_id must be greater than zero")
	// Ошибка некорректного идентификатора товара (<= 0).
	ErrProductIDInvalid = errors.New("product_id must be greater than zero")
	// Ошибка пустого имени клиента или товара.
	ErrNameRequired = errors.New("name is required")
	// Ошибка пустого email клиента.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка пустого пароля клиента.
	ErrPasswordRequired = errors.New("password is required")
	// Ошибка слишком длинного пароля (bcrypt принимает не больше 72 байт).
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	// Ошибка отрицательной цены товара.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка цены с точностью больше двух знаков после запятой.
	ErrPricePrecision = errors.New("price must have at most two decimal places")
	// Ошибка отрицательного остатка на складе.
	ErrStockNegative = errors.New("stock quantity must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQtyInvalid = errors.New("quantity must be greater than zero")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка пустого адреса доставки.
	ErrShippingAddressRequired = errors.New("shipping address is required")

	// ErrCustomerNotFound возвращается, если клиента нет в хранилище.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товара нет в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartItemNotFound возвращается, если в корзине нет указанного товара.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOutboxMessageNotFound: в outbox нет сообщения с таким id.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")

	// ErrCustomerExists: клиент с таким идентификатором уже зарегистрирован.
	ErrCustomerExists = errors.New("customer already exists")
	// ErrProductExists: товар с таким идентификатором уже существует.
	ErrProductExists = errors.New("product already exists")
	// ErrStillReferenced: запись нельзя удалить, на неё ссылаются заказы.
	ErrStillReferenced = errors.New("record is still referenced")
	// ErrInsufficientStock: на складе меньше единиц, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStorageUnavailable: хранилище недоступно (соединение, таймаут).
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrOutboxPublish: ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ErrorKind классифицирует ошибку для вызывающего кода.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindInvalid     ErrorKind = "invalid"
	KindNotFound    ErrorKind = "not_found"
	KindConflict    ErrorKind = "conflict"
	KindUnavailable ErrorKind = "unavailable"
	KindInternal    ErrorKind = "internal"
)

var (
	invalidErrors = []error{
		ErrCustomerIDInvalid, ErrProductIDInvalid, ErrNameRequired, ErrEmailRequired,
		ErrPasswordRequired, ErrPasswordTooLong, ErrPriceNegative, ErrPricePrecision, ErrStockNegative,
		ErrQtyInvalid, ErrItemsRequired, ErrShippingAddressRequired,
	}
	notFoundErrors = []error{ErrCustomerNotFound, ErrProductNotFound, ErrCartItemNotFound, ErrOutboxMessageNotFound}
	conflictErrors = []error{ErrCustomerExists, ErrProductExists, ErrStillReferenced, ErrInsufficientStock}
)

// KindOf возвращает категорию ошибки: не найдено, конфликт, недоступность хранилища,
// некорректный ввод или внутренняя ошибка.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case isAny(err, notFoundErrors):
		return KindNotFound
	case isAny(err, conflictErrors):
		return KindConflict
	case errors.Is(err, ErrStorageUnavailable):
		return KindUnavailable
	case isAny(err, invalidErrors):
		return KindInvalid
	default:
		return KindInternal
	}
}

// IsNotFound проверяет, что ошибка означает отсутствие записи.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict проверяет, что ошибка: конфликт с текущим состоянием хранилища.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
