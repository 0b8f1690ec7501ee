package domain

import (
	"strings"
	"time"
)

// Customer: зарегистрированный покупатель.
type Customer struct {
	// ID назначается вызывающей стороной при регистрации.
	ID    int64
	Name  string
	Email string
	// PasswordHash хранит bcrypt-хэш, пароль в открытом виде не сохраняется.
	PasswordHash string
	CreatedAt    time.Time
}

// Validate проверяет обязательные поля клиента.
func (c Customer) Validate() error {
	if c.ID <= 0 {
		return ErrCustomerIDInvalid
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(c.Email) == "" {
		return ErrEmailRequired
	}
	if c.PasswordHash == "" {
		return ErrPasswordRequired
	}
	return nil
}

// CustomerUpdate описывает изменения профиля; пустое поле означает "оставить как есть".
type CustomerUpdate struct {
	ID       int64
	Name     string
	Email    string
	Password string
}

// Apply возвращает копию клиента с применёнными непустыми полями.
// Пароль здесь не применяется: его нужно предварительно захэшировать.
func (u CustomerUpdate) Apply(c Customer) Customer {
	if name := strings.TrimSpace(u.Name); name != "" {
		c.Name = name
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		c.Email = email
	}
	return c
}
