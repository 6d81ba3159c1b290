package models

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Order is a single purchase recorded against a user. Amount is in cents.
type Order struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Product string    `json:"product"`
	Amount  int64     `json:"amount"`
}

// NewOrder creates an order with a fresh ID.
func NewOrder(userID uuid.UUID, product string, amount int64) *Order {
	return &Order{
		ID:      uuid.New(),
		UserID:  userID,
		Product: product,
		Amount:  amount,
	}
}

// Validate checks the order fields
func (o *Order) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.UserID, validation.By(requiredUUID)),
		validation.Field(&o.Product, validation.Required, validation.Length(1, 255)),
		validation.Field(&o.Amount, validation.Required, validation.Min(int64(1))),
	)
}

// requiredUUID rejects the zero UUID. ozzo's Required treats a [16]byte array
// as always non-empty, so uuid fields need an explicit rule.
func requiredUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errors.New("is required")
	}
	return nil
}
