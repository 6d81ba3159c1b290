package models

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// User is an account that places orders.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// NewUser creates a user with a fresh ID.
func NewUser(username, email string) *User {
	return &User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
	}
}

// Validate checks the user fields
func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Username,
			validation.Required,
			validation.Length(1, 255),
			validation.Match(usernamePattern).Error("username may only contain letters, digits, dots, dashes and underscores"),
		),
		validation.Field(&u.Email,
			validation.Required,
			validation.Length(1, 255),
			is.EmailFormat,
		),
	)
}
