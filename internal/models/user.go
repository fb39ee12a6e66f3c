package models

import (
	"time"

	"github.com/google/uuid"
)

// User is created by the identity provider on first login and read-only
// from the payment saga's perspective.
type User struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	FirstName  *string   `json:"first_name" db:"first_name"`
	AuthMethod string    `json:"auth_method" db:"auth_method"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
