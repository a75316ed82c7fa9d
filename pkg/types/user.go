package types

import (
	"errors"
	"time"
)

type UserRole string

const (
	UserRoleDonor     UserRole = "donor"
	UserRoleRecipient UserRole = "recipient"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Role        UserRole  `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
