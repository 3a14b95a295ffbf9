package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSender, RoleReceiver, RoleAdmin, RoleDelivery:
		return true
	}
	return false
}

// User never carries the password hash; storage returns it separately.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ShortID   *string   `json:"shortId,omitempty"`
	IsBlocked bool      `json:"isBlocked"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserCreateInput struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ShortID      *string
	Phone        *string
	Address      *string
}

type UserFilter struct {
	Search string
}

type UserList struct {
	Items []*User
	Total int
}

type UserCounts struct {
	Total   int          `json:"total"`
	Blocked int          `json:"blocked"`
	ByRole  map[Role]int `json:"byRole"`
}
