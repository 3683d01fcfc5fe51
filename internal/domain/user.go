package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the account role stored on a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a registered account. HashedPassword is nil for accounts that
// were provisioned without credentials.
type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	HashedPassword *string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity returns the session identity for u.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Identity is the authenticated caller as carried by a session token.
type Identity struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// DisplayName returns the name to snapshot on authored content: the
// identity's name, then its email, then AnonymousAuthor.
func (i *Identity) DisplayName() string {
	switch {
	case i == nil:
		return AnonymousAuthor
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	default:
		return AnonymousAuthor
	}
}
