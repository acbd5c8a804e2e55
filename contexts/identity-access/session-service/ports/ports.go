package ports

import (
	"context"
	"time"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for new user rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// User is the stored identity row behind register/login.
type User struct {
	UserID         string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Role           string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserRepository is the persistence boundary for identity state.
// CreateUser must reject duplicate emails with ErrEmailTaken.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
}
