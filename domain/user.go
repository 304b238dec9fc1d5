package domain

import (
	"context"
	"time"
)

// User represents a user entity in the system.
type User struct {
	ID          int64
	Username    string    // Login username (unique)
	DisplayName string    // Display name shown in notifications
	Password    string    // Bcrypt hashed password
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserRepository defines the contract for user data persistence.
type UserRepository interface {
	// GetByID retrieves a user by their ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetByID(ctx context.Context, id int64) (User, error)

	// GetByUsername retrieves a user by their username.
	// Used during login to verify credentials.
	GetByUsername(ctx context.Context, username string) (User, error)
}
