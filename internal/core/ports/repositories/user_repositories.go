package repositories

import (
	"context"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// FindUserByID retrieves a user by ID (excluding soft-deleted users).
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByUsername retrieves a user by username (excluding soft-deleted users).
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateRefreshToken stores the hash and expiry of a user's refresh token.
	UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error

	// ClearRefreshToken removes a user's stored refresh token.
	ClearRefreshToken(ctx context.Context, userID string) error
}
