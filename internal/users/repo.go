package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrExists      = errors.New("user already exists")
	ErrInvalidRole = errors.New("invalid role")
)

// Store persists accounts and their role sets.
type Store interface {
	// Create inserts the user and its role set in one transaction. A
	// missing ID is filled with a fresh UUID, a zero CreatedAt with now.
	// A taken telegram_id or username is ErrExists.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// UpdateProfile writes username, names, phone and the registered
	// flag of an existing row; other fields are left alone.
	UpdateProfile(ctx context.Context, u *User) error
	SetPreferences(ctx context.Context, id, level, direction string) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	// GrantRole is idempotent; RevokeRole on an absent role is ErrNotFound.
	GrantRole(ctx context.Context, id, role string) error
	RevokeRole(ctx context.Context, id, role string) error
	// List returns users newest first, optionally only those holding
	// the given role.
	List(ctx context.Context, role string) ([]User, error)
}
