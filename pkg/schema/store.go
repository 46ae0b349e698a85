package schema

import "context"

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// UserStore persists the users table. Users are created on first sign-in
// and are never deleted through the gateway.
type UserStore interface {
	// GetUser returns a user by id, or ErrNotFound
	GetUser(ctx context.Context, id string) (*User, error)

	// EnsureUser returns the user with the given id, creating a free tier
	// user when none exists. A non-empty email replaces the stored one.
	EnsureUser(ctx context.Context, id, email string) (*User, error)

	// ListUsers returns a page of users, oldest first
	ListUsers(ctx context.Context, req ListUserRequest) (*ListUserResponse, error)

	// UpdateUser patches a user, or returns ErrNotFound
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error)
}
