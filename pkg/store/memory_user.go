package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// MemoryUserStore is an in-memory implementation of UserStore, for
// development and tests. It is safe for concurrent use.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]schema.User
	now   func() time.Time
}

var _ schema.UserStore = (*MemoryUserStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewMemoryUserStore creates a new empty in-memory user store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]schema.User),
		now:   time.Now,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetUser returns a user by id
func (s *MemoryUserStore) GetUser(_ context.Context, id string) (*schema.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, debtstack.ErrNotFound.Withf("user not found: %q", id)
	}
	return &user, nil
}

// EnsureUser returns the user, creating it on first sign-in
func (s *MemoryUserStore) EnsureUser(_ context.Context, id, email string) (*schema.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, debtstack.ErrBadParameter.With("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		user = schema.User{
			ID:        id,
			UserMeta:  schema.UserMeta{Tier: schema.TierFree},
			CreatedAt: s.now(),
		}
	}
	if email = strings.TrimSpace(email); email != "" {
		user.Email = email
	}
	s.users[id] = user
	return &user, nil
}

// ListUsers returns a page of users, oldest first, optionally filtered by tier
func (s *MemoryUserStore) ListUsers(_ context.Context, req schema.ListUserRequest) (*schema.ListUserResponse, error) {
	s.mu.RLock()
	result := make([]schema.User, 0, len(s.users))
	for _, user := range s.users {
		if req.Tier == "" || user.Tier == req.Tier {
			result = append(result, user)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b schema.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	response := &schema.ListUserResponse{
		Count:  uint(len(result)),
		Offset: req.Offset,
		Limit:  req.Limit,
	}
	start := min(req.Offset, uint(len(result)))
	end := uint(len(result))
	if req.Limit != nil {
		end = min(start+*req.Limit, end)
	}
	response.Body = result[start:end]
	return response, nil
}

// UpdateUser patches the fields set in the request
func (s *MemoryUserStore) UpdateUser(_ context.Context, id string, req schema.UpdateUserRequest) (*schema.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, debtstack.ErrNotFound.Withf("user not found: %q", id)
	}
	user.UserMeta = req.Apply(user.UserMeta)
	user.UpdatedAt = s.now()
	s.users[id] = user
	return &user, nil
}
