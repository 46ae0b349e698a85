package store_test

import (
	"context"
	"os"
	"testing"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	store "github.com/debtstack-ai/debtstack/pkg/store"
	types "github.com/mutablelogic/go-server/pkg/types"
	assert "github.com/stretchr/testify/assert"
)

// userStoreTests defines shared behavioural tests for any UserStore
// implementation. Each test receives an empty store.
var userStoreTests = []struct {
	Name string
	Fn   func(t *testing.T, s schema.UserStore)
}{{
	Name: "GetNotFound",
	Fn: func(t *testing.T, s schema.UserStore) {
		_, err := s.GetUser(context.Background(), "user_missing")
		assert.ErrorIs(t, err, debtstack.ErrNotFound)
	},
}, {
	Name: "EnsureCreatesFreeUser",
	Fn: func(t *testing.T, s schema.UserStore) {
		assert := assert.New(t)
		ctx := context.Background()

		user, err := s.EnsureUser(ctx, "user_1", "a@example.com")
		if !assert.NoError(err) {
			return
		}
		assert.Equal("user_1", user.ID)
		assert.Equal("a@example.com", user.Email)
		assert.Equal(schema.TierFree, user.Tier)
		assert.Zero(user.Credits)
		assert.False(user.IsAdmin)
		assert.False(user.CreatedAt.IsZero())

		got, err := s.GetUser(ctx, "user_1")
		assert.NoError(err)
		assert.Equal("a@example.com", got.Email)
	},
}, {
	Name: "EnsureKeepsEmail",
	Fn: func(t *testing.T, s schema.UserStore) {
		assert := assert.New(t)
		ctx := context.Background()

		_, err := s.EnsureUser(ctx, "user_1", "a@example.com")
		assert.NoError(err)
		user, err := s.EnsureUser(ctx, "user_1", "")
		assert.NoError(err)
		assert.Equal("a@example.com", user.Email)
		user, err = s.EnsureUser(ctx, "user_1", "b@example.com")
		assert.NoError(err)
		assert.Equal("b@example.com", user.Email)

		_, err = s.EnsureUser(ctx, " ", "")
		assert.ErrorIs(err, debtstack.ErrBadParameter)
	},
}, {
	Name: "Update",
	Fn: func(t *testing.T, s schema.UserStore) {
		assert := assert.New(t)
		ctx := context.Background()

		_, err := s.EnsureUser(ctx, "user_1", "")
		assert.NoError(err)
		user, err := s.UpdateUser(ctx, "user_1", schema.UpdateUserRequest{
			Tier:    types.Ptr(schema.TierPro),
			Credits: types.Ptr(12.5),
		})
		if !assert.NoError(err) {
			return
		}
		assert.Equal(schema.TierPro, user.Tier)
		assert.Equal(12.5, user.Credits)
		assert.False(user.IsAdmin)
		assert.False(user.UpdatedAt.IsZero())

		// Absent fields are unchanged
		user, err = s.UpdateUser(ctx, "user_1", schema.UpdateUserRequest{IsAdmin: types.Ptr(true)})
		assert.NoError(err)
		assert.Equal(schema.TierPro, user.Tier)
		assert.Equal(12.5, user.Credits)
		assert.True(user.IsAdmin)

		_, err = s.UpdateUser(ctx, "user_missing", schema.UpdateUserRequest{})
		assert.ErrorIs(err, debtstack.ErrNotFound)
	},
}, {
	Name: "List",
	Fn: func(t *testing.T, s schema.UserStore) {
		assert := assert.New(t)
		ctx := context.Background()

		for _, id := range []string{"user_a", "user_b", "user_c"} {
			_, err := s.EnsureUser(ctx, id, "")
			assert.NoError(err)
		}
		_, err := s.UpdateUser(ctx, "user_b", schema.UpdateUserRequest{Tier: types.Ptr(schema.TierBusiness)})
		assert.NoError(err)

		resp, err := s.ListUsers(ctx, schema.ListUserRequest{})
		assert.NoError(err)
		assert.Equal(uint(3), resp.Count)
		assert.Len(resp.Body, 3)

		resp, err = s.ListUsers(ctx, schema.ListUserRequest{Limit: types.Ptr(uint(1)), Offset: 1})
		assert.NoError(err)
		assert.Equal(uint(3), resp.Count)
		assert.Len(resp.Body, 1)

		resp, err = s.ListUsers(ctx, schema.ListUserRequest{Offset: 10})
		assert.NoError(err)
		assert.Equal(uint(3), resp.Count)
		assert.Empty(resp.Body)

		resp, err = s.ListUsers(ctx, schema.ListUserRequest{Tier: schema.TierBusiness})
		assert.NoError(err)
		assert.Equal(uint(1), resp.Count)
		if assert.Len(resp.Body, 1) {
			assert.Equal("user_b", resp.Body[0].ID)
		}
	},
}}

func runUserStoreTests(t *testing.T, fn func() schema.UserStore) {
	for _, test := range userStoreTests {
		t.Run(test.Name, func(t *testing.T) {
			test.Fn(t, fn())
		})
	}
}

func Test_user_001(t *testing.T) {
	runUserStoreTests(t, func() schema.UserStore {
		return store.NewMemoryUserStore()
	})
}

func Test_user_002(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping")
	}
	s, err := store.NewPostgresUserStore(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Each test starts from an empty table
	runUserStoreTests(t, func() schema.UserStore {
		if err := s.Truncate(context.Background()); err != nil {
			t.Fatal(err)
		}
		return s
	})
}
