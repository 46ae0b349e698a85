package httphandler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	// Packages
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	assert "github.com/stretchr/testify/assert"
)

func (f *fixture) do(t *testing.T, method, path, sub, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if sub != "" {
		r.Header.Set("Authorization", "Bearer "+f.token(t, sub))
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func TestAccount(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{}, nil)

	// First sign-in creates a free user
	w := f.do(t, http.MethodGet, "/account", "user_1", "")
	assert.Equal(http.StatusOK, w.Code)
	var user schema.User
	if assert.NoError(json.NewDecoder(w.Body).Decode(&user)) {
		assert.Equal("user_1", user.ID)
		assert.Equal("user_1@example.com", user.Email)
		assert.Equal(schema.TierFree, user.Tier)
	}

	// No session
	w = f.do(t, http.MethodGet, "/account", "", "")
	assert.Equal(http.StatusUnauthorized, w.Code)
}

func TestAdmin(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{}, nil)
	ctx := context.Background()

	_, err := f.service.Users.EnsureUser(ctx, "user_1", "")
	assert.NoError(err)
	_, err = f.service.Users.EnsureUser(ctx, "admin_1", "")
	assert.NoError(err)
	_, err = f.service.Users.UpdateUser(ctx, "admin_1", schema.UpdateUserRequest{IsAdmin: types.Ptr(true)})
	assert.NoError(err)

	// Not an administrator, or unknown
	assert.Equal(http.StatusForbidden, f.do(t, http.MethodGet, "/admin/user", "user_1", "").Code)
	assert.Equal(http.StatusForbidden, f.do(t, http.MethodGet, "/admin/user", "user_unknown", "").Code)
	assert.Equal(http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/user", "", "").Code)

	// List
	w := f.do(t, http.MethodGet, "/admin/user", "admin_1", "")
	assert.Equal(http.StatusOK, w.Code)
	var list schema.ListUserResponse
	if assert.NoError(json.NewDecoder(w.Body).Decode(&list)) {
		assert.Equal(uint(2), list.Count)
	}

	// Get
	assert.Equal(http.StatusOK, f.do(t, http.MethodGet, "/admin/user/user_1", "admin_1", "").Code)
	assert.Equal(http.StatusNotFound, f.do(t, http.MethodGet, "/admin/user/user_missing", "admin_1", "").Code)

	// Patch
	w = f.do(t, http.MethodPatch, "/admin/user/user_1", "admin_1", `{"tier":"pro","credits":25}`)
	assert.Equal(http.StatusOK, w.Code)
	var user schema.User
	if assert.NoError(json.NewDecoder(w.Body).Decode(&user)) {
		assert.Equal(schema.TierPro, user.Tier)
		assert.Equal(25.0, user.Credits)
	}
	assert.Equal(http.StatusBadRequest, f.do(t, http.MethodPatch, "/admin/user/user_1", "admin_1", `{"tier":"platinum"}`).Code)
	assert.Equal(http.StatusBadRequest, f.do(t, http.MethodPatch, "/admin/user/user_1", "admin_1", `{"credits":-1}`).Code)
	assert.Equal(http.StatusNotFound, f.do(t, http.MethodPatch, "/admin/user/user_missing", "admin_1", `{"tier":"pro"}`).Code)
}

func TestMetrics(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{}, nil)

	assert.Equal(http.StatusOK, f.do(t, http.MethodGet, "/tool", "", "").Code)
	w := f.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), `debtstack_http_requests_total{method="GET",path="/tool",status="200"} 1`)
}
