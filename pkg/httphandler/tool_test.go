package httphandler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	assert "github.com/stretchr/testify/assert"
)

func TestToolList_OK(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tool", nil))
	assert.Equal(http.StatusOK, w.Code)

	var resp schema.ListToolResponse
	if assert.NoError(json.NewDecoder(w.Body).Decode(&resp)) {
		assert.Equal(uint(2), resp.Count)
		if assert.Len(resp.Body, 2) {
			// Sorted by name
			assert.Equal(tool.GetGuarantors, resp.Body[0].Name)
			assert.Equal(0.10, resp.Body[0].Cost)
			assert.NotNil(resp.Body[0].Input)
		}
	}
}

func TestToolList_WithPagination(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tool?limit=1&offset=1", nil))
	assert.Equal(http.StatusOK, w.Code)

	var resp schema.ListToolResponse
	if assert.NoError(json.NewDecoder(w.Body).Decode(&resp)) {
		assert.Equal(uint(2), resp.Count)
		if assert.Len(resp.Body, 1) {
			assert.Equal(tool.SearchCompanies, resp.Body[0].Name)
		}
	}
}

func TestToolGet(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tool/"+tool.SearchCompanies, nil))
	assert.Equal(http.StatusOK, w.Code)
	var meta schema.ToolMeta
	if assert.NoError(json.NewDecoder(w.Body).Decode(&meta)) {
		assert.Equal(tool.SearchCompanies, meta.Name)
		assert.Equal("Search companies", meta.Description)
		assert.Equal(0.05, meta.Cost)
	}

	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tool/nonexistent", nil))
	assert.Equal(http.StatusNotFound, w.Code)
}
