package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	// Packages
	backend "github.com/debtstack-ai/debtstack/pkg/backend"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	client "github.com/mutablelogic/go-client"
	assert "github.com/stretchr/testify/assert"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

type captured struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// newServer returns a backend which records the last request and responds
// with the given status and body
func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	last := new(captured)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.Method = r.Method
		last.Path = r.URL.Path
		last.Query = r.URL.Query()
		last.Header = r.Header.Clone()
		last.Body = nil
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			json.Unmarshal(data, &last.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func lookup(t *testing.T, c *backend.Client, name string) tool.Tool {
	t.Helper()
	for _, v := range c.Tools() {
		if v.Name() == name {
			return v
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_backend_001(t *testing.T) {
	assert := assert.New(t)

	// Every backend tool is part of the catalog, except research
	c, err := backend.New("http://localhost")
	if !assert.NoError(err) {
		t.FailNow()
	}
	tools := c.Tools()
	assert.Len(tools, len(tool.Catalog)-1)
	for _, v := range tools {
		assert.Contains(tool.Catalog, v.Name())
		assert.NotEmpty(v.Description())
		assert.Greater(v.Cost(), 0.0)
		schema, err := v.Schema()
		assert.NoError(err)
		assert.NotNil(schema)
	}
}

func Test_backend_002(t *testing.T) {
	assert := assert.New(t)

	// Costs
	c, err := backend.New("http://localhost")
	if !assert.NoError(err) {
		t.FailNow()
	}
	costs := map[string]float64{
		tool.SearchCompanies:       0.05,
		tool.SearchBonds:           0.05,
		tool.ResolveBond:           0.05,
		tool.GetBondPricing:        0.05,
		tool.GetGuarantors:         0.10,
		tool.GetCorporateStructure: 0.10,
		tool.SearchDocuments:       0.05,
		tool.GetChanges:            0.10,
		tool.SearchCovenants:       0.05,
		tool.GetFinancials:         0.05,
	}
	for name, cost := range costs {
		assert.Equal(cost, lookup(t, c, name).Cost(), name)
	}
}

func Test_backend_003(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		in    string
		kind  backend.IdentifierKind
		value string
	}{
		{"912810RZ3", backend.CUSIP, "912810RZ3"},
		{" 912810rz3 ", backend.CUSIP, "912810RZ3"},
		{"US912810RZ30", backend.ISIN, "US912810RZ30"},
		{"us912810rz30", backend.ISIN, "US912810RZ30"},
		{"7% notes due 2030", backend.Fuzzy, "7% notes due 2030"},
		{"RIG 8% 2027", backend.Fuzzy, "RIG 8% 2027"},
		{"12345678", backend.Fuzzy, "12345678"},
	}
	for _, test := range tests {
		kind, value := backend.ClassifyIdentifier(test.in)
		assert.Equal(test.kind, kind, test.in)
		assert.Equal(test.value, value, test.in)
	}
}

func Test_backend_004(t *testing.T) {
	assert := assert.New(t)

	// The credential is forwarded, and absent arguments are omitted
	srv, last := newServer(t, http.StatusOK, `{"data":[{"ticker":"RIG"}]}`)
	c, err := backend.New(srv.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}

	result, err := lookup(t, c, tool.SearchCompanies).Run(context.Background(), "key", json.RawMessage(`{"ticker":"rig,chtr"}`))
	assert.NoError(err)
	assert.NotNil(result)
	assert.Equal(http.MethodGet, last.Method)
	assert.Equal("/v1/companies", last.Path)
	assert.Equal("RIG,CHTR", last.Query.Get("ticker"))
	assert.False(last.Query.Has("sector"))
	assert.False(last.Query.Has("limit"))
	assert.Equal("key", last.Header.Get("X-API-Key"))
}

func Test_backend_005(t *testing.T) {
	assert := assert.New(t)

	// Identifiers are routed by shape
	srv, last := newServer(t, http.StatusOK, `{"data":[]}`)
	c, err := backend.New(srv.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}

	resolve := lookup(t, c, tool.ResolveBond)
	_, err = resolve.Run(context.Background(), "key", json.RawMessage(`{"query":"912810RZ3"}`))
	assert.NoError(err)
	assert.Equal("/v1/bonds/resolve", last.Path)
	assert.Equal("912810RZ3", last.Query.Get("cusip"))

	_, err = resolve.Run(context.Background(), "key", json.RawMessage(`{"query":"7% notes due 2030"}`))
	assert.NoError(err)
	assert.Equal("7% notes due 2030", last.Query.Get("q"))
	assert.False(last.Query.Has("cusip"))

	pricing := lookup(t, c, tool.GetBondPricing)
	_, err = pricing.Run(context.Background(), "key", json.RawMessage(`{"identifier":"US912810RZ30"}`))
	assert.NoError(err)
	assert.Equal("/v1/pricing", last.Path)
	assert.Equal("US912810RZ30", last.Query.Get("isin"))
}

func Test_backend_006(t *testing.T) {
	assert := assert.New(t)

	// Graph tools post a traversal
	srv, last := newServer(t, http.StatusOK, `{"nodes":[]}`)
	c, err := backend.New(srv.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}

	_, err = lookup(t, c, tool.GetGuarantors).Run(context.Background(), "key", json.RawMessage(`{"bond_id":"912810rz3"}`))
	assert.NoError(err)
	assert.Equal(http.MethodPost, last.Method)
	assert.Equal("/v1/entities/traverse", last.Path)
	if assert.NotNil(last.Body) {
		start := last.Body["start"].(map[string]any)
		assert.Equal("bond", start["type"])
		assert.Equal("912810RZ3", start["id"])
		assert.Equal([]any{"guarantees"}, last.Body["relationships"])
	}

	_, err = lookup(t, c, tool.GetCorporateStructure).Run(context.Background(), "key", json.RawMessage(`{"ticker":"chtr","depth":2}`))
	assert.NoError(err)
	assert.Equal("/v1/entities/traverse", last.Path)
	if assert.NotNil(last.Body) {
		start := last.Body["start"].(map[string]any)
		assert.Equal("company", start["type"])
		assert.Equal("CHTR", start["id"])
		assert.Equal(float64(2), last.Body["depth"])
	}
}

func Test_backend_007(t *testing.T) {
	assert := assert.New(t)

	// Ticker in the path
	srv, last := newServer(t, http.StatusOK, `{"changes":[]}`)
	c, err := backend.New(srv.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}
	_, err = lookup(t, c, tool.GetChanges).Run(context.Background(), "key", json.RawMessage(`{"ticker":"rig","since":"2025-01-01"}`))
	assert.NoError(err)
	assert.Equal("/v1/companies/RIG/changes", last.Path)
	assert.Equal("2025-01-01", last.Query.Get("since"))

	// Missing required argument never reaches the backend
	last.Path = ""
	_, err = lookup(t, c, tool.GetChanges).Run(context.Background(), "key", json.RawMessage(`{}`))
	assert.Error(err)
	assert.Empty(last.Path)
}

func Test_backend_008(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		status  int
		body    string
		message string
	}{
		{http.StatusUnauthorized, `{"detail":"bad key"}`, "Invalid API key. Please regenerate your API key from the dashboard."},
		{http.StatusPaymentRequired, `{}`, "Insufficient credits. Please add credits or upgrade your plan."},
		{http.StatusTooManyRequests, `{}`, "Rate limit exceeded. Please wait a moment and try again."},
		{http.StatusNotFound, `{"detail":"Company not found"}`, "API error (404): Company not found"},
	}
	for _, test := range tests {
		srv, _ := newServer(t, test.status, test.body)
		c, err := backend.New(srv.URL)
		if !assert.NoError(err) {
			t.FailNow()
		}
		_, err = lookup(t, c, tool.SearchCompanies).Run(context.Background(), "key", nil)
		var e *backend.Error
		if assert.True(errors.As(err, &e)) {
			assert.Equal(test.status, e.Status)
		}
		assert.Equal(test.message, err.Error())
	}
}

func Test_backend_009(t *testing.T) {
	assert := assert.New(t)

	// Missing credential fails without a call
	srv, last := newServer(t, http.StatusOK, `{}`)
	c, err := backend.New(srv.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}
	_, err = lookup(t, c, tool.SearchBonds).Run(context.Background(), "", nil)
	assert.EqualError(err, "Invalid API key. Please regenerate your API key from the dashboard.")
	assert.Empty(last.Path)
}

func Test_backend_010(t *testing.T) {
	assert := assert.New(t)

	// A slow backend is reported as a timeout
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := backend.New(srv.URL, client.OptTimeout(time.Minute))
	if !assert.NoError(err) {
		t.FailNow()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lookup(t, c, tool.SearchBonds).Run(ctx, "key", nil)
	var e *backend.Error
	if assert.True(errors.As(err, &e)) {
		assert.True(e.Timeout)
	}
	assert.Equal("Request timed out. The backend took too long to respond.", err.Error())
}

func Test_backend_011(t *testing.T) {
	assert := assert.New(t)

	// Unreachable backend is a transport failure
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := backend.New(url)
	if !assert.NoError(err) {
		t.FailNow()
	}
	_, err = lookup(t, c, tool.SearchBonds).Run(context.Background(), "key", nil)
	if assert.Error(err) {
		assert.Contains(err.Error(), "Failed to call DebtStack API")
	}
}

func Test_backend_012(t *testing.T) {
	assert := assert.New(t)

	// Structured error bodies whose code matches the status
	tests := []struct {
		status  int
		body    string
		message string
	}{
		{http.StatusUnauthorized, `{"code":401,"reason":"unauthorized"}`, "Invalid API key. Please regenerate your API key from the dashboard."},
		{http.StatusPaymentRequired, `{"code":402,"reason":"no credits"}`, "Insufficient credits. Please add credits or upgrade your plan."},
		{http.StatusTooManyRequests, `{"code":429,"reason":"slow down"}`, "Rate limit exceeded. Please wait a moment and try again."},
		{http.StatusServiceUnavailable, `{"code":503,"reason":"maintenance"}`, "API error (503): maintenance"},
		{http.StatusNotFound, `{"code":404,"reason":"Not Found","detail":"Company not found"}`, "API error (404): Company not found"},
		{http.StatusInternalServerError, `{"code":500,"reason":"error","detail":{"message":"database down"}}`, "API error (500): database down"},
		{http.StatusInternalServerError, `oops`, "API error (500): Internal Server Error"},
		{http.StatusBadGateway, ``, "API error (502): Bad Gateway"},
	}
	for _, test := range tests {
		srv, _ := newServer(t, test.status, test.body)
		c, err := backend.New(srv.URL)
		if !assert.NoError(err) {
			t.FailNow()
		}
		_, err = lookup(t, c, tool.SearchCompanies).Run(context.Background(), "key", nil)
		var e *backend.Error
		if assert.True(errors.As(err, &e), test.body) {
			assert.Equal(test.status, e.Status, test.body)
			assert.False(e.Timeout, test.body)
		}
		assert.Equal(test.message, err.Error(), test.body)
	}
}

func Test_backend_013(t *testing.T) {
	assert := assert.New(t)

	// Path segments are escaped, not joined as text
	srv, last := newServer(t, http.StatusOK, `{}`)
	c, err := backend.New(srv.URL)
	if !assert.NoError(err) {
		t.FailNow()
	}
	response, err := c.Call(context.Background(), "key", backend.Request{Path: []string{"v1", "companies", "BRK B", "changes"}})
	assert.NoError(err)
	assert.NotNil(response)
	assert.Equal("/v1/companies/BRK B/changes", last.Path)
}
