package httphandler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	// Packages
	httphandler "github.com/debtstack-ai/debtstack/pkg/httphandler"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	assert "github.com/stretchr/testify/assert"
)

func newChatRequest(t *testing.T, apiKey string, messages ...string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/chat", chatBody(t, "", messages...))
	r.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		r.Header.Set(httphandler.HeaderAPIKey, apiKey)
	}
	return r
}

func TestChat_Stream(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{
		calls: []string{tool.SearchCompanies, tool.GetGuarantors},
		text:  "Transocean has two guarantors.",
	}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key", "Who guarantees RIG debt?"))

	assert.Equal(http.StatusOK, w.Code)
	assert.True(strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	assert.NotEmpty(w.Header().Get(httphandler.HeaderRequestID))

	events := readEvents(w.Body)
	assert.Equal([]string{
		schema.EventToolCall, schema.EventToolResult,
		schema.EventToolCall, schema.EventToolResult,
		schema.EventText, schema.EventDone,
	}, kinds(events))

	var call schema.ToolCallEvent
	if assert.NoError(json.Unmarshal([]byte(events[0].Data), &call)) {
		assert.Equal(tool.SearchCompanies, call.Name)
		assert.Equal("RIG", call.Args["query"])
		assert.True(strings.HasPrefix(call.ID, "call_0_search_companies_"))
	}
	var done schema.DoneEvent
	if assert.NoError(json.Unmarshal([]byte(events[5].Data), &done)) {
		assert.InDelta(0.15, done.TotalCost, 1e-9)
	}

	// The credential reaches the tools
	assert.Equal([]string{"ds_key"}, f.tools[0].credentials)
}

func TestChat_CredentialInBody(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{calls: []string{tool.SearchCompanies}, text: "ok"}, nil)

	r := httptest.NewRequest(http.MethodPost, "/chat", chatBody(t, "body_key", "hello"))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)

	assert.Equal(http.StatusOK, w.Code)
	assert.Equal([]string{"body_key"}, f.tools[0].credentials)
}

func TestChat_MissingCredential(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{text: "ok"}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "", "hello"))
	assert.Equal(http.StatusUnauthorized, w.Code)
	assert.False(strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	assert.Empty(readEvents(w.Body))
}

func TestChat_OversizedConversation(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{text: "ok"}, nil)

	messages := make([]string, 51)
	for i := range messages {
		messages[i] = "turn"
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key", messages...))
	assert.Equal(http.StatusBadRequest, w.Code)
	assert.False(strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	assert.Empty(readEvents(w.Body))
}

func TestChat_BadRequest(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{text: "ok"}, nil)

	// Malformed body
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(httphandler.HeaderAPIKey, "ds_key")
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	assert.Equal(http.StatusBadRequest, w.Code)

	// Empty conversation
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key"))
	assert.Equal(http.StatusBadRequest, w.Code)

	// Wrong method
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))
	assert.Equal(http.StatusMethodNotAllowed, w.Code)
}

func TestChat_ModelError(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{err: errors.New("model unavailable")}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key", "hello"))
	assert.Equal(http.StatusOK, w.Code)

	events := readEvents(w.Body)
	assert.Equal([]string{schema.EventError}, kinds(events))
	var e schema.ErrorEvent
	if assert.NoError(json.Unmarshal([]byte(events[0].Data), &e)) {
		assert.Equal("model unavailable", e.Message)
	}
}

func TestChat_RateLimit(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &mockGenerator{text: "ok"}, httphandler.NewLimiter(0.001, 1))

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key", "hello"))
	assert.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key", "hello"))
	assert.Equal(http.StatusTooManyRequests, w.Code)

	// Each credential has its own bucket
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "other_key", "hello"))
	assert.Equal(http.StatusOK, w.Code)
}

func TestChat_StreamFrames(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, &slowGenerator{
		mockGenerator: mockGenerator{calls: []string{tool.SearchCompanies}, text: "ok"},
		delay:         250 * time.Millisecond,
	}, nil)

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, newChatRequest(t, "ds_key", "hello"))
	assert.Equal(http.StatusOK, w.Code)

	// Every named event in the raw body is a chat event, and done is last
	allowed := map[string]bool{
		schema.EventText: true, schema.EventToolCall: true, schema.EventToolResult: true,
		schema.EventDone: true, schema.EventError: true,
	}
	var names []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			names = append(names, strings.TrimSpace(name))
		}
	}
	assert.NotContains(w.Body.String(), "event: ping")
	for _, name := range names {
		assert.True(allowed[name], name)
	}
	if assert.NotEmpty(names) {
		assert.Equal(schema.EventDone, names[len(names)-1])
	}
	assert.Equal(1, strings.Count(w.Body.String(), "event: "+schema.EventDone))
}
