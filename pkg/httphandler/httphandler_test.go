package httphandler_test

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	// Packages
	auth "github.com/debtstack-ai/debtstack/pkg/auth"
	chat "github.com/debtstack-ai/debtstack/pkg/chat"
	httphandler "github.com/debtstack-ai/debtstack/pkg/httphandler"
	metrics "github.com/debtstack-ai/debtstack/pkg/metrics"
	opt "github.com/debtstack-ai/debtstack/pkg/opt"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	store "github.com/debtstack-ai/debtstack/pkg/store"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	jwt "github.com/golang-jwt/jwt/v5"
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// MOCK GENERATOR

// mockGenerator calls each tool in calls on the first round, then answers
// with text. A non-nil err fails the first round.
type mockGenerator struct {
	calls []string
	text  string
	err   error
}

func (g *mockGenerator) Generate(_ context.Context, _ string, conversation schema.Conversation, _ ...opt.Opt) (*schema.Message, error) {
	if g.err != nil {
		return nil, g.err
	}
	last := conversation[len(conversation)-1]
	if len(g.calls) > 0 && len(last.Content) > 0 && last.Content[0].ToolResult == nil {
		message := &schema.Message{Role: schema.RoleAssistant}
		for _, name := range g.calls {
			message.Content = append(message.Content, schema.ContentBlock{
				ToolCall: &schema.ToolCall{Name: name, Input: json.RawMessage(`{"query":"RIG"}`)},
			})
		}
		return message, nil
	}
	return schema.NewTextMessage(schema.RoleAssistant, g.text), nil
}

// slowGenerator waits before each round
type slowGenerator struct {
	mockGenerator
	delay time.Duration
}

func (g *slowGenerator) Generate(ctx context.Context, model string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, error) {
	time.Sleep(g.delay)
	return g.mockGenerator.Generate(ctx, model, conversation, opts...)
}

///////////////////////////////////////////////////////////////////////////////
// MOCK TOOL

type mockTool struct {
	name        string
	description string
	cost        float64

	mu          sync.Mutex
	credentials []string
}

func (t *mockTool) Name() string        { return t.name }
func (t *mockTool) Description() string { return t.description }
func (t *mockTool) Cost() float64       { return t.cost }
func (t *mockTool) Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[struct {
		Query string `json:"query,omitempty"`
	}](nil)
}
func (t *mockTool) Run(_ context.Context, credential string, _ json.RawMessage) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credentials = append(t.credentials, credential)
	return map[string]any{"data": []any{map[string]any{"ticker": "RIG"}}}, nil
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

type fixture struct {
	service httphandler.Service
	mux     *http.ServeMux
	key     *rsa.PrivateKey
	tools   []*mockTool
}

func newFixture(t *testing.T, generator chat.Generator, limiter *httphandler.Limiter) *fixture {
	t.Helper()
	f := &fixture{
		tools: []*mockTool{
			{name: tool.SearchCompanies, description: "Search companies", cost: 0.05},
			{name: tool.GetGuarantors, description: "Guarantors of a bond", cost: 0.10},
		},
	}

	toolkit, err := tool.NewToolkit(0, f.tools[0], f.tools[1])
	if err != nil {
		t.Fatal(err)
	}
	manager, err := chat.New(
		chat.WithGenerator(generator, "test"),
		chat.WithToolkit(toolkit),
		chat.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatal(err)
	}

	// Session verifier
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	verifier, err := auth.NewVerifier(string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})))
	if err != nil {
		t.Fatal(err)
	}
	f.key = key

	f.service = httphandler.Service{
		Manager:  manager,
		Limiter:  limiter,
		Users:    store.NewMemoryUserStore(),
		Verifier: verifier,
		Metrics:  metrics.New(),
	}
	f.mux = serveMux(f.service)
	return f
}

// serveMux registers every handler behind the logging middleware
func serveMux(service httphandler.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mw := httphandler.LoggingMiddleware(slog.New(slog.DiscardHandler), service.Metrics)
	for _, fn := range []func() (string, http.HandlerFunc){
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.ChatHandler(service.Manager, service.Limiter)
			return path, handler
		},
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.ToolListHandler(service.Manager)
			return path, handler
		},
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.ToolGetHandler(service.Manager)
			return path, handler
		},
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.AccountHandler(service.Users, service.Verifier)
			return path, handler
		},
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.UserListHandler(service.Users, service.Verifier)
			return path, handler
		},
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.UserHandler(service.Users, service.Verifier)
			return path, handler
		},
		func() (string, http.HandlerFunc) {
			path, handler, _ := httphandler.MetricsHandler(service.Metrics)
			return path, handler
		},
	} {
		path, handler := fn()
		mux.HandleFunc(path, mw(handler))
	}
	return mux
}

// token returns a session token for the user id
func (f *fixture) token(t *testing.T, sub string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Email: sub + "@example.com",
	}).SignedString(f.key)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

// chatBody returns a JSON body with alternating user and assistant turns
func chatBody(t *testing.T, apiKey string, messages ...string) io.Reader {
	t.Helper()
	req := schema.ChatRequest{APIKey: apiKey}
	for i, content := range messages {
		role := schema.RoleUser
		if i%2 == 1 {
			role = schema.RoleAssistant
		}
		req.Messages = append(req.Messages, schema.ChatMessage{Role: role, Content: content})
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return strings.NewReader(string(data))
}

type sseEvent struct {
	Kind string
	Data string
}

// readEvents parses a text/event-stream body, keeping the chat events
func readEvents(body io.Reader) []sseEvent {
	var result []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			current.Kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			current.Data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			switch current.Kind {
			case schema.EventText, schema.EventToolCall, schema.EventToolResult, schema.EventDone, schema.EventError:
				result = append(result, current)
			}
			current = sseEvent{}
		}
	}
	switch current.Kind {
	case schema.EventText, schema.EventToolCall, schema.EventToolResult, schema.EventDone, schema.EventError:
		result = append(result, current)
	}
	return result
}

func kinds(events []sseEvent) []string {
	result := make([]string, 0, len(events))
	for _, evt := range events {
		result = append(result, evt.Kind)
	}
	return result
}
