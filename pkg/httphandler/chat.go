package httphandler

import (
	"net/http"
	"strings"

	// Packages
	chat "github.com/debtstack-ai/debtstack/pkg/chat"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// HeaderAPIKey carries the caller's DebtStack API key
	HeaderAPIKey = "X-API-Key"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /chat
// POST: Run the tool loop for a conversation and stream events back as
// text/event-stream. Errors found before the stream starts are returned as
// JSON with a 4xx status.
func ChatHandler(manager *chat.Manager, limiter *Limiter) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/chat", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
				return
			}
			chatStream(w, r, manager, limiter)
		}, types.Ptr(openapi.PathItem{
			Post: &openapi.Operation{
				Description: "Stream a chat response with tool calls",
			},
		})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func chatStream(w http.ResponseWriter, r *http.Request, manager *chat.Manager, limiter *Limiter) {
	var req schema.ChatRequest
	if err := httprequest.Read(r, &req); err != nil {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With(err))
		return
	}

	// The header takes precedence over the body
	credential := strings.TrimSpace(r.Header.Get(HeaderAPIKey))
	if credential == "" {
		credential = strings.TrimSpace(req.APIKey)
	}
	if credential == "" {
		_ = httpresponse.Error(w, httpresponse.Err(http.StatusUnauthorized).With("API key is required"))
		return
	}
	if limiter != nil && !limiter.Allow(credential) {
		_ = httpresponse.Error(w, httpresponse.Err(http.StatusTooManyRequests).With("rate limit exceeded"))
		return
	}
	if err := manager.Validate(req); err != nil {
		_ = httpresponse.Error(w, httpErr(err))
		return
	}

	// From here on every outcome is reported as an event, and keep-alives
	// stop before the terminal event so it is the last frame sent
	stream := newEventStream(w, defaultKeepAlive)
	defer stream.Close()

	_ = manager.Stream(r.Context(), req, credential, func(evt schema.Event) {
		if evt.IsTerminal() {
			stream.Close()
		}
		stream.Write(evt.Kind, evt.Data)
	})
}
