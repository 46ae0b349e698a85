package httpclient

import (
	"context"
	"errors"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Chat sends a conversation and reads the event stream back. Each event is
// passed to fn as it arrives, with a pointer to the decoded payload as its
// data. Returns the done event, or the message of an error event as an error.
func (c *Client) Chat(ctx context.Context, apiKey string, messages []schema.ChatMessage, fn schema.EventFn) (*schema.DoneEvent, error) {
	if apiKey == "" {
		return nil, debtstack.ErrBadParameter.With("API key is required")
	}
	payload, err := client.NewJSONRequest(schema.ChatRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	var done *schema.DoneEvent
	var streamErr error
	callback := func(evt client.TextStreamEvent) error {
		event, err := schema.DecodeEvent(evt.Event, []byte(evt.Data))
		if err != nil {
			return err
		}
		switch data := event.Data.(type) {
		case *schema.DoneEvent:
			done = data
		case *schema.ErrorEvent:
			streamErr = errors.New(data.Message)
		}
		if fn != nil {
			fn(event)
		}
		return nil
	}

	// Pass a non-nil out so the client proceeds to decode the SSE stream
	var discard struct{}
	if err := c.DoWithContext(ctx, payload, &discard,
		client.OptPath("chat"),
		client.OptReqHeader("Accept", "text/event-stream"),
		client.OptReqHeader("X-API-Key", apiKey),
		client.OptTextStreamCallback(callback),
		client.OptNoTimeout(),
	); err != nil {
		return nil, err
	}
	if streamErr != nil {
		return nil, streamErr
	}
	if done == nil {
		return nil, debtstack.ErrInternalServerError.With("stream ended without a done event")
	}
	return done, nil
}
