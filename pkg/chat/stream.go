package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	validator "github.com/go-playground/validator/v10"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	attribute "go.opentelemetry.io/otel/attribute"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// stream is the state of one chat request
type stream struct {
	*Manager
	credential   string
	fn           schema.EventFn
	conversation schema.Conversation
	total        float64
	last         int64 // last call id timestamp
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate checks a request before any event is sent. The conversation must
// have between one and the maximum number of turns, each with a role and
// some content. Oversized conversations are rejected rather than truncated.
func (m *Manager) Validate(req schema.ChatRequest) error {
	if len(req.Messages) > m.maxTurns {
		return debtstack.ErrBadParameter.Withf("conversation has %d messages, the maximum is %d", len(req.Messages), m.maxTurns)
	}
	if err := m.validate.Struct(req); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return debtstack.ErrBadParameter.Withf("%s failed on %q", fields[0].Namespace(), fields[0].Tag())
		}
		return debtstack.ErrBadParameter.With(err)
	}
	return nil
}

// Stream runs the tool loop for a request, sending events to fn in the order
// they occur. A request which fails validation returns an error and sends no
// events. Otherwise the last event is either done, with the total cost of
// the successful tool calls, or error.
func (m *Manager) Stream(ctx context.Context, req schema.ChatRequest, credential string, fn schema.EventFn) (err error) {
	if err := m.Validate(req); err != nil {
		return err
	}

	// Otel span
	ctx, endSpan := otel.StartSpan(m.tracer, ctx, "Stream",
		attribute.Int("turns", len(req.Messages)),
	)
	defer func() { endSpan(err) }()

	s := &stream{
		Manager:      m,
		credential:   credential,
		fn:           fn,
		conversation: req.Conversation(),
	}

	// Send exactly one terminal event
	var rounds int
	defer func() {
		if r := recover(); r != nil {
			err = debtstack.ErrInternalServerError.Withf("%v", r)
		}
		if err != nil {
			m.logger.ErrorContext(ctx, "chat failed", "error", err, "rounds", rounds, "cost", s.total)
			m.metrics.ObserveStream(OutcomeError, s.total, rounds)
			fn(schema.NewErrorEvent(err))
		} else {
			m.metrics.ObserveStream(OutcomeDone, s.total, rounds)
			fn(schema.NewDoneEvent(s.total))
		}
	}()

	// Rounds continue while the model calls tools. Reaching the round limit
	// ends the stream normally.
	for round := range m.maxRounds {
		rounds++
		more, err := s.round(ctx, round)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// round sends the conversation to the model and dispatches the tool calls in
// its response, one at a time. Returns true when the model called tools.
func (s *stream) round(ctx context.Context, round int) (_ bool, err error) {
	ctx, endSpan := otel.StartSpan(s.tracer, ctx, "Round",
		attribute.Int("round", round),
	)
	defer func() { endSpan(err) }()

	message, err := s.generator.Generate(ctx, s.model, s.conversation, s.generateOpts()...)
	if err != nil {
		return false, err
	} else if message == nil {
		return false, debtstack.ErrInternalServerError.With("model returned no message")
	}

	// Parts are reported in the order the model produced them
	results := make([]schema.ContentBlock, 0, len(message.Content))
	for i := range message.Content {
		block := &message.Content[i]
		switch {
		case block.ToolCall != nil:
			block.ToolCall.ID = s.callID(round, block.ToolCall.Name)
			s.fn(schema.NewToolCallEvent(*block.ToolCall))
			result := s.dispatch(ctx, *block.ToolCall)
			s.fn(schema.NewToolResultEvent(result))
			if !result.IsError() {
				s.total += result.Cost
			}
			results = append(results, schema.ContentBlock{ToolResult: &result})
		case block.Text != nil && *block.Text != "":
			s.fn(schema.NewTextEvent(*block.Text))
		}
	}

	s.logger.DebugContext(ctx, "chat round",
		"round", round,
		"parts", len(message.Content),
		"tool_calls", len(results),
		"cost", s.total,
	)

	// The model has finished
	if len(results) == 0 {
		return false, nil
	}

	// The model's turn and the tool results are added for the next round
	message.Role = schema.RoleAssistant
	s.conversation.Append(message)
	s.conversation.Append(&schema.Message{
		Role:    schema.RoleUser,
		Content: results,
	})
	return true, nil
}

// dispatch runs a single tool call
func (s *stream) dispatch(ctx context.Context, call schema.ToolCall) schema.ToolResult {
	ctx, endSpan := otel.StartSpan(s.tracer, ctx, "Dispatch",
		attribute.String("tool", call.Name),
		attribute.String("id", call.ID),
	)

	start := time.Now()
	result := s.toolkit.Dispatch(ctx, s.credential, call)
	duration := time.Since(start)

	if result.IsError() {
		endSpan(errors.New(result.Error))
		s.logger.DebugContext(ctx, "tool failed", "tool", call.Name, "error", result.Error, "duration", duration)
	} else {
		endSpan(nil)
		s.logger.DebugContext(ctx, "tool succeeded", "tool", call.Name, "cost", result.Cost, "duration", duration)
	}
	s.metrics.ObserveToolCall(call.Name, result.Cost, result.IsError(), duration)

	return result
}

// callID returns an identifier of the form call_<round>_<name>_<unixnano>,
// unique within the stream even when the clock does not advance
func (s *stream) callID(round int, name string) string {
	ts := time.Now().UnixNano()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	return fmt.Sprintf("call_%d_%s_%d", round, name, ts)
}
