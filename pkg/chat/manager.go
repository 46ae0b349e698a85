/*
chat implements the streaming tool-use loop: the conversation is sent to a
language model for a bounded number of rounds, and each tool call the model
requests is dispatched before the next round. Progress is reported as a
sequence of events which ends with exactly one done or error event.
*/
package chat

import (
	"context"
	"log/slog"
	"time"

	// Packages
	opt "github.com/debtstack-ai/debtstack/pkg/opt"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	validator "github.com/go-playground/validator/v10"
	trace "go.opentelemetry.io/otel/trace"
	noop "go.opentelemetry.io/otel/trace/noop"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Generator sends a conversation to a language model and returns the model's
// turn, with text and tool call parts in the order they were produced
type Generator interface {
	Generate(ctx context.Context, model string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, error)
}

// Metrics receives an observation for each tool call and each stream
type Metrics interface {
	ObserveToolCall(name string, cost float64, failed bool, duration time.Duration)
	ObserveStream(outcome string, cost float64, rounds int)
}

type Manager struct {
	generator    Generator
	model        string
	toolkit      *tool.Toolkit
	maxRounds    int
	maxTurns     int
	systemPrompt string
	logger       *slog.Logger
	metrics      Metrics
	tracer       trace.Tracer
	validate     *validator.Validate
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultMaxRounds = 5
	DefaultMaxTurns  = 50
)

// Stream outcomes
const (
	OutcomeDone  = "done"
	OutcomeError = "error"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a manager. A generator is required.
func New(opts ...Opt) (*Manager, error) {
	m := &Manager{
		maxRounds:    DefaultMaxRounds,
		maxTurns:     DefaultMaxTurns,
		systemPrompt: DefaultSystemPrompt,
		validate:     validator.New(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	// Defaults
	if m.generator == nil {
		return nil, ErrNoGenerator
	}
	if m.toolkit == nil {
		m.toolkit, _ = tool.NewToolkit(0)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = noop.NewTracerProvider().Tracer("chat")
	}

	// Return success
	return m, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Toolkit returns the tools available to the model
func (m *Manager) Toolkit() *tool.Toolkit {
	return m.toolkit
}

// MaxTurns returns the largest conversation accepted
func (m *Manager) MaxTurns() int {
	return m.maxTurns
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// generateOpts are the options sent with every round
func (m *Manager) generateOpts() []opt.Opt {
	opts := []opt.Opt{tool.WithToolkit(m.toolkit)}
	if m.systemPrompt != "" {
		opts = append(opts, opt.SetString(opt.SystemPromptKey, m.systemPrompt))
	}
	return opts
}

type nopMetrics struct{}

func (nopMetrics) ObserveToolCall(string, float64, bool, time.Duration) {}
func (nopMetrics) ObserveStream(string, float64, int)                  {}
