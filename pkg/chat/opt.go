package chat

import (
	"log/slog"
	"strings"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for configuring the manager
type Opt func(*Manager) error

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	ErrNoGenerator = debtstack.ErrBadParameter.With("generator is required")
)

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithGenerator sets the language model and the model name
func WithGenerator(generator Generator, model string) Opt {
	return func(m *Manager) error {
		if generator == nil {
			return ErrNoGenerator
		}
		m.generator = generator
		m.model = strings.TrimSpace(model)
		return nil
	}
}

// WithToolkit sets the tools the model can call
func WithToolkit(toolkit *tool.Toolkit) Opt {
	return func(m *Manager) error {
		if toolkit == nil {
			return debtstack.ErrBadParameter.With("toolkit is required")
		}
		m.toolkit = toolkit
		return nil
	}
}

// WithMaxRounds bounds the number of model requests in one stream
func WithMaxRounds(n int) Opt {
	return func(m *Manager) error {
		if n < 1 {
			return debtstack.ErrBadParameter.With("max rounds must be at least 1")
		}
		m.maxRounds = n
		return nil
	}
}

// WithMaxTurns bounds the number of messages accepted in a conversation
func WithMaxTurns(n int) Opt {
	return func(m *Manager) error {
		if n < 1 {
			return debtstack.ErrBadParameter.With("max turns must be at least 1")
		}
		m.maxTurns = n
		return nil
	}
}

// WithSystemPrompt replaces the default system prompt. An empty prompt
// sends none.
func WithSystemPrompt(prompt string) Opt {
	return func(m *Manager) error {
		m.systemPrompt = strings.TrimSpace(prompt)
		return nil
	}
}

func WithLogger(logger *slog.Logger) Opt {
	return func(m *Manager) error {
		m.logger = logger
		return nil
	}
}

func WithMetrics(metrics Metrics) Opt {
	return func(m *Manager) error {
		m.metrics = metrics
		return nil
	}
}

func WithTracer(tracer trace.Tracer) Opt {
	return func(m *Manager) error {
		m.tracer = tracer
		return nil
	}
}
