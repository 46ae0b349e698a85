package tool

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	shape "github.com/debtstack-ai/debtstack/pkg/shape"
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Tool is a named lookup which the model can request
type Tool interface {
	// Return the name of the tool
	Name() string

	// Return the description of the tool
	Description() string

	// Return the JSON schema for the tool input
	Schema() (*jsonschema.Schema, error)

	// Return the fixed cost in USD of a successful call
	Cost() float64

	// Run the tool with the caller's credential and the input as JSON (may be nil)
	Run(ctx context.Context, credential string, input json.RawMessage) (any, error)
}

// Deadliner is implemented by tools which need a different deadline to the
// toolkit default
type Deadliner interface {
	Timeout() time.Duration
}

// Toolkit is the registry of tools, keyed by name
type Toolkit struct {
	tools   map[string]Tool
	timeout time.Duration
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// DefaultTimeout bounds each tool call independently
	DefaultTimeout = 15 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewToolkit creates a new toolkit with the given tools. A zero timeout
// uses DefaultTimeout. Returns an error if any tool is not in the catalog
// or is registered twice.
func NewToolkit(timeout time.Duration, tools ...Tool) (*Toolkit, error) {
	tk := &Toolkit{
		tools:   make(map[string]Tool, len(tools)),
		timeout: timeout,
	}
	if tk.timeout <= 0 {
		tk.timeout = DefaultTimeout
	}
	if err := tk.Register(tools...); err != nil {
		return nil, err
	}
	return tk, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Tools returns all tools in the toolkit, sorted by name
func (tk *Toolkit) Tools() []Tool {
	result := make([]Tool, 0, len(tk.tools))
	for _, t := range tk.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Register adds one or more tools to the toolkit
func (tk *Toolkit) Register(tools ...Tool) error {
	for _, t := range tools {
		name := t.Name()
		if !types.IsIdentifier(name) {
			return debtstack.ErrBadParameter.Withf("invalid tool name: %q", name)
		}
		if !slices.Contains(Catalog, name) {
			return debtstack.ErrBadParameter.Withf("tool not in catalog: %q", name)
		}
		if _, exists := tk.tools[name]; exists {
			return debtstack.ErrBadParameter.Withf("duplicate tool name: %q", name)
		}
		if t.Cost() < 0 {
			return debtstack.ErrBadParameter.Withf("negative cost for tool: %q", name)
		}
		tk.tools[name] = t
	}
	return nil
}

// Lookup returns a tool by name, or nil if not found
func (tk *Toolkit) Lookup(name string) Tool {
	return tk.tools[name]
}

// Meta returns the catalog entry for a tool
func Meta(t Tool) schema.ToolMeta {
	meta := schema.ToolMeta{
		Name:        t.Name(),
		Description: t.Description(),
		Cost:        t.Cost(),
	}
	if s, err := t.Schema(); err == nil {
		meta.Input = s
	}
	return meta
}

// Run executes a tool by name with the given input, validating the input
// against the tool schema. The call is bounded by the toolkit timeout, or
// by the tool's own timeout when it has one.
func (tk *Toolkit) Run(ctx context.Context, credential, name string, input json.RawMessage) (any, error) {
	tool := tk.Lookup(name)
	if tool == nil {
		return nil, debtstack.ErrNotFound.Withf("unknown tool: %q", name)
	}

	// Validate input against schema if provided
	if len(input) > 0 {
		if err := validate(tool, input); err != nil {
			return nil, err
		}
	}

	// Each call gets its own deadline
	timeout := tk.timeout
	if d, ok := tool.(Deadliner); ok && d.Timeout() > 0 {
		timeout = d.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return tool.Run(ctx, credential, input)
}

// Dispatch runs a tool call and returns its result. Failed calls, including
// calls to unknown tools, carry an error and no cost. Successful payloads
// are shaped before they are returned.
func (tk *Toolkit) Dispatch(ctx context.Context, credential string, call schema.ToolCall) schema.ToolResult {
	output, err := tk.Run(ctx, credential, call.Name, call.Input)
	if err != nil {
		return schema.NewToolError(call.ID, call.Name, err)
	}
	return schema.NewToolResult(call.ID, call.Name, shape.Shape(output), tk.tools[call.Name].Cost())
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func validate(tool Tool, input json.RawMessage) error {
	s, err := tool.Schema()
	if err != nil {
		return debtstack.ErrBadParameter.Withf("schema generation failed: %v", err)
	} else if s == nil {
		return nil
	}

	// Unmarshal into a map for validation
	var mapInput map[string]any
	if err := json.Unmarshal(input, &mapInput); err != nil {
		return debtstack.ErrBadParameter.Withf("failed to unmarshal JSON input: %v", err)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return debtstack.ErrBadParameter.Withf("schema resolution failed: %v", err)
	}
	if err := resolved.Validate(mapInput); err != nil {
		return debtstack.ErrBadParameter.Withf("input validation failed: %v", err)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (tk *Toolkit) String() string {
	metas := make([]schema.ToolMeta, 0, len(tk.tools))
	for _, t := range tk.Tools() {
		metas = append(metas, Meta(t))
	}
	return types.Stringify(metas)
}
