package backend

import (
	"context"
	"encoding/json"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// endpoint is a tool which maps its typed arguments onto exactly one
// backend request
type endpoint[T any] struct {
	client      *Client
	name        string
	description string
	cost        float64
	build       func(T) (Request, error)
}

var _ tool.Tool = (*endpoint[SearchBondsRequest])(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewTools returns the backend tools, sharing one client
func NewTools(url string, opts ...client.ClientOpt) ([]tool.Tool, error) {
	client, err := New(url, opts...)
	if err != nil {
		return nil, err
	}
	return client.Tools(), nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *endpoint[T]) Name() string {
	return e.name
}

func (e *endpoint[T]) Description() string {
	return e.description
}

func (e *endpoint[T]) Cost() float64 {
	return e.cost
}

// Return the JSON schema for the tool input
func (*endpoint[T]) Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

// Run the tool with the given input
func (e *endpoint[T]) Run(ctx context.Context, credential string, input json.RawMessage) (any, error) {
	var req T

	// Unmarshal JSON input if provided
	if len(input) > 0 {
		if err := json.Unmarshal(input, &req); err != nil {
			return nil, debtstack.ErrBadParameter.Withf("failed to unmarshal input: %v", err)
		}
	}

	// Map the arguments onto a request
	request, err := e.build(req)
	if err != nil {
		return nil, err
	}

	return e.client.Call(ctx, credential, request)
}
