package chat

import (
	"context"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListTools returns a page of the tools available to the model, sorted by name
func (m *Manager) ListTools(_ context.Context, req schema.ListToolRequest) (*schema.ListToolResponse, error) {
	tools := m.toolkit.Tools()

	response := &schema.ListToolResponse{
		Count:  uint(len(tools)),
		Offset: req.Offset,
		Limit:  req.Limit,
	}
	start := min(req.Offset, uint(len(tools)))
	end := uint(len(tools))
	if req.Limit != nil {
		end = min(start+*req.Limit, end)
	}
	for _, t := range tools[start:end] {
		response.Body = append(response.Body, tool.Meta(t))
	}
	return response, nil
}

// GetTool returns the metadata for a tool
func (m *Manager) GetTool(_ context.Context, name string) (*schema.ToolMeta, error) {
	t := m.toolkit.Lookup(name)
	if t == nil {
		return nil, debtstack.ErrNotFound.Withf("tool not found: %q", name)
	}
	meta := tool.Meta(t)
	return &meta, nil
}
