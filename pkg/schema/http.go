package schema

import (
	"time"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ChatRequest is the body of a chat request. The credential may be sent in
// the body or in the X-API-Key header.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	APIKey   string        `json:"apiKey,omitempty"`
}

// ChatMessage is one turn of the visible transcript
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ListToolRequest filters the tool catalog
type ListToolRequest struct {
	Limit  *uint `json:"limit,omitempty" help:"Maximum number of tools to return"`
	Offset uint  `json:"offset,omitempty" help:"Offset for pagination"`
}

// ListToolResponse is a page of tool metadata
type ListToolResponse struct {
	Count  uint       `json:"count"`
	Offset uint       `json:"offset,omitzero"`
	Limit  *uint      `json:"limit,omitzero"`
	Body   []ToolMeta `json:"body,omitzero"`
}

// ToolMeta describes a tool in the catalog
type ToolMeta struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Cost        float64            `json:"cost"`
	Input       *jsonschema.Schema `json:"input,omitempty"`
}

// ListUserRequest is a page request for the admin user list
type ListUserRequest struct {
	Tier   string `json:"tier,omitempty" help:"Filter by tier" optional:""`
	Limit  *uint  `json:"limit,omitempty" help:"Maximum number of users to return"`
	Offset uint   `json:"offset,omitempty" help:"Offset for pagination"`
}

// ListUserResponse is a page of users
type ListUserResponse struct {
	Count  uint   `json:"count"`
	Offset uint   `json:"offset,omitzero"`
	Limit  *uint  `json:"limit,omitzero"`
	Body   []User `json:"body,omitzero"`
}

// User is a row of the users table, keyed by the identity provider's user id
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	UserMeta
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// UserMeta holds the fields of a user which an administrator can change
type UserMeta struct {
	Tier    string  `json:"tier,omitempty" validate:"omitempty,oneof=free pro business"`
	Credits float64 `json:"credits" validate:"gte=0"`
	IsAdmin bool    `json:"is_admin,omitempty"`
}

// UpdateUserRequest patches a user. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Tier    *string  `json:"tier,omitempty" validate:"omitempty,oneof=free pro business"`
	Credits *float64 `json:"credits,omitempty" validate:"omitempty,gte=0"`
	IsAdmin *bool    `json:"is_admin,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	TierFree     = "free"
	TierPro      = "pro"
	TierBusiness = "business"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Conversation converts the visible transcript into model messages
func (r ChatRequest) Conversation() Conversation {
	result := make(Conversation, 0, len(r.Messages))
	for _, m := range r.Messages {
		result = append(result, NewTextMessage(m.Role, m.Content))
	}
	return result
}

// Apply patches the user meta with the fields set in the request
func (r UpdateUserRequest) Apply(meta UserMeta) UserMeta {
	if r.Tier != nil {
		meta.Tier = *r.Tier
	}
	if r.Credits != nil {
		meta.Credits = *r.Credits
	}
	if r.IsAdmin != nil {
		meta.IsAdmin = *r.IsAdmin
	}
	return meta
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r ChatRequest) String() string {
	// Never print the credential
	r.APIKey = ""
	return types.Stringify(r)
}

func (u User) String() string {
	return types.Stringify(u)
}

func (t ToolMeta) String() string {
	return types.Stringify(t)
}
