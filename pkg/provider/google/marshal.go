package google

import (
	"encoding/json"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	roleModel           = "model"
	metaThoughtSig      = "thought_signature"
	responseKeyResult   = "result"
	responseKeyError    = "error"
	responseKeyDocument = "output"
)

///////////////////////////////////////////////////////////////////////////////
// CONVERSATION → GEMINI WIRE FORMAT (OUTBOUND)

// geminiContentsFromConversation converts a conversation into gemini wire
// Content slices. Empty assistant turns are skipped.
func geminiContentsFromConversation(conversation schema.Conversation) ([]*geminiContent, error) {
	contents := make([]*geminiContent, 0, len(conversation))
	for _, msg := range conversation {
		if msg == nil {
			continue
		}
		if msg.Role == schema.RoleAssistant && len(msg.Content) == 0 {
			continue
		}
		c, err := geminiContentFromMessage(msg)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, nil
}

// geminiContentFromMessage converts a single message to gemini wire Content,
// mapping the assistant role to "model"
func geminiContentFromMessage(msg *schema.Message) (*geminiContent, error) {
	parts := make([]*geminiPart, 0, len(msg.Content))

	// The thought signature is returned on the first function call
	var thoughtSig string
	if v, ok := msg.Meta[metaThoughtSig].(string); ok {
		thoughtSig = v
	}

	for i := range msg.Content {
		block := &msg.Content[i]
		switch {
		case block.Text != nil:
			parts = append(parts, &geminiPart{Text: *block.Text})
		case block.ToolCall != nil:
			args := make(map[string]any)
			if len(block.ToolCall.Input) > 0 {
				if err := json.Unmarshal(block.ToolCall.Input, &args); err != nil {
					return nil, debtstack.ErrInternalServerError.Withf("unmarshal tool call args: %v", err)
				}
			}
			part := geminiNewFunctionCallPart(block.ToolCall.Name, args)
			if thoughtSig != "" {
				part.ThoughtSignature = thoughtSig
				thoughtSig = ""
			}
			parts = append(parts, part)
		case block.ToolResult != nil:
			if p := geminiPartFromToolResult(block.ToolResult); p != nil {
				parts = append(parts, p)
			}
		}
	}

	role := msg.Role
	if role == schema.RoleAssistant {
		role = roleModel
	}
	return &geminiContent{
		Parts: parts,
		Role:  role,
	}, nil
}

// geminiPartFromToolResult converts a tool result to a function response
// keyed by the tool name
func geminiPartFromToolResult(tr *schema.ToolResult) *geminiPart {
	if tr.Name == "" {
		return nil
	}

	response := make(map[string]any)
	if tr.IsError() {
		response[responseKeyError] = tr.Error
	} else if len(tr.Content) > 0 {
		var content any
		if err := json.Unmarshal(tr.Content, &content); err != nil {
			response[responseKeyDocument] = string(tr.Content)
		} else {
			response[responseKeyResult] = content
		}
	}

	return geminiNewFunctionResponsePart(tr.Name, response)
}

///////////////////////////////////////////////////////////////////////////////
// TOOL CONVERSION

// geminiFunctionDeclsFromToolkit converts the tools in a toolkit to function
// declarations, using the JSON schema of each tool for its parameters
func geminiFunctionDeclsFromToolkit(tk *tool.Toolkit) []*geminiFunctionDeclaration {
	tools := tk.Tools()
	decls := make([]*geminiFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &geminiFunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		}
		if s, err := t.Schema(); err == nil && s != nil {
			if data, err := json.Marshal(s); err == nil {
				var m map[string]any
				if err := json.Unmarshal(data, &m); err == nil {
					decl.ParametersJSONSchema = m
				}
			}
		}
		decls = append(decls, decl)
	}
	return decls
}

///////////////////////////////////////////////////////////////////////////////
// GEMINI WIRE FORMAT → MESSAGE (INBOUND)

// messageFromGeminiResponse converts a response to an assistant message,
// keeping the order of text and function call parts. Thinking parts are
// dropped. Tool call identifiers are left for the caller to assign.
func messageFromGeminiResponse(response *geminiGenerateResponse) *schema.Message {
	message := &schema.Message{Role: schema.RoleAssistant}
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return message
	}

	for _, part := range response.Candidates[0].Content.Parts {
		if part.ThoughtSignature != "" {
			if _, exists := message.Meta[metaThoughtSig]; !exists {
				if message.Meta == nil {
					message.Meta = make(map[string]any)
				}
				message.Meta[metaThoughtSig] = part.ThoughtSignature
			}
		}
		switch {
		case part.Thought:
			continue
		case part.FunctionCall != nil:
			var input json.RawMessage
			if part.FunctionCall.Args != nil {
				if data, err := json.Marshal(part.FunctionCall.Args); err == nil {
					input = data
				}
			}
			message.Content = append(message.Content, schema.ContentBlock{
				ToolCall: &schema.ToolCall{
					Name:  part.FunctionCall.Name,
					Input: input,
				},
			})
		case part.Text != "":
			text := part.Text
			message.Content = append(message.Content, schema.ContentBlock{
				Text: &text,
			})
		}
	}

	return message
}
