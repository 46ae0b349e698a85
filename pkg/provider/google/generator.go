package google

import (
	"context"
	"encoding/json"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	opt "github.com/debtstack-ai/debtstack/pkg/opt"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Generate sends the whole conversation to the model and returns the model's
// turn. The conversation is not modified.
func (c *Client) Generate(ctx context.Context, model string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, error) {
	if model == "" {
		model = DefaultModel
	}
	if len(conversation) == 0 {
		return nil, debtstack.ErrBadParameter.With("conversation is empty")
	}

	// Apply options
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, err
	}

	// Build request
	request, err := generateRequestFromOpts(conversation, options)
	if err != nil {
		return nil, err
	}

	// Create JSON payload
	payload, err := client.NewJSONRequest(request)
	if err != nil {
		return nil, err
	}

	// Send the request
	var response geminiGenerateResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("models", model+":generateContent")); err != nil {
		return nil, err
	}

	return processResponse(&response)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// processResponse converts a response into a message, returning an error when
// the model produced nothing usable
func processResponse(response *geminiGenerateResponse) (*schema.Message, error) {
	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return nil, debtstack.ErrForbidden.Withf("prompt blocked: %s", response.PromptFeedback.BlockReason)
	}
	message := messageFromGeminiResponse(response)
	if len(response.Candidates) == 0 || len(message.Content) > 0 {
		return message, nil
	}

	// Empty candidate, so report why
	switch reason := response.Candidates[0].FinishReason; reason {
	case geminiFinishReasonSafety, geminiFinishReasonRecitation, geminiFinishReasonBlocklist, geminiFinishReasonProhibitedContent:
		return nil, debtstack.ErrForbidden.Withf("response blocked: %s", reason)
	case geminiFinishReasonMalformedCall:
		return nil, debtstack.ErrInternalServerError.With("model produced a malformed function call")
	default:
		return message, nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// REQUEST BUILDING

// generateRequestFromOpts builds a request from the conversation and applied
// options
func generateRequestFromOpts(conversation schema.Conversation, options opt.Options) (*geminiGenerateRequest, error) {
	contents, err := geminiContentsFromConversation(conversation)
	if err != nil {
		return nil, err
	}

	request := &geminiGenerateRequest{
		Contents: contents,
	}

	// System instruction
	if systemPrompt := options.GetString(opt.SystemPromptKey); systemPrompt != "" {
		request.SystemInstruction = geminiNewTextContent("", systemPrompt)
	}

	// Generation config, omitted when nothing is configured
	if options.Has(opt.TemperatureKey) {
		v := options.GetFloat64(opt.TemperatureKey)
		request.GenerationConfig.Temperature = &v
	}
	if options.Has(opt.MaxTokensKey) {
		request.GenerationConfig.MaxOutputTokens = int(options.GetUint(opt.MaxTokensKey))
	}
	if schemaJSON := options.GetString(opt.JSONSchemaKey); schemaJSON != "" {
		var s any
		if err := json.Unmarshal([]byte(schemaJSON), &s); err != nil {
			return nil, debtstack.ErrBadParameter.Withf("invalid JSON schema: %v", err)
		}
		request.GenerationConfig.ResponseMIMEType = "application/json"
		request.GenerationConfig.ResponseJSONSchema = s
	} else if options.GetBool(jsonOutputKey) {
		request.GenerationConfig.ResponseMIMEType = "application/json"
	}

	// Tools from toolkit
	if tk, ok := options.Get(opt.ToolkitKey).(*tool.Toolkit); ok && tk != nil {
		if decls := geminiFunctionDeclsFromToolkit(tk); len(decls) > 0 {
			request.Tools = []*geminiTool{{
				FunctionDeclarations: decls,
			}}
		}
	}

	return request, nil
}

// GenerateRequest builds a generate request from options without sending it.
// Useful for testing and debugging.
func GenerateRequest(conversation schema.Conversation, opts ...opt.Opt) (any, error) {
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, err
	}
	return generateRequestFromOpts(conversation, options)
}
