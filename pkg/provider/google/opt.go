package google

import (
	"encoding/json"
	"fmt"

	// Packages
	opt "github.com/debtstack-ai/debtstack/pkg/opt"
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	jsonOutputKey = "json_output"
)

///////////////////////////////////////////////////////////////////////////////
// GENERATION OPTIONS
//
// See: https://ai.google.dev/gemini-api/docs/text-generation

// WithSystemPrompt sets the system instruction for the request.
//
// See: https://ai.google.dev/gemini-api/docs/system-instructions
func WithSystemPrompt(value string) opt.Opt {
	return opt.SetString(opt.SystemPromptKey, value)
}

// WithTemperature sets the temperature for the request (0.0 to 2.0).
func WithTemperature(value float64) opt.Opt {
	if value < 0 || value > 2 {
		return opt.Error(fmt.Errorf("temperature must be between 0.0 and 2.0"))
	}
	return opt.SetFloat64(opt.TemperatureKey, value)
}

// WithMaxTokens sets the maximum number of tokens to generate (minimum 1).
func WithMaxTokens(value uint) opt.Opt {
	if value < 1 {
		return opt.Error(fmt.Errorf("max_tokens must be at least 1"))
	}
	return opt.SetUint(opt.MaxTokensKey, value)
}

// WithJSONOutput asks the model for a JSON response. When a schema is given
// the response is constrained to it.
//
// See: https://ai.google.dev/gemini-api/docs/json-mode
func WithJSONOutput(schema *jsonschema.Schema) opt.Opt {
	if schema == nil {
		return opt.SetBool(jsonOutputKey, true)
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return opt.Error(fmt.Errorf("failed to serialize JSON schema: %w", err))
	}
	return opt.SetString(opt.JSONSchemaKey, string(data))
}
