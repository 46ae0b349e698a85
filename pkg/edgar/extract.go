package edgar

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	opt "github.com/debtstack-ai/debtstack/pkg/opt"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Generator sends a conversation to a language model
type Generator interface {
	Generate(ctx context.Context, model string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, error)
}

// Extractor turns a debt footnote into structured instruments
type Extractor struct {
	generator Generator
	model     string
	opts      []opt.Opt
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// extractionPrompt holds {company} and {footnote} placeholders. Amounts in
// the example contain percent signs, so it is not a format string.
const extractionPrompt = `You are a credit analyst. Extract every individual debt instrument from the
debt footnote of {company} below. Return only a JSON object, with no commentary, in this form:

{
  "instruments": [
    {
      "name": "8.00% Senior Notes due 2027",
      "type": "bond | term_loan | revolver | convertible | other",
      "seniority": "senior_secured | senior_unsecured | subordinated",
      "rate_type": "fixed | floating",
      "interest_rate": 8.0,
      "outstanding_cents": 75000000000,
      "maturity_date": "2027-02-01",
      "cusip": "optional"
    }
  ],
  "total_debt_cents": 75000000000
}

Amounts are the principal outstanding at the balance sheet date, converted to
integer cents. For floating rate debt, interest_rate is the spread in percent.
Dates are YYYY-MM-DD, or YYYY-12-31 when only the year is given. Omit fields
which are not disclosed.

Footnote:

{footnote}`

var (
	reFence         = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*(.*?)\\s*```\\s*$")
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewExtractor returns an extractor which uses the given model, with any
// additional generation options
func NewExtractor(generator Generator, model string, opts ...opt.Opt) *Extractor {
	return &Extractor{
		generator: generator,
		model:     model,
		opts:      opts,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Extract asks the model for the instruments in a section of a filing
func (e *Extractor) Extract(ctx context.Context, company, section string) (*schema.DebtExtraction, error) {
	if e.generator == nil {
		return nil, debtstack.ErrInternalServerError.With("no extraction model")
	}
	prompt := Prompt(company, section)
	opts := append([]opt.Opt{opt.SetFloat64(opt.TemperatureKey, 0)}, e.opts...)
	message, err := e.generator.Generate(ctx, e.model, schema.Conversation{
		schema.NewTextMessage(schema.RoleUser, prompt),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return ParseExtraction(message.Text())
}

// Prompt returns the extraction prompt for a company's debt footnote. The
// replacement is a single pass, so placeholders in the footnote stay as text.
func Prompt(company, section string) string {
	return strings.NewReplacer("{company}", company, "{footnote}", section).Replace(extractionPrompt)
}

// ParseExtraction decodes model output, tolerating a markdown code fence
// and trailing commas. Anything else which is not valid JSON is an error.
func ParseExtraction(text string) (*schema.DebtExtraction, error) {
	text = strings.TrimSpace(text)
	if match := reFence.FindStringSubmatch(text); match != nil {
		text = match[1]
	}
	text = reTrailingComma.ReplaceAllString(text, "$1")

	var result schema.DebtExtraction
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, debtstack.ErrInternalServerError.Withf("invalid extraction: %v", err)
	}
	if result.Instruments == nil {
		result.Instruments = []schema.DebtInstrument{}
	}

	// Fill in a missing total from the instruments
	if result.TotalDebtCents == 0 {
		for _, instrument := range result.Instruments {
			result.TotalDebtCents += instrument.OutstandingCents
		}
	}

	return &result, nil
}
