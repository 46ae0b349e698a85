package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
	noop "go.opentelemetry.io/otel/trace/noop"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Researcher runs the filing pipeline for a ticker, and is exposed to the
// chat model as the research tool
type Researcher struct {
	client    *Client
	extractor *Extractor
	size      int
	tracer    trace.Tracer
}

// Error is a failed research step. The message is shown to the end user, so
// it reads as a sentence.
type Error struct {
	Message string
	Err     error
}

type ResearchRequest struct {
	Ticker string `json:"ticker" jsonschema:"Company ticker, for example CHTR"`
}

var _ tool.Tool = (*Researcher)(nil)
var _ tool.Deadliner = (*Researcher)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	researchCost        = 0.15
	ResearchTimeout     = 90 * time.Second
	researchDescription = "Research a company which is not in the database, by extracting its debt instruments from the latest annual report filed with the SEC. Slower than the other tools."
)

// User-facing messages for each research step
const (
	msgTickerNotFound = "Ticker %s not found in SEC EDGAR"
	msgResolve        = "Failed to resolve ticker %s"
	msgNoAnnualReport = "No annual report (10-K, 20-F or 40-F) found for %s"
	msgListFilings    = "Failed to list filings for %s"
	msgDownload       = "Failed to download %s filing for %s"
	msgTooShort       = "The %s filing for %s is too short to contain a debt footnote"
	msgExtract        = "Failed to extract debt instruments for %s"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewResearcher returns a researcher which extracts at most size characters
// of each filing. A nil tracer disables tracing.
func NewResearcher(client *Client, extractor *Extractor, size int, tracer trace.Tracer) *Researcher {
	if size <= 0 {
		size = DefaultSectionSize
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("edgar")
	}
	return &Researcher{
		client:    client,
		extractor: extractor,
		size:      size,
		tracer:    tracer,
	}
}

///////////////////////////////////////////////////////////////////////////////
// TOOL

func (*Researcher) Name() string {
	return tool.ResearchCompany
}

func (*Researcher) Description() string {
	return researchDescription
}

func (*Researcher) Cost() float64 {
	return researchCost
}

// Timeout allows for the filing download and the extraction model
func (*Researcher) Timeout() time.Duration {
	return ResearchTimeout
}

func (*Researcher) Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[ResearchRequest](nil)
}

// Run ignores the credential, since the pipeline only calls public sources
// and the extraction model
func (r *Researcher) Run(ctx context.Context, _ string, input json.RawMessage) (any, error) {
	var req ResearchRequest
	if len(input) > 0 {
		if err := json.Unmarshal(input, &req); err != nil {
			return nil, debtstack.ErrBadParameter.Withf("failed to unmarshal input: %v", err)
		}
	}
	return r.Research(ctx, req.Ticker)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Research resolves the ticker, finds and downloads the latest annual report,
// and extracts the debt instruments from its debt footnote. Each step fails
// with its own message.
func (r *Researcher) Research(ctx context.Context, ticker string) (_ *schema.ResearchResult, err error) {
	ctx, endSpan := otel.StartSpan(r.tracer, ctx, "Research",
		attribute.String("ticker", ticker),
	)
	defer func() { endSpan(err) }()

	// Resolve the ticker
	company, err := r.client.Resolve(ctx, ticker)
	if errors.Is(err, debtstack.ErrNotFound) {
		return nil, newError(nil, msgTickerNotFound, normaliseTicker(ticker))
	} else if err != nil {
		return nil, newError(err, msgResolve, normaliseTicker(ticker))
	}

	// Find the annual report
	filing, err := r.client.LatestAnnualReport(ctx, company)
	if errors.Is(err, debtstack.ErrNotFound) {
		return nil, newError(nil, msgNoAnnualReport, company.Ticker)
	} else if err != nil {
		return nil, newError(err, msgListFilings, company.Ticker)
	}

	// Download and strip
	document, err := r.client.Document(ctx, filing)
	if err != nil {
		return nil, newError(err, msgDownload, filing.Form, company.Ticker)
	}
	section := LocateDebtSection(StripHTML(document), r.size)
	if len(section.Text) < MinSectionSize {
		return nil, newError(nil, msgTooShort, filing.Form, company.Ticker)
	}

	// Extract
	extraction, err := r.extractor.Extract(ctx, filing.Company, section.Text)
	if err != nil {
		return nil, newError(err, msgExtract, company.Ticker)
	}

	return &schema.ResearchResult{
		Ticker: company.Ticker,
		Filing: *filing,
		Section: schema.DocumentSection{
			Header: section.Header,
			Offset: section.Offset,
			Length: len(section.Text),
		},
		DebtExtraction: *extraction,
	}, nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func newError(err error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Err: err}
}
