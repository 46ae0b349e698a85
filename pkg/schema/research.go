package schema

import (
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// DebtInstrument is one borrowing extracted from an annual report. Amounts
// are in integer cents.
type DebtInstrument struct {
	Name             string   `json:"name"`
	Type             string   `json:"type,omitempty"`          // "bond", "term_loan", "revolver", ...
	Seniority        string   `json:"seniority,omitempty"`     // "senior_secured", "senior_unsecured", "subordinated"
	RateType         string   `json:"rate_type,omitempty"`     // "fixed" or "floating"
	InterestRate     *float64 `json:"interest_rate,omitempty"` // Percent for fixed, spread for floating
	OutstandingCents int64    `json:"outstanding_cents"`
	MaturityDate     string   `json:"maturity_date,omitempty"` // YYYY-MM-DD
	CUSIP            string   `json:"cusip,omitempty"`
}

// DebtExtraction is the structured output of the extraction model
type DebtExtraction struct {
	Instruments    []DebtInstrument `json:"instruments"`
	TotalDebtCents int64            `json:"total_debt_cents"`
}

// Filing identifies an annual report on EDGAR
type Filing struct {
	CIK             string `json:"cik"`
	Company         string `json:"company,omitempty"`
	Form            string `json:"form"`
	AccessionNumber string `json:"accession_number"`
	FilingDate      string `json:"filing_date,omitempty"`
	PrimaryDocument string `json:"primary_document"`
	URL             string `json:"url"`
}

// DocumentSection is the window of a filing sent for extraction
type DocumentSection struct {
	Header string `json:"header,omitempty"` // Matched header phrase, empty on fallback
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// ResearchResult is returned by the live research tool
type ResearchResult struct {
	Ticker  string          `json:"ticker"`
	Filing  Filing          `json:"filing"`
	Section DocumentSection `json:"section"`
	DebtExtraction
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r ResearchResult) String() string {
	return types.Stringify(r)
}
