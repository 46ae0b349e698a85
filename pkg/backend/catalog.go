package backend

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	tool "github.com/debtstack-ai/debtstack/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type SearchCompaniesRequest struct {
	Ticker           string   `json:"ticker,omitempty" jsonschema:"Comma-separated company tickers, for example RIG,CHTR"`
	Sector           string   `json:"sector,omitempty" jsonschema:"Filter by sector"`
	MinLeverage      *float64 `json:"min_leverage,omitempty" jsonschema:"Minimum total debt to EBITDA"`
	MaxLeverage      *float64 `json:"max_leverage,omitempty" jsonschema:"Maximum total debt to EBITDA"`
	HasStructuralSub *bool    `json:"has_structural_sub,omitempty" jsonschema:"Only companies with structural subordination"`
	Sort             string   `json:"sort,omitempty" jsonschema:"Sort field, prefix with - for descending, for example -net_leverage_ratio"`
	Fields           string   `json:"fields,omitempty" jsonschema:"Comma-separated fields to return"`
	Limit            *uint    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

type SearchBondsRequest struct {
	Ticker         string   `json:"ticker,omitempty" jsonschema:"Comma-separated issuer tickers"`
	Seniority      string   `json:"seniority,omitempty" jsonschema:"senior_secured, senior_unsecured or subordinated"`
	RateType       string   `json:"rate_type,omitempty" jsonschema:"fixed or floating"`
	MinYTM         *float64 `json:"min_ytm,omitempty" jsonschema:"Minimum yield to maturity in percent"`
	MaxYTM         *float64 `json:"max_ytm,omitempty" jsonschema:"Maximum yield to maturity in percent"`
	MinSpread      *float64 `json:"min_spread,omitempty" jsonschema:"Minimum spread to treasuries in basis points"`
	MaturityBefore string   `json:"maturity_before,omitempty" jsonschema:"Latest maturity date, YYYY-MM-DD"`
	MaturityAfter  string   `json:"maturity_after,omitempty" jsonschema:"Earliest maturity date, YYYY-MM-DD"`
	HasPricing     *bool    `json:"has_pricing,omitempty" jsonschema:"Only bonds with market pricing"`
	Sort           string   `json:"sort,omitempty" jsonschema:"Sort field, prefix with - for descending"`
	Limit          *uint    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

type ResolveBondRequest struct {
	Query string `json:"query" jsonschema:"CUSIP, ISIN or a description such as 'RIG 8% 2027'"`
}

type GetBondPricingRequest struct {
	Identifier string `json:"identifier" jsonschema:"CUSIP, ISIN or a bond description"`
}

type GetGuarantorsRequest struct {
	BondID string `json:"bond_id" jsonschema:"CUSIP of the bond"`
}

type GetCorporateStructureRequest struct {
	Ticker string `json:"ticker" jsonschema:"Company ticker"`
	Depth  *uint  `json:"depth,omitempty" jsonschema:"Number of ownership levels to traverse"`
}

type SearchDocumentsRequest struct {
	Query       string `json:"query" jsonschema:"Full-text search terms"`
	Ticker      string `json:"ticker,omitempty" jsonschema:"Restrict to one company"`
	DocType     string `json:"doc_type,omitempty" jsonschema:"Filing type, for example 10-K, 8-K or indenture"`
	SectionType string `json:"section_type,omitempty" jsonschema:"Section type, for example debt_footnote or covenants"`
	Limit       *uint  `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

type GetChangesRequest struct {
	Ticker string `json:"ticker" jsonschema:"Company ticker"`
	Since  string `json:"since,omitempty" jsonschema:"Only changes after this date, YYYY-MM-DD"`
}

type SearchCovenantsRequest struct {
	Ticker       string `json:"ticker,omitempty" jsonschema:"Comma-separated company tickers"`
	CovenantType string `json:"covenant_type,omitempty" jsonschema:"financial, negative or incurrence"`
	Limit        *uint  `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

type GetFinancialsRequest struct {
	Ticker string `json:"ticker" jsonschema:"Company ticker"`
	Period string `json:"period,omitempty" jsonschema:"annual or quarterly"`
	Limit  *uint  `json:"limit,omitempty" jsonschema:"Maximum number of periods"`
}

// traverseRequest is the body of an entity graph traversal
type traverseRequest struct {
	Start struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"start"`
	Relationships []string `json:"relationships"`
	Direction     string   `json:"direction,omitempty"`
	Depth         *uint    `json:"depth,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	costSearch   = 0.05
	costTraverse = 0.10
	costChanges  = 0.10
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Tools returns one tool per backend endpoint
func (c *Client) Tools() []tool.Tool {
	return []tool.Tool{
		&endpoint[SearchCompaniesRequest]{
			client: c, name: tool.SearchCompanies, cost: costSearch,
			description: "Search companies by ticker, sector or leverage. Returns credit metrics such as leverage, interest coverage and structural subordination.",
			build:       buildSearchCompanies,
		},
		&endpoint[SearchBondsRequest]{
			client: c, name: tool.SearchBonds, cost: costSearch,
			description: "Search bonds by issuer, seniority, yield, spread or maturity. Returns coupon, maturity, amount outstanding and pricing.",
			build:       buildSearchBonds,
		},
		&endpoint[ResolveBondRequest]{
			client: c, name: tool.ResolveBond, cost: costSearch,
			description: "Resolve a CUSIP, ISIN or free-text bond description to matching bonds.",
			build:       buildResolveBond,
		},
		&endpoint[GetBondPricingRequest]{
			client: c, name: tool.GetBondPricing, cost: costSearch,
			description: "Get the latest market price, yield and spread for a bond identified by CUSIP, ISIN or description.",
			build:       buildGetBondPricing,
		},
		&endpoint[GetGuarantorsRequest]{
			client: c, name: tool.GetGuarantors, cost: costTraverse,
			description: "List the entities which guarantee a bond.",
			build:       buildGetGuarantors,
		},
		&endpoint[GetCorporateStructureRequest]{
			client: c, name: tool.GetCorporateStructure, cost: costTraverse,
			description: "Get the corporate ownership structure of a company, with the debt held at each entity.",
			build:       buildGetCorporateStructure,
		},
		&endpoint[SearchDocumentsRequest]{
			client: c, name: tool.SearchDocuments, cost: costSearch,
			description: "Full-text search across SEC filings, indentures and credit agreements.",
			build:       buildSearchDocuments,
		},
		&endpoint[GetChangesRequest]{
			client: c, name: tool.GetChanges, cost: costChanges,
			description: "List changes to a company's debt structure, such as new issues, redemptions and rating changes.",
			build:       buildGetChanges,
		},
		&endpoint[SearchCovenantsRequest]{
			client: c, name: tool.SearchCovenants, cost: costSearch,
			description: "Search covenants extracted from indentures and credit agreements.",
			build:       buildSearchCovenants,
		},
		&endpoint[GetFinancialsRequest]{
			client: c, name: tool.GetFinancials, cost: costSearch,
			description: "Get reported financial statements, such as revenue, EBITDA, cash and total debt.",
			build:       buildGetFinancials,
		},
	}
}

///////////////////////////////////////////////////////////////////////////////
// REQUEST BUILDERS

func buildSearchCompanies(req SearchCompaniesRequest) (Request, error) {
	q := url.Values{}
	addString(q, "ticker", upper(req.Ticker))
	addString(q, "sector", req.Sector)
	addFloat(q, "min_leverage", req.MinLeverage)
	addFloat(q, "max_leverage", req.MaxLeverage)
	addBool(q, "has_structural_sub", req.HasStructuralSub)
	addString(q, "sort", req.Sort)
	addString(q, "fields", req.Fields)
	addUint(q, "limit", req.Limit)
	return Request{Method: http.MethodGet, Path: []string{"v1", "companies"}, Query: q}, nil
}

func buildSearchBonds(req SearchBondsRequest) (Request, error) {
	q := url.Values{}
	addString(q, "ticker", upper(req.Ticker))
	addString(q, "seniority", req.Seniority)
	addString(q, "rate_type", req.RateType)
	addFloat(q, "min_ytm", req.MinYTM)
	addFloat(q, "max_ytm", req.MaxYTM)
	addFloat(q, "min_spread", req.MinSpread)
	addString(q, "maturity_before", req.MaturityBefore)
	addString(q, "maturity_after", req.MaturityAfter)
	addBool(q, "has_pricing", req.HasPricing)
	addString(q, "sort", req.Sort)
	addUint(q, "limit", req.Limit)
	return Request{Method: http.MethodGet, Path: []string{"v1", "bonds"}, Query: q}, nil
}

func buildResolveBond(req ResolveBondRequest) (Request, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Request{}, debtstack.ErrBadParameter.With("query is required")
	}
	return Request{Method: http.MethodGet, Path: []string{"v1", "bonds", "resolve"}, Query: IdentifierQuery(req.Query)}, nil
}

func buildGetBondPricing(req GetBondPricingRequest) (Request, error) {
	if strings.TrimSpace(req.Identifier) == "" {
		return Request{}, debtstack.ErrBadParameter.With("identifier is required")
	}
	return Request{Method: http.MethodGet, Path: []string{"v1", "pricing"}, Query: IdentifierQuery(req.Identifier)}, nil
}

func buildGetGuarantors(req GetGuarantorsRequest) (Request, error) {
	id := upper(req.BondID)
	if id == "" {
		return Request{}, debtstack.ErrBadParameter.With("bond_id is required")
	}
	var body traverseRequest
	body.Start.Type = "bond"
	body.Start.ID = id
	body.Relationships = []string{"guarantees"}
	body.Direction = "inbound"
	return Request{Method: http.MethodPost, Path: []string{"v1", "entities", "traverse"}, Body: body}, nil
}

func buildGetCorporateStructure(req GetCorporateStructureRequest) (Request, error) {
	ticker := upper(req.Ticker)
	if ticker == "" {
		return Request{}, debtstack.ErrBadParameter.With("ticker is required")
	}
	var body traverseRequest
	body.Start.Type = "company"
	body.Start.ID = ticker
	body.Relationships = []string{"subsidiaries"}
	body.Direction = "outbound"
	body.Depth = req.Depth
	return Request{Method: http.MethodPost, Path: []string{"v1", "entities", "traverse"}, Body: body}, nil
}

func buildSearchDocuments(req SearchDocumentsRequest) (Request, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Request{}, debtstack.ErrBadParameter.With("query is required")
	}
	q := url.Values{}
	addString(q, "q", req.Query)
	addString(q, "ticker", upper(req.Ticker))
	addString(q, "doc_type", req.DocType)
	addString(q, "section_type", req.SectionType)
	addUint(q, "limit", req.Limit)
	return Request{Method: http.MethodGet, Path: []string{"v1", "documents", "search"}, Query: q}, nil
}

func buildGetChanges(req GetChangesRequest) (Request, error) {
	ticker := upper(req.Ticker)
	if ticker == "" {
		return Request{}, debtstack.ErrBadParameter.With("ticker is required")
	}
	q := url.Values{}
	addString(q, "since", req.Since)
	return Request{Method: http.MethodGet, Path: []string{"v1", "companies", ticker, "changes"}, Query: q}, nil
}

func buildSearchCovenants(req SearchCovenantsRequest) (Request, error) {
	q := url.Values{}
	addString(q, "ticker", upper(req.Ticker))
	addString(q, "covenant_type", req.CovenantType)
	addUint(q, "limit", req.Limit)
	return Request{Method: http.MethodGet, Path: []string{"v1", "covenants"}, Query: q}, nil
}

func buildGetFinancials(req GetFinancialsRequest) (Request, error) {
	ticker := upper(req.Ticker)
	if ticker == "" {
		return Request{}, debtstack.ErrBadParameter.With("ticker is required")
	}
	q := url.Values{}
	addString(q, "ticker", ticker)
	addString(q, "period", req.Period)
	addUint(q, "limit", req.Limit)
	return Request{Method: http.MethodGet, Path: []string{"v1", "financials"}, Query: q}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// Absent arguments are omitted from the query

func addString(q url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		q.Set(key, value)
	}
}

func addFloat(q url.Values, key string, value *float64) {
	if value != nil {
		q.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}

func addUint(q url.Values, key string, value *uint) {
	if value != nil {
		q.Set(key, strconv.FormatUint(uint64(*value), 10))
	}
}

func addBool(q url.Values, key string, value *bool) {
	if value != nil {
		q.Set(key, strconv.FormatBool(*value))
	}
}

func upper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
