/*
edgar implements a best-effort research pipeline over SEC EDGAR filings: it
resolves a ticker, finds the latest annual report, strips it to text, locates
the debt footnote and extracts the instruments with a language model.
*/
package edgar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
	archive string // www.sec.gov
	data    string // data.sec.gov
	cache   *TickerCache

	// Options for the HTTP client, applied when it is created
	clientOpts []client.ClientOpt
}

// Opt configures the client
type Opt func(*Client) error

// submissions is the filer history at data.sec.gov/submissions
type submissions struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// document is a filing body of any content type
type document struct {
	bytes.Buffer
}

var _ client.Unmarshaler = (*document)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultArchiveEndpoint = "https://www.sec.gov"
	DefaultDataEndpoint    = "https://data.sec.gov"
	DefaultTickerTTL       = 24 * time.Hour

	// Upper bound on a downloaded document
	maxDocumentSize = 64 << 20
)

var (
	// Annual report forms, in no particular order
	annualForms = map[string]bool{
		"10-K":   true,
		"10-K/A": true,
		"20-F":   true,
		"40-F":   true,
	}
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates an EDGAR client. The SEC requires a user agent which names the
// caller and a contact address.
func New(userAgent string, opts ...Opt) (*Client, error) {
	if userAgent = strings.TrimSpace(userAgent); userAgent == "" {
		return nil, debtstack.ErrBadParameter.With("user agent is required")
	}
	self := &Client{
		archive: DefaultArchiveEndpoint,
		data:    DefaultDataEndpoint,
	}
	for _, opt := range opts {
		if err := opt(self); err != nil {
			return nil, err
		}
	}

	// The SEC user agent always wins over one in the client options
	c, err := client.New(append(self.clientOpts, client.OptEndpoint(DefaultArchiveEndpoint), client.OptUserAgent(userAgent))...)
	if err != nil {
		return nil, err
	}
	self.Client = c
	self.clientOpts = nil

	// The default cache loads from this client
	if self.cache == nil {
		self.cache = NewTickerCache(DefaultTickerTTL, self.Tickers)
	}

	return self, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithEndpoints overrides the archive and data hosts
func WithEndpoints(archive, data string) Opt {
	return func(c *Client) error {
		for _, endpoint := range []string{archive, data} {
			if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
				return debtstack.ErrBadParameter.Withf("invalid endpoint %q", endpoint)
			}
		}
		c.archive = strings.TrimSuffix(archive, "/")
		c.data = strings.TrimSuffix(data, "/")
		return nil
	}
}

// WithClientOpts passes options such as a timeout or tracer to the HTTP
// client
func WithClientOpts(opts ...client.ClientOpt) Opt {
	return func(c *Client) error {
		c.clientOpts = append(c.clientOpts, opts...)
		return nil
	}
}

// WithTickerCache shares a ticker cache between clients
func WithTickerCache(cache *TickerCache) Opt {
	return func(c *Client) error {
		if cache == nil {
			return debtstack.ErrBadParameter.With("ticker cache is nil")
		}
		c.cache = cache
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Resolve returns the company registered for a ticker
func (c *Client) Resolve(ctx context.Context, ticker string) (Company, error) {
	return c.cache.Lookup(ctx, ticker)
}

// Cache returns the ticker cache used by Resolve
func (c *Client) Cache() *TickerCache {
	return c.cache
}

// Tickers downloads the bulk ticker listing, keyed by upper-case ticker
func (c *Client) Tickers(ctx context.Context) (map[string]Company, error) {
	var response map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := c.DoWithContext(ctx, nil, &response, client.OptReqEndpoint(c.archive+"/files/company_tickers.json")); err != nil {
		return nil, err
	}

	result := make(map[string]Company, len(response))
	for _, row := range response {
		ticker := normaliseTicker(row.Ticker)
		if ticker == "" {
			continue
		}
		if _, exists := result[ticker]; !exists {
			result[ticker] = Company{CIK: row.CIK, Ticker: ticker, Name: row.Title}
		}
	}
	return result, nil
}

// LatestAnnualReport returns the newest annual report in the filer's recent
// filings, or ErrNotFound
func (c *Client) LatestAnnualReport(ctx context.Context, company Company) (*schema.Filing, error) {
	var response submissions
	endpoint := fmt.Sprintf("%s/submissions/CIK%010d.json", c.data, company.CIK)
	if err := c.DoWithContext(ctx, nil, &response, client.OptReqEndpoint(endpoint)); err != nil {
		return nil, err
	}

	// Recent filings are newest first
	recent := response.Filings.Recent
	for i, form := range recent.Form {
		if !annualForms[strings.TrimSpace(form)] {
			continue
		}
		if i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			break
		}
		filing := &schema.Filing{
			CIK:             strconv.FormatInt(company.CIK, 10),
			Company:         response.Name,
			Form:            form,
			AccessionNumber: recent.AccessionNumber[i],
			PrimaryDocument: recent.PrimaryDocument[i],
		}
		if i < len(recent.FilingDate) {
			filing.FilingDate = recent.FilingDate[i]
		}
		if filing.Company == "" {
			filing.Company = company.Name
		}
		filing.URL = c.documentURL(filing)
		return filing, nil
	}

	return nil, debtstack.ErrNotFound.Withf("no annual report for CIK %d", company.CIK)
}

// Document downloads the primary document of a filing
func (c *Client) Document(ctx context.Context, filing *schema.Filing) (string, error) {
	if filing == nil || filing.URL == "" {
		return "", debtstack.ErrBadParameter.With("filing has no document")
	}
	var response document
	if err := c.DoWithContext(ctx, nil, &response, client.OptReqEndpoint(filing.URL)); err != nil {
		return "", err
	}
	return response.String(), nil
}

///////////////////////////////////////////////////////////////////////////////
// UNMARSHALER

func (d *document) Unmarshal(header http.Header, body io.Reader) error {
	d.Reset()
	_, err := d.ReadFrom(io.LimitReader(body, maxDocumentSize))
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// documentURL is the archive location of the primary document
func (c *Client) documentURL(filing *schema.Filing) string {
	accession := strings.ReplaceAll(filing.AccessionNumber, "-", "")
	return c.archive + "/Archives/edgar/data/" + filing.CIK + "/" + accession + "/" + url.PathEscape(filing.PrimaryDocument)
}
