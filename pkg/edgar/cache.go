package edgar

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	cases "golang.org/x/text/cases"
	language "golang.org/x/text/language"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Company is one row of the ticker listing
type Company struct {
	CIK    int64  `json:"cik"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// LoadFunc fetches the complete ticker table
type LoadFunc func(context.Context) (map[string]Company, error)

// TickerCache holds the ticker table for the lifetime of the process. The
// table is replaced as a whole when it is older than the TTL, and readers
// always see either the old or the new table.
type TickerCache struct {
	ttl   time.Duration
	load  LoadFunc
	now   func() time.Time
	table atomic.Pointer[tickerTable]
}

type tickerTable struct {
	fetched time.Time
	rows    map[string]Company
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewTickerCache(ttl time.Duration, load LoadFunc) *TickerCache {
	return &TickerCache{
		ttl:  ttl,
		load: load,
		now:  time.Now,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Lookup returns the company for a ticker, refreshing the table first when
// it is missing or expired
func (c *TickerCache) Lookup(ctx context.Context, ticker string) (Company, error) {
	key := normaliseTicker(ticker)
	if key == "" {
		return Company{}, debtstack.ErrBadParameter.With("ticker is required")
	}

	table, err := c.get(ctx)
	if err != nil {
		return Company{}, err
	}
	if company, exists := table.rows[key]; exists {
		return company, nil
	}
	return Company{}, debtstack.ErrNotFound.Withf("ticker %q", key)
}

// Len returns the number of cached tickers, or zero before the first load
func (c *TickerCache) Len() int {
	if table := c.table.Load(); table != nil {
		return len(table.rows)
	}
	return 0
}

// Refresh loads the table regardless of its age
func (c *TickerCache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *TickerCache) get(ctx context.Context) (*tickerTable, error) {
	if table := c.table.Load(); table != nil && c.now().Sub(table.fetched) < c.ttl {
		return table, nil
	}
	return c.refresh(ctx)
}

func (c *TickerCache) refresh(ctx context.Context) (*tickerTable, error) {
	if c.load == nil {
		return nil, debtstack.ErrInternalServerError.With("ticker cache has no loader")
	}
	rows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	table := &tickerTable{fetched: c.now(), rows: rows}
	c.table.Store(table)
	return table, nil
}

// normaliseTicker upper-cases a ticker. Share classes are written with a
// dash in the listing, so "BRK.B" matches "BRK-B". A Caser holds state, so
// one is created per call.
func normaliseTicker(ticker string) string {
	return strings.ReplaceAll(cases.Upper(language.Und).String(strings.TrimSpace(ticker)), ".", "-")
}
