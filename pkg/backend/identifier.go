package backend

import (
	"net/url"
	"strings"
	"unicode"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// IdentifierKind is how a free-form bond identifier is routed
type IdentifierKind string

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	CUSIP IdentifierKind = "cusip"
	ISIN  IdentifierKind = "isin"
	Fuzzy IdentifierKind = "q"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ClassifyIdentifier routes a query: nine alphanumeric characters is a
// CUSIP, twelve characters starting with two letters is an ISIN, and
// anything else is a fuzzy text match
func ClassifyIdentifier(query string) (IdentifierKind, string) {
	query = strings.TrimSpace(query)
	upper := strings.ToUpper(query)
	switch {
	case len(upper) == 9 && isAlphanumeric(upper):
		return CUSIP, upper
	case len(upper) == 12 && isLetter(upper[0]) && isLetter(upper[1]):
		return ISIN, upper
	default:
		return Fuzzy, query
	}
}

// IdentifierQuery returns the query parameters for an identifier
func IdentifierQuery(query string) url.Values {
	kind, value := ClassifyIdentifier(query)
	return url.Values{string(kind): []string{value}}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
