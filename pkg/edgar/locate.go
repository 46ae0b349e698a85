package edgar

import (
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Section is a window of filing text
type Section struct {
	Header string // Matched phrase, empty when the fallback was used
	Offset int    // Byte offset of the window in the text
	Text   string
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultSectionSize = 100_000
	MinSectionSize     = 500

	// Window starts this far before the matched phrase
	sectionLead = 200

	// Fallback start, as a percentage of the text
	fallbackPercent = 30
)

var (
	// Footnote headers, in priority order
	primaryHeaders = []string{
		"long-term debt and credit facilities",
		"debt and credit facilities",
		"debt and financing arrangements",
		"long-term debt",
		"debt obligations",
		"borrowings",
	}

	// Broader phrases, tried when no header matches
	secondaryHeaders = []string{
		"indebtedness",
		"senior notes",
		"credit agreement",
		"revolving credit facility",
		"notes payable",
		"term loan",
	}
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// LocateDebtSection returns at most size bytes of text around the first
// debt header. Without a match the window starts 30% into the text.
func LocateDebtSection(text string, size int) Section {
	if size <= 0 {
		size = DefaultSectionSize
	}

	lower := asciiLower(text)
	header, index := find(lower, primaryHeaders)
	if index < 0 {
		header, index = find(lower, secondaryHeaders)
	}

	var start int
	if index < 0 {
		header = ""
		start = len(text) * fallbackPercent / 100
	} else {
		start = max(0, index-sectionLead)
	}
	end := min(len(text), start+size)

	// Do not split a multi-byte character
	for start > 0 && start < len(text) && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && end > start && !isRuneStart(text[end]) {
		end--
	}

	return Section{
		Header: header,
		Offset: start,
		Text:   text[start:end],
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// find returns the first phrase in the list which occurs, and its index
func find(text string, phrases []string) (string, int) {
	for _, phrase := range phrases {
		if index := strings.Index(text, phrase); index >= 0 {
			return phrase, index
		}
	}
	return "", -1
}

// asciiLower lowers ASCII letters only, so offsets in the result are
// offsets in the input
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
