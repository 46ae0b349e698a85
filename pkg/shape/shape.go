/*
shape bounds the size of tool output before it is replayed to the model.
Lists under known envelope fields are capped, high-volume fields are
dropped and nested pricing objects are collapsed to a few fields.
Shaping is lossy and never mutates its input.
*/
package shape

import (
	"encoding/json"
	"slices"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Shaper holds the field lists applied to every payload, regardless of
// which tool produced it
type Shaper struct {
	Cap           int      // Maximum number of list items retained
	ListFields    []string // Envelope fields which hold the result list
	DropFields    []string // Fields removed from every item
	PricingField  string   // Nested object which is collapsed
	PricingFields []string // Fields retained in the collapsed object
}

// Truncated is attached to an envelope when its list was capped
type Truncated struct {
	Shown int `json:"shown"`
	Total int `json:"total"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultCap   = 20
	TruncatedKey = "_truncated"
)

// Default is the shaper applied to tool results
var Default = Shaper{
	Cap:        DefaultCap,
	ListFields: []string{"data", "results", "items"},
	DropFields: []string{
		"raw_text", "full_text", "html", "source_html", "embedding", "extraction_metadata",
	},
	PricingField:  "pricing",
	PricingFields: []string{"last_price", "ytm_pct", "spread_bps", "price_date"},
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Shape applies the default shaper
func Shape(v any) any {
	return Default.Shape(v)
}

// Shape returns a slimmed copy of v. Values which are not generic JSON
// (structs, typed slices) are converted through JSON first.
func (s Shaper) Shape(v any) any {
	switch v := generic(v).(type) {
	case map[string]any:
		return s.envelope(v)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = s.item(item)
		}
		return result
	default:
		return v
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// envelope shapes an object payload and caps its result list, which is the
// first of the list fields present. Other lists are copied as they are.
func (s Shaper) envelope(v map[string]any) map[string]any {
	result := s.object(v)
	for _, field := range s.ListFields {
		list, ok := result[field].([]any)
		if !ok {
			continue
		}
		total := len(list)
		if s.Cap > 0 && total > s.Cap {
			list = list[:s.Cap]
			result[TruncatedKey] = Truncated{Shown: s.Cap, Total: total}
		}
		items := make([]any, len(list))
		for i, item := range list {
			items[i] = s.item(item)
		}
		result[field] = items
		break
	}
	return result
}

func (s Shaper) item(v any) any {
	if obj, ok := v.(map[string]any); ok {
		return s.object(obj)
	}
	return v
}

// object copies v without dropped fields, collapsing the pricing object
func (s Shaper) object(v map[string]any) map[string]any {
	result := make(map[string]any, len(v))
	for key, value := range v {
		if slices.Contains(s.DropFields, key) {
			continue
		}
		if key == s.PricingField && s.PricingField != "" {
			if pricing, ok := value.(map[string]any); ok {
				value = s.pricing(pricing)
			}
		}
		result[key] = value
	}
	return result
}

func (s Shaper) pricing(v map[string]any) map[string]any {
	result := make(map[string]any, len(s.PricingFields))
	for _, key := range s.PricingFields {
		if value, exists := v[key]; exists {
			result[key] = value
		}
	}
	return result
}

// generic converts v into maps, slices and scalars
func generic(v any) any {
	switch v.(type) {
	case nil, map[string]any, []any, string, float64, bool, json.Number:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return v
	}
	return result
}
