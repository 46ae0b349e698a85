package shape_test

import (
	"encoding/json"
	"testing"

	// Packages
	shape "github.com/debtstack-ai/debtstack/pkg/shape"
	assert "github.com/stretchr/testify/assert"
)

func bonds(n int) map[string]any {
	data := make([]any, n)
	for i := range data {
		data[i] = map[string]any{
			"cusip":    "912810RZ3",
			"raw_text": "lots of text",
			"pricing": map[string]any{
				"last_price": 98.5,
				"ytm_pct":    8.2,
				"spread_bps": 410,
				"price_date": "2025-01-02",
				"source":     "TRACE",
				"history":    []any{1, 2, 3},
			},
		}
	}
	return map[string]any{"data": data, "meta": map[string]any{"total": n}}
}

func Test_shape_001(t *testing.T) {
	// Lists at or under the cap keep their length and get no marker
	assert := assert.New(t)
	for _, n := range []int{0, 1, shape.DefaultCap} {
		result := shape.Shape(bonds(n)).(map[string]any)
		assert.Len(result["data"], n)
		assert.NotContains(result, shape.TruncatedKey)
	}
}

func Test_shape_002(t *testing.T) {
	// Lists over the cap are truncated with a marker
	assert := assert.New(t)
	result := shape.Shape(bonds(45)).(map[string]any)
	assert.Len(result["data"], shape.DefaultCap)
	assert.Equal(shape.Truncated{Shown: shape.DefaultCap, Total: 45}, result[shape.TruncatedKey])
}

func Test_shape_003(t *testing.T) {
	// Dropped fields and the collapsed pricing object
	assert := assert.New(t)
	result := shape.Shape(bonds(1)).(map[string]any)
	item := result["data"].([]any)[0].(map[string]any)
	assert.NotContains(item, "raw_text")
	assert.Equal("912810RZ3", item["cusip"])
	assert.Equal(map[string]any{
		"last_price": 98.5,
		"ytm_pct":    8.2,
		"spread_bps": 410,
		"price_date": "2025-01-02",
	}, item["pricing"])
}

func Test_shape_004(t *testing.T) {
	// The input is not mutated
	assert := assert.New(t)
	input := bonds(30)
	_ = shape.Shape(input)
	assert.Len(input["data"], 30)
	item := input["data"].([]any)[0].(map[string]any)
	assert.Contains(item, "raw_text")
}

func Test_shape_005(t *testing.T) {
	// Non-list payloads are not capped, but still slimmed
	assert := assert.New(t)
	result := shape.Shape(map[string]any{"ticker": "RIG", "html": "<p>x</p>"}).(map[string]any)
	assert.Equal(map[string]any{"ticker": "RIG"}, result)
	assert.Equal("plain", shape.Shape("plain"))
	assert.Nil(shape.Shape(nil))
}

func Test_shape_006(t *testing.T) {
	// Structs and raw JSON are converted to generic values first
	assert := assert.New(t)
	type company struct {
		Ticker   string `json:"ticker"`
		FullText string `json:"full_text"`
	}
	result := shape.Shape(struct {
		Results []company `json:"results"`
	}{Results: make([]company, 25)}).(map[string]any)
	assert.Len(result["results"], 20)
	assert.NotContains(result["results"].([]any)[0], "full_text")

	raw := json.RawMessage(`{"items":[{"embedding":[1,2]}]}`)
	result = shape.Shape(raw).(map[string]any)
	assert.Equal([]any{map[string]any{}}, result["items"])
}

func Test_shape_007(t *testing.T) {
	// Shaping never increases the item count
	assert := assert.New(t)
	s := shape.Shaper{Cap: 3, ListFields: []string{"data"}}
	for n := 0; n < 10; n++ {
		result := s.Shape(bonds(n)).(map[string]any)
		shown := len(result["data"].([]any))
		assert.LessOrEqual(shown, n)
		_, marked := result[shape.TruncatedKey]
		assert.Equal(n > 3, marked)
	}
}

func Test_shape_008(t *testing.T) {
	// Only the first list field is capped, so the marker describes it
	assert := assert.New(t)
	s := shape.Shaper{Cap: 2, ListFields: []string{"data", "results", "items"}}
	result := s.Shape(map[string]any{
		"data":    []any{1, 2, 3, 4, 5},
		"results": []any{1, 2, 3},
	}).(map[string]any)
	assert.Len(result["data"], 2)
	assert.Len(result["results"], 3)
	assert.Equal(shape.Truncated{Shown: 2, Total: 5}, result[shape.TruncatedKey])

	// A later field is used when the earlier ones are absent
	result = s.Shape(map[string]any{"items": []any{1, 2, 3}, "data": "none"}).(map[string]any)
	assert.Len(result["items"], 2)
	assert.Equal(shape.Truncated{Shown: 2, Total: 3}, result[shape.TruncatedKey])
}
