package opt

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt sets a value on a set of generation options
type Opt func(*Options) error

// Options holds string values keyed by name, plus opaque values which
// cannot be represented as strings (toolkits, schemas)
type Options struct {
	url.Values
	any map[string]any
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SystemPromptKey = "system"
	TemperatureKey  = "temperature"
	MaxTokensKey    = "max_tokens"
	JSONSchemaKey   = "json_schema"
	ToolkitKey      = "toolkit"
	LimitKey        = "limit"
	OffsetKey       = "offset"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Apply returns a structure of applied options
func Apply(o ...Opt) (Options, error) {
	opts := Options{Values: make(url.Values), any: make(map[string]any)}
	for _, opt := range o {
		if opt == nil {
			continue
		}
		if err := opt(&opts); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetString returns the trimmed value for key, or empty string if not set
func (o Options) GetString(key string) string {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// GetStringArray returns all values for key, each trimmed
func (o Options) GetStringArray(key string) []string {
	values, ok := o.Values[key]
	if !ok {
		return nil
	}
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = strings.TrimSpace(v)
	}
	return result
}

// GetBool returns true if key is present, false if absent
func (o Options) GetBool(key string) bool {
	_, ok := o.Values[key]
	return ok
}

// GetFloat64 returns the float64 value for key, or 0 if not set or invalid
func (o Options) GetFloat64(key string) float64 {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
			return v
		}
	}
	return 0
}

// GetUint returns the uint value for key, or 0 if not set or invalid
func (o Options) GetUint(key string) uint {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := strconv.ParseUint(strings.TrimSpace(values[0]), 10, 64); err == nil {
			return uint(v)
		}
	}
	return 0
}

// Query returns the string values for the given keys which are set
func (o Options) Query(keys ...string) url.Values {
	result := make(url.Values)
	for _, key := range keys {
		if values, ok := o.Values[key]; ok {
			result[key] = values
		}
	}
	return result
}

// Get returns an opaque value, or nil
func (o Options) Get(key string) any {
	return o.any[key]
}

// Has returns true if the key exists
func (o Options) Has(key string) bool {
	if _, ok := o.Values[key]; ok {
		return true
	}
	_, ok := o.any[key]
	return ok
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// Error returns an option that always returns an error
func Error(err error) Opt {
	return func(*Options) error {
		return err
	}
}

// NoOp returns an option which does nothing
func NoOp() Opt {
	return func(*Options) error {
		return nil
	}
}

// WithOpts combines multiple options into a single option
func WithOpts(options ...Opt) Opt {
	return func(o *Options) error {
		for _, opt := range options {
			if err := opt(o); err != nil {
				return err
			}
		}
		return nil
	}
}

// AddString appends values for a key
func AddString(key string, value ...string) Opt {
	return func(o *Options) error {
		for _, v := range value {
			o.Values.Add(key, v)
		}
		return nil
	}
}

// SetString replaces the value for a key
func SetString(key, value string) Opt {
	return func(o *Options) error {
		o.Values.Set(key, value)
		return nil
	}
}

// Del removes a key
func Del(key string) Opt {
	return func(o *Options) error {
		o.Values.Del(key)
		delete(o.any, key)
		return nil
	}
}

func SetUint(key string, value uint) Opt {
	return func(o *Options) error {
		o.Values.Set(key, fmt.Sprint(value))
		return nil
	}
}

func SetFloat64(key string, value float64) Opt {
	return func(o *Options) error {
		o.Values.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
		return nil
	}
}

// SetBool sets a flag when value is true, and removes it otherwise
func SetBool(key string, value bool) Opt {
	return func(o *Options) error {
		if value {
			o.Values.Set(key, "true")
		} else {
			o.Values.Del(key)
		}
		return nil
	}
}

// SetAny sets an opaque value
func SetAny(key string, value any) Opt {
	return func(o *Options) error {
		o.any[key] = value
		return nil
	}
}
