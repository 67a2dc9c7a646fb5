// Package transport defines the catalog record shared by the ranking,
// offer and dispatch packages, and the lenient coercion used when rows
// come from storage or seed files.
package transport

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Mode is the travel mode of an option.
type Mode string

const (
	ModeTrain  Mode = "train"
	ModeBus    Mode = "bus"
	ModeFlight Mode = "flight"
	ModeTaxi   Mode = "taxi"
	ModeBike   Mode = "bike"
)

// Modes lists every known mode in display order.
var Modes = []Mode{ModeTrain, ModeBus, ModeFlight, ModeTaxi, ModeBike}

// Fallbacks applied when a numeric field is missing or not a number.
const (
	DefaultPrice    = 0.0
	DefaultDuration = 60.0
	DefaultSeats    = 1
	DefaultRating   = 4.0
)

// ParseMode normalizes s and reports whether it names a known mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeTrain, ModeBus, ModeFlight, ModeTaxi, ModeBike:
		return true
	}
	return false
}

// Option is one offered leg of travel.
type Option struct {
	ID             string  `json:"id"`
	Mode           Mode    `json:"mode"`
	Name           string  `json:"name"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Departure      string  `json:"departure"`
	Arrival        string  `json:"arrival"`
	DurationMins   float64 `json:"duration_mins"`
	Price          float64 `json:"price"`
	SeatsAvailable int     `json:"seats_available"`
	Rating         float64 `json:"rating"`
}

// FromRecord builds an Option from a loosely typed record such as a decoded
// JSON object. Missing or non-numeric numbers fall back to the defaults; an
// absent mode falls back to mode.
func FromRecord(rec map[string]any, mode Mode) Option {
	opt := Option{
		ID:             stringOf(rec["id"]),
		Mode:           mode,
		Name:           stringOf(rec["name"]),
		Origin:         stringOf(rec["origin"]),
		Destination:    stringOf(rec["destination"]),
		Departure:      stringOf(rec["departure"]),
		Arrival:        stringOf(rec["arrival"]),
		DurationMins:   FloatOr(rec["duration_mins"], DefaultDuration),
		Price:          FloatOr(rec["price"], DefaultPrice),
		SeatsAvailable: IntOr(rec["seats_available"], DefaultSeats),
		Rating:         FloatOr(rec["rating"], DefaultRating),
	}
	if m := stringOf(rec["mode"]); m != "" {
		opt.Mode = Mode(strings.ToLower(m))
	}
	return opt
}

// FloatOr coerces v to a non-negative float, returning def when v is nil,
// not numeric, negative or not finite.
func FloatOr(v any, def float64) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return def
		}
		f = parsed
	case []byte:
		return FloatOr(string(x), def)
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return def
	}
	return f
}

// IntOr is FloatOr truncated to an int.
func IntOr(v any, def int) int {
	f := FloatOr(v, -1)
	if f < 0 {
		return def
	}
	return int(f)
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

// Filter selects catalog rows. Empty fields match everything; origin and
// destination match by case-insensitive containment.
type Filter struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Mode        Mode   `json:"mode"`
}

// Match reports whether opt satisfies the filter.
func (f Filter) Match(opt Option) bool {
	if o := strings.ToLower(strings.TrimSpace(f.Origin)); o != "" &&
		!strings.Contains(strings.ToLower(opt.Origin), o) {
		return false
	}
	if d := strings.ToLower(strings.TrimSpace(f.Destination)); d != "" &&
		!strings.Contains(strings.ToLower(opt.Destination), d) {
		return false
	}
	if m := Mode(strings.ToLower(string(f.Mode))); m != "" && Mode(strings.ToLower(string(opt.Mode))) != m {
		return false
	}
	return true
}

// Apply returns the options matching f, in input order.
func (f Filter) Apply(opts []Option) []Option {
	var out []Option
	for _, opt := range opts {
		if f.Match(opt) {
			out = append(out, opt)
		}
	}
	return out
}
