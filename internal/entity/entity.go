// Package entity recovers origin and destination cities from free text.
package entity

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"

	"Travia/internal/transport"
)

// Strategy names how a route was recovered.
type Strategy string

const (
	StrategyFuzzy   Strategy = "fuzzy"
	StrategyLiteral Strategy = "literal"
)

// Route is the result of extraction. A route is only usable when both ends
// were found; anything else means the message is not route-shaped.
type Route struct {
	Origin      string
	Destination string
	Strategy    Strategy
}

// Found reports whether both ends are present.
func (r Route) Found() bool {
	return r.Origin != "" && r.Destination != ""
}

// Candidate is a known city that resembles part of the message.
type Candidate struct {
	City       string
	Similarity int
	// Position is the rune offset of the best matching window.
	Position int
	width    int
}

// Extractor fuzzy-matches known city names against a message.
type Extractor struct {
	// Threshold is the exclusive minimum similarity (0-100).
	Threshold int
	// Limit caps the number of candidates considered.
	Limit int
}

// NewExtractor returns an Extractor with the default threshold of 60 and a
// limit of five candidates.
func NewExtractor() Extractor {
	return Extractor{Threshold: 60, Limit: 5}
}

// Candidates returns the cities scoring above the threshold, best first.
// Equal scores are ordered by where they appear in the message, then by the
// order of cities. A candidate whose window overlaps a better one is dropped
// so the same words never yield two cities.
func (e Extractor) Candidates(message string, cities []string) []Candidate {
	msg := []rune(strings.ToLower(message))

	var all []Candidate
	for _, city := range cities {
		c := []rune(strings.ToLower(strings.TrimSpace(city)))
		if len(c) == 0 {
			continue
		}
		sim, pos := partialRatio(c, msg)
		if sim <= e.Threshold {
			continue
		}
		width := len(c)
		if width > len(msg) {
			width = len(msg)
		}
		all = append(all, Candidate{City: city, Similarity: sim, Position: pos, width: width})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Similarity != all[j].Similarity {
			return all[i].Similarity > all[j].Similarity
		}
		return all[i].Position < all[j].Position
	})

	var out []Candidate
	for _, cand := range all {
		if overlapsAny(cand, out) {
			continue
		}
		out = append(out, cand)
		if e.Limit > 0 && len(out) == e.Limit {
			break
		}
	}
	return out
}

// Extract keeps the two best candidates. The one mentioned first in the
// message is the origin, the other the destination.
func (e Extractor) Extract(message string, cities []string) Route {
	cands := e.Candidates(message, cities)
	r := Route{Strategy: StrategyFuzzy}
	switch {
	case len(cands) == 1:
		r.Origin = cands[0].City
	case len(cands) > 1:
		first, second := cands[0], cands[1]
		if second.Position < first.Position {
			first, second = second, first
		}
		r.Origin, r.Destination = first.City, second.City
	}
	return r
}

// PartialRatio scores how well city appears somewhere in message, 0-100.
func PartialRatio(city, message string) int {
	sim, _ := partialRatio([]rune(strings.ToLower(city)), []rune(strings.ToLower(message)))
	return sim
}

func partialRatio(city, msg []rune) (int, int) {
	if len(city) == 0 || len(msg) == 0 {
		return 0, 0
	}
	if len(msg) <= len(city) {
		return ratio(city, msg, len(city)), 0
	}

	best, bestPos := -1, 0
	for i := 0; i+len(city) <= len(msg); i++ {
		r := ratio(city, msg[i:i+len(city)], len(city))
		if r > best {
			best, bestPos = r, i
			if best == 100 {
				break
			}
		}
	}
	return best, bestPos
}

func ratio(a, b []rune, n int) int {
	// Adjacent transpositions ("dehli") cost one edit.
	d := edlib.OSADamerauLevenshteinDistance(string(a), string(b))
	if d >= n {
		return 0
	}
	return int(math.Round(100 * (1 - float64(d)/float64(n))))
}

func overlapsAny(c Candidate, kept []Candidate) bool {
	for _, k := range kept {
		if c.Position < k.Position+k.width && k.Position < c.Position+c.width {
			return true
		}
	}
	return false
}

// ParseFromTo splits "... from X to Y" on the words from and to.
func ParseFromTo(message string) (Route, bool) {
	words := Words(message)
	from := -1
	for i, w := range words {
		if w == "from" {
			from = i
			break
		}
	}
	if from < 0 {
		return Route{}, false
	}
	to := -1
	for i := from + 1; i < len(words); i++ {
		if words[i] == "to" {
			to = i
			break
		}
	}
	if to < 0 {
		return Route{}, false
	}

	r := Route{
		Origin:      strings.Join(words[from+1:to], " "),
		Destination: strings.Join(words[to+1:], " "),
		Strategy:    StrategyLiteral,
	}
	return r, r.Found()
}

// Words lower-cases s and splits it into words, trimming surrounding
// punctuation.
func Words(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// KnownCities collects the distinct origins and destinations of the catalog
// in catalog order.
func KnownCities(options []transport.Option) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(city string) {
		city = strings.TrimSpace(city)
		key := strings.ToLower(city)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, city)
	}
	for _, opt := range options {
		add(opt.Origin)
		add(opt.Destination)
	}
	return out
}
