// Package scoring ranks transport options by a requested priority.
package scoring

import (
	"math"
	"sort"
	"strings"

	"Travia/internal/transport"
)

// Priority is the ranking criterion.
type Priority string

const (
	PriorityPrice   Priority = "price"
	PriorityTime    Priority = "time"
	PriorityComfort Priority = "comfort"
	PriorityEco     Priority = "eco"
)

// ParsePriority normalizes s. Unknown values are kept as-is and rank by
// rating alone.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityPrice
	}
	return p
}

// Ranked is an option together with its derived score. The embedded option
// is a copy; the caller's record is never modified.
type Ranked struct {
	transport.Option
	Score float64 `json:"score"`
}

// Rank scores every option and returns them sorted by descending score.
// Ties keep input order.
func Rank(options []transport.Option, p Priority) []Ranked {
	return rank(options, p, math.Inf(1))
}

// RankWithBudget is Rank after dropping options priced above maxBudget.
func RankWithBudget(options []transport.Option, p Priority, maxBudget float64) []Ranked {
	return rank(options, p, maxBudget)
}

func rank(options []transport.Option, p Priority, maxBudget float64) []Ranked {
	out := make([]Ranked, 0, len(options))
	for _, opt := range options {
		if opt.Price > maxBudget {
			continue
		}
		out = append(out, Ranked{Option: opt, Score: round3(Score(opt, p))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Score computes the unrounded score of opt under p. Denominators always
// add one so price or duration of zero is safe.
func Score(opt transport.Option, p Priority) float64 {
	price := opt.Price
	duration := opt.DurationMins
	seats := float64(opt.SeatsAvailable)
	rating := opt.Rating

	switch p {
	case PriorityPrice:
		return 1000/(price+1) + rating*5 + seats*0.5
	case PriorityTime:
		return 2000/(duration+1) + rating*5
	case PriorityComfort:
		return rating*20 + seats*0.2
	case PriorityEco:
		return ecoFactor(opt.Mode)*1000/(price+1) + rating*3
	default:
		return rating * 10
	}
}

func ecoFactor(m transport.Mode) float64 {
	switch transport.Mode(strings.ToLower(string(m))) {
	case transport.ModeTrain, transport.ModeBus:
		return 1.5
	case transport.ModeFlight:
		return 0.7
	}
	return 1.0
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
