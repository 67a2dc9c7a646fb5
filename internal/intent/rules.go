package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"Travia/internal/entity"
	"Travia/internal/scoring"
	"Travia/internal/transport"
)

// Intent names the rule that handled a message.
type Intent string

const (
	IntentEmpty     Intent = "empty"
	IntentGreeting  Intent = "greeting"
	IntentName      Intent = "name"
	IntentIdentity  Intent = "identity"
	IntentBooking   Intent = "booking"
	IntentRush      Intent = "rush"
	IntentPlatforms Intent = "platforms"
	IntentPrepare   Intent = "prepare"
	IntentRoute     Intent = "route"
	IntentCheapest  Intent = "cheapest"
	IntentKnowledge Intent = "knowledge"
	IntentThanks    Intent = "thanks"
	IntentFallback  Intent = "fallback"
)

var (
	greetingWords    = []string{"hi", "hello", "hey", "good morning", "good evening", "namaste"}
	affirmationWords = []string{"yes", "book", "confirm", "go ahead", "ok", "okay", "sure"}
	rushWords        = []string{"holiday", "crowd", "festival", "rush", "peak", "long weekend"}
	platformWords    = []string{"where to book", "website", "app", "online booking"}
	prepareWords     = []string{"prepare", "packing", "checklist", "travel tips"}
	cheapestWords    = []string{"cheapest", "lowest price", "low budget"}
	knowledgeWords   = []string{"safety", "safe", "baggage", "luggage", "rules", "tips", "guidelines"}
	thanksWords      = []string{"thank"}
)

// Checked in order; the first group with a hit decides.
var priorityWords = []struct {
	priority scoring.Priority
	words    []string
}{
	{scoring.PriorityPrice, []string{"cheap", "cheapest", "cheaper", "low", "lowest", "budget"}},
	{scoring.PriorityTime, []string{"fast", "fastest", "quick", "quickest", "shortest"}},
	{scoring.PriorityComfort, []string{"comfortable", "comfort", "luxury"}},
	{scoring.PriorityEco, []string{"eco", "green", "sustainable"}},
}

var modeWords = map[string]transport.Mode{
	"train":     transport.ModeTrain,
	"trains":    transport.ModeTrain,
	"rail":      transport.ModeTrain,
	"bus":       transport.ModeBus,
	"buses":     transport.ModeBus,
	"flight":    transport.ModeFlight,
	"flights":   transport.ModeFlight,
	"fly":       transport.ModeFlight,
	"plane":     transport.ModeFlight,
	"taxi":      transport.ModeTaxi,
	"taxis":     transport.ModeTaxi,
	"cab":       transport.ModeTaxi,
	"cabs":      transport.ModeTaxi,
	"bike":      transport.ModeBike,
	"bikes":     transport.ModeBike,
	"motorbike": transport.ModeBike,
}

// Words that end a literal city name, as in "to agra by train".
var qualifierWords = map[string]bool{
	"by": true, "on": true, "via": true, "under": true, "below": true, "within": true,
	"for": true, "with": true, "please": true, "today": true, "tomorrow": true, "tonight": true,
}

var budgetPattern = regexp.MustCompile(`\b(?:under|below|within|less than|up to|upto|max)\s*(?:rs\.?|inr|₹)?\s*([0-9]+(?:\.[0-9]+)?)`)

// tokens is a message split on whitespace: words keeps the original text,
// norm the case-folded form with surrounding punctuation trimmed.
type tokens struct {
	words []string
	norm  []string
}

func tokenize(text string) tokens {
	words := strings.Fields(text)
	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = trimPunct(strings.ToLower(w))
	}
	return tokens{words: words, norm: norm}
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// index returns where phrase starts as whole words, or -1. The last word of
// the phrase may carry a plural "s".
func (t tokens) index(phrase string) int {
	parts := strings.Fields(phrase)
	n := len(parts)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(t.norm); i++ {
		matched := true
		for j, p := range parts {
			w := t.norm[i+j]
			if w == p || (j == n-1 && w == p+"s") {
				continue
			}
			matched = false
			break
		}
		if matched {
			return i
		}
	}
	return -1
}

func (t tokens) has(phrase string) bool {
	return t.index(phrase) >= 0
}

func (t tokens) hasAny(phrases []string) bool {
	for _, p := range phrases {
		if t.has(p) {
			return true
		}
	}
	return false
}

// nameAfter returns the first word after "my name is", punctuation trimmed.
func (t tokens) nameAfter() (string, bool) {
	i := t.index("my name is")
	if i < 0 {
		return "", false
	}
	for _, w := range t.words[i+3:] {
		if name := trimPunct(w); name != "" {
			return name, true
		}
	}
	return "", true
}

func (t tokens) priority() scoring.Priority {
	for _, group := range priorityWords {
		if t.hasAny(group.words) {
			return group.priority
		}
	}
	return scoring.PriorityPrice
}

func (t tokens) mode() transport.Mode {
	for _, w := range t.norm {
		if m, ok := modeWords[w]; ok {
			return m
		}
	}
	return ""
}

// budget parses phrases like "under 500" or "below ₹800".
func budget(lower string) (float64, bool) {
	m := budgetPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// literalRoute applies the from/to split and cuts each side at the first
// qualifier, mode or priority word.
func literalRoute(lower string) (entity.Route, bool) {
	r, ok := entity.ParseFromTo(budgetPattern.ReplaceAllString(lower, ""))
	if !ok {
		return entity.Route{}, false
	}
	r.Origin = cutQualifiers(r.Origin)
	r.Destination = cutQualifiers(r.Destination)
	return r, r.Found()
}

func cutQualifiers(place string) string {
	words := strings.Fields(place)
	for i, w := range words {
		if qualifierWords[w] || isModeWord(w) || isPriorityWord(w) {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func isModeWord(w string) bool {
	_, ok := modeWords[w]
	return ok
}

func isPriorityWord(w string) bool {
	for _, group := range priorityWords {
		for _, p := range group.words {
			if w == p {
				return true
			}
		}
	}
	return false
}
