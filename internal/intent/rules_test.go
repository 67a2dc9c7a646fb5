package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Travia/internal/scoring"
	"Travia/internal/transport"
)

func TestTokens_Has(t *testing.T) {
	tests := []struct {
		text   string
		phrase string
		want   bool
	}{
		{"Hi there", "hi", true},
		{"Going to Delhi", "hi", false},
		{"any tips?", "tips", true},
		{"one tip", "tips", false},
		{"thanks!", "thank", true},
		{"is it a long weekend", "long weekend", true},
		{"a long, quiet weekend", "long weekend", false},
		{"which apps work", "app", true},
		{"where to book tickets", "where to book", true},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.phrase, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.text).has(tt.phrase))
		})
	}
}

func TestTokens_NameAfter(t *testing.T) {
	name, ok := tokenize("Hello, my name is  Asha!").nameAfter()
	assert.True(t, ok)
	assert.Equal(t, "Asha", name)

	_, ok = tokenize("what is your name").nameAfter()
	assert.False(t, ok)
}

func TestTokens_Priority(t *testing.T) {
	assert.Equal(t, scoring.PriorityPrice, tokenize("budget bus").priority())
	assert.Equal(t, scoring.PriorityTime, tokenize("quickest way").priority())
	assert.Equal(t, scoring.PriorityComfort, tokenize("luxury ride").priority())
	assert.Equal(t, scoring.PriorityEco, tokenize("a green option").priority())
	assert.Equal(t, scoring.PriorityPrice, tokenize("any option").priority())
	assert.Equal(t, scoring.PriorityPrice, tokenize("cheap but fast").priority())
}

func TestTokens_Mode(t *testing.T) {
	assert.Equal(t, transport.ModeTaxi, tokenize("book a cab").mode())
	assert.Equal(t, transport.ModeFlight, tokenize("flights to goa").mode())
	assert.Equal(t, transport.Mode(""), tokenize("any way").mode())
}

func TestBudget(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"bus under 500", 500, true},
		{"below ₹800 please", 800, true},
		{"within rs. 1200.50", 1200.5, true},
		{"cheap bus", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := budget(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteralRoute(t *testing.T) {
	r, ok := literalRoute("bus from pune to mumbai by night under 500")
	assert.True(t, ok)
	assert.Equal(t, "pune", r.Origin)
	assert.Equal(t, "mumbai", r.Destination)

	r, ok = literalRoute("from new delhi to agra cheapest")
	assert.True(t, ok)
	assert.Equal(t, "new delhi", r.Origin)
	assert.Equal(t, "agra", r.Destination)

	_, ok = literalRoute("from delhi to by train")
	assert.False(t, ok)
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "Baggage Rules", DocumentTitle("baggage_rules"))
	assert.Equal(t, "Night Train Safety", DocumentTitle("night_train_safety"))
}
