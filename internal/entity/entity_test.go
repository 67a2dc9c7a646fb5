package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travia/internal/transport"
)

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name    string
		city    string
		message string
		min     int
		max     int
	}{
		{"exact substring", "Delhi", "cheapest train from delhi to agra", 100, 100},
		{"case folded", "AGRA", "Cheapest Train From Delhi To Agra", 100, 100},
		{"one typo", "Mumbai", "flight from mumbay to goa", 83, 83},
		{"swapped letters", "Delhi", "train from dehli to agra", 80, 80},
		{"unrelated", "Chennai", "hello there", 0, 50},
		{"message shorter than city", "Bengaluru", "bengal", 0, 70},
		{"empty message", "Delhi", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartialRatio(tt.city, tt.message)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestExtract(t *testing.T) {
	ex := NewExtractor()

	tests := []struct {
		name    string
		message string
		cities  []string
		origin  string
		dest    string
		found   bool
	}{
		{
			name:    "both exact",
			message: "cheapest train from Delhi to Agra",
			cities:  []string{"Delhi", "Agra"},
			origin:  "Delhi", dest: "Agra", found: true,
		},
		{
			name:    "equal similarity ordered by position",
			message: "to Agra from Delhi",
			cities:  []string{"Delhi", "Agra"},
			origin:  "Agra", dest: "Delhi", found: true,
		},
		{
			name:    "origin follows message order over similarity",
			message: "from mumbay to goa",
			cities:  []string{"Mumbai", "Goa"},
			origin:  "Mumbai", dest: "Goa", found: true,
		},
		{
			name:    "transposed letters",
			message: "train from dehli to agra",
			cities:  []string{"Delhi", "Agra", "Mumbai", "Bengaluru"},
			origin:  "Delhi", dest: "Agra", found: true,
		},
		{
			name:    "overlapping window is not a second city",
			message: "from delhi to agra",
			cities:  []string{"New Delhi", "Delhi", "Agra"},
			origin:  "Delhi", dest: "Agra", found: true,
		},
		{
			name:    "single city",
			message: "trains to Agra please",
			cities:  []string{"Delhi", "Agra"},
			origin:  "Agra", found: false,
		},
		{
			name:    "nothing above threshold",
			message: "hello there",
			cities:  []string{"Delhi", "Agra"},
			found:   false,
		},
		{
			name:    "no known cities",
			message: "from delhi to agra",
			found:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ex.Extract(tt.message, tt.cities)
			assert.Equal(t, tt.found, r.Found())
			assert.Equal(t, tt.origin, r.Origin)
			assert.Equal(t, tt.dest, r.Destination)
			assert.Equal(t, StrategyFuzzy, r.Strategy)
		})
	}
}

func TestCandidates_Limit(t *testing.T) {
	ex := Extractor{Threshold: 60, Limit: 1}

	cands := ex.Candidates("from delhi to agra", []string{"Delhi", "Agra"})

	require.Len(t, cands, 1)
	assert.Equal(t, "Delhi", cands[0].City)
	assert.False(t, ex.Extract("from delhi to agra", []string{"Delhi", "Agra"}).Found())
}

func TestCandidates_SortedBySimilarity(t *testing.T) {
	cands := NewExtractor().Candidates("from mumbay to goa via pune", []string{"Pune", "Mumbai", "Goa", "Surat"})

	require.Len(t, cands, 3)
	for i := 1; i < len(cands); i++ {
		assert.GreaterOrEqual(t, cands[i-1].Similarity, cands[i].Similarity)
	}
	for _, c := range cands {
		assert.Greater(t, c.Similarity, 60)
	}
}

func TestParseFromTo(t *testing.T) {
	tests := []struct {
		message string
		origin  string
		dest    string
		ok      bool
	}{
		{"Cheapest train from Delhi to Agra?", "delhi", "agra", true},
		{"Go from New Delhi to Agra Cantt", "new delhi", "agra cantt", true},
		{"from toronto to ottawa", "toronto", "ottawa", true},
		{"from delhi", "", "", false},
		{"tickets to goa from pune", "", "", false},
		{"from to agra", "", "agra", false},
		{"hello", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			r, ok := ParseFromTo(tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.origin, r.Origin)
			assert.Equal(t, tt.dest, r.Destination)
		})
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"hi", "what's", "up", "delhi"}, Words("  Hi, what's up -- Delhi!"))
	assert.Empty(t, Words("?!"))
}

func TestKnownCities(t *testing.T) {
	catalog := []transport.Option{
		{Origin: "Delhi", Destination: "Agra"},
		{Origin: "delhi", Destination: "Jaipur"},
		{Origin: "Agra", Destination: ""},
		{Origin: " Mumbai ", Destination: "Goa"},
	}

	assert.Equal(t, []string{"Delhi", "Agra", "Jaipur", "Mumbai", "Goa"}, KnownCities(catalog))
}
