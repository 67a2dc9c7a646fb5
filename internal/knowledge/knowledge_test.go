package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocs() []Document {
	return []Document{
		{Title: "baggage_rules", Content: "Flights allow 15kg check-in. Liquids over 100ml are not allowed in cabin baggage."},
		{Title: "night_travel_safety", Content: "Share your live location. Prefer well-lit stations at night."},
		{Title: "train_tips", Content: "Carry a printed ticket and ID for train travel."},
		{Title: "empty", Content: ""},
	}
}

func TestRetrieve_ScoresByTokenOverlap(t *testing.T) {
	results := Retrieve("Baggage rules for flights", testDocs(), 3)

	require.NotEmpty(t, results)
	assert.Equal(t, "baggage_rules", results[0].Title)
	// baggage, rules and flights all occur in the title or body
	assert.GreaterOrEqual(t, results[0].Score, 3)
}

func TestRetrieve_Properties(t *testing.T) {
	queries := []string{
		"baggage rules for flights",
		"is night travel safe",
		"train",
		"zzz qqq",
		"a",
	}
	for _, q := range queries {
		for _, k := range []int{1, 2, 3, 10} {
			results := Retrieve(q, testDocs(), k)
			assert.LessOrEqual(t, len(results), k)
			for _, r := range results {
				assert.Positive(t, r.Score, "query %q", q)
			}
			assert.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
				return results[i].Score > results[j].Score
			}))
		}
	}
}

func TestRetrieve_NoOverlap(t *testing.T) {
	assert.Empty(t, Retrieve("xylophone", testDocs(), 3))
	assert.Empty(t, Retrieve("   ", testDocs(), 3))
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	docs := []Document{
		{Title: "a", Content: "travel"},
		{Title: "b", Content: "travel"},
		{Title: "c", Content: "travel"},
		{Title: "d", Content: "travel"},
	}

	results := Retrieve("travel", docs, 0)

	require.Len(t, results, DefaultTopK)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].Title, results[1].Title, results[2].Title})
}

func TestRetrieve_SnippetIsPrefix(t *testing.T) {
	long := strings.Repeat("liquids must be packed separately. ", 40)
	docs := []Document{{Title: "baggage_rules", Content: long}}

	results := Retrieve("liquids", docs, 1)

	require.Len(t, results, 1)
	assert.Len(t, []rune(results[0].Snippet), SnippetLength)
	assert.True(t, strings.HasPrefix(long, results[0].Snippet))
}

func TestDirSource_Documents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "baggage_rules.txt"), []byte("Liquids limited."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bus_safety.txt"), []byte("Sit near the driver."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	docs, err := DirSource{Dir: dir}.Documents(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, Document{Title: "baggage_rules", Content: "Liquids limited."}, docs[0])
	assert.Equal(t, "bus_safety", docs[1].Title)
}

func TestDirSource_MissingDir(t *testing.T) {
	docs, err := DirSource{Dir: filepath.Join(t.TempDir(), "nope")}.Documents(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}
