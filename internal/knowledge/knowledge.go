// Package knowledge ranks short advisory documents against a query by
// keyword overlap.
package knowledge

import (
	"sort"
	"strings"
)

// DefaultTopK is the result cap used when the caller passes zero.
const DefaultTopK = 3

// SnippetLength is the number of characters of content kept in a result.
const SnippetLength = 400

// Document is one advisory text.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ScoredDocument is a retrieval hit.
type ScoredDocument struct {
	Title   string `json:"title"`
	Score   int    `json:"score"`
	Snippet string `json:"snippet"`
}

// Retrieve scores each document by how many whitespace-separated query
// tokens occur anywhere in its title or content, ignoring case. Documents
// scoring zero are dropped; the rest are returned best first, ties in input
// order, at most topK of them.
func Retrieve(query string, docs []Document, topK int) []ScoredDocument {
	if topK <= 0 {
		topK = DefaultTopK
	}
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var scored []ScoredDocument
	for _, d := range docs {
		s := score(tokens, d)
		if s == 0 {
			continue
		}
		scored = append(scored, ScoredDocument{
			Title:   d.Title,
			Score:   s,
			Snippet: snippet(d.Content),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func score(tokens []string, d Document) int {
	text := strings.ToLower(d.Title + " " + d.Content)
	n := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			n++
		}
	}
	return n
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLength {
		return content
	}
	return string(runes[:SnippetLength])
}
