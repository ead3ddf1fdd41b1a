package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"clinical-backend/internal/shared/metrics"
)

const (
	DefaultK   = 5
	MaxK       = 20
	snippetMax = 600
)

// Result is one ranked chunk without its full text.
type Result struct {
	ChunkID   string  `json:"chunk_id,omitempty"`
	File      string  `json:"file"`
	Page      int     `json:"page,omitempty"`
	Title     string  `json:"title,omitempty"`
	Org       string  `json:"org,omitempty"`
	URL       string  `json:"url,omitempty"`
	Published string  `json:"published,omitempty"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
}

type entry struct {
	chunk Chunk
	vec   map[string]float64
}

// Index ranks chunks by cosine similarity of normalized term-frequency vectors.
type Index struct {
	mu      sync.RWMutex
	entries []entry
}

func NewIndex(chunks []Chunk) *Index {
	idx := &Index{}
	idx.Replace(chunks)
	return idx
}

// Replace swaps the indexed chunks.
func (idx *Index) Replace(chunks []Chunk) {
	entries := make([]entry, 0, len(chunks))
	for _, c := range chunks {
		entries = append(entries, entry{chunk: c, vec: vectorize(c.Text)})
	}
	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Chunks returns the indexed chunks in insertion order.
func (idx *Index) Chunks() []Chunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Chunk, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.chunk
	}
	return out
}

// ClampK bounds k to [1, MaxK].
func ClampK(k int) int {
	if k < 1 {
		return 1
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// Search returns the top k chunks for query, best first. Ties keep index order.
func (idx *Index) Search(query string, k int) []Result {
	metrics.SearchQueries.Inc()
	k = ClampK(k)
	q := vectorize(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		i     int
		score float64
	}
	ranked := make([]scored, len(idx.entries))
	for i, e := range idx.entries {
		ranked[i] = scored{i: i, score: dot(q, e.vec)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]Result, 0, len(ranked))
	for _, s := range ranked {
		c := idx.entries[s.i].chunk
		out = append(out, Result{
			ChunkID:   c.ID,
			File:      c.File,
			Page:      c.Page,
			Title:     c.Title,
			Org:       c.Org,
			URL:       c.URL,
			Published: c.Published,
			Score:     s.score,
			Snippet:   Snippet(c.Text, snippetMax),
		})
	}
	return out
}

// Snippet flattens newlines and clips to max runes with a trailing " …".
func Snippet(text string, max int) string {
	s := strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + " …"
	}
	return s
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func vectorize(text string) map[string]float64 {
	vec := map[string]float64{}
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) < 2 {
			continue
		}
		vec[tok]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for t, v := range vec {
		vec[t] = v / norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for t, v := range a {
		sum += v * b[t]
	}
	return sum
}
