package search

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
	DefaultPackChars    = 2000
)

// Chunk is one indexed slice of a source document.
type Chunk struct {
	ID        string `json:"chunk_id,omitempty"`
	File      string `json:"file"`
	Page      int    `json:"page,omitempty"`
	Title     string `json:"title,omitempty"`
	Org       string `json:"org,omitempty"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Text      string `json:"text"`
}

// WindowChunks cuts text into rune windows of size with overlap between neighbours.
func WindowChunks(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return out
}

var sentenceBreak = regexp.MustCompile(`([.!?])\s+`)

// PackSentences groups whole sentences into chunks of at most maxChars runes.
// A single sentence longer than maxChars becomes its own chunk.
func PackSentences(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultPackChars
	}
	sentences := strings.Split(sentenceBreak.ReplaceAllString(text, "$1\n"), "\n")

	var (
		out    []string
		cur    []string
		curLen int
	)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n := len([]rune(s))
		if len(cur) > 0 && curLen+n > maxChars {
			out = append(out, strings.Join(cur, " "))
			cur, curLen = nil, 0
		}
		cur = append(cur, s)
		curLen += n
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// PageChunks windows every non-empty page of file.
func PageChunks(file string, pages []string, size, overlap int) []Chunk {
	var out []Chunk
	for i, page := range pages {
		for _, text := range WindowChunks(page, size, overlap) {
			out = append(out, Chunk{File: file, Page: i + 1, Text: text})
		}
	}
	return out
}
