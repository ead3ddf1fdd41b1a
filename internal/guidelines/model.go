package guidelines

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Guideline is one ingested passage of a clinical guideline.
type Guideline struct {
	ID        string     `json:"id" bson:"id"`
	ChunkID   string     `json:"chunk_id,omitempty" bson:"chunk_id,omitempty"`
	Title     string     `json:"title" bson:"title"`
	Org       string     `json:"org" bson:"org"`
	URL       string     `json:"url" bson:"url"`
	Published *time.Time `json:"published,omitempty" bson:"published,omitempty"`
	Text      string     `json:"text" bson:"text"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}

// Source is the citation shown under an answer.
type Source struct {
	Title     string `json:"title"`
	Org       string `json:"org"`
	Published string `json:"published"`
	URL       string `json:"url"`
}

// AnswerResult is the rendered answer plus its citations.
type AnswerResult struct {
	HTML    string   `json:"answer"`
	Sources []Source `json:"sources"`
}
