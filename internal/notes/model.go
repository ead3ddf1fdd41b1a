package notes

import "errors"

var ErrNotFound = errors.New("note not found")

// Note is a hand-authored README describing one folder of reference material.
type Note struct {
	Slug        string   `json:"slug"`
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
}
