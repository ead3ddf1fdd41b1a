package guidelines

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinical-backend/internal/shared/metrics"
	"clinical-backend/internal/shared/telemetry"
)

const (
	DefaultK        = 12
	browseLimit     = 20
	minSearchLimit  = 40
	searchPerAnswer = 6
)

// IngestInput is one guideline passage to store.
type IngestInput struct {
	ChunkID   string
	Title     string
	Org       string
	URL       string
	Published string
	Text      string
}

// Service contains business logic for the guideline knowledge base.
type Service struct {
	Repo  Repo
	Now   func() time.Time
	NewID func() string
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Ingest validates and stores one guideline passage.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (Guideline, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Guideline{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	g := Guideline{
		ID:        s.newID(),
		ChunkID:   strings.TrimSpace(in.ChunkID),
		Title:     in.Title,
		Org:       in.Org,
		URL:       in.URL,
		Published: ParsePublished(in.Published),
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, g); err != nil {
		return Guideline{}, err
	}
	metrics.GuidelinesIngested.Inc()
	return g, nil
}

// Answer searches the knowledge base for question and composes an extractive answer.
func (s *Service) Answer(ctx context.Context, question string, k int) (AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerResult{}, fmt.Errorf("%w: empty question", ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultK
	}

	terms := QueryTerms(question)
	var (
		rows []Guideline
		err  error
	)
	if len(terms) == 0 {
		rows, err = s.Repo.List(ctx, browseLimit)
	} else {
		rows, err = s.Repo.Search(ctx, terms, max(minSearchLimit, k*searchPerAnswer))
	}
	if err != nil {
		metrics.Answers.WithLabelValues("guidelines", "error").Inc()
		return AnswerResult{}, fmt.Errorf("search guidelines: %w", err)
	}

	if len(rows) == 0 {
		metrics.Answers.WithLabelValues("guidelines", "no_match").Inc()
		return AnswerResult{HTML: NoMatchesHTML, Sources: []Source{}}, nil
	}

	res := Compose(rows, question)
	metrics.Answers.WithLabelValues("guidelines", "ok").Inc()
	telemetry.Debug("guidelines.answer", map[string]any{
		"terms":   len(terms),
		"rows":    len(rows),
		"sources": len(res.Sources),
	})
	return res, nil
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParsePublished parses an ISO date or date-time. Unparsable input yields nil.
func ParsePublished(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
