package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinical-backend/internal/corpus"
	"clinical-backend/internal/llm"
	"clinical-backend/internal/shared/metrics"
)

var ErrInvalidInput = errors.New("invalid input")

// SetupMessage is returned when no LLM provider key is configured.
const SetupMessage = "Backend is up. Add DEEPSEEK_API_KEY (or OPENAI_API_KEY) and redeploy."

const clinicalQASystemPrompt = "You are a structured, evidence-based clinical Q&A assistant. " +
	"Provide concise, high-yield answers following Australian clinical standards. " +
	"Sections: Overview, Assessment, Risk Stratification, Management, Monitoring, Key References. " +
	"Include a disclaimer: 'Always verify with local policies and senior review.'"

// Reply is the outcome of an assistant question.
type Reply struct {
	Provider string
	Answer   string
}

// Service answers questions with an LLM grounded on the local corpus.
type Service struct {
	Corpus *corpus.Corpus
	LLM    llm.Client
}

func NewService(c *corpus.Corpus, client llm.Client) *Service {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Service{Corpus: c, LLM: client}
}

// Provider names the configured LLM provider.
func (s *Service) Provider() string { return s.LLM.Provider() }

// Answer builds a context prompt from the corpus and asks the LLM.
// Without a provider it returns SetupMessage.
func (s *Service) Answer(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, fmt.Errorf("%w: missing question", ErrInvalidInput)
	}
	provider := s.LLM.Provider()
	if provider == llm.ProviderNone {
		metrics.Answers.WithLabelValues("assistant", "unconfigured").Inc()
		return Reply{Provider: provider, Answer: SetupMessage}, nil
	}

	prompt := s.Corpus.BuildPrompt(question)
	text, err := s.LLM.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Options{Temperature: llm.Temperature(0.2)})
	if err != nil {
		metrics.Answers.WithLabelValues("assistant", "error").Inc()
		return Reply{Provider: provider}, err
	}
	metrics.Answers.WithLabelValues("assistant", "ok").Inc()
	return Reply{Provider: provider, Answer: strings.TrimSpace(text)}, nil
}

// ClinicalQA asks for a structured answer without local context.
func (s *Service) ClinicalQA(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: missing question", ErrInvalidInput)
	}
	text, err := s.LLM.Complete(ctx, []llm.Message{
		{Role: "system", Content: clinicalQASystemPrompt},
		{Role: "user", Content: question},
	}, llm.Options{Temperature: llm.Temperature(0.3), MaxTokens: 900})
	if err != nil {
		metrics.Answers.WithLabelValues("clinical_qa", "error").Inc()
		return "", err
	}
	metrics.Answers.WithLabelValues("clinical_qa", "ok").Inc()
	return strings.TrimSpace(text), nil
}

// Reindex rebuilds the corpus and returns the file count.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	return s.Corpus.Rebuild(ctx)
}
