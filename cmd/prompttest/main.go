package main

// Try an assistant prompt against the configured LLM:
//   go run ./cmd/prompttest -question "croup management" -data ./clinical_data
//   go run ./cmd/prompttest -question "chest pain" -mode clinical-qa

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"clinical-backend/internal/assistant"
	"clinical-backend/internal/corpus"
	"clinical-backend/internal/llm"
	openai "clinical-backend/internal/llm/openai"
	"clinical-backend/internal/shared/config"
	localstore "clinical-backend/internal/shared/storage/object/local"
)

type output struct {
	Mode     string `json:"mode"`
	Provider string `json:"provider"`
	Files    int    `json:"files_indexed"`
	Prompt   string `json:"prompt,omitempty"`
	Answer   string `json:"answer"`
}

func main() {
	cfg := config.Load()

	question := flag.String("question", "", "Question to ask")
	dataDir := flag.String("data", cfg.LocalStoreDir, "Corpus directory")
	mode := flag.String("mode", "answer", "answer or clinical-qa")
	showPrompt := flag.Bool("show-prompt", false, "Include the rendered prompt in the output")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	provider := flag.String("provider", "", "Force a provider: deepseek or openai")
	flag.Parse()

	if strings.TrimSpace(*question) == "" {
		exitErr("question is required")
	}

	client, err := buildClient(cfg, *provider)
	if err != nil {
		exitErr(err.Error())
	}

	ctx := context.Background()
	c := corpus.New(localstore.New(*dataDir), "")
	svc := assistant.NewService(c, client)
	n, err := svc.Reindex(ctx)
	if err != nil {
		exitErr(fmt.Sprintf("index corpus: %v", err))
	}

	out := output{Mode: *mode, Provider: client.Provider(), Files: n}
	switch *mode {
	case "answer":
		if *showPrompt {
			out.Prompt = c.BuildPrompt(*question)
		}
		reply, err := svc.Answer(ctx, *question)
		if err != nil {
			exitErr(fmt.Sprintf("llm answer: %v", err))
		}
		out.Answer = reply.Answer
	case "clinical-qa":
		out.Answer, err = svc.ClinicalQA(ctx, *question)
		if err != nil {
			exitErr(fmt.Sprintf("llm clinical-qa: %v", err))
		}
	default:
		exitErr(fmt.Sprintf("unsupported mode: %s", *mode))
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func buildClient(cfg config.Config, provider string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "":
		return openai.FromKeys(cfg.DeepSeekAPIKey, cfg.OpenAIAPIKey, cfg.LLMTimeout), nil
	case llm.ProviderDeepSeek:
		return openai.NewClient(openai.Config{Provider: llm.ProviderDeepSeek, BaseURL: openai.DeepSeekBaseURL, APIKey: cfg.DeepSeekAPIKey, Model: openai.DeepSeekModel, Timeout: cfg.LLMTimeout})
	case llm.ProviderOpenAI:
		return openai.NewClient(openai.Config{Provider: llm.ProviderOpenAI, BaseURL: openai.OpenAIBaseURL, APIKey: cfg.OpenAIAPIKey, Model: openai.OpenAIModel, Timeout: cfg.LLMTimeout})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
