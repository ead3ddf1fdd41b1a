package indexer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is one entry of sources.yml.
type Source struct {
	URL       string `yaml:"url"`
	Title     string `yaml:"title"`
	Org       string `yaml:"org"`
	Published string `yaml:"published"`
}

// LoadSources reads a YAML list of sources. Entries without a url are dropped
// and a missing title defaults to the url.
func LoadSources(path string) ([]Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return ParseSources(raw)
}

func ParseSources(raw []byte) ([]Source, error) {
	var list []Source
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	out := make([]Source, 0, len(list))
	for _, s := range list {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		if strings.TrimSpace(s.Title) == "" {
			s.Title = s.URL
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sources defined")
	}
	return out, nil
}
