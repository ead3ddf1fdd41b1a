package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSources(t *testing.T) {
	raw := []byte(`
- url: https://example.org/asthma.pdf
  title: Asthma guideline
  org: NAC
  published: "2023-05-01"
- title: no url here
- url: https://example.org/sepsis
`)
	got, err := ParseSources(raw)
	require.NoError(t, err)
	require.Equal(t, []Source{
		{URL: "https://example.org/asthma.pdf", Title: "Asthma guideline", Org: "NAC", Published: "2023-05-01"},
		{URL: "https://example.org/sepsis", Title: "https://example.org/sepsis"},
	}, got)
}

func TestParseSourcesRejectsEmpty(t *testing.T) {
	_, err := ParseSources([]byte("[]"))
	require.Error(t, err)

	_, err = ParseSources([]byte("url: [unclosed"))
	require.Error(t, err)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "sources.yml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
