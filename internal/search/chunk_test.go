package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowChunksOverlap(t *testing.T) {
	text := strings.Repeat("a", 1200) + strings.Repeat("b", 1000)

	chunks := WindowChunks(text, 1200, 200)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0], 1200)
	require.Equal(t, strings.Repeat("a", 200)+strings.Repeat("b", 1000), chunks[1])
}

func TestWindowChunksTerminates(t *testing.T) {
	require.Nil(t, WindowChunks("   ", 10, 2))
	require.Equal(t, []string{"short"}, WindowChunks("short", 10, 2))
	require.Equal(t, []string{"abcd", "cdef", "efgh"}, WindowChunks("abcdefgh", 4, 2))
}

func TestPackSentences(t *testing.T) {
	text := "First sentence here. Second one! Third? Fourth and final."

	chunks := PackSentences(text, 30)
	require.Equal(t, []string{"First sentence here.", "Second one! Third?", "Fourth and final."}, chunks)
	require.Equal(t, []string{text}, PackSentences(text, 2000))
	require.Nil(t, PackSentences("", 10))
}

func TestPageChunksNumbersFromOne(t *testing.T) {
	chunks := PageChunks("guide.pdf", []string{"page one", "", "page three"}, 1200, 200)
	require.Len(t, chunks, 2)
	require.Equal(t, 1, chunks[0].Page)
	require.Equal(t, 3, chunks[1].Page)
	require.Equal(t, "guide.pdf", chunks[1].File)
}
