package corpus

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"clinical-backend/internal/shared/storage/object/local"
)

func zipOf(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func seed(t *testing.T, files map[string][]byte) *local.Store {
	t.Helper()
	store := local.New(t.TempDir())
	for key, body := range files {
		_, err := store.SaveWithKey(context.Background(), key, "", bytes.NewReader(body))
		require.NoError(t, err)
	}
	return store
}

func TestRebuildCollectsSupportedFiles(t *testing.T) {
	inner := zipOf(t, map[string][]byte{"deep/croup.txt": []byte("Dexamethasone 0.15 mg/kg for croup")})
	archive := zipOf(t, map[string][]byte{
		"asthma.md":       []byte("# Asthma\nSalbutamol via spacer"),
		"image.png":       {0x89, 0x50},
		"nested.zip":      inner,
		"__MACOSX/._a.md": []byte("junk"),
	})
	store := seed(t, map[string][]byte{
		"sepsis.md":   []byte("Sepsis bundle within one hour"),
		"blank.txt":   []byte("   \n"),
		"notes.pdf":   []byte("not really a pdf"),
		"bundle.zip":  archive,
		"ignored.csv": []byte("a,b"),
	})

	c := New(store, "")
	n, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, c.Len())

	var paths []string
	for _, d := range c.Documents() {
		paths = append(paths, d.Path)
	}
	require.Equal(t, []string{
		"bundle.zip/asthma.md",
		"bundle.zip/nested.zip/deep/croup.txt",
		"sepsis.md",
	}, paths)
}

func TestRebuildReplacesCorpus(t *testing.T) {
	store := seed(t, map[string][]byte{"a.md": []byte("first file text")})
	c := New(store, "")
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	_, err = store.SaveWithKey(context.Background(), "b.md", "", strings.NewReader("second file text"))
	require.NoError(t, err)
	n, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func docx(t *testing.T, text string) []byte {
	t.Helper()
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		text + `</w:t></w:r></w:p></w:body></w:document>`
	return zipOf(t, map[string][]byte{"word/document.xml": []byte(body)})
}

func TestRebuildReextractsEditedDocument(t *testing.T) {
	ctx := context.Background()
	store := seed(t, map[string][]byte{"sepsis.docx": docx(t, "old guidance for sepsis")})
	c := New(store, "")
	_, err := c.Rebuild(ctx)
	require.NoError(t, err)
	require.Contains(t, c.Documents()[0].Text, "old guidance")

	_, err = store.SaveWithKey(ctx, "sepsis.docx", "", bytes.NewReader(docx(t, "new guidance for sepsis")))
	require.NoError(t, err)
	n, err := c.Rebuild(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Contains(t, c.Documents()[0].Text, "new guidance")
	require.NotContains(t, c.Documents()[0].Text, "old guidance")
}

type readOnlyStore struct {
	*local.Store
}

func (readOnlyStore) SaveWithKey(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, errors.New("AccessDenied")
}

func TestRebuildKeepsDocumentsWhenCacheIsReadOnly(t *testing.T) {
	store := seed(t, map[string][]byte{
		"a.docx": docx(t, "anaphylaxis adrenaline"),
		"b.md":   []byte("croup dexamethasone"),
	})
	c := New(readOnlyStore{store}, "")
	n, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "a.docx", c.Documents()[0].Path)
}

func TestContextSelectsMatchingFiles(t *testing.T) {
	files := map[string][]byte{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		files[name+".md"] = []byte("Hyperkalaemia notes " + name)
	}
	files["z.md"] = []byte("unrelated")
	c := New(seed(t, files), "")
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	ctx := c.Context("HYPERKALAEMIA treatment")
	require.Equal(t, 6, strings.Count(ctx, "[["))
	require.True(t, strings.HasPrefix(ctx, "[[a.md]]\nHyperkalaemia notes a"))
	require.Contains(t, ctx, "\n\n---\n\n[[b.md]]")
	require.NotContains(t, ctx, "z.md")
}

func TestContextClipsAndFallsBack(t *testing.T) {
	c := New(seed(t, map[string][]byte{"long.md": []byte("sepsis " + strings.Repeat("x", 5000))}), "")
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	ctx := c.Context("sepsis")
	require.Equal(t, len("[[long.md]]\n")+4000, len(ctx))

	require.Equal(t, "(no local context matched)", c.Context("warfarin reversal"))
	require.Equal(t, "(no local context matched)", c.Context("   "))
}

func TestContextUsesFirstFiveWords(t *testing.T) {
	c := New(seed(t, map[string][]byte{"a.md": []byte("only mentions sixth")}), "")
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, "(no local context matched)", c.Context("one two three four five sixth"))
}

func TestBuildPrompt(t *testing.T) {
	c := New(seed(t, nil), "")
	p := c.BuildPrompt("What is DKA?")
	require.True(t, strings.HasPrefix(p, "You are a concise clinical assistant for an Australian ED doctor."))
	require.Contains(t, p, "CONTEXT:\n(no local context matched)\n\nQUESTION: What is DKA?\n")
}
