package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"clinical-backend/internal/shared/storage/object"
	"clinical-backend/internal/shared/storage/object/local"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Anaphylaxis</w:t></w:r></w:p><w:p><w:r><w:t>Adrenaline 0.5 mg IM</w:t></w:r></w:p></w:body>
</w:document>`

func TestFromBytesDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	text, err := FromBytes(context.Background(), data, "anaphylaxis.docx")
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if text != "Anaphylaxis\nAdrenaline 0.5 mg IM" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestKindOfSniffsDocxInZip(t *testing.T) {
	docx := buildZip(t, map[string]string{"word/document.xml": documentXML})
	if got := KindOf("upload.zip", docx); got != KindDOCX {
		t.Fatalf("expected docx kind, got %q", got)
	}
	archive := buildZip(t, map[string]string{"notes.txt": "hello"})
	if got := KindOf("bundle.zip", archive); got != KindZip {
		t.Fatalf("expected zip kind, got %q", got)
	}
	if got := KindOf("image.png", nil); got != "" {
		t.Fatalf("expected unsupported, got %q", got)
	}
}

func TestFromBytesRejectsZipArchive(t *testing.T) {
	archive := buildZip(t, map[string]string{"notes.txt": "hello"})
	_, err := FromBytes(context.Background(), archive, "notes.zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecodeTextFallsBackToWindows1252(t *testing.T) {
	// 0x96 is an en dash and 0xB5 is micro in Windows-1252.
	raw := []byte{'5', 0x96, '1', '0', ' ', 0xB5, 'g'}
	if got := DecodeText(raw); got != "5–10 µg" {
		t.Fatalf("unexpected decode %q", got)
	}
	if got := DecodeText([]byte("plain ✓")); got != "plain ✓" {
		t.Fatalf("utf-8 should pass through, got %q", got)
	}
}

func TestSupportedSkipsCacheFiles(t *testing.T) {
	if !Supported("a/b.pdf") {
		t.Fatalf("pdf should be supported")
	}
	if Supported("a/b.pdf" + CacheSuffix) {
		t.Fatalf("cache files should be skipped")
	}
}

type readOnlyStore struct {
	*local.Store
}

func (readOnlyStore) SaveWithKey(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, errors.New("AccessDenied")
}

func seedDOCX(t *testing.T, store object.ObjectStore, key, text string) object.ObjectInfo {
	t.Helper()
	xml := strings.Replace(documentXML, "Adrenaline 0.5 mg IM", text, 1)
	data := buildZip(t, map[string]string{"word/document.xml": xml})
	if _, err := store.SaveWithKey(context.Background(), key, "", bytes.NewReader(data)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return object.ObjectInfo{Key: key, Size: int64(len(data)), ModTime: time.Now()}
}

func TestFromStoreWritesCache(t *testing.T) {
	ctx := context.Background()
	store := local.New(t.TempDir())
	src := seedDOCX(t, store, "sepsis.docx", "Antibiotics within one hour")

	text, err := FromStore(ctx, store, src, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "Antibiotics within one hour") {
		t.Fatalf("unexpected text %q", text)
	}
	rc, err := store.Open(ctx, "sepsis.docx"+CacheSuffix)
	if err != nil {
		t.Fatalf("expected cache file: %v", err)
	}
	cached, _ := io.ReadAll(rc)
	rc.Close()
	if string(cached) != text {
		t.Fatalf("cache mismatch: %q vs %q", cached, text)
	}
}

func TestFromStoreUsesOnlyFreshCache(t *testing.T) {
	ctx := context.Background()
	store := local.New(t.TempDir())
	src := seedDOCX(t, store, "sepsis.docx", "Antibiotics within one hour")
	if _, err := store.SaveWithKey(ctx, "sepsis.docx"+CacheSuffix, "", strings.NewReader("from cache")); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	fresh := &object.ObjectInfo{Key: "sepsis.docx" + CacheSuffix, ModTime: src.ModTime.Add(time.Minute)}
	got, err := FromStore(ctx, store, src, fresh)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "from cache" {
		t.Fatalf("expected cached text, got %q", got)
	}

	stale := &object.ObjectInfo{Key: "sepsis.docx" + CacheSuffix, ModTime: src.ModTime.Add(-time.Minute)}
	got, err = FromStore(ctx, store, src, stale)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(got, "Antibiotics within one hour") {
		t.Fatalf("stale cache should be re-extracted, got %q", got)
	}
}

func TestFromStoreIgnoresCacheWriteFailure(t *testing.T) {
	store := readOnlyStore{local.New(t.TempDir())}
	src := seedDOCX(t, store.Store, "sepsis.docx", "Antibiotics within one hour")

	text, err := FromStore(context.Background(), store, src, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "Antibiotics within one hour") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestCacheFresh(t *testing.T) {
	now := time.Now()
	src := object.ObjectInfo{Key: "a.pdf", ModTime: now}
	if CacheFresh(src, nil) {
		t.Fatalf("missing cache is not fresh")
	}
	if CacheFresh(src, &object.ObjectInfo{ModTime: now}) {
		t.Fatalf("cache written at the same instant is not fresh")
	}
	if !CacheFresh(src, &object.ObjectInfo{ModTime: now.Add(time.Second)}) {
		t.Fatalf("newer cache should be fresh")
	}
}
