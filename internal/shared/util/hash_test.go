package util

import (
	"strings"
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	got := SHA256Hex("guideline")
	if got != SHA256Hex("guideline") {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestChunkID(t *testing.T) {
	id := ChunkID("Sepsis Guideline", 3)
	prefix, idx, ok := strings.Cut(id, ":")
	if !ok {
		t.Fatalf("expected colon in %q", id)
	}
	if len(prefix) != 8 {
		t.Fatalf("expected 8 character prefix, got %q", prefix)
	}
	if idx != "3" {
		t.Fatalf("expected index 3, got %q", idx)
	}
	if ChunkID("Sepsis Guideline", 4)[:8] != prefix {
		t.Fatalf("expected shared prefix across chunks")
	}
}

func TestClip(t *testing.T) {
	if got := Clip("héllo", 2); got != "hé" {
		t.Fatalf("Clip = %q", got)
	}
	if got := Clip("abc", 10); got != "abc" {
		t.Fatalf("Clip = %q", got)
	}
	if got := Clip("abc", 0); got != "" {
		t.Fatalf("Clip = %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	got, err := SanitizeFileName(" notes/sepsis.md ")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "notes_sepsis.md" {
		t.Fatalf("unexpected name %q", got)
	}
}
