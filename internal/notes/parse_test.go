package notes

import (
	"reflect"
	"testing"
)

func TestParseReadme(t *testing.T) {
	src := []byte(`# General Medicine

Reference notes for the general medicine rotation.
Kept short on purpose.

- Sepsis
- Heart failure
  - Acute pulmonary oedema
- Sepsis

## Sources

Trailing paragraph is not part of the description.
`)
	n := Parse("General Medicine/README.md", src)

	if n.Slug != "general-medicine" {
		t.Fatalf("unexpected slug %q", n.Slug)
	}
	if n.Path != "General Medicine/README.md" {
		t.Fatalf("unexpected path %q", n.Path)
	}
	if n.Title != "General Medicine" {
		t.Fatalf("unexpected title %q", n.Title)
	}
	if n.Description != "Reference notes for the general medicine rotation. Kept short on purpose." {
		t.Fatalf("unexpected description %q", n.Description)
	}
	want := []string{"Sepsis", "Heart failure", "Acute pulmonary oedema"}
	if !reflect.DeepEqual(n.Topics, want) {
		t.Fatalf("unexpected topics %#v", n.Topics)
	}
}

func TestParseFallsBackToFolderName(t *testing.T) {
	n := Parse("Clinical Skills/README.md", []byte(""))
	if n.Title != "Clinical Skills" || n.Slug != "clinical-skills" {
		t.Fatalf("unexpected note %+v", n)
	}
	if len(n.Topics) != 0 || n.Description != "" {
		t.Fatalf("expected empty body fields, got %+v", n)
	}
}

func TestParseRootReadme(t *testing.T) {
	n := Parse("README.md", []byte("plain *emphasis* text"))
	if n.Slug != "root" {
		t.Fatalf("unexpected slug %q", n.Slug)
	}
	if n.Description != "plain emphasis text" {
		t.Fatalf("unexpected description %q", n.Description)
	}
}
