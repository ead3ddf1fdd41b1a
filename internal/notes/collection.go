package notes

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"clinical-backend/internal/shared/telemetry"
)

// LoadDir parses every README.md under root. Hidden and underscore-prefixed
// directories are skipped. Notes are returned sorted by slug.
func LoadDir(ctx context.Context, fsys fs.FS, root string) ([]Note, error) {
	var out []Note
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(name, "README.md") {
			return nil
		}
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rel := p
		if root != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		}
		out = append(out, Parse(path.Clean(rel), src))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Collection is a read-only, reloadable set of notes.
type Collection struct {
	fsys fs.FS
	root string

	mu     sync.RWMutex
	notes  []Note
	bySlug map[string]Note
}

func NewCollection(fsys fs.FS, root string) *Collection {
	if root == "" {
		root = "."
	}
	return &Collection{fsys: fsys, root: root, bySlug: map[string]Note{}}
}

// Reload rereads the notes from disk and swaps them in.
func (c *Collection) Reload(ctx context.Context) error {
	loaded, err := LoadDir(ctx, c.fsys, c.root)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	idx := make(map[string]Note, len(loaded))
	kept := make([]Note, 0, len(loaded))
	for _, n := range loaded {
		if _, dup := idx[n.Slug]; dup {
			telemetry.Warn("notes.duplicate_slug", map[string]any{"slug": n.Slug, "path": n.Path})
			continue
		}
		idx[n.Slug] = n
		kept = append(kept, n)
	}
	c.mu.Lock()
	c.notes = kept
	c.bySlug = idx
	c.mu.Unlock()
	telemetry.Info("notes.loaded", map[string]any{"count": len(kept)})
	return nil
}

func (c *Collection) List() []Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Note, len(c.notes))
	copy(out, c.notes)
	return out
}

func (c *Collection) Get(slug string) (Note, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.bySlug[strings.ToLower(slug)]
	if !ok {
		return Note{}, ErrNotFound
	}
	return n, nil
}
