package corpus

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"clinical-backend/internal/extract"
	"clinical-backend/internal/shared/metrics"
	"clinical-backend/internal/shared/storage/object"
	"clinical-backend/internal/shared/telemetry"
	"clinical-backend/internal/shared/util"
)

const (
	maxContextFiles = 6
	maxContextChars = 4000
	maxQueryWords   = 5
	maxZipDepth     = 3
	maxZipEntry     = 50 << 20 // 50MB
	extractWorkers  = 4

	contextSeparator = "\n\n---\n\n"
	noContext        = "(no local context matched)"
)

// Document is one indexed file and its text.
type Document struct {
	Path string
	Text string
}

// Corpus holds the text of every supported file under a store prefix.
type Corpus struct {
	store  object.ObjectStore
	prefix string

	mu   sync.RWMutex
	docs []Document
}

func New(store object.ObjectStore, prefix string) *Corpus {
	return &Corpus{store: store, prefix: prefix}
}

// Len returns the number of indexed files.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Documents returns a copy of the indexed files sorted by path.
func (c *Corpus) Documents() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Rebuild rescans the store and atomically replaces the corpus.
// Files that fail to extract are logged and skipped.
func (c *Corpus) Rebuild(ctx context.Context) (int, error) {
	items, err := c.store.List(ctx, c.prefix)
	if err != nil {
		return 0, fmt.Errorf("list corpus: %w", err)
	}

	var (
		mu   sync.Mutex
		docs []Document
	)
	add := func(found []Document) {
		mu.Lock()
		docs = append(docs, found...)
		mu.Unlock()
	}

	caches := make(map[string]object.ObjectInfo)
	for _, item := range items {
		if strings.HasSuffix(item.Key, extract.CacheSuffix) {
			caches[item.Key] = item
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for _, item := range items {
		item := item
		key := item.Key
		if !extract.Supported(key) {
			continue
		}
		var cache *object.ObjectInfo
		if info, ok := caches[key+extract.CacheSuffix]; ok {
			cache = &info
		}
		g.Go(func() error {
			found, err := c.load(gctx, item, cache)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				telemetry.Warn("corpus.file_skipped", map[string]any{"key": key, "error": err})
				return nil
			}
			add(found)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	c.mu.Lock()
	c.docs = docs
	c.mu.Unlock()

	metrics.CorpusFiles.Set(float64(len(docs)))
	telemetry.Info("corpus.rebuilt", map[string]any{"files": len(docs), "prefix": c.prefix})
	return len(docs), nil
}

func (c *Corpus) load(ctx context.Context, item object.ObjectInfo, cache *object.ObjectInfo) ([]Document, error) {
	key := item.Key
	if extract.KindOf(key, nil) != extract.KindZip {
		text, err := extract.FromStore(ctx, c.store, item, cache)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []Document{{Path: key, Text: text}}, nil
	}

	body, err := c.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return fromZip(ctx, key, raw, 1)
}

// fromZip extracts every supported entry of an archive, recursing into nested archives.
func fromZip(ctx context.Context, name string, raw []byte, depth int) ([]Document, error) {
	if depth > maxZipDepth {
		return nil, fmt.Errorf("zip %s nested too deeply", name)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", name, err)
	}

	var out []Document
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := strings.ReplaceAll(f.Name, "\\", "/")
		if f.FileInfo().IsDir() || !extract.Supported(entry) || strings.HasPrefix(path.Base(entry), "._") {
			continue
		}
		if f.UncompressedSize64 > maxZipEntry {
			telemetry.Warn("corpus.zip_entry_too_large", map[string]any{"zip": name, "entry": entry})
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			telemetry.Warn("corpus.zip_entry_skipped", map[string]any{"zip": name, "entry": entry, "error": err})
			continue
		}
		fullName := name + "/" + entry

		if extract.KindOf(entry, data) == extract.KindZip {
			nested, err := fromZip(ctx, fullName, data, depth+1)
			if err != nil {
				telemetry.Warn("corpus.zip_entry_skipped", map[string]any{"zip": name, "entry": entry, "error": err})
				continue
			}
			out = append(out, nested...)
			continue
		}

		text, err := extract.FromBytes(ctx, data, entry)
		if err != nil {
			telemetry.Warn("corpus.zip_entry_skipped", map[string]any{"zip": name, "entry": entry, "error": err})
			continue
		}
		if strings.TrimSpace(text) != "" {
			out = append(out, Document{Path: fullName, Text: text})
		}
	}
	return out, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxZipEntry+1))
}

// Context selects up to six files containing any of the first five question words.
func (c *Corpus) Context(question string) string {
	words := strings.Fields(strings.ToLower(question))
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var parts []string
	for _, d := range c.docs {
		lower := strings.ToLower(d.Text)
		for _, w := range words {
			if strings.Contains(lower, w) {
				parts = append(parts, "[["+d.Path+"]]\n"+util.Clip(d.Text, maxContextChars))
				break
			}
		}
		if len(parts) >= maxContextFiles {
			break
		}
	}
	if len(parts) == 0 {
		return noContext
	}
	return strings.Join(parts, contextSeparator)
}

// BuildPrompt renders the assistant prompt for question with local context.
func (c *Corpus) BuildPrompt(question string) string {
	return fmt.Sprintf(promptTemplate, c.Context(question), question)
}

const promptTemplate = `You are a concise clinical assistant for an Australian ED doctor.

Use the CONTEXT if relevant, otherwise answer from general knowledge.
Keep the answer ~180 words with sections:
1) What it is & criteria
2) Common causes & complications
3) Immediate management (doses in adult units)
4) Ongoing care / monitoring

CONTEXT:
%s

QUESTION: %s
`
