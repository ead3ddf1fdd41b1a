package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"clinical-backend/internal/extract"
	"clinical-backend/internal/guidelines"
	"clinical-backend/internal/search"
	"clinical-backend/internal/shared/storage/object"
	"clinical-backend/internal/shared/telemetry"
	"clinical-backend/internal/shared/util"
)

const (
	DefaultConcurrency = 4
	maxDownload        = 512 << 20 // 512MB
	downloadTimeout    = 10 * time.Minute
)

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// Ingester stores chunks in the guideline knowledge base.
type Ingester interface {
	Ingest(ctx context.Context, in guidelines.IngestInput) (guidelines.Guideline, error)
}

// Builder turns sources into search chunks.
type Builder struct {
	HTTP        *http.Client
	Concurrency int
	PackChars   int
	Ingester    Ingester
	// Pages extracts per-page text from a downloaded file.
	Pages func(data []byte) ([]string, error)
}

func NewBuilder() *Builder {
	return &Builder{
		HTTP:        &http.Client{Timeout: downloadTimeout},
		Concurrency: DefaultConcurrency,
		PackChars:   search.DefaultPackChars,
		Pages:       extract.PDFPages,
	}
}

// FromSources downloads every source PDF and packs its text into sentence chunks.
// Chunk ids derive from the title, so re-ingesting the same source is idempotent.
func (b *Builder) FromSources(ctx context.Context, sources []Source) ([]search.Chunk, error) {
	results := make([][]search.Chunk, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.Concurrency))
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			chunks, err := b.source(gctx, src)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Title, err)
			}
			results[i] = chunks
			telemetry.Info("indexer.source_done", map[string]any{"title": src.Title, "org": src.Org, "chunks": len(chunks)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []search.Chunk
	for _, chunks := range results {
		all = append(all, chunks...)
	}
	if b.Ingester != nil {
		if err := b.ingest(ctx, all); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (b *Builder) source(ctx context.Context, src Source) ([]search.Chunk, error) {
	data, err := b.download(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	pages, err := b.Pages(data)
	if err != nil {
		return nil, err
	}
	for i, p := range pages {
		pages[i] = horizontalSpace.ReplaceAllString(p, " ")
	}

	file := fileNameFromURL(src.URL)
	var out []search.Chunk
	for i, text := range search.PackSentences(strings.Join(pages, "\n"), b.PackChars) {
		out = append(out, search.Chunk{
			ID:        util.ChunkID(src.Title, i),
			File:      file,
			Title:     src.Title,
			Org:       src.Org,
			URL:       src.URL,
			Published: src.Published,
			Text:      text,
		})
	}
	return out, nil
}

func (b *Builder) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("download: larger than %d bytes", maxDownload)
	}
	return data, nil
}

func (b *Builder) ingest(ctx context.Context, chunks []search.Chunk) error {
	for _, c := range chunks {
		_, err := b.Ingester.Ingest(ctx, guidelines.IngestInput{
			ChunkID:   c.ID,
			Title:     c.Title,
			Org:       c.Org,
			URL:       c.URL,
			Published: c.Published,
			Text:      c.Text,
		})
		if err != nil {
			return fmt.Errorf("ingest %s: %w", c.ID, err)
		}
	}
	telemetry.Info("indexer.ingested", map[string]any{"chunks": len(chunks)})
	return nil
}

// FromStore windows every page of each PDF under prefix in store.
// Unreadable files are logged and skipped.
func (b *Builder) FromStore(ctx context.Context, store object.ObjectStore, prefix string) ([]search.Chunk, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var out []search.Chunk
	for _, obj := range objects {
		if !strings.EqualFold(path.Ext(obj.Key), ".pdf") {
			continue
		}
		rc, err := store.Open(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", obj.Key, err)
		}
		pages, err := b.Pages(data)
		if err != nil {
			telemetry.Warn("indexer.extract_failed", map[string]any{"key": obj.Key, "error": err})
			continue
		}
		chunks := search.PageChunks(path.Base(obj.Key), pages, search.DefaultChunkSize, search.DefaultChunkOverlap)
		telemetry.Info("indexer.file_done", map[string]any{"key": obj.Key, "pages": len(pages), "chunks": len(chunks)})
		out = append(out, chunks...)
	}
	return out, nil
}

func fileNameFromURL(raw string) string {
	name, err := util.SanitizeFileName(path.Base(strings.SplitN(raw, "?", 2)[0]))
	if err != nil || name == "." || name == "_" {
		name = "file.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
