package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"clinical-backend/internal/shared/storage/object"
)

// MetaKey is the object key of the persisted index.
const MetaKey = "meta.jsonl"

// ErrNoIndex is returned when no persisted index exists.
var ErrNoIndex = errors.New("no index found")

// Save writes chunks as JSON lines to store under MetaKey.
func Save(ctx context.Context, store object.ObjectStore, chunks []Chunk) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode chunk: %w", err)
		}
	}
	if _, err := store.SaveWithKey(ctx, MetaKey, "application/x-ndjson", &buf); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// Load reads the JSON lines index from store.
func Load(ctx context.Context, store object.ObjectStore) ([]Chunk, error) {
	rc, err := store.Open(ctx, MetaKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || strings.Contains(err.Error(), "NoSuchKey") {
			return nil, ErrNoIndex
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer rc.Close()

	var chunks []Chunk
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c Chunk
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("index line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return chunks, nil
}
