package guidelines

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	rows   []Guideline
	chunks map[string]bool
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{chunks: make(map[string]bool)}
}

func (r *MemoryRepo) Create(ctx context.Context, g Guideline) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ChunkID != "" {
		if r.chunks[g.ChunkID] {
			return nil
		}
		r.chunks[g.ChunkID] = true
	}
	r.rows = append(r.rows, g)
	return nil
}

func (r *MemoryRepo) Search(ctx context.Context, terms []string, limit int) ([]Guideline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		lowered = append(lowered, strings.ToLower(t))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Guideline{}
	for _, g := range r.rows {
		if limit > 0 && len(out) >= limit {
			break
		}
		hay := strings.ToLower(g.Title + "\n" + g.Org + "\n" + g.Text)
		for _, t := range lowered {
			if strings.Contains(hay, t) {
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Guideline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Guideline, n)
	copy(out, r.rows[:n])
	return out, nil
}
