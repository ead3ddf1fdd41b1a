package guidelines

import "context"

// Repo defines persistence operations for guidelines.
type Repo interface {
	// Create stores g. A guideline whose ChunkID already exists is skipped.
	Create(ctx context.Context, g Guideline) error
	// Search returns rows whose title, org or text contains any term, case-insensitively.
	Search(ctx context.Context, terms []string, limit int) ([]Guideline, error)
	// List returns the first rows in insertion order.
	List(ctx context.Context, limit int) ([]Guideline, error)
}
