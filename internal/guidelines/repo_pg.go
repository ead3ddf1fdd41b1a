package guidelines

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, chunk_id, title, org, url, published, text, created_at`

func (r *PGRepo) Create(ctx context.Context, g Guideline) error {
	const query = `
INSERT INTO guidelines (
    id,
    chunk_id,
    title,
    org,
    url,
    published,
    text,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (chunk_id) WHERE chunk_id IS NOT NULL DO NOTHING`

	var chunkID sql.NullString
	if g.ChunkID != "" {
		chunkID = sql.NullString{String: g.ChunkID, Valid: true}
	}
	var published sql.NullTime
	if g.Published != nil {
		published = sql.NullTime{Time: *g.Published, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		g.ID,
		chunkID,
		g.Title,
		g.Org,
		g.URL,
		published,
		g.Text,
		g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert guideline: %w", err)
	}
	return nil
}

// Search builds an OR of ILIKE filters over title, org and text for every term.
func (r *PGRepo) Search(ctx context.Context, terms []string, limit int) ([]Guideline, error) {
	if len(terms) == 0 {
		return r.List(ctx, limit)
	}
	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, t := range terms {
		n := i + 1
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR org ILIKE $%d OR text ILIKE $%d)", n, n, n))
		args = append(args, "%"+escapeLike(t)+"%")
	}
	args = append(args, limit)
	query := fmt.Sprintf(`
SELECT %s
FROM guidelines
WHERE %s
ORDER BY created_at ASC
LIMIT $%d`, selectColumns, strings.Join(clauses, " OR "), len(args))

	return r.query(ctx, query, args...)
}

func (r *PGRepo) List(ctx context.Context, limit int) ([]Guideline, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM guidelines
ORDER BY created_at ASC
LIMIT $1`, selectColumns)
	return r.query(ctx, query, limit)
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Guideline, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query guidelines: %w", err)
	}
	defer rows.Close()

	out := []Guideline{}
	for rows.Next() {
		var (
			g         Guideline
			chunkID   sql.NullString
			published sql.NullTime
		)
		if err := rows.Scan(&g.ID, &chunkID, &g.Title, &g.Org, &g.URL, &published, &g.Text, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan guideline: %w", err)
		}
		if chunkID.Valid {
			g.ChunkID = chunkID.String
		}
		if published.Valid {
			t := published.Time
			g.Published = &t
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guidelines: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
