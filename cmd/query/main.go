package main

// Query the local search index:
//   go run ./cmd/query "clinical question"

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"clinical-backend/internal/search"
	"clinical-backend/internal/shared/config"
	localstore "clinical-backend/internal/shared/storage/object/local"
)

const previewChars = 500

func main() {
	cfg := config.Load()

	cmd := &cli.Command{
		Name:      "query",
		Usage:     "Print the top matches for a question",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "index-dir", Value: cfg.IndexDir},
			&cli.IntFlag{Name: "k", Value: search.DefaultK},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("question required")
			}
			q := strings.Join(cmd.Args().Slice(), " ")

			chunks, err := search.Load(ctx, localstore.New(cmd.String("index-dir")))
			if err != nil {
				return err
			}
			results := search.NewIndex(chunks).Search(q, int(cmd.Int("k")))

			fmt.Printf("\nQuery: %s\n\nTop matches:\n", q)
			for _, r := range results {
				fmt.Println(strings.Repeat("-", 80))
				fmt.Printf("Score: %.3f | %s p.%d\n", r.Score, r.File, r.Page)
				fmt.Println(preview(r.Snippet))
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func preview(s string) string {
	s = strings.TrimSuffix(s, " …")
	runes := []rune(s)
	if len(runes) > previewChars {
		return string(runes[:previewChars]) + "..."
	}
	return s
}
