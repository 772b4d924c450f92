package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrelmd/memoir/internal/engine"
)

type searchFlags struct {
	limit      int
	collection string
	format     string
	hybrid     bool
}

func newSearchCmd() *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed collections",
		Long: `Search runs the hybrid BM25 + semantic pipeline over every
registered collection, or one collection when --collection is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			results, err := e.Search(cmd.Context(), query, engine.QueryOptions{
				Collection: f.collection,
				Limit:      f.limit,
				UseHybrid:  f.hybrid,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			for i, r := range results {
				fmt.Fprintf(out, "%d. %s (score %.4f)\n   %s\n", i+1, r.Document.Path, r.Score, snippet(r.Document.Content, 160))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&f.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&f.collection, "collection", "c", "", "Restrict search to one collection")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&f.hybrid, "hybrid", true, "Fold in semantic (embedding) retrieval alongside BM25")

	return cmd
}

func snippet(body string, n int) string {
	body = strings.ReplaceAll(body, "\n", " ")
	if len(body) <= n {
		return body
	}
	return body[:n] + "..."
}
