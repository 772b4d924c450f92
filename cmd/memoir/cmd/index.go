package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Reindex every registered collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			results, err := e.Reindex(cmd.Context(), false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for name, res := range results {
				if len(res.Errors) > 0 {
					fmt.Fprintf(out, "%s: indexed=%d skipped=%d failed=%d (%d errors)\n",
						name, res.Indexed, res.Skipped, res.Failed, len(res.Errors))
					continue
				}
				fmt.Fprintf(out, "%s: indexed=%d skipped=%d failed=%d\n",
					name, res.Indexed, res.Skipped, res.Failed)
			}
			return nil
		},
	}
	return cmd
}
