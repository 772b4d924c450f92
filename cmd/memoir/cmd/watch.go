package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch registered collections and keep the index and embeddings current",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.StartAutoEmbed(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "watching, press ctrl-c to stop")

			<-ctx.Done()
			e.StopAutoEmbed()
			return nil
		},
	}
	return cmd
}
