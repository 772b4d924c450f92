package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage registered collections",
	}
	cmd.AddCommand(newCollectionAddCmd())
	cmd.AddCommand(newCollectionListCmd())
	cmd.AddCommand(newCollectionRemoveCmd())
	return cmd
}

func newCollectionAddCmd() *cobra.Command {
	var glob string
	cmd := &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Register a collection root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			col, err := e.AddCollection(cmd.Context(), args[0], args[1], glob)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s -> %s\n", col.Name, col.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&glob, "glob", "", "File glob (default **/*.md)")
	return cmd
}

func newCollectionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered collections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			cols, err := e.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cols {
				fmt.Fprintf(out, "%s\t%s\t%s\n", c.Name, c.Root, c.Glob)
			}
			return nil
		},
	}
}

func newCollectionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Deregister a collection and delete its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			return e.RemoveCollection(cmd.Context(), args[0])
		},
	}
}
