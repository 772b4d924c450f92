package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrelmd/memoir/internal/memoir"
)

func newMemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mem",
		Short: "Read and write the tree-structured memory store",
	}
	cmd.AddCommand(newMemSetCmd())
	cmd.AddCommand(newMemGetCmd())
	cmd.AddCommand(newMemDeleteCmd())
	cmd.AddCommand(newMemTreeCmd())
	cmd.AddCommand(newMemZoneCmd())
	return cmd
}

func newMemSetCmd() *cobra.Command {
	var bodyFlag string
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Write a memory entry (body from --body, --stdin, or empty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := bodyFlag
			if fromStdin {
				data, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return err
				}
				body = string(data)
			}

			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			entry, err := e.MemSet(cmd.Context(), args[0], body, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", entry.Key, entry.RelPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&bodyFlag, "body", "", "Entry body text")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read body from stdin")
	return cmd
}

func newMemGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			entry, err := e.MemGet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no memory entry at key %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.Body)
			return nil
		},
	}
}

func newMemDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			return e.MemDelete(cmd.Context(), args[0])
		},
	}
}

func newMemTreeCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render the memory tree as Markdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := e.MemTreeForPrompt(prefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Restrict to a key prefix")
	return cmd
}

func newMemZoneCmd() *cobra.Command {
	var maxItems, maxDepth int
	var defaultType string
	var defaultHalfLife float64

	cmd := &cobra.Command{
		Use:   "zone <name> <prefix>",
		Short: "Define a quota/retention zone over a key prefix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.MemDefineZone(memoir.Zone{
				Name:                args[0],
				KeyPrefix:           strings.TrimSuffix(args[1], "."),
				MaxItems:            maxItems,
				MaxDepth:            maxDepth,
				DefaultType:         defaultType,
				DefaultHalfLifeDays: defaultHalfLife,
			}); err != nil {
				return err
			}

			stats, err := e.MemZoneStats(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "zone %s: %+v\n", args[0], stats)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "Maximum file count under the zone (0 = unbounded)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum key depth past the zone prefix (0 = unbounded)")
	cmd.Flags().StringVar(&defaultType, "default-type", "", "Default type applied to new entries")
	cmd.Flags().Float64Var(&defaultHalfLife, "default-half-life-days", 0, "Default half-life applied to new entries")
	return cmd
}
