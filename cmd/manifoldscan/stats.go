package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hupe1980/manifoldscan/storage/bolt"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <path>",
		Short: "Show record counts and index cardinalities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := bolt.OpenReadOnly(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			stats, err := eng.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entities: %d\n", stats.Entities)
			fmt.Fprintf(out, "edges:    %d\n", stats.Edges)
			printIndex(out, "labels", stats.Labels)
			printIndex(out, "edge types", stats.EdgeTypes)
			return nil
		},
	}

	return cmd
}

func printIndex(w io.Writer, title string, terms map[string]uint64) {
	if len(terms) == 0 {
		return
	}

	names := make([]string, 0, len(terms))
	for name := range terms {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%s:\n", title)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, terms[name])
	}
}
