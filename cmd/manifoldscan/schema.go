package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/manifoldscan/scan"
	"github.com/hupe1980/manifoldscan/storage/bolt"
)

func newSchemaCmd() *cobra.Command {
	var sampleSize int

	cmd := &cobra.Command{
		Use:   "schema <path>",
		Short: "Show the columns the table functions will publish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := bolt.OpenReadOnly(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			entities, err := scan.DiscoverEntities(eng, sampleSize)
			if err != nil {
				return err
			}
			edges, err := scan.DiscoverEdges(eng, sampleSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSchema(out, "manifold_entities", entities)
			fmt.Fprintln(out)
			printSchema(out, "manifold_edges", edges)
			return nil
		},
	}

	cmd.Flags().IntVar(&sampleSize, "sample-size", scan.DefaultSampleSize, "records sampled for schema discovery")

	return cmd
}

func printSchema(w io.Writer, function string, s *scan.Schema) {
	fmt.Fprintf(w, "%s\n", function)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "column\ttype\tnullable\tobserved")
	for _, col := range s.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", col.Name, col.Type, col.Nullable, observedKinds(s, col))
	}
	_ = tw.Flush()
}

// observedKinds renders the value kinds seen for a property column
// during sampling.
func observedKinds(s *scan.Schema, col scan.Column) string {
	if col.Property == "" {
		return ""
	}

	kinds := s.Observed[col.Property]
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
