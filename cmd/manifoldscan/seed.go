package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/storage/bolt"
)

func newSeedCmd() *cobra.Command {
	var (
		demo     bool
		entities int
		edges    int
	)

	cmd := &cobra.Command{
		Use:   "seed <path>",
		Short: "Create a graph database with demo or synthetic data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !demo && entities == 0 {
				return errors.New("nothing to seed: pass --demo or --entities")
			}

			eng, err := bolt.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			if demo {
				if err := eng.PutEntities(demoEntities()); err != nil {
					return err
				}
				if err := eng.PutEdges(demoEdges()); err != nil {
					return err
				}
			}

			if entities > 0 {
				if err := eng.PutEntities(syntheticEntities(entities)); err != nil {
					return err
				}
				if edges > 0 {
					if err := eng.PutEdges(syntheticEdges(edges, entities)); err != nil {
						return err
					}
				}
			}

			stats, err := eng.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d entities, %d edges\n", args[0], stats.Entities, stats.Edges)
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "write the demo graph (two people, one company)")
	cmd.Flags().IntVar(&entities, "entities", 0, "number of synthetic entities to write")
	cmd.Flags().IntVar(&edges, "edges", 0, "number of synthetic edges chaining the synthetic entities")

	return cmd
}

func demoEntities() []model.Entity {
	return []model.Entity{
		{
			ID:     1,
			Labels: []string{"Person"},
			Properties: map[string]model.Value{
				"name": model.String("Alice"),
				"age":  model.Int(30),
			},
		},
		{
			ID:     2,
			Labels: []string{"Person"},
			Properties: map[string]model.Value{
				"name": model.String("Bob"),
				"age":  model.Int(25),
			},
		},
		{
			ID:     3,
			Labels: []string{"Company"},
			Properties: map[string]model.Value{
				"name":    model.String("Acme Corp"),
				"founded": model.Int(1990),
			},
		},
	}
}

func demoEdges() []model.Edge {
	return []model.Edge{
		{ID: 100, Source: 1, Target: 3, Type: "WORKS_AT", Properties: map[string]model.Value{"since": model.Int(2020)}},
		{ID: 101, Source: 2, Target: 3, Type: "WORKS_AT", Properties: map[string]model.Value{"since": model.Int(2022)}},
		{ID: 102, Source: 1, Target: 2, Type: "KNOWS"},
	}
}

// syntheticEntities generates ids from 1000 up so synthetic data can
// coexist with the demo graph.
func syntheticEntities(n int) []model.Entity {
	ents := make([]model.Entity, 0, n)
	for i := range n {
		ents = append(ents, model.Entity{
			ID:     uint64(1000 + i),
			Labels: []string{"Node"},
			Properties: map[string]model.Value{
				"seq":  model.Int(int64(i)),
				"name": model.String(fmt.Sprintf("node-%d", i)),
			},
		})
	}
	return ents
}

func syntheticEdges(m, n int) []model.Edge {
	eds := make([]model.Edge, 0, m)
	for i := range m {
		eds = append(eds, model.Edge{
			ID:     uint64(100000 + i),
			Source: uint64(1000 + i%n),
			Target: uint64(1000 + (i+1)%n),
			Type:   "LINKS",
			Properties: map[string]model.Value{
				"weight": model.Float(float64(i%10) / 10),
			},
		})
	}
	return eds
}
