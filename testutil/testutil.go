package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/storage/bolt"
)

// OpenGraph creates an empty bolt database in a fresh temp file and
// closes it when the test finishes.
func OpenGraph(t testing.TB) *bolt.Engine {
	t.Helper()

	eng, err := bolt.Open(filepath.Join(t.TempDir(), "graph.manifold"))
	if err != nil {
		t.Fatalf("open graph fixture: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })

	return eng
}

// DemoEntities returns the entities of the canonical demo graph.
func DemoEntities() []model.Entity {
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

// DemoEdges returns the edges of the canonical demo graph: both people
// work at the company, and Alice knows Bob.
func DemoEdges() []model.Edge {
	return []model.Edge{
		{
			ID: 100, Source: 1, Target: 3, Type: "WORKS_AT",
			Properties: map[string]model.Value{"since": model.Int(2020)},
		},
		{
			ID: 101, Source: 2, Target: 3, Type: "WORKS_AT",
			Properties: map[string]model.Value{"since": model.Int(2022)},
		},
		{
			ID: 102, Source: 1, Target: 2, Type: "KNOWS",
		},
	}
}

// SeedDemo writes the canonical demo graph into the engine.
func SeedDemo(t testing.TB, eng *bolt.Engine) {
	t.Helper()

	if err := eng.PutEntities(DemoEntities()); err != nil {
		t.Fatalf("seed demo entities: %v", err)
	}
	if err := eng.PutEdges(DemoEdges()); err != nil {
		t.Fatalf("seed demo edges: %v", err)
	}
}

// SeedEntities writes n synthetic entities with ids 1..n. Every entity
// carries a seq property; ids divisible by 3 additionally carry an extra
// property, so discovered schemas see both sparse and dense properties.
func SeedEntities(t testing.TB, eng *bolt.Engine, n int) {
	t.Helper()

	ents := make([]model.Entity, 0, n)
	for i := 1; i <= n; i++ {
		e := model.Entity{
			ID:     uint64(i),
			Labels: []string{"Node"},
			Properties: map[string]model.Value{
				"seq": model.Int(int64(i)),
			},
		}
		if i%3 == 0 {
			e.Properties["extra"] = model.String(fmt.Sprintf("node-%d", i))
		}
		ents = append(ents, e)
	}
	if err := eng.PutEntities(ents); err != nil {
		t.Fatalf("seed %d entities: %v", n, err)
	}
}
