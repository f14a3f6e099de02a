package topology

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Equal(t, 1, g.Len())
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)

	g.AddNode("a") // idempotent
	assert.Equal(t, 1, g.Len())

	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.HasNode("b"))
	assert.False(t, g.HasNode("c"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "b"), "duplicate edge is a no-op")

		assert.True(t, g.HasEdge("a", "b"))
		assert.False(t, g.HasEdge("b", "a"))

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")

		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found")
		assert.ErrorContains(t, g.AddEdge("a", "a"), "self-referential edge")

		_, err := g.Dependencies("dne")
		assert.Error(t, err)
		_, err = g.Dependents("dne")
		assert.Error(t, err)
	})
}

func TestReachesAndDescendants(t *testing.T) {
	g := chain(t, "q", "p1", "p2")
	g.AddNode("other")

	assert.True(t, g.Reaches("q", "p2"))
	assert.True(t, g.Reaches("p1", "p1"))
	assert.False(t, g.Reaches("p2", "q"))
	assert.False(t, g.Reaches("dne", "q"))

	assert.Equal(t, []string{"p1", "p2"}, g.Descendants("q"))
	assert.Empty(t, g.Descendants("other"))
	assert.Nil(t, g.Descendants("dne"))
}

func TestEdges(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("a", "b"))

	want := []Edge{{"a", "b"}, {"a", "c"}, {"b", "c"}}
	if diff := cmp.Diff(want, g.Edges()); diff != "" {
		t.Errorf("Edges() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := chain(t, "a", "b", "c", "d")
		require.NoError(t, g.AddEdge("a", "c"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := chain(t, "a", "b")
		require.NoError(t, g.AddEdge("b", "a"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := chain(t, "a", "b")
		for _, id := range []string{"x", "y", "z"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}

func TestOrder(t *testing.T) {
	t.Run("ties follow insertion order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"c", "a", "b"} {
			g.AddNode(id)
		}
		order, err := g.Order()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, order)
	})

	t.Run("dependencies come first", func(t *testing.T) {
		g := New()
		for _, id := range []string{"display", "translate", "input"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("input", "translate"))
		require.NoError(t, g.AddEdge("translate", "display"))

		order, err := g.Order()
		require.NoError(t, err)
		assert.Equal(t, []string{"input", "translate", "display"}, order)
	})

	t.Run("cycle fails", func(t *testing.T) {
		g := chain(t, "a", "b", "c")
		require.NoError(t, g.AddEdge("c", "a"))
		_, err := g.Order()
		assert.ErrorContains(t, err, "cycle detected")
	})
}

// TestOrder_RandomAcyclic builds random DAGs by only adding edges from a lower
// to a higher index and checks that every edge source precedes its target.
func TestOrder_RandomAcyclic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		g := New()
		n := 2 + rng.Intn(15)
		perm := rng.Perm(n)
		for _, i := range perm {
			g.AddNode(fmt.Sprintf("n%d", i))
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rng.Intn(3) == 0 {
					require.NoError(t, g.AddEdge(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", j)))
				}
			}
		}

		require.NoError(t, g.DetectCycles())
		order, err := g.Order()
		require.NoError(t, err)
		require.Len(t, order, n)

		pos := make(map[string]int, n)
		for i, id := range order {
			pos[id] = i
		}
		for _, e := range g.Edges() {
			assert.Less(t, pos[e.From], pos[e.To], "edge %s -> %s out of order", e.From, e.To)
		}
	}
}

func chain(t *testing.T, ids ...string) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		g.AddNode(id)
	}
	for i := 1; i < len(ids); i++ {
		require.NoError(t, g.AddEdge(ids[i-1], ids[i]))
	}
	return g
}
