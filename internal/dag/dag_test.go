package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addNodes adds ids with their index as declaration order.
func addNodes(g *Graph, ids ...string) {
	for i, id := range ids {
		g.AddNode(id, i)
	}
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a", 0)
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.NotNil(t, nodeA.deps)
	assert.NotNil(t, nodeA.dependents)

	g.AddNode("a", 5) // Idempotent; the first order sticks.
	assert.Len(t, g.nodes, 1)
	assert.Equal(t, 0, g.nodes["a"].order)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		addNodes(g, "a", "b")

		require.NoError(t, g.AddEdge("a", "b")) // b depends on a

		assert.Contains(t, g.nodes["a"].dependents, "b")
		assert.Contains(t, g.nodes["b"].deps, "a")

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)
		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		addNodes(g, "a", "b")

		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found")

		var cycle *CycleDetectedError
		require.ErrorAs(t, g.AddEdge("a", "a"), &cycle)
		assert.Equal(t, []string{"a", "a"}, cycle.Cycle)

		_, err := g.Dependencies("dne")
		assert.Error(t, err)
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		addNodes(g, "a", "b", "c", "d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("longer cycle names every member", func(t *testing.T) {
		g := New()
		addNodes(g, "a", "b", "c", "d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "d"))
		require.NoError(t, g.AddEdge("d", "a")) // Cycle back to the start

		err := g.DetectCycles()
		var cycle *CycleDetectedError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"a", "b", "c", "d", "a"}, cycle.Cycle)
		assert.ErrorContains(t, err, "a -> b -> c -> d -> a")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		addNodes(g, "a", "b", "x", "y", "z")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y")) // Cycle

		var cycle *CycleDetectedError
		require.ErrorAs(t, g.DetectCycles(), &cycle)
		assert.Equal(t, []string{"y", "z", "y"}, cycle.Cycle)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("ties broken by declaration order", func(t *testing.T) {
		g := New()
		// Declared: lib(0) router(1) factory(2) app(3) grant(4)
		addNodes(g, "lib", "router", "factory", "app", "grant")
		require.NoError(t, g.AddEdge("lib", "router"))
		require.NoError(t, g.AddEdge("lib", "factory"))
		require.NoError(t, g.AddEdge("factory", "app"))
		require.NoError(t, g.AddEdge("router", "app"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"lib", "router", "factory", "app", "grant"}, order)
	})

	t.Run("dependencies declared later move ahead", func(t *testing.T) {
		g := New()
		addNodes(g, "call", "configure", "contract")
		require.NoError(t, g.AddEdge("contract", "call"))
		require.NoError(t, g.AddEdge("contract", "configure"))
		require.NoError(t, g.AddEdge("call", "configure"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"contract", "call", "configure"}, order)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		build := func() []string {
			g := New()
			addNodes(g, "a", "b", "c", "d", "e", "f")
			require.NoError(t, g.AddEdge("a", "d"))
			require.NoError(t, g.AddEdge("b", "d"))
			require.NoError(t, g.AddEdge("c", "e"))
			order, err := g.TopologicalOrder()
			require.NoError(t, err)
			return order
		}
		first := build()
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, build())
		}
		assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, first)
	})

	t.Run("cycle is reported", func(t *testing.T) {
		g := New()
		addNodes(g, "a", "b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		_, err := g.TopologicalOrder()
		var cycle *CycleDetectedError
		assert.ErrorAs(t, err, &cycle)
	})
}

func TestAncestors(t *testing.T) {
	g := New()
	addNodes(g, "a", "b", "c", "d")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("d", "c"))

	anc, err := g.Ancestors("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, anc)

	anc, err = g.Ancestors("a")
	require.NoError(t, err)
	assert.Empty(t, anc)
}

func TestReadyQueue(t *testing.T) {
	q := &ReadyQueue{}
	q.PushItem("c", 3)
	q.PushItem("a", 1)
	q.PushItem("b", 1)
	q.PushItem("z", 0)

	var out []string
	for q.Len() > 0 {
		out = append(out, q.PopItem())
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, out)
}
