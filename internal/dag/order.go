package dag

import (
	"container/heap"
)

// TopologicalOrder returns every node id such that each appears after all of
// its dependencies. Among nodes that are ready at the same time, the lowest
// declaration order wins.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	remaining := make(map[string]int, len(g.nodes))
	ready := &ReadyQueue{}
	for _, n := range g.nodes {
		remaining[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			ready.PushItem(n.id, n.order)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		id := ready.PopItem()
		order = append(order, id)
		for depID, dependent := range g.nodes[id].dependents {
			remaining[depID]--
			if remaining[depID] == 0 {
				ready.PushItem(depID, dependent.order)
			}
		}
	}
	return order, nil
}

// ReadyQueue is a min-heap of ids keyed by declaration order. The zero value
// is ready to use. It is not safe for concurrent use.
type ReadyQueue struct {
	items []readyItem
}

type readyItem struct {
	id    string
	order int
}

// PushItem adds an id.
func (q *ReadyQueue) PushItem(id string, order int) {
	heap.Push(q, readyItem{id: id, order: order})
}

// PopItem removes and returns the id with the lowest order.
func (q *ReadyQueue) PopItem() string {
	return heap.Pop(q).(readyItem).id
}

// Len implements heap.Interface.
func (q *ReadyQueue) Len() int { return len(q.items) }

// Less implements heap.Interface.
func (q *ReadyQueue) Less(i, j int) bool {
	if q.items[i].order != q.items[j].order {
		return q.items[i].order < q.items[j].order
	}
	return q.items[i].id < q.items[j].id
}

// Swap implements heap.Interface.
func (q *ReadyQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

// Push implements heap.Interface. Use PushItem instead.
func (q *ReadyQueue) Push(x any) { q.items = append(q.items, x.(readyItem)) }

// Pop implements heap.Interface. Use PopItem instead.
func (q *ReadyQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}
