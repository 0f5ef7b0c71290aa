package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/logger"
)

// Topology is the parent/order/renderable data derived once per scene.
type Topology struct {
	// Parents holds the parent of every node, None for top-level nodes.
	Parents []int
	// Order lists every node after its parent.
	Order []int
	// Renderable is true for nodes reachable from a scene root.
	Renderable []bool
	// Shared lists nodes referenced as a child more than once. They keep the
	// parent that reached them first.
	Shared []int
}

// ResolveTopology computes parents, a topological order and render
// eligibility for the node graph.
//
// Parents are assigned breadth-first from roots in the given order, first
// visitor wins. Nodes not reachable from a root take their first incoming
// edge in node-index order. Any cycle in the child graph is reported as
// ErrCycle.
func ResolveTopology(nodes []Node, roots []int) (*Topology, error) {
	n := len(nodes)
	for _, r := range roots {
		if r < 0 || r >= n {
			return nil, fmt.Errorf("root %d: %w", r, ErrInvalidIndex)
		}
	}
	incoming := make([]int, n)
	for i := range nodes {
		for _, c := range nodes[i].Children {
			if c < 0 || c >= n {
				return nil, fmt.Errorf("node %d child %d: %w", i, c, ErrInvalidIndex)
			}
			incoming[c]++
		}
	}

	if cyc, ok := findCycle(nodes); ok {
		return nil, fmt.Errorf("%w: through node %d", ErrCycle, cyc)
	}

	topo := &Topology{
		Parents:    make([]int, n),
		Renderable: make([]bool, n),
	}
	for i := range topo.Parents {
		topo.Parents[i] = None
	}

	// Parents from the roots; the visited set doubles as the renderable flag.
	queue := make([]int, 0, n)
	for _, r := range roots {
		if !topo.Renderable[r] {
			topo.Renderable[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range nodes[cur].Children {
			if topo.Renderable[c] {
				continue
			}
			topo.Renderable[c] = true
			topo.Parents[c] = cur
			queue = append(queue, c)
		}
	}

	// Detached subtrees
	for i := range nodes {
		for _, c := range nodes[i].Children {
			if !topo.Renderable[c] && topo.Parents[c] == None {
				topo.Parents[c] = i
			}
		}
	}

	order, err := topoOrder(nodes, topo.Parents)
	if err != nil {
		return nil, err
	}
	topo.Order = order

	for i, count := range incoming {
		if count > 1 {
			topo.Shared = append(topo.Shared, i)
			logger.Warn("node has multiple parents",
				zap.Int("node", i),
				zap.String("name", nodes[i].Name),
				zap.Int("parent", topo.Parents[i]),
				zap.Int("references", count))
		}
	}

	return topo, nil
}

// topoOrder walks the parent tree breadth-first from parentless nodes.
func topoOrder(nodes []Node, parents []int) ([]int, error) {
	visited := make([]bool, len(nodes))
	enqueued := make([]bool, len(nodes))
	order := make([]int, 0, len(nodes))

	queue := make([]int, 0, len(nodes))
	for i, p := range parents {
		if p == None {
			enqueued[i] = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			return nil, fmt.Errorf("%w: node %d reached twice", ErrCycle, cur)
		}
		visited[cur] = true
		order = append(order, cur)

		for _, c := range nodes[cur].Children {
			// A child listed twice under the same parent is expanded once.
			if parents[c] == cur && !enqueued[c] {
				enqueued[c] = true
				queue = append(queue, c)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, fmt.Errorf("%w: %d nodes unreachable from any top-level node", ErrCycle, len(nodes)-len(order))
	}
	return order, nil
}

// findCycle runs an iterative depth-first search over the child graph and
// returns a node on a cycle, if any.
func findCycle(nodes []Node) (int, bool) {
	const (
		white = iota
		grey
		black
	)
	type frame struct {
		node int
		next int
	}

	color := make([]uint8, len(nodes))
	var stack []frame

	for start := range nodes {
		if color[start] != white {
			continue
		}
		color[start] = grey
		stack = append(stack[:0], frame{node: start})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := nodes[top.node].Children
			if top.next == len(children) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			c := children[top.next]
			top.next++

			switch color[c] {
			case grey:
				return c, true
			case white:
				color[c] = grey
				stack = append(stack, frame{node: c})
			}
		}
	}
	return None, false
}
