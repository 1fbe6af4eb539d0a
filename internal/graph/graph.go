package graph

import (
	"github.com/Lumos-Labs-HQ/sprout/internal/schema"
	"github.com/fatih/color"
)

// Node is one table in the dependency graph. Dependencies holds the tables
// this node's non-nullable foreign keys point at; Dependents is the reverse
// edge set.
type Node struct {
	Name         string
	Dependencies map[string]struct{}
	Dependents   map[string]struct{}
}

type Graph struct {
	nodes map[string]*Node
	names []string
}

func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Build constructs the dependency graph from an introspected schema. Only
// foreign keys on NOT NULL columns create edges: a nullable FK is an optional
// relationship that can be backfilled after both tables exist, so it must not
// force ordering. Self-references are skipped.
func Build(db *schema.Database) *Graph {
	g := New()
	for _, name := range db.Names {
		g.addNode(name)
	}
	for _, name := range db.Names {
		table := db.Tables[name]
		for _, fk := range table.ForeignKeys {
			if fk.TargetTable == name {
				continue
			}
			if table.NullableColumn(fk.Column) {
				continue
			}
			g.AddEdge(name, fk.TargetTable)
		}
	}
	return g
}

func (g *Graph) addNode(name string) *Node {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := &Node{
		Name:         name,
		Dependencies: make(map[string]struct{}),
		Dependents:   make(map[string]struct{}),
	}
	g.nodes[name] = n
	g.names = append(g.names, name)
	return n
}

// AddEdge records that `from` depends on `to`. Both nodes are created if
// missing, so a FK to a table outside the working schema still participates.
func (g *Graph) AddEdge(from, to string) {
	f := g.addNode(from)
	t := g.addNode(to)
	f.Dependencies[to] = struct{}{}
	t.Dependents[from] = struct{}{}
}

func (g *Graph) Node(name string) *Node {
	return g.nodes[name]
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// dfs colors for cycle detection.
const (
	unvisited = iota
	inProgress
	done
)

// DetectCycle runs a three-state depth-first traversal over every node and
// returns the first cycle found as a concrete path [A, B, ..., A], or nil
// when the graph is a DAG.
func (g *Graph) DetectCycle() []string {
	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = inProgress
		stack = append(stack, name)

		for dep := range g.nodes[name].Dependencies {
			switch state[dep] {
			case inProgress:
				// Back edge: slice the stack from the first occurrence of
				// dep and close the path on it.
				for i, s := range stack {
					if s == dep {
						cycle = append(cycle, stack[i:]...)
						cycle = append(cycle, dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}

	for _, name := range g.names {
		if state[name] == unvisited {
			if visit(name) {
				return cycle
			}
		}
	}
	return nil
}

// InsertionOrder computes a topological order with Kahn's algorithm. The
// queue is seeded in the order nodes were added, so the result is
// deterministic for a fixed schema. When a cycle is present the cyclic
// tables never reach zero in-degree and are omitted from the result; a
// warning is printed and callers that need every table must check
// DetectCycle first.
func (g *Graph) InsertionOrder() []string {
	inDegree := make(map[string]int, len(g.nodes))
	for _, name := range g.names {
		inDegree[name] = len(g.nodes[name].Dependencies)
	}

	var queue []string
	for _, name := range g.names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		// Walk dependents in node-insertion order so ties break the same
		// way on every run.
		for _, dep := range g.names {
			if _, ok := g.nodes[name].Dependents[dep]; !ok {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) < len(g.nodes) {
		color.Yellow("⚠️  Dependency cycle detected: %d of %d tables omitted from insertion order", len(g.nodes)-len(order), len(g.nodes))
	}
	return order
}
