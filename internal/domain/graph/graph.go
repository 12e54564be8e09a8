// Package graph builds the undirected sentence graph the relation engine
// walks.  Nodes are token indices tagged with word and part-of-speech;
// edges carry the dependency relation label.
package graph

import (
	"github.com/turtacn/MeasureLink/internal/domain/annotation"
)

// Edge is one undirected edge between two token indices.
type Edge struct {
	A     int
	B     int
	Label string
}

type node struct {
	word string
	pos  string
}

// SentenceGraph is a simple undirected graph over one sentence's tokens.
// Parallel dependency edges between the same token pair collapse into a
// single edge whose label is the last one seen; edge insertion order is
// preserved so traversal is deterministic.
type SentenceGraph struct {
	nodes   map[int]node
	edges   []Edge
	edgeIdx map[[2]int]int
}

// Build constructs the sentence graph from a dependency parse.  Node words
// come from the edge glosses, part-of-speech tags from the token store.
func Build(edges []annotation.DependencyEdge, store *annotation.Store) *SentenceGraph {
	g := &SentenceGraph{
		nodes:   make(map[int]node, len(edges)+1),
		edgeIdx: make(map[[2]int]int, len(edges)),
	}
	for _, e := range edges {
		g.addNode(e.Governor, e.GovernorGloss, store)
		g.addNode(e.Dependent, e.DependentGloss, store)
		g.addEdge(e.Governor, e.Dependent, e.Relation)
	}
	return g
}

func (g *SentenceGraph) addNode(idx int, word string, store *annotation.Store) {
	if _, ok := g.nodes[idx]; ok {
		return
	}
	g.nodes[idx] = node{word: word, pos: store.POS(idx)}
}

func (g *SentenceGraph) addEdge(a, b int, label string) {
	key := pairKey(a, b)
	if i, ok := g.edgeIdx[key]; ok {
		g.edges[i].Label = label
		return
	}
	g.edgeIdx[key] = len(g.edges)
	g.edges = append(g.edges, Edge{A: a, B: b, Label: label})
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Edges returns the graph's edges in insertion order.  The returned slice
// is shared; callers must not modify it.
func (g *SentenceGraph) Edges() []Edge { return g.edges }

// Word returns the surface word stored on a node, or "" for unknown nodes.
func (g *SentenceGraph) Word(idx int) string { return g.nodes[idx].word }

// POS returns the part-of-speech tag stored on a node, or "" for unknown
// nodes.
func (g *SentenceGraph) POS(idx int) string { return g.nodes[idx].pos }

// Other resolves the node on the far side of e from idx, excluding the
// tracked number word: a neighbour whose surface word equals numberWord is
// never returned.  The second result is false when e does not touch idx or
// the only neighbour is the number word.
func (g *SentenceGraph) Other(e Edge, idx int, numberWord string) (int, bool) {
	switch idx {
	case e.A:
		if g.Word(e.B) != numberWord {
			return e.B, true
		}
	case e.B:
		if g.Word(e.A) != numberWord {
			return e.A, true
		}
	}
	return 0, false
}
