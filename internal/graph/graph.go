// Package graph holds the routable road graph: a mutable pool of nodes and
// edges addressed by stable indices rather than pointers, so
// cloning/snapshotting is trivial and there is no cyclic ownership between
// nodes and edges. The pool grows incrementally during ingestion; after
// that the only mutation is SplitEdge, which the routing engine's
// node-snap stage uses to insert projected nodes, until Clear wipes the
// pool for a fresh load_osm.
package graph

import (
	"errors"

	"navcore/internal/geodesy"
	"navcore/internal/model"
)

// lengthEpsilon is the minimum edge length kept; shorter edges are
// considered degenerate and rejected at insertion time.
const lengthEpsilon = 0.01 // meters

// ErrUnknownNode is returned by AddEdge when an endpoint does not exist.
var ErrUnknownNode = errors.New("graph: edge references unknown node")

// Node is a graph vertex: an opaque stable ID, its position, and the list
// of edges leading out of it.
type Node struct {
	ID        model.NodeID
	Pos       model.LatLon
	OutEdges  []model.EdgeID
}

// Edge is a directed graph edge between two nodes.
type Edge struct {
	ID            model.EdgeID
	From          model.NodeID
	To            model.NodeID
	Name          string
	Kind          model.RoadKind
	SpeedLimitKph float64
	LengthM       float64
	Oneway        bool
}

// Graph is the mutable node/edge pool used throughout ingestion and
// routing.
type Graph struct {
	nodes []Node
	edges []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// Clear wipes the graph wholesale, as happens when a new OSM source loads.
func (g *Graph) Clear() {
	g.nodes = nil
	g.edges = nil
}

// NodeCount returns the number of nodes currently in the pool.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges currently in the pool.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddNode appends a new node at pos and returns its stable ID.
func (g *Graph) AddNode(pos model.LatLon) model.NodeID {
	id := model.NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Pos: pos})
	return id
}

// GetNode returns the node for id and whether it exists.
func (g *Graph) GetNode(id model.NodeID) (Node, bool) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// GetEdge returns the edge for id and whether it exists.
func (g *Graph) GetEdge(id model.EdgeID) (Edge, bool) {
	if int(id) < 0 || int(id) >= len(g.edges) {
		return Edge{}, false
	}
	return g.edges[id], true
}

// AddEdge appends a new directed edge from 'from' to 'to'. length is taken
// from the caller (the ingester computes it via geodesy.Haversine so the
// ±1m rounding tolerance invariant holds); degenerate edges shorter than
// lengthEpsilon are silently discarded.
func (g *Graph) AddEdge(from, to model.NodeID, name string, kind model.RoadKind, speedLimitKph, length float64, oneway bool) (model.EdgeID, error) {
	if _, ok := g.GetNode(from); !ok {
		return 0, ErrUnknownNode
	}
	if _, ok := g.GetNode(to); !ok {
		return 0, ErrUnknownNode
	}
	if length < lengthEpsilon {
		return 0, errDegenerateEdge
	}

	id := model.EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{
		ID:            id,
		From:          from,
		To:            to,
		Name:          name,
		Kind:          kind,
		SpeedLimitKph: speedLimitKph,
		LengthM:       length,
		Oneway:        oneway,
	})
	g.nodes[from].OutEdges = append(g.nodes[from].OutEdges, id)
	return id, nil
}

var errDegenerateEdge = errors.New("graph: edge length below epsilon, discarded")

// ErrDegenerateEdge reports whether err is the degenerate-edge sentinel;
// callers (the ingester) treat it as a silent skip, not a failure.
func ErrDegenerateEdge(err error) bool { return errors.Is(err, errDegenerateEdge) }

// OutEdges returns the edges leaving node id.
func (g *Graph) OutEdges(id model.NodeID) []model.EdgeID {
	n, ok := g.GetNode(id)
	if !ok {
		return nil
	}
	return n.OutEdges
}

// AllEdges returns every edge in the pool, in insertion order. Used as the
// spatial index's sidecar fallback list.
func (g *Graph) AllEdges() []Edge {
	return g.edges
}

// AllNodes returns every node in the pool, in insertion order.
func (g *Graph) AllNodes() []Node {
	return g.nodes
}

// SplitEdge inserts a new node at splitPos (the perpendicular projection of
// some query point onto the edge) and replaces edge with two edges sharing
// its name/kind/speed limit, preserving direction. It is used by the
// routing engine's node-snap stage and never by ingestion. If a reverse
// edge (same endpoints swapped; its name is not compared) exists, it is
// split symmetrically so both directions remain traversable
// through the new node.
func (g *Graph) SplitEdge(edgeID model.EdgeID, splitPos model.LatLon) (model.NodeID, error) {
	e, ok := g.GetEdge(edgeID)
	if !ok {
		return 0, ErrUnknownNode
	}
	uNode, _ := g.GetNode(e.From)
	vNode, _ := g.GetNode(e.To)

	newNode := g.AddNode(splitPos)

	lenU := geodesy.Haversine(uNode.Pos.Lat, uNode.Pos.Lon, splitPos.Lat, splitPos.Lon)
	lenV := geodesy.Haversine(splitPos.Lat, splitPos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)

	g.removeOutEdge(e.From, edgeID)

	if _, err := g.AddEdge(e.From, newNode, e.Name, e.Kind, e.SpeedLimitKph, maxLen(lenU), e.Oneway); err != nil && !ErrDegenerateEdge(err) {
		return 0, err
	}
	if _, err := g.AddEdge(newNode, e.To, e.Name, e.Kind, e.SpeedLimitKph, maxLen(lenV), e.Oneway); err != nil && !ErrDegenerateEdge(err) {
		return 0, err
	}

	if revID, ok := g.findEdge(e.To, e.From); ok {
		rev, _ := g.GetEdge(revID)
		g.removeOutEdge(e.To, revID)
		if _, err := g.AddEdge(e.To, newNode, rev.Name, rev.Kind, rev.SpeedLimitKph, maxLen(lenV), rev.Oneway); err != nil && !ErrDegenerateEdge(err) {
			return 0, err
		}
		if _, err := g.AddEdge(newNode, e.From, rev.Name, rev.Kind, rev.SpeedLimitKph, maxLen(lenU), rev.Oneway); err != nil && !ErrDegenerateEdge(err) {
			return 0, err
		}
	}

	return newNode, nil
}

func maxLen(l float64) float64 {
	if l < lengthEpsilon {
		return lengthEpsilon
	}
	return l
}

// findEdge returns the edge id from->to, if one exists.
func (g *Graph) findEdge(from, to model.NodeID) (model.EdgeID, bool) {
	for _, eid := range g.OutEdges(from) {
		e, _ := g.GetEdge(eid)
		if e.To == to {
			return eid, true
		}
	}
	return 0, false
}

func (g *Graph) removeOutEdge(node model.NodeID, edgeID model.EdgeID) {
	out := g.nodes[node].OutEdges
	for i, id := range out {
		if id == edgeID {
			g.nodes[node].OutEdges = append(out[:i], out[i+1:]...)
			return
		}
	}
}
