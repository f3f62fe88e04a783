// Package routing implements the routing engine: A* pathfinding with
// pluggable edge costs, alternative-route generation, route densification
// and smoothing, and a direct-route fallback for sparse or out-of-range
// queries.
package routing

import (
	"container/heap"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
)

// CostFunc assigns a traversal cost to an edge. The default (Length) uses
// physical distance; Fastest and NoHighways bias the search for
// alternative-route generation.
type CostFunc interface {
	Cost(e graph.Edge) float64
}

// LengthCost is the default A* cost: physical edge length in meters.
type LengthCost struct{}

func (LengthCost) Cost(e graph.Edge) float64 { return e.LengthM }

// FastestCost biases toward high speed limits: cost = length * (50/limit).
type FastestCost struct{}

func (FastestCost) Cost(e graph.Edge) float64 {
	limit := e.SpeedLimitKph
	if limit <= 0 {
		limit = 30
	}
	return e.LengthM * (50 / limit)
}

// NoHighwaysCost penalizes Highway-kind edges tenfold.
type NoHighwaysCost struct{}

func (NoHighwaysCost) Cost(e graph.Edge) float64 {
	if e.Kind == model.RoadHighway {
		return e.LengthM * 10
	}
	return e.LengthM
}

// pqItem is one A* open-set entry, ordered by f = g + h with ties broken
// by insertion order.
type pqItem struct {
	node  model.NodeID
	g     float64
	f     float64
	seq   int
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// astarSearch finds the shortest (by cost) path from start to goal in g.
// It returns the node sequence including both endpoints, the accumulated
// cost, and whether a path was found. An empty open set with the goal
// never reached returns found=false.
func astarSearch(g *graph.Graph, start, goal model.NodeID, cost CostFunc) ([]model.NodeID, float64, bool) {
	goalNode, ok := g.GetNode(goal)
	if !ok {
		return nil, 0, false
	}

	gScore := map[model.NodeID]float64{start: 0}
	cameFrom := map[model.NodeID]model.NodeID{}
	closed := map[model.NodeID]bool{}

	startNode, ok := g.GetNode(start)
	if !ok {
		return nil, 0, false
	}
	h0 := geodesy.Haversine(startNode.Pos.Lat, startNode.Pos.Lon, goalNode.Pos.Lat, goalNode.Pos.Lon)

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, &pqItem{node: start, g: 0, f: h0, seq: seq})

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pqItem)
		if closed[current.node] {
			continue
		}
		if current.g > gScore[current.node] {
			continue
		}
		closed[current.node] = true

		if current.node == goal {
			return reconstructPath(cameFrom, start, goal), current.g, true
		}

		for _, eid := range g.OutEdges(current.node) {
			e, ok := g.GetEdge(eid)
			if !ok || closed[e.To] {
				continue
			}
			tentativeG := current.g + cost.Cost(e)
			best, has := gScore[e.To]
			if has && tentativeG >= best {
				continue
			}
			gScore[e.To] = tentativeG
			cameFrom[e.To] = current.node

			toNode, _ := g.GetNode(e.To)
			h := geodesy.Haversine(toNode.Pos.Lat, toNode.Pos.Lon, goalNode.Pos.Lat, goalNode.Pos.Lon)
			seq++
			heap.Push(pq, &pqItem{node: e.To, g: tentativeG, f: tentativeG + h, seq: seq})
		}
	}

	return nil, 0, false
}

func reconstructPath(cameFrom map[model.NodeID]model.NodeID, start, goal model.NodeID) []model.NodeID {
	path := []model.NodeID{goal}
	node := goal
	for node != start {
		prev, ok := cameFrom[node]
		if !ok {
			break
		}
		path = append(path, prev)
		node = prev
	}
	// Reverse into start->goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
