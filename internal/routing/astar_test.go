package routing

import (
	"testing"

	"navcore/internal/graph"
	"navcore/internal/model"
)

func buildLine(n int) (*graph.Graph, []model.NodeID) {
	g := graph.New()
	ids := make([]model.NodeID, n)
	for i := 0; i < n; i++ {
		ids[i] = g.AddNode(model.LatLon{Lat: 0, Lon: float64(i) * 0.001})
	}
	for i := 0; i < n-1; i++ {
		na, _ := g.GetNode(ids[i])
		nb, _ := g.GetNode(ids[i+1])
		length := 111.0
		_, _ = g.AddEdge(ids[i], ids[i+1], "line", model.RoadResidential, 30, length, false)
		_, _ = g.AddEdge(ids[i+1], ids[i], "line", model.RoadResidential, 30, length, false)
		_ = na
		_ = nb
	}
	return g, ids
}

func TestAstarSearchFindsShortestPath(t *testing.T) {
	g, ids := buildLine(5)
	path, cost, found := astarSearch(g, ids[0], ids[4], LengthCost{})
	if !found {
		t.Fatal("expected a path to be found")
	}
	if len(path) != 5 {
		t.Fatalf("len(path) = %d, want 5", len(path))
	}
	if cost <= 0 {
		t.Errorf("cost = %v, want > 0", cost)
	}
}

func TestAstarSearchUnreachableReturnsNotFound(t *testing.T) {
	g, ids := buildLine(3)
	isolated := g.AddNode(model.LatLon{Lat: 5, Lon: 5})
	_, _, found := astarSearch(g, ids[0], isolated, LengthCost{})
	if found {
		t.Fatal("expected no path to an isolated node")
	}
}

func TestAstarSearchSameStartAndGoal(t *testing.T) {
	g, ids := buildLine(3)
	path, cost, found := astarSearch(g, ids[0], ids[0], LengthCost{})
	if !found {
		t.Fatal("expected trivially found path")
	}
	if len(path) != 1 || cost != 0 {
		t.Errorf("path = %v, cost = %v, want single node, zero cost", path, cost)
	}
}

func TestNoHighwaysCostPenalizesHighwayEdges(t *testing.T) {
	e := graph.Edge{Kind: model.RoadHighway, LengthM: 100}
	cost := NoHighwaysCost{}.Cost(e)
	if cost != 1000 {
		t.Errorf("cost = %v, want 1000", cost)
	}
	e.Kind = model.RoadResidential
	if c := NoHighwaysCost{}.Cost(e); c != 100 {
		t.Errorf("cost = %v, want 100", c)
	}
}

func TestFastestCostGuardsZeroSpeedLimit(t *testing.T) {
	e := graph.Edge{LengthM: 100, SpeedLimitKph: 0}
	cost := FastestCost{}.Cost(e)
	want := 100.0 * (50.0 / 30.0)
	if cost != want {
		t.Errorf("cost = %v, want %v", cost, want)
	}
}
