// Package spatial implements the road graph's spatial index: a grid keyed
// by (lat_cell, lon_cell) for O(1) radius queries, backed by a sidecar
// "all edges" fallback list for sparse coverage.
//
// A secondary github.com/tidwall/rtree index answers the "closest edge
// regardless of radius" probe the routing engine's node-snap stage needs
// when the grid comes up empty even at the 10km node-search radius.
package spatial

import (
	"math"

	"github.com/tidwall/rtree"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
)

// CellSizeDeg is the spatial grid's cell size, ~111m at the equator.
const CellSizeDeg = 0.001

// metersPerDegree is the engineering approximation used throughout the
// core to convert a meter radius into a degree radius for cell math.
const metersPerDegree = 111_000.0

type cellKey struct {
	lat, lon int64
}

func cellOf(loc model.LatLon) cellKey {
	return cellKey{
		lat: int64(math.Floor(loc.Lat / CellSizeDeg)),
		lon: int64(math.Floor(loc.Lon / CellSizeDeg)),
	}
}

// Index is the cell-bucketed spatial index over a Graph's edges.
type Index struct {
	g     *graph.Graph
	cells map[cellKey][]model.EdgeID
	all   []model.EdgeID
	rt    rtree.RTree
}

// New builds an Index over every edge currently in g. The graph must not
// be mutated concurrently with index construction or later queries; when
// the graph is cleared and rebuilt, a fresh Index must be built too.
func New(g *graph.Graph) *Index {
	ix := &Index{
		g:     g,
		cells: make(map[cellKey][]model.EdgeID),
	}
	for _, e := range g.AllEdges() {
		ix.insert(e)
	}
	return ix
}

func (ix *Index) insert(e graph.Edge) {
	uNode, _ := ix.g.GetNode(e.From)
	vNode, _ := ix.g.GetNode(e.To)

	minLat := math.Min(uNode.Pos.Lat, vNode.Pos.Lat)
	maxLat := math.Max(uNode.Pos.Lat, vNode.Pos.Lat)
	minLon := math.Min(uNode.Pos.Lon, vNode.Pos.Lon)
	maxLon := math.Max(uNode.Pos.Lon, vNode.Pos.Lon)

	lo := cellOf(model.LatLon{Lat: minLat, Lon: minLon})
	hi := cellOf(model.LatLon{Lat: maxLat, Lon: maxLon})

	for la := lo.lat; la <= hi.lat; la++ {
		for lo2 := lo.lon; lo2 <= hi.lon; lo2++ {
			k := cellKey{lat: la, lon: lo2}
			ix.cells[k] = append(ix.cells[k], e.ID)
		}
	}

	ix.all = append(ix.all, e.ID)
	ix.rt.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, e.ID)
}

// NearbyEdges returns the edges registered in the square of grid cells
// around loc whose size is derived from radiusM, deduplicated. Edges are
// not filtered by their exact distance to loc, so the result can include
// edges farther than radiusM. Ordering is arbitrary; callers must not depend on it. When the cell scan
// matches nothing and radiusM > 1000, the sidecar all-edges list is
// returned as a graceful degradation for sparse coverage.
func (ix *Index) NearbyEdges(loc model.LatLon, radiusM float64) []model.EdgeID {
	radiusDeg := radiusM / metersPerDegree
	k := int64(math.Ceil(radiusDeg / CellSizeDeg))
	side := 1 + k
	half := side / 2

	center := cellOf(loc)
	seen := make(map[model.EdgeID]struct{})
	var result []model.EdgeID

	for dlat := -half; dlat <= half; dlat++ {
		for dlon := -half; dlon <= half; dlon++ {
			key := cellKey{lat: center.lat + dlat, lon: center.lon + dlon}
			for _, eid := range ix.cells[key] {
				if _, ok := seen[eid]; ok {
					continue
				}
				seen[eid] = struct{}{}
				result = append(result, eid)
			}
		}
	}

	if len(result) == 0 && radiusM > 1000 {
		return ix.all
	}
	return result
}

// NearestEdge returns the single closest edge to loc by bounding-box
// distance, regardless of radius, using the rtree secondary index. It is
// used by the routing engine's node-snap stage as a last resort when
// NearbyEdges finds nothing even at the maximum node-search radius.
func (ix *Index) NearestEdge(loc model.LatLon) (model.EdgeID, bool) {
	var best model.EdgeID
	bestDist := math.Inf(1)
	found := false

	// rtree.Nearby visits candidates in ascending bounding-box distance
	// order; we refine the first handful with true point-to-segment
	// distance since box order and geodesic order can disagree slightly
	// right at a cell boundary.
	const probeLimit = 8
	probed := 0

	point := [2]float64{loc.Lon, loc.Lat}
	ix.rt.Nearby(
		rtree.BoxDist(point, point, nil),
		func(min, max [2]float64, data any, dist float64) bool {
			eid := data.(model.EdgeID)
			e, ok := ix.g.GetEdge(eid)
			if ok {
				uNode, _ := ix.g.GetNode(e.From)
				vNode, _ := ix.g.GetNode(e.To)
				d, _ := geodesy.PointToSegmentDist(loc.Lat, loc.Lon, uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
				if d < bestDist {
					bestDist = d
					best = eid
					found = true
				}
			}
			probed++
			return probed < probeLimit
		},
	)
	return best, found
}
