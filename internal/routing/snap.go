package routing

import (
	"math"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
	"navcore/internal/spatial"
)

// minProjectionClearanceM is the distance a perpendicular projection must
// keep from both endpoints before it is worth minting a new node for.
const minProjectionClearanceM = 10.0

// findNearestNode queries the spatial index for candidate edges near loc,
// considers both endpoints and the perpendicular projection of loc onto
// each edge, and returns the globally
// nearest candidate — minting and splitting in a new node when the
// projection falls well clear of both endpoints. It returns ok=false only
// when the index has nothing at all to offer (an empty graph).
func findNearestNode(g *graph.Graph, ix *spatial.Index, loc model.LatLon, radiusM float64) (model.NodeID, bool) {
	edges := ix.NearbyEdges(loc, radiusM)
	if len(edges) == 0 {
		if eid, ok := ix.NearestEdge(loc); ok {
			edges = []model.EdgeID{eid}
		}
	}
	if len(edges) == 0 {
		return 0, false
	}

	bestDist := math.Inf(1)
	var bestNode model.NodeID
	var bestIsProjection bool
	var bestEdge model.EdgeID
	var bestProj model.LatLon
	found := false

	for _, eid := range edges {
		e, ok := g.GetEdge(eid)
		if !ok {
			continue
		}
		uNode, _ := g.GetNode(e.From)
		vNode, _ := g.GetNode(e.To)

		if d := geodesy.Haversine(loc.Lat, loc.Lon, uNode.Pos.Lat, uNode.Pos.Lon); d < bestDist {
			bestDist, bestNode, bestIsProjection, found = d, e.From, false, true
		}
		if d := geodesy.Haversine(loc.Lat, loc.Lon, vNode.Pos.Lat, vNode.Pos.Lon); d < bestDist {
			bestDist, bestNode, bestIsProjection, found = d, e.To, false, true
		}

		projDist, ratio := geodesy.PointToSegmentDist(loc.Lat, loc.Lon, uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
		projLat, projLon := geodesy.InterpolateLatLon(uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon, ratio)
		proj := model.LatLon{Lat: projLat, Lon: projLon}

		distToU := geodesy.Haversine(proj.Lat, proj.Lon, uNode.Pos.Lat, uNode.Pos.Lon)
		distToV := geodesy.Haversine(proj.Lat, proj.Lon, vNode.Pos.Lat, vNode.Pos.Lon)

		if distToU >= minProjectionClearanceM && distToV >= minProjectionClearanceM && projDist < bestDist {
			bestDist, bestIsProjection, bestEdge, bestProj, found = projDist, true, eid, proj, true
		}
	}

	if !found {
		return 0, false
	}
	if !bestIsProjection {
		return bestNode, true
	}

	newNode, err := g.SplitEdge(bestEdge, bestProj)
	if err != nil {
		return bestNode, true
	}
	return newNode, true
}
