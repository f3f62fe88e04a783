// Package matcher implements the route matcher: it projects a smoothed Fix
// onto the active Route, tracks forward progress along an arbitrary
// route-edge candidate search, and emits turn-by-turn guidance.
package matcher

import (
	"math"

	"github.com/rs/zerolog/log"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
	"navcore/internal/spatial"
)

const (
	consecutiveGapWarnM = 50.0

	segmentEdgeRadiusM       = 50.0
	segmentEdgeRadiusWidenM  = 100.0
	segmentBearingDivisorDeg = 45.0
	segmentBearingWeightM    = 20.0

	advanceProgressThreshold = 0.70
	advanceBearingToleranceDeg = 45.0

	candidateRadiusM      = 100.0
	candidateRadiusWidenM = 300.0

	distanceWeight = 1.0
	bearingWeight  = 0.5
	bearingScaleM  = 50.0
	maxPerpDistM   = 50.0

	onRouteBonus  = 0.5
	offRouteBonus = 1.0

	maneuverTurnThresholdDeg = 30.0

	continueThresholdDeg    = 20.0
	slightThresholdDeg      = 60.0
	sharpThresholdDeg       = 120.0
)

// routeEdgeSlot is the precomputed best-matching graph edge for one route
// segment; valid is false when no candidate edge was found.
type routeEdgeSlot struct {
	id    model.EdgeID
	valid bool
}

// Matcher projects Fix values onto an active Route, aliasing graph edges
// by ID; it must be re-initialized (via SetRoute) whenever the underlying
// graph is cleared and rebuilt.
type Matcher struct {
	g  *graph.Graph
	ix *spatial.Index

	route      *model.Route
	cumulative []float64
	routeEdges []routeEdgeSlot
	closestIdx int
}

// New returns a Matcher with no active route.
func New(g *graph.Graph, ix *spatial.Index) *Matcher {
	return &Matcher{g: g, ix: ix}
}

// HasRoute reports whether a route is currently active.
func (m *Matcher) HasRoute() bool { return m.route != nil }

// SetRoute precomputes cumulative arc length and the best-matching graph
// edge for every route segment. It never fails; gaps over 50 m are only
// logged, not rejected.
func (m *Matcher) SetRoute(r model.Route) {
	route := r
	m.route = &route
	m.closestIdx = 0

	n := len(route.Points)
	m.cumulative = make([]float64, n)
	for i := 1; i < n; i++ {
		a, b := route.Points[i-1].LatLon, route.Points[i].LatLon
		gap := geodesy.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		m.cumulative[i] = m.cumulative[i-1] + gap
		if gap > consecutiveGapWarnM {
			log.Warn().Float64("gap_m", gap).Int("segment", i-1).Str("route_id", route.ID).
				Msg("route segment gap exceeds 50m")
		}
	}

	m.routeEdges = make([]routeEdgeSlot, 0, maxInt(n-1, 0))
	for i := 0; i < n-1; i++ {
		m.routeEdges = append(m.routeEdges, m.bestEdgeForSegment(route.Points[i].LatLon, route.Points[i+1].LatLon))
	}
}

func (m *Matcher) bestEdgeForSegment(a, b model.LatLon) routeEdgeSlot {
	midLat, midLon := geodesy.InterpolateLatLon(a.Lat, a.Lon, b.Lat, b.Lon, 0.5)
	mid := model.LatLon{Lat: midLat, Lon: midLon}
	segBearing := geodesy.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)

	candidates := m.ix.NearbyEdges(mid, segmentEdgeRadiusM)
	if len(candidates) == 0 {
		candidates = m.ix.NearbyEdges(mid, segmentEdgeRadiusWidenM)
	}

	best := routeEdgeSlot{}
	bestScore := math.Inf(1)
	for _, eid := range candidates {
		e, ok := m.g.GetEdge(eid)
		if !ok {
			continue
		}
		uNode, _ := m.g.GetNode(e.From)
		vNode, _ := m.g.GetNode(e.To)
		projDist, _ := geodesy.PointToSegmentDist(mid.Lat, mid.Lon, uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
		edgeBearing := geodesy.Bearing(uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
		bearingDiff := math.Abs(geodesy.AngleDiff(segBearing, edgeBearing))

		score := projDist + (bearingDiff/segmentBearingDivisorDeg)*segmentBearingWeightM
		if score < bestScore {
			bestScore = score
			best = routeEdgeSlot{id: eid, valid: true}
		}
	}
	return best
}

// Match projects fix onto the active route and emits guidance. If no route
// is active, it returns a NoRoute result that otherwise passes the fix
// through unchanged.
func (m *Matcher) Match(fix model.Fix) model.MatchResult {
	if m.route == nil || len(m.route.Points) == 0 {
		return model.MatchResult{
			NextManeuver: model.ManeuverNoRoute,
			Matched:      fix.LatLon,
			MatchedBearingDeg: fix.BearingDeg,
		}
	}

	closestIdx := m.findClosestPointOnRoute(fix)
	m.closestIdx = closestIdx

	candidates := m.ix.NearbyEdges(fix.LatLon, candidateRadiusM)
	if len(candidates) == 0 {
		candidates = m.ix.NearbyEdges(fix.LatLon, candidateRadiusWidenM)
	}

	onRoute, offRoute := m.partitionCandidates(candidates)
	pool := onRoute
	if len(pool) == 0 {
		pool = offRoute
	}

	bestEdge, ok := m.scoreCandidates(fix, pool, onRoute)
	streetName := ""
	matched := fix.LatLon
	matchedBearing := fix.BearingDeg

	if ok {
		streetName = bestEdge.Name
		matched, matchedBearing = m.projectOntoEdge(fix, bestEdge)
	}

	nextManeuverIdx, maneuver := m.nextManeuver(closestIdx)
	distance := uint32(0)
	if nextManeuverIdx < len(m.cumulative) && closestIdx < len(m.cumulative) {
		d := m.cumulative[nextManeuverIdx] - m.cumulative[closestIdx]
		if d > 0 {
			distance = uint32(math.Round(d))
		}
	}

	return model.MatchResult{
		StreetName:        streetName,
		NextManeuver:       maneuver,
		DistanceToNextM:    distance,
		ETARFC3339:         "",
		Matched:            matched,
		MatchedBearingDeg:  matchedBearing,
	}
}

func (m *Matcher) partitionCandidates(candidates []model.EdgeID) (onRoute, offRoute []model.EdgeID) {
	onSet := make(map[model.EdgeID]struct{}, len(m.routeEdges))
	for _, slot := range m.routeEdges {
		if slot.valid {
			onSet[slot.id] = struct{}{}
		}
	}
	for _, eid := range candidates {
		if _, ok := onSet[eid]; ok {
			onRoute = append(onRoute, eid)
		} else {
			offRoute = append(offRoute, eid)
		}
	}
	return onRoute, offRoute
}

// scoreCandidates weighs each candidate edge's perpendicular distance,
// bearing alignment, route membership, and speed consistency, returning
// the best match.
func (m *Matcher) scoreCandidates(fix model.Fix, pool []model.EdgeID, onRoute []model.EdgeID) (graph.Edge, bool) {
	onSet := make(map[model.EdgeID]struct{}, len(onRoute))
	for _, eid := range onRoute {
		onSet[eid] = struct{}{}
	}

	bestScore := math.Inf(1)
	var bestEdge graph.Edge
	found := false

	for _, eid := range pool {
		e, ok := m.g.GetEdge(eid)
		if !ok {
			continue
		}
		uNode, _ := m.g.GetNode(e.From)
		vNode, _ := m.g.GetNode(e.To)
		perpDist, _ := geodesy.PointToSegmentDist(fix.Lat, fix.Lon, uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
		if perpDist > maxPerpDistM {
			continue
		}

		edgeBearing := geodesy.Bearing(uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
		bearingDiff := math.Abs(geodesy.AngleDiff(float64(fix.BearingDeg), edgeBearing))
		if bearingDiff > 180 {
			bearingDiff = 360 - bearingDiff
		}

		score := distanceWeight*perpDist + bearingWeight*(bearingDiff/180.0)*bearingScaleM

		routeBonus := offRouteBonus
		if _, ok := onSet[eid]; ok {
			routeBonus = onRouteBonus
		}
		score *= routeBonus
		score *= speedFactor(float64(fix.SpeedMps), e.SpeedLimitKph)

		if score < bestScore {
			bestScore = score
			bestEdge = e
			found = true
		}
	}
	return bestEdge, found
}

// speedFactor adjusts a candidate edge's match score based on whether the
// observed speed is consistent with the edge's posted speed limit.
func speedFactor(speedMps, speedLimitKph float64) float64 {
	switch {
	case speedMps > 1 && speedLimitKph > 60:
		return 0.8
	case speedMps > 10 && speedLimitKph < 30:
		return 1.2
	case speedMps < 5 && speedLimitKph > 70:
		return 1.2
	default:
		return 1.0
	}
}

// projectOntoEdge clamps fix onto e, flipping the edge's bearing 180° if
// the fix's own bearing opposes it.
func (m *Matcher) projectOntoEdge(fix model.Fix, e graph.Edge) (model.LatLon, float32) {
	uNode, _ := m.g.GetNode(e.From)
	vNode, _ := m.g.GetNode(e.To)

	_, ratio := geodesy.PointToSegmentDist(fix.Lat, fix.Lon, uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
	lat, lon := geodesy.InterpolateLatLon(uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon, ratio)

	edgeBearing := geodesy.Bearing(uNode.Pos.Lat, uNode.Pos.Lon, vNode.Pos.Lat, vNode.Pos.Lon)
	diff := math.Abs(geodesy.AngleDiff(float64(fix.BearingDeg), edgeBearing))
	if diff > 90 {
		edgeBearing = math.Mod(edgeBearing+180, 360)
	}

	return model.LatLon{Lat: lat, Lon: lon}, float32(edgeBearing)
}

// findClosestPointOnRoute returns the nearest route point by haversine
// distance, advanced by one when forward progress within the current
// segment exceeds 70% and the fix's heading aligns with the next point
// within 45°. Advancement is clamped at len(points)-1 (never overruns into
// a nonexistent segment).
func (m *Matcher) findClosestPointOnRoute(fix model.Fix) int {
	points := m.route.Points
	best := 0
	bestDist := math.Inf(1)
	for i, p := range points {
		d := geodesy.Haversine(fix.Lat, fix.Lon, p.Lat, p.Lon)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	if best >= len(points)-1 {
		return len(points) - 1
	}

	curr := points[best].LatLon
	next := points[best+1].LatLon
	segLen := geodesy.Haversine(curr.Lat, curr.Lon, next.Lat, next.Lon)
	if segLen <= 0 {
		return best
	}

	_, ratio := geodesy.PointToSegmentDist(fix.Lat, fix.Lon, curr.Lat, curr.Lon, next.Lat, next.Lon)
	segBearing := geodesy.Bearing(curr.Lat, curr.Lon, next.Lat, next.Lon)
	headingDiff := math.Abs(geodesy.AngleDiff(float64(fix.BearingDeg), segBearing))

	if ratio > advanceProgressThreshold && headingDiff <= advanceBearingToleranceDeg {
		if best+1 > len(points)-1 {
			return len(points) - 1
		}
		return best + 1
	}
	return best
}

// nextManeuver returns the first route index j > closestIdx whose turn
// angle exceeds 30°, else the final index (Arrive).
func (m *Matcher) nextManeuver(closestIdx int) (int, model.Maneuver) {
	points := m.route.Points
	last := len(points) - 1
	if closestIdx >= last {
		return last, model.ManeuverArrive
	}

	for j := closestIdx + 1; j < last; j++ {
		angle := turnAngle(points[j-1].LatLon, points[j].LatLon, points[j+1].LatLon)
		if math.Abs(angle) > maneuverTurnThresholdDeg {
			return j, maneuverFromAngle(angle)
		}
	}
	return last, model.ManeuverArrive
}

// turnAngle returns the signed bearing change (bearing_out - bearing_in)
// wrapped to (-180, 180] at point b of the path a->b->c.
func turnAngle(a, b, c model.LatLon) float64 {
	bearingIn := geodesy.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)
	bearingOut := geodesy.Bearing(b.Lat, b.Lon, c.Lat, c.Lon)
	return geodesy.AngleDiff(bearingIn, bearingOut)
}

// maneuverFromAngle classifies a signed turn angle into a Maneuver.
func maneuverFromAngle(angle float64) model.Maneuver {
	abs := math.Abs(angle)
	right := angle > 0

	switch {
	case abs < continueThresholdDeg:
		return model.ManeuverContinue
	case abs < slightThresholdDeg:
		if right {
			return model.ManeuverSlightRight
		}
		return model.ManeuverSlightLeft
	case abs < sharpThresholdDeg:
		if right {
			return model.ManeuverRight
		}
		return model.ManeuverLeft
	default:
		if right {
			return model.ManeuverSharpRight
		}
		return model.ManeuverSharpLeft
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
