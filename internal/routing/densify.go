package routing

import (
	"math"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
)

const (
	routePointSpacingMaxM = 25.0
	minIntermediateInserts = 2
	gapSegmentLengthM      = 20.0
	snapClearanceM         = 10.0

	smoothingBearingThresholdDeg = 20.0
	smoothingDistanceThresholdM  = 50.0
	collinearityRatio            = 0.8

	cruiseSpeedMps = 9.72 // ~35 kph, used for direct-route duration estimates
)

// densify converts a node path through g into a raw point list: start/end
// are spliced onto the graph path, with linear intermediate fixes inserted
// wherever the gap is large or no direct out-edge exists between
// consecutive path nodes.
func densify(g *graph.Graph, path []model.NodeID, start, end model.LatLon) []model.LatLon {
	if len(path) == 0 {
		return []model.LatLon{start, end}
	}

	nodePos := make([]model.LatLon, len(path))
	for i, n := range path {
		node, _ := g.GetNode(n)
		nodePos[i] = node.Pos
	}

	var points []model.LatLon
	points = append(points, start)

	if d := geodesy.Haversine(start.Lat, start.Lon, nodePos[0].Lat, nodePos[0].Lon); d > snapClearanceM {
		points = append(points, interpolateN(start, nodePos[0], 4)...) // 3 interior points
	}

	for i := 0; i < len(nodePos); i++ {
		points = append(points, nodePos[i])
		if i == len(nodePos)-1 {
			continue
		}
		if hasDirectEdge(g, path[i], path[i+1]) {
			continue
		}
		gap := geodesy.Haversine(nodePos[i].Lat, nodePos[i].Lon, nodePos[i+1].Lat, nodePos[i+1].Lon)
		n := int(math.Ceil(gap / gapSegmentLengthM))
		if n < minIntermediateInserts {
			n = minIntermediateInserts
		}
		points = append(points, interpolateN(nodePos[i], nodePos[i+1], n+1)...) // n interior points
	}

	last := nodePos[len(nodePos)-1]
	if d := geodesy.Haversine(last.Lat, last.Lon, end.Lat, end.Lon); d > snapClearanceM {
		points = append(points, interpolateN(last, end, 4)...) // 3 interior points
	}
	points = append(points, end)

	return points
}

// interpolateN returns n-1 evenly spaced interior points strictly between
// a and b (a and b themselves are not included).
func interpolateN(a, b model.LatLon, n int) []model.LatLon {
	out := make([]model.LatLon, 0, n-1)
	for k := 1; k < n; k++ {
		t := float64(k) / float64(n)
		lat, lon := geodesy.InterpolateLatLon(a.Lat, a.Lon, b.Lat, b.Lon, t)
		out = append(out, model.LatLon{Lat: lat, Lon: lon})
	}
	return out
}

func hasDirectEdge(g *graph.Graph, from, to model.NodeID) bool {
	for _, eid := range g.OutEdges(from) {
		e, ok := g.GetEdge(eid)
		if ok && e.To == to {
			return true
		}
	}
	return false
}

// withBearingsAndSpeeds computes per-point bearing (toward the next point)
// and speed = clamp(gap/10, 5, 30) m/s; the last point gets the previous
// point's bearing and speed 0.
func withBearingsAndSpeeds(points []model.LatLon) []model.Fix {
	fixes := make([]model.Fix, len(points))
	for i, p := range points {
		fixes[i].LatLon = p
	}
	for i := 0; i < len(points); i++ {
		if i == len(points)-1 {
			if i > 0 {
				fixes[i].BearingDeg = fixes[i-1].BearingDeg
			}
			fixes[i].SpeedMps = 0
			continue
		}
		a, b := points[i], points[i+1]
		bearing := geodesy.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)
		gap := geodesy.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		speed := gap / 10
		if speed > 30 {
			speed = 30
		}
		if speed < 5 {
			speed = 5
		}
		fixes[i].BearingDeg = float32(bearing)
		fixes[i].SpeedMps = float32(speed)
	}
	return fixes
}

// smoothRoute drops intermediate points whose bearing change is small and
// whose gap from the last kept point is short, unless dropping them would
// cut a real corner rather than a
// straight stretch — judged by the collinearity ratio dist(prev,next) /
// (dist(prev,curr)+dist(curr,next)): values near 1 mean curr sits almost
// exactly on the line from prev to next and is safe to drop; values well
// below 1 mean curr marks a real bend and must be kept even if its local
// bearing delta looked small. First and last points are always preserved.
func smoothRoute(fixes []model.Fix) []model.Fix {
	if len(fixes) <= 2 {
		out := make([]model.Fix, len(fixes))
		copy(out, fixes)
		return out
	}

	kept := make([]model.LatLon, 0, len(fixes))
	kept = append(kept, fixes[0].LatLon)

	for i := 1; i < len(fixes)-1; i++ {
		prev := kept[len(kept)-1]
		curr := fixes[i].LatLon
		next := fixes[i+1].LatLon

		inBearing := geodesy.Bearing(prev.Lat, prev.Lon, curr.Lat, curr.Lon)
		outBearing := geodesy.Bearing(curr.Lat, curr.Lon, next.Lat, next.Lon)
		bearingChange := math.Abs(geodesy.AngleDiff(inBearing, outBearing))

		distPrevCurr := geodesy.Haversine(prev.Lat, prev.Lon, curr.Lat, curr.Lon)

		if bearingChange < smoothingBearingThresholdDeg && distPrevCurr <= smoothingDistanceThresholdM {
			distCurrNext := geodesy.Haversine(curr.Lat, curr.Lon, next.Lat, next.Lon)
			distPrevNext := geodesy.Haversine(prev.Lat, prev.Lon, next.Lat, next.Lon)
			ratio := 0.0
			if sum := distPrevCurr + distCurrNext; sum > 0 {
				ratio = distPrevNext / sum
			}
			if ratio >= collinearityRatio {
				continue // drop curr: collinear and redundant
			}
		}

		kept = append(kept, curr)
	}

	kept = append(kept, fixes[len(fixes)-1].LatLon)
	return withBearingsAndSpeeds(kept)
}

// routeDuration sums gap/speed over consecutive points when speed > 0.1
// m/s, falling back to total_length/cruiseSpeedMps otherwise.
func routeDuration(points []model.Fix) uint32 {
	var seconds float64
	var totalLength float64
	usedSpeed := false

	for i := 0; i < len(points)-1; i++ {
		a, b := points[i].LatLon, points[i+1].LatLon
		gap := geodesy.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		totalLength += gap
		speed := float64(points[i].SpeedMps)
		if speed > 0.1 {
			seconds += gap / speed
			usedSpeed = true
		}
	}

	if !usedSpeed {
		return uint32(math.Round(totalLength / cruiseSpeedMps))
	}
	return uint32(math.Round(seconds))
}
