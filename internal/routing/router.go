package routing

import (
	"strings"

	"github.com/google/uuid"

	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/model"
	"navcore/internal/spatial"
)

const (
	maxRouteDistanceM    = 10_000.0
	nodeSearchRadiusM    = 10_000.0
	alternativeSampleN   = 10
	alternativeRadiusM   = 200.0
	similarityRejectFrac = 0.70

	fastestDurationMultiplier    = 1.2
	noHighwaysDurationMultiplier = 0.8
)

// altSpec names an alternative cost function and how its reported duration
// is adjusted relative to the raw densified travel time.
type altSpec struct {
	name               string
	cost               CostFunc
	durationMultiplier float64
}

var alternativeSpecs = []altSpec{
	{name: "Fastest", cost: FastestCost{}, durationMultiplier: fastestDurationMultiplier},
	{name: "No highways", cost: NoHighwaysCost{}, durationMultiplier: noHighwaysDurationMultiplier},
}

// Routes is the routing engine's public entry point: it returns 1-3 routes
// from start to end, primary first, falling back to
// a direct straight-line route whenever the graph can't supply a real
// path, and returns an empty list only for invalid (NaN/out-of-range)
// coordinates.
func Routes(g *graph.Graph, ix *spatial.Index, start, end model.LatLon) []model.Route {
	if !start.Valid() || !end.Valid() {
		return nil
	}

	if geodesy.Haversine(start.Lat, start.Lon, end.Lat, end.Lon) > maxRouteDistanceM {
		return []model.Route{createDirectRoute(start, end, genRouteID)}
	}

	startNode, ok := findNearestNode(g, ix, start, nodeSearchRadiusM)
	if !ok {
		return []model.Route{createDirectRoute(start, end, genRouteID)}
	}
	endNode, ok := findNearestNode(g, ix, end, nodeSearchRadiusM)
	if !ok {
		return []model.Route{createDirectRoute(start, end, genRouteID)}
	}

	path, _, found := astarSearch(g, startNode, endNode, LengthCost{})
	if !found || len(path) == 0 {
		return []model.Route{createDirectRoute(start, end, genRouteID)}
	}

	primaryFixes := buildRoute(g, path, start, end)
	primary := model.Route{
		ID:        genRouteID(),
		Name:      "Primary",
		Points:    primaryFixes,
		DurationS: routeDuration(primaryFixes),
	}

	routes := []model.Route{primary}

	for _, spec := range alternativeSpecs {
		altPath, _, altFound := astarSearch(g, startNode, endNode, spec.cost)
		if !altFound || len(altPath) == 0 {
			continue
		}
		altFixes := buildRoute(g, altPath, start, end)
		if !acceptAlternative(primaryFixes, altFixes) {
			continue
		}
		duration := uint32(float64(routeDuration(altFixes)) * spec.durationMultiplier)
		routes = append(routes, model.Route{
			ID:        genRouteID(),
			Name:      spec.name,
			Points:    altFixes,
			DurationS: duration,
		})
	}

	return routes
}

func buildRoute(g *graph.Graph, path []model.NodeID, start, end model.LatLon) []model.Fix {
	points := densify(g, path, start, end)
	return smoothRoute(withBearingsAndSpeeds(points))
}

// acceptAlternative applies a similarity rejection: an alternative is kept
// only when fewer than 70% of 10 equally-spaced
// arc-length samples land within 200 m of the corresponding sample on the
// primary route. Endpoint proximity is trivially satisfied here since both
// routes are densified from the same user-supplied start/end.
func acceptAlternative(primary, alt []model.Fix) bool {
	if len(primary) < 2 || len(alt) < 2 {
		return false
	}

	within := 0
	for i := 0; i < alternativeSampleN; i++ {
		t := float64(i) / float64(alternativeSampleN-1)
		pa := sampleAlongRoute(primary, t)
		pb := sampleAlongRoute(alt, t)
		if geodesy.Haversine(pa.Lat, pa.Lon, pb.Lat, pb.Lon) <= alternativeRadiusM {
			within++
		}
	}

	similarity := float64(within) / float64(alternativeSampleN)
	return similarity < similarityRejectFrac
}

// sampleAlongRoute returns the point lying fraction t (0..1) of the way
// along fixes' cumulative arc length.
func sampleAlongRoute(fixes []model.Fix, t float64) model.LatLon {
	if len(fixes) == 1 {
		return fixes[0].LatLon
	}

	cumulative := make([]float64, len(fixes))
	for i := 1; i < len(fixes); i++ {
		gap := geodesy.Haversine(fixes[i-1].Lat, fixes[i-1].Lon, fixes[i].Lat, fixes[i].Lon)
		cumulative[i] = cumulative[i-1] + gap
	}
	total := cumulative[len(cumulative)-1]
	target := t * total

	if target <= 0 {
		return fixes[0].LatLon
	}
	if target >= total {
		return fixes[len(fixes)-1].LatLon
	}

	for i := 1; i < len(cumulative); i++ {
		if target <= cumulative[i] {
			segLen := cumulative[i] - cumulative[i-1]
			ratio := 0.0
			if segLen > 0 {
				ratio = (target - cumulative[i-1]) / segLen
			}
			lat, lon := geodesy.InterpolateLatLon(fixes[i-1].Lat, fixes[i-1].Lon, fixes[i].Lat, fixes[i].Lon, ratio)
			return model.LatLon{Lat: lat, Lon: lon}
		}
	}
	return fixes[len(fixes)-1].LatLon
}

// genRouteID produces a "route-" + 8 lowercase-hex-digit identifier. Using
// a UUID's random bits rather than hand-rolling entropy keeps route IDs
// unpredictable without the engine owning its own PRNG state.
func genRouteID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "route-" + raw[:8]
}
