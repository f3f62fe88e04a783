package navcore

import (
	"io"

	"navcore/internal/filter"
	"navcore/internal/geodesy"
	"navcore/internal/graph"
	"navcore/internal/ingest"
	"navcore/internal/matcher"
	"navcore/internal/model"
	"navcore/internal/routing"
	"navcore/internal/spatial"
)

const minDetailedPathSamples = 10

// Engine is the single entry point an embedder constructs and holds; there
// is no hidden process-global state. It is single-threaded and
// re-entrancy-free: callers from other goroutines must serialize access
// externally.
type Engine struct {
	filter *filter.Filter

	g  *graph.Graph
	ix *spatial.Index
	mc *matcher.Matcher

	lastFix     *model.Fix
	destination *model.LatLon

	routes        []model.Route
	activeRouteID string
}

// NewEngine returns an engine with an empty graph and no destination; the
// graph stays empty until LoadOSM succeeds. There is no synthesized
// demo network.
func NewEngine() *Engine {
	g := graph.New()
	ix := spatial.New(g)
	return &Engine{
		filter: filter.New(),
		g:      g,
		ix:     ix,
		mc:     matcher.New(g, ix),
	}
}

// LoadOSM parses r as OSM XML and replaces the graph wholesale. On failure
// the graph is left empty. Any previously computed routes and the active
// route are invalidated, since the matcher's routeEdges alias graph edges
// that no longer exist once the graph is replaced.
func (e *Engine) LoadOSM(r io.Reader) bool {
	g := graph.New()
	ok := ingest.Ingest(g, r, nil)
	if !ok {
		g = graph.New()
	}

	e.g = g
	e.ix = spatial.New(g)
	e.mc = matcher.New(g, e.ix)
	e.routes = nil
	e.activeRouteID = ""

	return ok
}

// UpdateLocation runs the location filter, activates the first computed
// route on the first fix once a destination is set, and returns guidance
// for the active route.
func (e *Engine) UpdateLocation(raw RawFix) MatchResult {
	fix := e.filter.Process(raw)
	e.lastFix = &fix

	if e.destination != nil && len(e.routes) == 0 {
		e.computeRoutes(fix.LatLon, *e.destination)
	}

	if e.activeRouteID == "" {
		return model.MatchResult{
			NextManeuver:      model.ManeuverNoRoute,
			Matched:           fix.LatLon,
			MatchedBearingDeg: fix.BearingDeg,
		}
	}
	return e.mc.Match(fix)
}

// SetDestination stores the destination and, if a Fix already exists,
// immediately computes routes. It returns true iff at least one route was
// produced, or iff no Fix exists yet (the destination is cached and
// routing is deferred to the first UpdateLocation call).
func (e *Engine) SetDestination(loc LatLon) bool {
	dest := loc
	e.destination = &dest

	if e.lastFix == nil {
		return true
	}
	return e.computeRoutes(e.lastFix.LatLon, loc)
}

// computeRoutes runs the routing engine and activates the primary route
// when at least one was produced.
func (e *Engine) computeRoutes(start, end model.LatLon) bool {
	routes := routing.Routes(e.g, e.ix, start, end)
	e.routes = routes
	e.activeRouteID = ""
	if len(routes) == 0 {
		return false
	}
	e.mc.SetRoute(routes[0])
	e.activeRouteID = routes[0].ID
	return true
}

// Routes returns a snapshot of the currently computed routes.
func (e *Engine) Routes() []Route {
	out := make([]Route, len(e.routes))
	copy(out, e.routes)
	return out
}

// SwitchToRoute activates the alternative identified by id, returning
// false when id does not match any currently computed route.
func (e *Engine) SwitchToRoute(id string) bool {
	for _, r := range e.routes {
		if r.ID == id {
			e.mc.SetRoute(r)
			e.activeRouteID = id
			return true
		}
	}
	return false
}

// DetailedPath routes from start to end via the routing engine; on
// failure it synthesizes a straight-line sample of max(10, maxSegments)
// points with the last point's speed set to 0, signaling a stop at
// the destination. The routing engine returns a direct route for any pair
// of valid coordinates, so the synthesized sample is produced only for
// coordinates it rejects (NaN or out of range).
func (e *Engine) DetailedPath(start, end LatLon, maxSegments uint32) []Fix {
	routes := routing.Routes(e.g, e.ix, start, end)
	if len(routes) > 0 {
		return routes[0].Points
	}

	n := int(maxSegments)
	if n < minDetailedPathSamples {
		n = minDetailedPathSamples
	}

	points := make([]model.Fix, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		lat, lon := geodesy.InterpolateLatLon(start.Lat, start.Lon, end.Lat, end.Lon, t)
		points[i].LatLon = model.LatLon{Lat: lat, Lon: lon}
	}
	for i := 0; i < n-1; i++ {
		points[i].BearingDeg = float32(geodesy.Bearing(points[i].Lat, points[i].Lon, points[i+1].Lat, points[i+1].Lon))
		points[i].SpeedMps = 10
	}
	points[n-1].BearingDeg = points[n-2].BearingDeg
	points[n-1].SpeedMps = 0

	return points
}
