// Package model holds the navigation core's shared value types: the plain
// geographic and routing data structures every other internal package
// passes around. It has no dependencies beyond the standard library so it
// can sit underneath geodesy, filter, graph, spatial, ingest, routing, and
// matcher without creating import cycles; the root navcore package
// re-exports these as its public API via type aliases.
package model

import "math"

// NodeID is a stable index into a Graph's node pool.
type NodeID uint32

// EdgeID is a stable index into a Graph's edge pool.
type EdgeID uint32

// InvalidNodeID marks the absence of a node.
const InvalidNodeID NodeID = ^NodeID(0)

// LatLon is a WGS-84 geographic coordinate in decimal degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate lies within the legal WGS-84 range
// and is not NaN/Inf on either axis.
func (l LatLon) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lon, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// RawFix is a raw, possibly noisy observation from the location provider.
// BearingDeg and SpeedMps may be NaN when the platform does not report
// them; the location filter (internal/filter) guarantees their replacement.
type RawFix struct {
	LatLon
	BearingDeg float32 // degrees, [0,360) or NaN
	SpeedMps   float32 // meters/second, >=0 or NaN
	AccuracyM  float32 // meters, >=0
	ReceivedAt int64   // monotonic nanoseconds, caller-supplied receive time
}

// Fix is a RawFix that has passed through the location filter: bearing and
// speed are guaranteed finite.
type Fix struct {
	LatLon
	BearingDeg float32
	SpeedMps   float32
	AccuracyM  float32
}

// RoadKind classifies a road edge by its OSM highway tag.
type RoadKind int

const (
	RoadHighway RoadKind = iota
	RoadPrimary
	RoadSecondary
	RoadResidential
	RoadService
)

func (k RoadKind) String() string {
	switch k {
	case RoadHighway:
		return "highway"
	case RoadPrimary:
		return "primary"
	case RoadSecondary:
		return "secondary"
	case RoadResidential:
		return "residential"
	case RoadService:
		return "service"
	default:
		return "unknown"
	}
}

// DefaultSpeedKph returns the table default used when an OSM way carries
// no parseable maxspeed tag.
func (k RoadKind) DefaultSpeedKph() float64 {
	switch k {
	case RoadHighway:
		return 100
	case RoadPrimary:
		return 70
	case RoadSecondary:
		return 50
	case RoadResidential:
		return 30
	case RoadService:
		return 20
	default:
		return 30
	}
}

// Maneuver is the guidance instruction attached to a MatchResult.
type Maneuver int

const (
	ManeuverContinue Maneuver = iota
	ManeuverSlightLeft
	ManeuverLeft
	ManeuverSharpLeft
	ManeuverSlightRight
	ManeuverRight
	ManeuverSharpRight
	ManeuverArrive
	ManeuverFollowRoute
	ManeuverNoRoute
	ManeuverRecalcNeeded
)

func (m Maneuver) String() string {
	switch m {
	case ManeuverContinue:
		return "continue"
	case ManeuverSlightLeft:
		return "slight_left"
	case ManeuverLeft:
		return "left"
	case ManeuverSharpLeft:
		return "sharp_left"
	case ManeuverSlightRight:
		return "slight_right"
	case ManeuverRight:
		return "right"
	case ManeuverSharpRight:
		return "sharp_right"
	case ManeuverArrive:
		return "arrive"
	case ManeuverFollowRoute:
		return "follow_route"
	case ManeuverNoRoute:
		return "no_route"
	case ManeuverRecalcNeeded:
		return "recalc_needed"
	default:
		return "unknown"
	}
}

// Route is a sequence of densified points with guidance-ready bearings and
// speeds, produced by the routing engine and consumed by the matcher.
type Route struct {
	ID        string
	Name      string
	Points    []Fix
	DurationS uint32
}

// MatchResult is the matcher's per-fix output: current street, next
// maneuver, and the live-projected position.
type MatchResult struct {
	StreetName       string
	NextManeuver     Maneuver
	DistanceToNextM  uint32
	ETARFC3339       string
	Matched          LatLon
	MatchedBearingDeg float32
}
