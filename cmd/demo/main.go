// Command demo drives the navigation core against a local OSM XML extract:
// it loads the graph, sets a destination, and replays a short synthetic
// RawFix stream, logging the MatchResult produced at each step. It
// exercises the façade's public surface the way an embedder would. The
// core has no network contract of its own, so there is no server to run
// here — just a straight line through load, destination, and guidance.
package main

import (
	"flag"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"navcore"
)

func main() {
	osmPath := flag.String("osm", "", "path to an OSM XML 0.6 extract")
	destLat := flag.Float64("dest-lat", 0, "destination latitude")
	destLon := flag.Float64("dest-lon", 0, "destination longitude")
	startLat := flag.Float64("start-lat", 0, "starting latitude")
	startLon := flag.Float64("start-lon", 0, "starting longitude")
	steps := flag.Int("steps", 5, "number of synthetic RawFix samples to replay")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *osmPath == "" {
		log.Fatal().Msg("missing required -osm flag")
	}

	f, err := os.Open(*osmPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *osmPath).Msg("failed to open OSM extract")
	}
	defer f.Close()

	engine := navcore.NewEngine()

	start := time.Now()
	if ok := engine.LoadOSM(f); !ok {
		log.Fatal().Str("path", *osmPath).Msg("load_osm rejected the input (invalid XML or zero usable highways)")
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("graph loaded")

	dest := navcore.LatLon{Lat: *destLat, Lon: *destLon}
	if ok := engine.SetDestination(dest); !ok {
		log.Warn().Msg("set_destination produced no routes")
	}

	lat, lon := *startLat, *startLon
	for i := 0; i < *steps; i++ {
		// Nudge the synthetic fix a little further along a straight
		// line toward the destination each step.
		t := float64(i) / float64(max(*steps-1, 1))
		sampleLat := lat + t*(*destLat-lat)
		sampleLon := lon + t*(*destLon-lon)

		raw := navcore.RawFix{
			LatLon:     navcore.LatLon{Lat: sampleLat, Lon: sampleLon},
			BearingDeg: float32(math.NaN()),
			SpeedMps:   float32(math.NaN()),
			AccuracyM:  8,
			ReceivedAt: time.Now().UnixNano(),
		}

		result := engine.UpdateLocation(raw)
		log.Info().
			Int("step", i).
			Str("street", result.StreetName).
			Str("maneuver", maneuverName(result.NextManeuver)).
			Uint32("distance_to_next_m", result.DistanceToNextM).
			Msg("match result")
	}
}

// maneuverName renders a Maneuver for log output, using the same names as
// Maneuver's String method.
func maneuverName(m navcore.Maneuver) string {
	switch m {
	case navcore.ManeuverContinue:
		return "continue"
	case navcore.ManeuverSlightLeft:
		return "slight_left"
	case navcore.ManeuverLeft:
		return "left"
	case navcore.ManeuverSharpLeft:
		return "sharp_left"
	case navcore.ManeuverSlightRight:
		return "slight_right"
	case navcore.ManeuverRight:
		return "right"
	case navcore.ManeuverSharpRight:
		return "sharp_right"
	case navcore.ManeuverArrive:
		return "arrive"
	case navcore.ManeuverFollowRoute:
		return "follow_route"
	case navcore.ManeuverNoRoute:
		return "no_route"
	case navcore.ManeuverRecalcNeeded:
		return "recalc_needed"
	default:
		return "unknown"
	}
}
