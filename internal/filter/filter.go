// Package filter smooths a stream of noisy RawFix observations into a
// stream of Fix values using a constant-velocity Kalman-style filter with
// four scalar state components: lat, lon, lat_vel, lon_vel (the latter two
// in degrees/second). The filter never fails; every sample produces a Fix.
package filter

import (
	"math"

	"navcore/internal/model"
)

// Tunable constants, fixed per the navigation core's design — not
// reconfigurable at runtime.
const (
	initialPosVar = 10.0
	initialVelVar = 5.0

	processNoisePos = 0.01
	processNoiseVel = 0.1

	measurementNoiseBase = 5.0

	maxVelDeltaPerStep = 10.0

	velSmoothPrev = 0.7
	velSmoothNew  = 0.3

	gainMin = 0.1
	gainMax = 0.9

	dtMin     = 0.0
	dtFallback = 0.1
	dtMax     = 10.0

	// metersPerDegree is the 1°≈111km engineering approximation used to
	// convert a degrees/second velocity vector into meters/second. It is
	// intentionally not latitude-corrected.
	metersPerDegree = 111_000.0
)

// Filter is a single constant-velocity Kalman-style position filter. Zero
// value is ready to use.
type Filter struct {
	initialized bool

	lat, lon       float64
	latVel, lonVel float64 // degrees/second

	posVar, velVar float64

	lastTimestamp int64 // nanoseconds
}

// New returns a freshly reset filter.
func New() *Filter {
	return &Filter{}
}

// Process consumes one RawFix and returns the corresponding filtered Fix.
// It never returns an error: an uninitialized filter simply adopts the
// first sample as its state.
func (f *Filter) Process(raw model.RawFix) model.Fix {
	if !f.initialized {
		f.lat = raw.Lat
		f.lon = raw.Lon
		f.latVel = 0
		f.lonVel = 0
		f.posVar = initialPosVar
		f.velVar = initialVelVar
		f.lastTimestamp = raw.ReceivedAt
		f.initialized = true

		bearing := raw.BearingDeg
		speed := raw.SpeedMps
		if isNaN32(bearing) {
			bearing = 0
		}
		if isNaN32(speed) {
			speed = 0
		}

		return model.Fix{
			LatLon:     model.LatLon{Lat: raw.Lat, Lon: raw.Lon},
			BearingDeg: bearing,
			SpeedMps:   speed,
			AccuracyM:  raw.AccuracyM * 0.8,
		}
	}

	dt := float64(raw.ReceivedAt-f.lastTimestamp) / 1e9
	if dt <= dtMin || dt > dtMax {
		dt = dtFallback
	}
	f.lastTimestamp = raw.ReceivedAt

	// Predict.
	predLat := f.lat + f.latVel*dt
	predLon := f.lon + f.lonVel*dt
	f.posVar += processNoisePos
	f.velVar += processNoiseVel

	// Measurement noise adapts with reported accuracy.
	r := measurementNoiseBase * math.Max(float64(raw.AccuracyM), 0) / 10
	gain := f.posVar / (f.posVar + r)
	if gain < gainMin {
		gain = gainMin
	} else if gain > gainMax {
		gain = gainMax
	}

	innovLat := raw.Lat - predLat
	innovLon := raw.Lon - predLon

	newLat := predLat + gain*innovLat
	newLon := predLon + gain*innovLon
	f.posVar *= (1 - gain)

	// Derive velocity from the position innovation, clamp its change, and
	// smooth it against the previous estimate.
	rawVelLat := innovLat / dt
	rawVelLon := innovLon / dt

	newLatVel := limitedVelocity(f.latVel, rawVelLat)
	newLonVel := limitedVelocity(f.lonVel, rawVelLon)

	f.latVel = velSmoothPrev*f.latVel + velSmoothNew*newLatVel
	f.lonVel = velSmoothPrev*f.lonVel + velSmoothNew*newLonVel

	f.lat = newLat
	f.lon = newLon

	bearing := raw.BearingDeg
	speed := raw.SpeedMps
	if isNaN32(bearing) || isNaN32(speed) {
		synthBearing, synthSpeed := f.synthesize()
		if isNaN32(bearing) {
			bearing = synthBearing
		}
		if isNaN32(speed) {
			speed = synthSpeed
		}
	}

	return model.Fix{
		LatLon:     model.LatLon{Lat: f.lat, Lon: f.lon},
		BearingDeg: bearing,
		SpeedMps:   speed,
		AccuracyM:  raw.AccuracyM * 0.8,
	}
}

// synthesize derives bearing/speed from the filter's internal velocity
// vector: bearing = atan2(lon_vel, lat_vel) mod 360; speed =
// |v| * 111_000 (the 1°≈111km approximation, kept for parity, not fixed).
func (f *Filter) synthesize() (bearingDeg, speedMps float32) {
	bearing := math.Mod(radToDeg(math.Atan2(f.lonVel, f.latVel))+360, 360)
	speed := math.Hypot(f.latVel, f.lonVel) * metersPerDegree
	return float32(bearing), float32(speed)
}

func limitedVelocity(prev, raw float64) float64 {
	delta := raw - prev
	if delta > maxVelDeltaPerStep {
		delta = maxVelDeltaPerStep
	} else if delta < -maxVelDeltaPerStep {
		delta = -maxVelDeltaPerStep
	}
	return prev + delta
}

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

func isNaN32(v float32) bool { return math.IsNaN(float64(v)) }
