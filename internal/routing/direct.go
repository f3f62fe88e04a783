package routing

import (
	"math"

	"navcore/internal/geodesy"
	"navcore/internal/model"
)

// directJitterDeg is added to intermediate direct-route samples so that
// downstream consumers never see three perfectly collinear points.
const directJitterDeg = 0.000005

// directRouteName is the Name every straight-line fallback route carries
// so callers (and tests) can recognize it.
const directRouteName = "Direct"

// createDirectRoute produces a straight-line route sampled every
// routePointSpacingMaxM (25 m) between start and end, jittering
// intermediate samples to avoid exact collinearity. It never fails.
func createDirectRoute(start, end model.LatLon, idGen func() string) model.Route {
	total := geodesy.Haversine(start.Lat, start.Lon, end.Lat, end.Lon)

	samples := int(math.Ceil(total / routePointSpacingMaxM))
	if samples < 1 {
		samples = 1
	}

	points := make([]model.LatLon, 0, samples+1)
	points = append(points, start)
	for k := 1; k < samples; k++ {
		t := float64(k) / float64(samples)
		lat, lon := geodesy.InterpolateLatLon(start.Lat, start.Lon, end.Lat, end.Lon, t)
		if k%2 == 0 {
			lat += directJitterDeg
		} else {
			lon += directJitterDeg
		}
		points = append(points, model.LatLon{Lat: lat, Lon: lon})
	}
	points = append(points, end)

	fixes := withBearingsAndSpeeds(points)
	duration := uint32(math.Round(total / cruiseSpeedMps))

	return model.Route{
		ID:        idGen(),
		Name:      directRouteName,
		Points:    fixes,
		DurationS: duration,
	}
}
