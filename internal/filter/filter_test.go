package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"navcore/internal/model"
)

func TestProcessFirstSamplePassesThrough(t *testing.T) {
	f := New()
	raw := model.RawFix{
		LatLon:     model.LatLon{Lat: 1.30, Lon: 103.80},
		BearingDeg: 45,
		SpeedMps:   3,
		AccuracyM:  10,
		ReceivedAt: 1_000_000_000,
	}

	fix := f.Process(raw)

	assert.Equal(t, raw.Lat, fix.Lat)
	assert.Equal(t, raw.Lon, fix.Lon)
	assert.Equal(t, float32(45), fix.BearingDeg)
	assert.Equal(t, float32(3), fix.SpeedMps)
	assert.InDelta(t, 8.0, fix.AccuracyM, 1e-6)
}

func TestProcessFirstSampleSynthesizesZeroWhenNaN(t *testing.T) {
	f := New()
	raw := model.RawFix{
		LatLon:     model.LatLon{Lat: 1.30, Lon: 103.80},
		BearingDeg: float32(math.NaN()),
		SpeedMps:   float32(math.NaN()),
		AccuracyM:  5,
		ReceivedAt: 0,
	}

	fix := f.Process(raw)

	assert.False(t, math.IsNaN(float64(fix.BearingDeg)))
	assert.False(t, math.IsNaN(float64(fix.SpeedMps)))
	assert.Equal(t, float32(0), fix.BearingDeg)
	assert.Equal(t, float32(0), fix.SpeedMps)
}

func TestProcessIsDeterministic(t *testing.T) {
	samples := []model.RawFix{
		{LatLon: model.LatLon{Lat: 1.30, Lon: 103.80}, BearingDeg: 0, SpeedMps: 1, AccuracyM: 5, ReceivedAt: 0},
		{LatLon: model.LatLon{Lat: 1.3001, Lon: 103.8001}, BearingDeg: 45, SpeedMps: 1.2, AccuracyM: 5, ReceivedAt: 1_000_000_000},
		{LatLon: model.LatLon{Lat: 1.3003, Lon: 103.8002}, BearingDeg: 40, SpeedMps: 1.3, AccuracyM: 4, ReceivedAt: 2_000_000_000},
	}

	run := func() []model.Fix {
		f := New()
		out := make([]model.Fix, 0, len(samples))
		for _, s := range samples {
			out = append(out, f.Process(s))
		}
		return out
	}

	a := run()
	b := run()
	assert.Equal(t, a, b)
}

func TestProcessBearingSynthesisFromMotion(t *testing.T) {
	// Two fixes 1s apart, both with NaN bearing/speed, moving east.
	f := New()
	f.Process(model.RawFix{
		LatLon:     model.LatLon{Lat: 1.30000, Lon: 103.80000},
		BearingDeg: float32(math.NaN()),
		SpeedMps:   float32(math.NaN()),
		AccuracyM:  3,
		ReceivedAt: 0,
	})

	fix := f.Process(model.RawFix{
		LatLon:     model.LatLon{Lat: 1.30000, Lon: 103.80001},
		BearingDeg: float32(math.NaN()),
		SpeedMps:   float32(math.NaN()),
		AccuracyM:  3,
		ReceivedAt: 1_000_000_000,
	})

	assert.InDelta(t, 90, fix.BearingDeg, 5)
	assert.InDelta(t, 1.11, fix.SpeedMps, 1.0)
}

func TestProcessClampsBadDeltaTime(t *testing.T) {
	f := New()
	f.Process(model.RawFix{LatLon: model.LatLon{Lat: 1.3, Lon: 103.8}, BearingDeg: 0, SpeedMps: 0, AccuracyM: 5, ReceivedAt: 0})

	// Negative dt (out-of-order sample) must not panic or produce NaN.
	fix := f.Process(model.RawFix{LatLon: model.LatLon{Lat: 1.30001, Lon: 103.80001}, BearingDeg: 10, SpeedMps: 1, AccuracyM: 5, ReceivedAt: -5})
	assert.False(t, math.IsNaN(fix.Lat))
	assert.False(t, math.IsNaN(fix.Lon))

	// Huge dt (>10s) must also fall back to the default step.
	fix = f.Process(model.RawFix{LatLon: model.LatLon{Lat: 1.30002, Lon: 103.80002}, BearingDeg: 10, SpeedMps: 1, AccuracyM: 5, ReceivedAt: 100_000_000_000})
	assert.False(t, math.IsNaN(fix.Lat))
}

func TestProcessNeverEmitsNaN(t *testing.T) {
	f := New()
	ts := int64(0)
	for i := 0; i < 50; i++ {
		ts += 500_000_000
		fix := f.Process(model.RawFix{
			LatLon:     model.LatLon{Lat: 1.30 + float64(i)*0.0001, Lon: 103.80 + float64(i)*0.0001},
			BearingDeg: float32(math.NaN()),
			SpeedMps:   float32(math.NaN()),
			AccuracyM:  8,
			ReceivedAt: ts,
		})
		assert.False(t, math.IsNaN(fix.Lat))
		assert.False(t, math.IsNaN(fix.Lon))
		assert.False(t, math.IsNaN(float64(fix.BearingDeg)))
		assert.False(t, math.IsNaN(float64(fix.SpeedMps)))
	}
}
