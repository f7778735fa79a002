package geospatial_test

import (
	"math"
	"testing"
	"time"

	"github.com/diavlos/boatzone/internal/pkg/geospatial"
)

var headingOpts = geospatial.HeadingOptions{
	MinInterval: 500 * time.Millisecond,
	MinMoveM:    2,
	Alpha:       0.7,
}

func TestHeading_FirstSampleOnlyWarms(t *testing.T) {
	var s geospatial.HeadingState

	s, updated := s.Advance(centerLat, centerLon, time.Unix(0, 0), headingOpts)
	if updated {
		t.Error("first sample must not emit a heading")
	}
	if s.Phase != geospatial.HeadingWarming {
		t.Errorf("expected warming phase, got %v", s.Phase)
	}
}

func TestHeading_StationaryNeverEmits(t *testing.T) {
	var s geospatial.HeadingState
	at := time.Unix(0, 0)

	s, _ = s.Advance(centerLat, centerLon, at, headingOpts)

	// Jitter well under the 2m threshold, spaced past the interval.
	for i := 1; i <= 10; i++ {
		at = at.Add(time.Second)
		jitter := 0.5e-6 * float64(i%3) // sub-meter wobble
		var updated bool
		s, updated = s.Advance(centerLat+jitter, centerLon-jitter, at, headingOpts)
		if updated {
			t.Fatalf("sample %d: stationary jitter must be rejected", i)
		}
	}
	if s.Phase != geospatial.HeadingWarming {
		t.Errorf("estimator should still be warming, got %v", s.Phase)
	}
}

func TestHeading_TooFrequentRejected(t *testing.T) {
	var s geospatial.HeadingState
	at := time.Unix(0, 0)

	s, _ = s.Advance(centerLat, centerLon, at, headingOpts)

	// 100m north but only 100ms later: rejected on the interval check.
	s2, updated := s.Advance(centerLat+100/111320.0, centerLon, at.Add(100*time.Millisecond), headingOpts)
	if updated {
		t.Error("sample inside the minimum interval must be rejected")
	}
	if s2 != s {
		t.Error("rejected sample must leave state unchanged")
	}
}

func TestHeading_ConvergesNorthbound(t *testing.T) {
	var s geospatial.HeadingState
	at := time.Unix(0, 0)
	lat := centerLat

	var updated bool
	for i := 0; i < 20; i++ {
		s, updated = s.Advance(lat, centerLon, at, headingOpts)
		lat += 50 / 111320.0 // 50m north per second
		at = at.Add(time.Second)
	}

	if !updated || s.Phase != geospatial.HeadingStable {
		t.Fatalf("expected stable estimator, got phase %v", s.Phase)
	}
	// Heading converges to due north: 0° (allowing wraparound).
	h := s.Heading
	if h > 180 {
		h -= 360
	}
	if math.Abs(h) > 1 {
		t.Errorf("expected heading ~0° after northbound track, got %f", s.Heading)
	}
}

func TestHeading_SharpTurnSnaps(t *testing.T) {
	var s geospatial.HeadingState
	at := time.Unix(0, 0)
	lat, lon := centerLat, centerLon

	// Establish a stable northbound course.
	for i := 0; i < 5; i++ {
		s, _ = s.Advance(lat, lon, at, headingOpts)
		lat += 50 / 111320.0
		at = at.Add(time.Second)
	}

	// Hard turn east: one accepted sample 90° off course.
	mLon := 111320.0 * math.Cos(lat*math.Pi/180)
	lon += 100 / mLon
	at = at.Add(time.Second)
	s, updated := s.Advance(lat, lon, at, headingOpts)
	if !updated {
		t.Fatal("turn sample should have been accepted")
	}

	// A 90° change exceeds the 45° snap threshold: no smoothing lag.
	if math.Abs(s.Heading-90) > 1 {
		t.Errorf("expected immediate snap to ~90°, got %f", s.Heading)
	}
}

func TestHeading_SmallChangeBlends(t *testing.T) {
	var s geospatial.HeadingState
	at := time.Unix(0, 0)
	lat, lon := centerLat, centerLon

	for i := 0; i < 5; i++ {
		s, _ = s.Advance(lat, lon, at, headingOpts)
		lat += 50 / 111320.0
		at = at.Add(time.Second)
	}
	prev := s.Heading

	// Drift ~20° east of north: inside the snap threshold, so the update is
	// blended, landing strictly between the old and the raw bearing.
	mLon := 111320.0 * math.Cos(lat*math.Pi/180)
	lat += 50 / 111320.0
	lon += 18 / mLon
	at = at.Add(time.Second)
	s, updated := s.Advance(lat, lon, at, headingOpts)
	if !updated {
		t.Fatal("drift sample should have been accepted")
	}

	if s.Heading <= prev || s.Heading >= 25 {
		t.Errorf("expected blended heading between %f and raw ~20°, got %f", prev, s.Heading)
	}
}

func TestHeading_WrapsShortestPath(t *testing.T) {
	// 350° → raw 10° must blend across north, not the long way around.
	var s geospatial.HeadingState
	at := time.Unix(0, 0)
	lat, lon := centerLat, centerLon

	// Build a stable course slightly west of north.
	mLon := 111320.0 * math.Cos(centerLat*math.Pi/180)
	for i := 0; i < 5; i++ {
		s, _ = s.Advance(lat, lon, at, headingOpts)
		lat += 100 / 111320.0
		lon -= 17.6 / mLon // ~ -10° of north
		at = at.Add(time.Second)
	}
	if s.Heading < 340 || s.Heading >= 360 {
		t.Fatalf("setup: expected course near 350°, got %f", s.Heading)
	}

	// Swing to ~+10°: delta is +20 via the short path.
	lat += 100 / 111320.0
	lon += 17.6 / mLon
	at = at.Add(time.Second)
	s, _ = s.Advance(lat, lon, at, headingOpts)

	// Result stays in the north sector rather than sweeping through 180°.
	if !(s.Heading >= 350 || s.Heading <= 15) {
		t.Errorf("expected blended heading near north, got %f", s.Heading)
	}
}
