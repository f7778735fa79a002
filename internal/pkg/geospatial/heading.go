package geospatial

import (
	"math"
	"time"
)

// Heading estimator defaults, tuned against on-water GPS noise.
const (
	DefaultMinInterval = 500 * time.Millisecond
	DefaultMinMoveM    = 2.0
	DefaultAlpha       = 0.7
	snapThresholdDeg   = 45.0
)

// HeadingPhase tracks estimator progress.
type HeadingPhase int

const (
	HeadingUninitialized HeadingPhase = iota
	HeadingWarming                    // reference sample recorded, no heading yet
	HeadingStable                     // at least one accepted update
)

// HeadingOptions control sample acceptance and smoothing.
type HeadingOptions struct {
	MinInterval time.Duration // minimum elapsed time between accepted samples
	MinMoveM    float64       // minimum displacement between accepted samples
	Alpha       float64       // exponential smoothing factor
}

func (o HeadingOptions) withDefaults() HeadingOptions {
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.MinMoveM <= 0 {
		o.MinMoveM = DefaultMinMoveM
	}
	if o.Alpha <= 0 || o.Alpha > 1 {
		o.Alpha = DefaultAlpha
	}
	return o
}

// HeadingState is the running course estimate for one position stream.
// The zero value is the uninitialized state. State is threaded explicitly
// through Advance: no hidden references, so a sequence of samples can be
// replayed deterministically.
type HeadingState struct {
	Phase   HeadingPhase
	RefLat  float64
	RefLon  float64
	RefTime time.Time
	Heading float64 // degrees [0,360), meaningful only in HeadingStable
}

// Advance feeds one position sample into the estimator and returns the next
// state. updated is true only when the sample was accepted and the heading
// changed; rejected samples (too soon, too close) return the state unchanged,
// which keeps near-stationary GPS noise from spinning the course.
func (s HeadingState) Advance(lat, lon float64, at time.Time, opts HeadingOptions) (next HeadingState, updated bool) {
	opts = opts.withDefaults()

	if s.Phase == HeadingUninitialized {
		return HeadingState{Phase: HeadingWarming, RefLat: lat, RefLon: lon, RefTime: at}, false
	}

	if at.Sub(s.RefTime) < opts.MinInterval {
		return s, false
	}
	if LocalDistance(s.RefLat, s.RefLon, lat, lon) < opts.MinMoveM {
		return s, false
	}

	raw := Bearing(s.RefLat, s.RefLon, lat, lon)

	next = HeadingState{Phase: HeadingStable, RefLat: lat, RefLon: lon, RefTime: at}
	if s.Phase == HeadingWarming {
		next.Heading = raw
	} else {
		next.Heading = smoothAngle(s.Heading, raw, opts.Alpha)
	}
	return next, true
}

// smoothAngle blends prev toward next along the shortest angular path.
// Sharp changes beyond the snap threshold are taken as a deliberate turn and
// adopted immediately instead of being lagged through the filter.
func smoothAngle(prev, next, alpha float64) float64 {
	delta := next - prev
	if delta > 180 {
		delta -= 360
	}
	if delta < -180 {
		delta += 360
	}

	k := alpha
	if math.Abs(delta) > snapThresholdDeg {
		k = 1
	}
	return math.Mod(prev+k*delta+360, 360)
}
