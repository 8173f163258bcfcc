package transceiver

import (
	"math/rand"
	"time"

	"v2vfabric/internal/geo"
	"v2vfabric/internal/wire"
)

// NavSource supplies the vehicle's current state for the produce loop to
// sign and broadcast, and for the consume loop to evaluate its own
// location against an incoming token's bbox. It is a capability
// interface, not a deep hierarchy: baseline and black-hat differ only in
// whether they carry one at all.
type NavSource interface {
	GetState(toa time.Time) wire.StateUpdate
}

// RandomNavSource is the reference nav source: it reports a uniformly
// random position within a fixed bbox and zero velocity/altitude, enough
// to drive validation pipeline tests and demo fleets without a real
// positioning stack.
type RandomNavSource struct {
	BBox geo.BBox
	rng  *rand.Rand
}

// NewRandomNavSource seeds a RandomNavSource from seed, so tests can make
// its output deterministic.
func NewRandomNavSource(bbox geo.BBox, seed int64) *RandomNavSource {
	return &RandomNavSource{BBox: bbox, rng: rand.New(rand.NewSource(seed))}
}

// GetState returns a state update with a position uniformly sampled from
// within BBox (accounting for antimeridian wrap) and toa_utc set to toa.
func (n *RandomNavSource) GetState(toa time.Time) wire.StateUpdate {
	lon := n.randomLon()
	lat := n.BBox.South + n.rng.Float32()*(n.BBox.North-n.BBox.South)
	return wire.StateUpdate{
		LatDeg: lat,
		LonDeg: lon,
		ToaUtc: float32(toa.Unix()),
	}
}

func (n *RandomNavSource) randomLon() float32 {
	if n.BBox.East < n.BBox.West {
		span := (180 - n.BBox.West) + (n.BBox.East + 180)
		offset := n.rng.Float32() * span
		lon := n.BBox.West + offset
		if lon > 180 {
			lon -= 360
		}
		return lon
	}
	return n.BBox.West + n.rng.Float32()*(n.BBox.East-n.BBox.West)
}
