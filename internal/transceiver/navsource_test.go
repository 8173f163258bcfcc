package transceiver

import (
	"testing"
	"time"

	"v2vfabric/internal/geo"
)

func TestRandomNavSourceStaysWithinBBox(t *testing.T) {
	bbox := geo.BBox{West: -71.8, South: 41.9, East: -70.6, North: 42.7}
	nav := NewRandomNavSource(bbox, 1)

	for i := 0; i < 200; i++ {
		s := nav.GetState(time.Unix(1700000000, 0))
		ok, err := geo.Contains(bbox, geo.Point{Lon: s.LonDeg, Lat: s.LatDeg})
		if err != nil {
			t.Fatalf("Contains: %v", err)
		}
		if !ok {
			t.Fatalf("sampled point (%v, %v) outside bbox %v", s.LonDeg, s.LatDeg, bbox)
		}
	}
}

func TestRandomNavSourceStaysWithinAntimeridianBBox(t *testing.T) {
	bbox := geo.BBox{West: 170, South: -10, East: -170, North: 10}
	nav := NewRandomNavSource(bbox, 2)

	for i := 0; i < 200; i++ {
		s := nav.GetState(time.Unix(1700000000, 0))
		ok, err := geo.Contains(bbox, geo.Point{Lon: s.LonDeg, Lat: s.LatDeg})
		if err != nil {
			t.Fatalf("Contains: %v", err)
		}
		if !ok {
			t.Fatalf("sampled point (%v, %v) outside antimeridian bbox %v", s.LonDeg, s.LatDeg, bbox)
		}
	}
}

func TestRandomNavSourceSetsToaUtc(t *testing.T) {
	bbox := geo.BBox{West: -1, South: -1, East: 1, North: 1}
	nav := NewRandomNavSource(bbox, 3)
	toa := time.Unix(1700000000, 0)
	s := nav.GetState(toa)
	if s.ToaUtc != float32(toa.Unix()) {
		t.Errorf("ToaUtc = %v, want %v", s.ToaUtc, toa.Unix())
	}
}
