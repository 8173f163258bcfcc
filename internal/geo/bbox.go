// Package geo implements the bounding-box containment rule used to gate
// broadcast state updates to an authorized vehicle's operating area.
package geo

import "errors"

// ErrLongitudeRange and ErrLatitudeRange flag a coordinate outside the
// domain of degrees longitude/latitude.
var (
	ErrLongitudeRange = errors.New("geo: longitude out of range")
	ErrLatitudeRange  = errors.New("geo: latitude out of range")
)

// BBox is a west/south/east/north rectangle of signed degrees, following
// RFC 7946's southwesterly-then-northeasterly point ordering.
type BBox struct {
	West  float32 `json:"west"`
	South float32 `json:"south"`
	East  float32 `json:"east"`
	North float32 `json:"north"`
}

// Point is a (lon, lat) pair, RFC 7946 order.
type Point struct {
	Lon, Lat float32
}

func validateCoord(lon, lat float32) error {
	if lon < -180 || lon > 180 {
		return ErrLongitudeRange
	}
	if lat < -90 || lat > 90 {
		return ErrLatitudeRange
	}
	return nil
}

// Validate checks both corners of b against the coordinate domain.
func (b BBox) Validate() error {
	if err := validateCoord(b.West, b.South); err != nil {
		return err
	}
	return validateCoord(b.East, b.North)
}

// Contains reports whether p lies within b, inclusive of the boundary.
// When b.East < b.West the box is interpreted as wrapping the antimeridian
// and containment becomes lon >= West || lon <= East.
func Contains(b BBox, p Point) (bool, error) {
	if err := validateCoord(p.Lon, p.Lat); err != nil {
		return false, err
	}
	if err := b.Validate(); err != nil {
		return false, err
	}

	if p.Lat > b.North || p.Lat < b.South {
		return false, nil
	}

	if b.East < b.West {
		return p.Lon >= b.West || p.Lon <= b.East, nil
	}
	return p.Lon >= b.West && p.Lon <= b.East, nil
}
