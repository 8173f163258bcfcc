// Package timecode encodes and decodes the fixed-resolution integer
// timestamps ("TimeCode") used throughout the wire formats in internal/wire.
package timecode

import (
	"errors"
	"time"
)

// ErrBeforeEpoch is returned when a datetime precedes MinDatetime.
var ErrBeforeEpoch = errors.New("timecode: datetime is before the configured epoch")

// Rounding selects how a sub-tick datetime is quantized.
type Rounding int

const (
	// Floor rounds down to the nearest tick. Used for nbf so a credential
	// is valid no later than requested.
	Floor Rounding = iota
	// Ceiling rounds up to the nearest tick. Used for exp so a credential
	// covers the full requested interval after quantization.
	Ceiling
)

// Clock encodes and decodes TimeCodes against a fixed epoch and resolution.
type Clock struct {
	Epoch      time.Time
	Resolution time.Duration
}

// NewClock builds a Clock, rejecting a non-positive resolution.
func NewClock(epoch time.Time, resolution time.Duration) (Clock, error) {
	if resolution <= 0 {
		return Clock{}, errors.New("timecode: resolution must be positive")
	}
	return Clock{Epoch: epoch, Resolution: resolution}, nil
}

// Encode converts t into a tick count since Epoch, rounding per mode.
func (c Clock) Encode(t time.Time, mode Rounding) (uint32, error) {
	if t.Before(c.Epoch) {
		return 0, ErrBeforeEpoch
	}
	elapsed := t.Sub(c.Epoch)
	ticks := elapsed / c.Resolution
	remainder := elapsed % c.Resolution
	if remainder != 0 && mode == Ceiling {
		ticks++
	}
	return uint32(ticks), nil
}

// Decode is the exact inverse of Encode (lossless, since encoding is the
// only lossy direction).
func (c Clock) Decode(v uint32) time.Time {
	return c.Epoch.Add(time.Duration(v) * c.Resolution)
}
