package gaincurve

import (
	"errors"
	"fmt"
)

// Max is the largest strength accepted by the weight register.
const Max = 255

// Point is a single breakpoint of a Curve.
type Point struct {
	Key  uint32 // refresh rate in Hz or brightness level
	Gain uint32 // gain at Key, 255 is unity
}

// Curve is a list of breakpoints sorted ascending by Key.
type Curve []Point

// Validate reports whether c has at least one breakpoint and is sorted by
// key.
func (c Curve) Validate() error {
	if len(c) == 0 {
		return errors.New("gaincurve: empty curve")
	}
	for i := 1; i < len(c); i++ {
		if c[i].Key < c[i-1].Key {
			return fmt.Errorf("gaincurve: breakpoint %d key %d below previous key %d", i, c[i].Key, c[i-1].Key)
		}
	}
	return nil
}

// At returns the gain for x.
//
// At or below the first key the first gain is returned, at or above the last
// key the last gain. In between, the bracketing pair is interpolated.
func (c Curve) At(x uint32) uint32 {
	if len(c) == 0 {
		return 0
	}
	if x <= c[0].Key {
		return c[0].Gain
	}
	last := c[len(c)-1]
	if x >= last.Key {
		return last.Gain
	}
	i := 1
	for ; i < len(c); i++ {
		if x <= c[i].Key {
			break
		}
	}
	return interpolate(c[i-1], c[i], x)
}

// Clone returns a copy of c that does not share storage with it.
func (c Curve) Clone() Curve {
	if c == nil {
		return nil
	}
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// interpolate computes the gain at x between l and r with the segment
// position quantized to 1/100.
func interpolate(l, r Point, x uint32) uint32 {
	if r.Key == l.Key {
		return l.Gain
	}
	// int64 keeps negative slopes exact.
	pos := 100 * int64(x-l.Key) / int64(r.Key-l.Key)
	v := (pos*(int64(r.Gain)-int64(l.Gain)) + 100*int64(l.Gain)) / 100
	if v < 0 {
		return 0
	}
	return uint32(v)
}

// Strength combines the refresh rate and brightness gains with the user gain.
//
// The two curves are evaluated independently, their product is scaled back
// to 0-255, then scaled by userGain/255 and clamped to Max.
func Strength(fps, brightness Curve, fpsKey, brightnessKey uint32, userGain uint8) uint8 {
	f := uint64(fps.At(fpsKey))
	b := uint64(brightness.At(brightnessKey))
	s := f * b / Max
	s = s * uint64(userGain) / Max
	if s > Max {
		s = Max
	}
	return uint8(s)
}
