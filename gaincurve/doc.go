// Package gaincurve provides the 1-D breakpoint curves used to derive the
// overdrive correction strength from the panel refresh rate and brightness.
//
// A Curve is an ordered list of (key, gain) breakpoints. Between two
// breakpoints the gain is interpolated linearly with integer arithmetic in
// steps of 1/100 of the segment, which matches the resolution the weight
// register is tuned with. Outside the curve the nearest end value is used.
//
// The final strength is not a 2-D surface fit: the refresh-rate gain and the
// brightness gain are looked up independently and multiplied,
//
//	strength = fpsGain * brightnessGain / 255 * userGain / 255
//
// and clamped to 255. Calibration data is produced against this exact
// formula.
package gaincurve
