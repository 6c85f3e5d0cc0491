// Package overdrive drives the overdrive correction block of a display
// pipe.
//
// Overdrive compensates slow pixel response by pushing each pixel past its
// target level for one frame. How far it pushes comes from a correction
// table selected by the current refresh rate and brightness, scaled by a
// strength weight.
//
// # Tables and banks
//
// A table set is loaded as one basic info blob followed by the tables it
// declares (see LoadParam). Each table carries an operating envelope, a
// staging memory payload, two gain curves and optional picture quality
// register writes.
//
// The hardware has two staging banks. The display reads one while the other
// can be rewritten. Moving to a table already held by the write bank is a
// single register write at the next frame start; any other table is first
// loaded into the write bank in the background and flipped to once the load
// completed. The read bank is only written through the tuning window
// (WriteSWReg).
//
// # Basic Usage
//
//	ch, _ := overdrive.NewSPI(port)
//	dev, _ := overdrive.New(ch, &overdrive.Opts{Committer: pipeline})
//	defer dev.Halt()
//
//	dev.OnTimingChange(overdrive.Timing{Width: 1080, Height: 2400, Refresh: 60 * physic.Hertz})
//	dev.LoadParam(basicInfoID, basicInfoBlob)
//	dev.LoadParam(tableID, tableBlob)
//	dev.Init()
//
//	go dev.Run(ctx)
//	go dev.WatchTE(ctx, tePin)
//	dev.Enable(true)
//
// The frame worker started by Run does all per-frame work. StartOfFrame only
// marks a frame start as available, so it is safe to call from an interrupt
// handler; frame starts arriving faster than the worker runs are coalesced.
//
// # Strength
//
// The weight written to the hardware is
//
//	fpsGain * brightnessGain / 255 * userGain / 255
//
// clamped to 255, where both gains are piecewise linear lookups in the
// active table (see package gaincurve). After every enable the weight is held
// at zero for Profile.RampFrames frames.
package overdrive
