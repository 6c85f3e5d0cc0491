package overdrive

import (
	"fmt"
	"time"
)

// Block is the geometry of one staging sub-block of a channel.
type Block struct {
	Rows, Cols int
}

// Profile describes the capabilities and quirks of a correction block
// revision. It is selected once in New and never consulted per frame for
// revision checks.
type Profile struct {
	Name string

	// Channels is the number of color channels in a table payload, stored
	// B, G, R.
	Channels int
	// Blocks lists the staging sub-blocks of one channel in payload order.
	Blocks []Block
	// SwapChannels programs the B and R staging memories in reversed order.
	SwapChannels bool
	// ForceClock forces the clock handshake open during bank bring-up.
	ForceClock bool
	// TileOverhead is the number of extra pixel columns fetched per line.
	TileOverhead int

	// RampFrames is the number of frames the strength is held at zero after
	// an enable transition.
	RampFrames int
	// AckFrames is the number of refresh periods to wait for the hardware
	// to accept an enable or disable request.
	AckFrames int
	// TriggerLead delays the commit request after a frame start so that it
	// lands close to the next tearing-effect signal. Zero requests at once.
	TriggerLead time.Duration
	// PanelResolutionSwitch is set when resolution changes are handled in
	// the panel driver IC, which emits one stale frame per switch.
	PanelResolutionSwitch bool
}

// 17x17 + 17x16 + 16x17 + 16x16 = 33x33 entries per channel.
var overdriveBlocks = []Block{{17, 17}, {17, 16}, {16, 17}, {16, 16}}

var (
	// DefaultProfile is the baseline correction block.
	DefaultProfile = Profile{
		Name:       "default",
		Channels:   3,
		Blocks:     overdriveBlocks,
		RampFrames: 1,
		AckFrames:  2,
	}
	// SwappedProfile is the revision with reversed channel staging order,
	// forced clock handshake and in-panel resolution switching.
	SwappedProfile = Profile{
		Name:                  "swapped",
		Channels:              3,
		Blocks:                overdriveBlocks,
		SwapChannels:          true,
		ForceClock:            true,
		TileOverhead:          8,
		RampFrames:            1,
		AckFrames:             2,
		TriggerLead:           2 * time.Millisecond,
		PanelResolutionSwitch: true,
	}
)

// ChannelSize returns the number of payload bytes of one channel.
func (p *Profile) ChannelSize() int {
	n := 0
	for _, b := range p.Blocks {
		n += b.Rows * b.Cols
	}
	return n
}

// TableSize returns the minimum payload size of a table.
func (p *Profile) TableSize() int {
	return p.Channels * p.ChannelSize()
}

// hwChannel maps a payload channel to its staging memory index.
func (p *Profile) hwChannel(c int) int {
	if p.SwapChannels {
		return p.Channels - 1 - c
	}
	return c
}

func (p *Profile) validate() error {
	if p.Channels <= 0 || p.Channels > 3 {
		return fmt.Errorf("overdrive: profile %q: channels must be between 1 and 3", p.Name)
	}
	if len(p.Blocks) == 0 {
		return fmt.Errorf("overdrive: profile %q: no staging blocks", p.Name)
	}
	for i, b := range p.Blocks {
		if b.Rows <= 0 || b.Cols <= 0 || b.Rows*b.Cols > sramAddrMask+1 {
			return fmt.Errorf("overdrive: profile %q: block %d has invalid size %dx%d", p.Name, i, b.Rows, b.Cols)
		}
	}
	if p.RampFrames < 0 || p.AckFrames <= 0 {
		return fmt.Errorf("overdrive: profile %q: invalid frame counts", p.Name)
	}
	return nil
}

func (p *Profile) String() string {
	return fmt.Sprintf("overdrive.Profile{%s}", p.Name)
}
