package overdrive

import (
	"fmt"
)

// Mode is the internal storage format of the overdrive reference frame.
type Mode uint32

// Reference frame formats.
const (
	ModeRGB888 Mode = iota
	ModeRGB565
	ModeRGB555
	ModeRGB444
	ModeCompress18
	ModeCompress12
)

var modeNames = [...]string{"RGB888", "RGB565", "RGB555", "RGB444", "Compress18", "Compress12"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint32(m))
}

// bits returns the bits per pixel of the reference frame.
func (m Mode) bits() int {
	switch m {
	case ModeRGB444, ModeCompress12:
		return 12
	case ModeRGB565:
		return 16
	case ModeCompress18:
		return 18
	case ModeRGB555:
		return 15
	default:
		return 24
	}
}

// bitsPerChannel returns the stored bits of channel c (0:B 1:G 2:R).
func (m Mode) bitsPerChannel(c int) int {
	switch m {
	case ModeRGB444, ModeCompress12:
		return 4
	case ModeRGB565:
		if c == 1 {
			return 6
		}
		return 5
	case ModeCompress18:
		return 6
	case ModeRGB555:
		return 5
	case ModeRGB888:
		return 8
	default:
		return 4
	}
}

// Scaling selects the reference frame subsampling.
type Scaling uint32

// Scaling flags.
const (
	ScaleH2x Scaling = 1 << 0 // horizontal 1/2
	ScaleV2x Scaling = 1 << 1 // vertical 1/2
	ScaleH4x Scaling = 1 << 2 // doubles the horizontal factor when ScaleH2x is set
)

func (s Scaling) factors() (h, v int) {
	h, v = 1, 1
	if s&ScaleH2x != 0 {
		h = 2
	}
	if s&ScaleV2x != 0 {
		v = 2
	}
	if s&ScaleH4x != 0 {
		h *= 2
	}
	return h, v
}

// Estimate returns the real-time bandwidth cost of the reference frame in
// hundredths of a byte per pixel. The frame is read and written every
// refresh so the cost is doubled.
func Estimate(m Mode, s Scaling) int {
	h, v := s.factors()
	return 2 * 100 * m.bits() / (h * v * 8)
}

// lineAlignBits is the DMA line alignment of the reference frame.
const lineAlignBits = 128

// DataSize returns the size in bytes of one channel plane of the reference
// frame for a width x height input.
func DataSize(width, height int, m Mode, s Scaling, channel int) int {
	h, v := s.factors()
	size := width / h * m.bitsPerChannel(channel)
	size = (size + lineAlignBits - 1) / lineAlignBits
	return size * lineAlignBits * height / v / 8
}

// Reservation is a bandwidth request issued to the platform arbiter.
type Reservation struct {
	// HRT is the real-time cost in hundredths of a byte per pixel, zero to
	// release.
	HRT int
	// SRT is the average bandwidth in KB/s, per direction.
	SRT uint64
}

// Arbiter grants the shared memory bandwidth budget.
type Arbiter interface {
	Reserve(r Reservation) error
}

// Negotiator keeps the bandwidth reservation of one pipe current.
//
// It is not synchronized; Dev calls it with the pipe lock held.
type Negotiator struct {
	arb     Arbiter
	profile *Profile

	mode    Mode
	scaling Scaling
	width   int
	height  int
	fps     uint32
	enabled bool

	current Reservation
}

// NewNegotiator returns a negotiator for arb. A nil arb accepts every
// request.
func NewNegotiator(arb Arbiter, p *Profile) *Negotiator {
	return &Negotiator{arb: arb, profile: p}
}

// Current returns the last reservation granted.
func (n *Negotiator) Current() Reservation {
	return n.current
}

// OnEnableChange updates the reservation for the enable state.
func (n *Negotiator) OnEnableChange(on bool) error {
	n.enabled = on
	return n.reissue()
}

// OnModeChange updates the reservation for a new reference frame format.
func (n *Negotiator) OnModeChange(m Mode, s Scaling) error {
	n.mode, n.scaling = m, s
	return n.reissue()
}

// OnTimingChange updates the reservation for a new geometry or refresh
// rate.
func (n *Negotiator) OnTimingChange(width, height int, fps uint32) error {
	if n.width == width && n.height == height && n.fps == fps {
		return nil
	}
	n.width, n.height, n.fps = width, height, fps
	return n.reissue()
}

// srt returns the average bandwidth of one direction in KB/s: the three
// planes per frame with 25% blanking overhead.
func (n *Negotiator) srt() uint64 {
	w := n.width + n.profile.TileOverhead
	var size uint64
	for c := 0; c < 3; c++ {
		size += uint64(DataSize(w, n.height, n.mode, n.scaling, c))
	}
	size /= 1000
	size = size * 125 / 100
	return size * uint64(n.fps)
}

func (n *Negotiator) want() Reservation {
	if !n.enabled {
		return Reservation{}
	}
	return Reservation{HRT: Estimate(n.mode, n.scaling), SRT: n.srt()}
}

func (n *Negotiator) reissue() error {
	r := n.want()
	if r == n.current {
		return nil
	}
	if n.arb != nil {
		if err := n.arb.Reserve(r); err != nil {
			return fmt.Errorf("%w: hrt %d srt %dKB/s: %v", ErrBandwidthUnavailable, r.HRT, r.SRT, err)
		}
	}
	n.current = r
	return nil
}
