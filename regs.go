package overdrive

// Register offsets of the correction block, relative to its base address.
const (
	regCtrlEn    = 0x0000 // bit 0: correction enable
	regStatus    = 0x0004 // bit 0: enable accepted at frame start
	regTopBypass = 0x0008
	regSWReset   = 0x000C
	regWeight    = 0x0010 // correction strength, 0-255
	regHandshake = 0x0014 // clock handshake force

	// Staging memory access. Sub-block n (0 based) uses regSRAMAddr,
	// regSRAMData and regSRAMOut shifted by n*sramBlockStride.
	regSRAMCtrl     = 0x0040
	regSRAMAddr     = 0x0044
	regSRAMData     = 0x0048
	regSRAMOut      = 0x004C
	sramBlockStride = 12
)

// regSRAMCtrl fields.
const (
	sramAutoInc  = 1 << 0
	sramIOEnMask = 0x7 << 1 // one bit per channel, channel c at bit c+1
	sramWriteSel = 1 << 4
	sramReadSel  = 1 << 5
	sramSelMask  = sramWriteSel | sramReadSel
)

// regSRAMAddr strobes.
const (
	sramAddrMask = 0x1FF
	sramRead     = 0x4000
	sramWrite    = 0x8000
)

const swResetPulse = 0x200

// bankSel returns the regSRAMCtrl select bits addressing the given read and
// write banks.
func bankSel(read, write int) uint32 {
	var v uint32
	if write != 0 {
		v |= sramWriteSel
	}
	if read != 0 {
		v |= sramReadSel
	}
	return v
}

// RegValue is a register write applied together with a table.
type RegValue struct {
	Reg   uint32
	Value uint32
}
