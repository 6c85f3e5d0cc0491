package overdrive

import (
	"fmt"
)

// Software register addresses of the tuning interface. The register id is
// (addr&0xFFFF)/4.
const (
	SWCurrentTable      uint32 = 0x00 // read only
	SWCurrentBrightness uint32 = 0x04 // read only
	SWCurrentFPS        uint32 = 0x08 // read only
	SWCurrentWidth      uint32 = 0x0C // read only
	SWCurrentHeight     uint32 = 0x10 // read only

	SWUserGain    uint32 = 0x40
	SWTriggerMode uint32 = 0x44
	SWRampPending uint32 = 0x48 // read only
	SWWeight      uint32 = 0x4C // read only, hardware register

	// SWStagingBase addresses the staging memory of the read bank, one
	// entry per 4 bytes in payload order.
	SWStagingBase uint32 = 0x1000
)

func swID(addr uint32) uint32 { return (addr & 0xFFFF) / 4 }

// ReadSWReg reads a tuning register.
func (d *Dev) ReadSWReg(addr uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Ready {
		return 0, fmt.Errorf("%w: state %s", ErrNotReady, d.state)
	}
	id := swID(addr)
	switch id {
	case swID(SWCurrentTable):
		return uint32(d.banks.Active()), nil
	case swID(SWCurrentBrightness):
		return d.op.Brightness, nil
	case swID(SWCurrentFPS):
		return d.op.FPS, nil
	case swID(SWCurrentWidth):
		return uint32(d.op.Width), nil
	case swID(SWCurrentHeight):
		return uint32(d.op.Height), nil
	case swID(SWUserGain):
		return uint32(d.userGain), nil
	case swID(SWTriggerMode):
		return uint32(d.trigger), nil
	case swID(SWRampPending):
		return uint32(d.ramp), nil
	case swID(SWWeight):
		v, err := d.ch.ReadRegister(regWeight)
		return v & 0xFF, err
	}
	idx, ok := d.stagingIndex(id)
	if !ok {
		return 0, fmt.Errorf("overdrive: unknown tuning register 0x%04X", addr)
	}
	if d.state == Swapping {
		return 0, fmt.Errorf("%w: table rewrite in progress", ErrNotReady)
	}
	v, err := d.banks.readEntry(d.banks.ReadBank(), idx)
	return uint32(v), err
}

// WriteSWReg writes a tuning register.
func (d *Dev) WriteSWReg(addr, val uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Ready {
		return fmt.Errorf("%w: state %s", ErrNotReady, d.state)
	}
	id := swID(addr)
	switch id {
	case swID(SWUserGain):
		if val > 0xFF {
			return fmt.Errorf("overdrive: user gain %d out of range", val)
		}
		d.setUserGainLocked(uint8(val))
		return nil
	case swID(SWTriggerMode):
		if TriggerMode(val) > TriggerNone {
			return fmt.Errorf("overdrive: invalid trigger mode %d", val)
		}
		d.trigger = TriggerMode(val)
		return nil
	case swID(SWCurrentTable), swID(SWCurrentBrightness), swID(SWCurrentFPS),
		swID(SWCurrentWidth), swID(SWCurrentHeight), swID(SWRampPending), swID(SWWeight):
		return fmt.Errorf("overdrive: tuning register 0x%04X is read only", addr)
	}
	idx, ok := d.stagingIndex(id)
	if !ok {
		return fmt.Errorf("overdrive: unknown tuning register 0x%04X", addr)
	}
	if d.state == Swapping {
		return fmt.Errorf("%w: table rewrite in progress", ErrNotReady)
	}
	return d.banks.writeEntry(d.banks.ReadBank(), idx, byte(val))
}

func (d *Dev) stagingIndex(id uint32) (int, bool) {
	base := swID(SWStagingBase)
	if id < base || int(id-base) >= d.profile.TableSize() {
		return 0, false
	}
	return int(id - base), true
}
