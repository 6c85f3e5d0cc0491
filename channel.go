package overdrive

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Channel is raw register access to the correction block.
//
// Implementations must be safe for concurrent use.
type Channel interface {
	WriteRegister(off, val uint32) error
	// WriteRegisterMask replaces the bits of mask with val.
	WriteRegisterMask(off, val, mask uint32) error
	ReadRegister(off uint32) (uint32, error)
	// PollUntil reads off until cond returns true or the timeout expires,
	// in which case it returns an error wrapping ErrHardwareTimeout.
	PollUntil(off uint32, cond func(uint32) bool, timeout time.Duration) error
}

// Wire opcodes of the register bridge.
const (
	opWrite = 0x01
	opRead  = 0x02
)

const pollInterval = 200 * time.Microsecond

// ConnChannel accesses registers through a register bridge behind a
// periph.io connection.
//
// A write is the 7 byte frame {opWrite, off[15:8], off[7:0], val BE32}; a
// read writes {opRead, off[15:8], off[7:0]} and reads 4 bytes of BE32 value.
type ConnChannel struct {
	mu sync.Mutex
	c  conn.Conn
}

// NewConnChannel returns a Channel using c.
func NewConnChannel(c conn.Conn) *ConnChannel {
	return &ConnChannel{c: c}
}

// NewSPI returns a Channel on an SPI port.
//
// The port is configured for 10MHz, Mode0, 8-bit words.
func NewSPI(p spi.Port) (*ConnChannel, error) {
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("overdrive: failed to connect SPI: %w", err)
	}
	return NewConnChannel(c), nil
}

// NewI2C returns a Channel on an I²C bus at addr.
func NewI2C(b i2c.Bus, addr uint16) *ConnChannel {
	return NewConnChannel(&i2c.Dev{Bus: b, Addr: addr})
}

func (c *ConnChannel) String() string {
	return fmt.Sprintf("overdrive.ConnChannel{%s}", c.c)
}

// WriteRegister implements Channel.
func (c *ConnChannel) WriteRegister(off, val uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(off, val)
}

// WriteRegisterMask implements Channel.
func (c *ConnChannel) WriteRegisterMask(off, val, mask uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mask == 0xFFFFFFFF {
		return c.write(off, val)
	}
	cur, err := c.read(off)
	if err != nil {
		return err
	}
	return c.write(off, cur&^mask|val&mask)
}

// ReadRegister implements Channel.
func (c *ConnChannel) ReadRegister(off uint32) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(off)
}

// PollUntil implements Channel.
func (c *ConnChannel) PollUntil(off uint32, cond func(uint32) bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		v, err := c.ReadRegister(off)
		if err != nil {
			return err
		}
		if cond(v) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: register 0x%04X stuck at 0x%08X after %s", ErrHardwareTimeout, off, v, timeout)
		}
		time.Sleep(pollInterval)
	}
}

func (c *ConnChannel) write(off, val uint32) error {
	var w [7]byte
	w[0] = opWrite
	binary.BigEndian.PutUint16(w[1:], uint16(off))
	binary.BigEndian.PutUint32(w[3:], val)
	if err := c.c.Tx(w[:], nil); err != nil {
		return fmt.Errorf("overdrive: write 0x%04X: %w", off, err)
	}
	return nil
}

func (c *ConnChannel) read(off uint32) (uint32, error) {
	var w [3]byte
	var r [4]byte
	w[0] = opRead
	binary.BigEndian.PutUint16(w[1:], uint16(off))
	if err := c.c.Tx(w[:], r[:]); err != nil {
		return 0, fmt.Errorf("overdrive: read 0x%04X: %w", off, err)
	}
	return binary.BigEndian.Uint32(r[:]), nil
}
