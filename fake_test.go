package overdrive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/flavioheleno/overdrive/gaincurve"
)

// fakeHW emulates the register file and the staging memories of the
// correction block.
type fakeHW struct {
	mu   sync.Mutex
	regs map[uint32]uint32
	// sram is indexed by bank, staging channel, sub-block and entry.
	sram [2][3][4][512]byte

	// stuckAck keeps the status register from following the enable bit.
	stuckAck bool
	// gate, when set, blocks staging data writes until it is closed.
	gate chan struct{}
	// failOff makes writes to that offset fail when failErr is set.
	failOff uint32
	failErr error

	writes   int
	flips    int
	lastData int // write count of the last staging data write
	flipAt   []int
}

func newFakeHW() *fakeHW {
	return &fakeHW{regs: make(map[uint32]uint32)}
}

var errFakeBus = errors.New("fake: bus error")

func (f *fakeHW) WriteRegister(off, val uint32) error {
	f.waitGate(off)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(off, val)
}

func (f *fakeHW) WriteRegisterMask(off, val, mask uint32) error {
	f.waitGate(off)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(off, f.regs[off]&^mask|val&mask)
}

func (f *fakeHW) ReadRegister(off uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[off], nil
}

func (f *fakeHW) PollUntil(off uint32, cond func(uint32) bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		v, _ := f.ReadRegister(off)
		if cond(v) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: fake register 0x%04X", ErrHardwareTimeout, off)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func (f *fakeHW) waitGate(off uint32) {
	if _, ok := stagingBlock(off, regSRAMData); !ok {
		return
	}
	f.mu.Lock()
	g := f.gate
	f.mu.Unlock()
	if g != nil {
		<-g
	}
}

func stagingBlock(off, base uint32) (int, bool) {
	if off < base {
		return 0, false
	}
	d := off - base
	if d%sramBlockStride != 0 || d/sramBlockStride >= 4 {
		return 0, false
	}
	return int(d / sramBlockStride), true
}

func (f *fakeHW) writeLocked(off, val uint32) error {
	if f.failErr != nil && off == f.failOff {
		return f.failErr
	}
	f.writes++
	switch {
	case off == regCtrlEn:
		f.regs[off] = val
		if !f.stuckAck {
			f.regs[regStatus] = val & 1
		}
		return nil
	case off == regSRAMCtrl:
		if (f.regs[off]^val)&sramReadSel != 0 {
			f.flips++
			f.flipAt = append(f.flipAt, f.writes)
		}
		f.regs[off] = val
		return nil
	}
	if _, ok := stagingBlock(off, regSRAMData); ok {
		f.lastData = f.writes
		f.regs[off] = val
		return nil
	}
	if n, ok := stagingBlock(off, regSRAMAddr); ok {
		ctl := f.regs[regSRAMCtrl]
		bank := 0
		if ctl&sramWriteSel != 0 {
			bank = 1
		}
		hc := -1
		for c := 0; c < 3; c++ {
			if ctl&(1<<(c+1)) != 0 {
				hc = c
				break
			}
		}
		if hc < 0 {
			return nil
		}
		idx := val & sramAddrMask
		if val&sramWrite != 0 {
			f.sram[bank][hc][n][idx] = byte(f.regs[uint32(regSRAMData+n*sramBlockStride)])
		}
		if val&sramRead != 0 {
			f.regs[uint32(regSRAMOut+n*sramBlockStride)] = uint32(f.sram[bank][hc][n][idx])
		}
		return nil
	}
	f.regs[off] = val
	return nil
}

// bankContent returns the staging content of bank in payload order.
func (f *fakeHW) bankContent(p *Profile, bank int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, 0, p.TableSize())
	for c := 0; c < p.Channels; c++ {
		hc := p.hwChannel(c)
		for n, b := range p.Blocks {
			out = append(out, f.sram[bank][hc][n][:b.Rows*b.Cols]...)
		}
	}
	return out
}

func (f *fakeHW) reg(off uint32) uint32 {
	v, _ := f.ReadRegister(off)
	return v
}

func (f *fakeHW) setGate(g chan struct{}) {
	f.mu.Lock()
	f.gate = g
	f.mu.Unlock()
}

func (f *fakeHW) fail(off uint32, err error) {
	f.mu.Lock()
	f.failOff, f.failErr = off, err
	f.mu.Unlock()
}

// fakeCommitter records commit requests.
type fakeCommitter struct {
	mu        sync.Mutex
	skippable bool
	requests  []bool
}

func (c *fakeCommitter) CommitSkippable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skippable
}

func (c *fakeCommitter) RequestCommit(delayed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, delayed)
	return nil
}

func (c *fakeCommitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// payload returns a table payload filled from seed.
func payload(p *Profile, seed byte) []byte {
	b := make([]byte, p.TableSize())
	for i := range b {
		b[i] = seed + byte(i*7)
	}
	return b
}

func flatCurve(g uint32) gaincurve.Curve {
	return gaincurve.Curve{{Key: 0, Gain: g}}
}

// testTables returns table 0 covering 0-60fps and table 1 covering
// 61-120fps, both for every brightness level.
func testTables(p *Profile) []Table {
	return []Table{
		{
			ID:              0,
			Envelope:        Envelope{MinFPS: 0, MaxFPS: 60, MinBrightness: 0, MaxBrightness: 4095},
			Payload:         payload(p, 1),
			FPSCurve:        flatCurve(255),
			BrightnessCurve: flatCurve(200),
			PQ:              []RegValue{{Reg: 0x0100, Value: 0xA0}},
		},
		{
			ID:              1,
			Envelope:        Envelope{MinFPS: 61, MaxFPS: 120, MinBrightness: 0, MaxBrightness: 4095},
			Payload:         payload(p, 100),
			FPSCurve:        gaincurve.Curve{{Key: 60, Gain: 100}, {Key: 120, Gain: 200}},
			BrightnessCurve: flatCurve(255),
			PQ:              []RegValue{{Reg: 0x0100, Value: 0xB1}},
		},
	}
}

func newTestDev(t *testing.T, hw *fakeHW, opts *Opts) *Dev {
	t.Helper()
	d, err := New(hw, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func loadTables(t *testing.T, d *Dev, tables []Table) {
	t.Helper()
	if err := d.LoadBasicInfo(BasicInfo{TableCount: len(tables)}); err != nil {
		t.Fatalf("LoadBasicInfo() error = %v", err)
	}
	for _, tb := range tables {
		if err := d.LoadTable(tb); err != nil {
			t.Fatalf("LoadTable(%d) error = %v", tb.ID, err)
		}
	}
}

func setFPS(d *Dev, fps int64) {
	d.OnTimingChange(Timing{Width: 1080, Height: 2400, Refresh: physic.Frequency(fps) * physic.Hertz})
}

// readyDev returns an initialized device at 60fps running its workers.
func readyDev(t *testing.T, hw *fakeHW, opts *Opts) *Dev {
	t.Helper()
	d := newTestDev(t, hw, opts)
	setFPS(d, 60)
	loadTables(t, d, testTables(d.profile))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	startDev(t, d)
	return d
}

func startDev(t *testing.T, d *Dev) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	waitFor(t, "worker start", func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.running
	})
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
}

// waitFor polls cond until it holds or fails the test after a second.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// frame raises a start of frame and waits until the worker consumed it.
func frame(t *testing.T, d *Dev) {
	t.Helper()
	n := d.frames.Load()
	d.StartOfFrame()
	waitFor(t, "frame worker", func() bool { return d.frames.Load() > n })
}
