package overdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/physic"

	"github.com/flavioheleno/overdrive/gaincurve"
)

// State is the lifecycle state of a Dev.
type State int

// Lifecycle states, in bring-up order.
const (
	Uninitialized State = iota
	TablesLoading
	TablesLoaded
	Ready
	Swapping
)

var stateNames = [...]string{"Uninitialized", "TablesLoading", "TablesLoaded", "Ready", "Swapping"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TriggerMode selects how the frame worker asks for a commit after it
// changed the strength.
type TriggerMode uint32

// Trigger modes.
const (
	TriggerInstant TriggerMode = iota
	TriggerDelayed
	TriggerNone
)

// ModeChange flags describe what a timing change touched.
type ModeChange uint32

// Mode change flags.
const (
	ModeResolution ModeChange = 1 << iota
	ModeRefresh
)

// Timing is the display mode reported on mode set.
type Timing struct {
	Width, Height int
	Refresh       physic.Frequency
	Changes       ModeChange
}

// OperatingPoint is the snapshot driving table selection and strength.
type OperatingPoint struct {
	Brightness uint32
	FPS        uint32
	Width      int
	Height     int
	Changes    ModeChange
}

// Committer is the display pipeline hook used to push a frame out when the
// panel only refreshes on demand.
type Committer interface {
	// CommitSkippable reports whether the pipeline is in a mode where
	// frames are only sent when triggered.
	CommitSkippable() bool
	// RequestCommit asks for a trigger. delayed lets the pipeline merge it
	// with the next end of frame.
	RequestCommit(delayed bool) error
}

// Logger is the subset of *log.Logger used by Dev.
type Logger interface {
	Printf(format string, v ...any)
}

// Opts is the configuration of a Dev.
type Opts struct {
	// Profile selects the hardware revision (default: DefaultProfile).
	Profile *Profile
	// Arbiter receives bandwidth reservations (optional).
	Arbiter Arbiter
	// Committer is used to push strength changes to the panel (optional).
	Committer Committer
	// Logger receives diagnostics (default: discard).
	Logger Logger
	// Trigger is the initial trigger mode (default: TriggerInstant).
	Trigger TriggerMode
}

// Dev is the correction context of one display pipe.
//
// All entry points may be called concurrently. The frame worker and the
// table rewrite queue run inside Run.
type Dev struct {
	ch        Channel
	profile   *Profile
	log       Logger
	committer Committer

	// ctl serializes the control operations that wait on hardware. It is
	// always taken before mu.
	ctl sync.Mutex
	// mu is the pipe lock.
	mu sync.Mutex

	state      State
	store      *Store
	banks      *BankManager
	bw         *Negotiator
	info       BasicInfo
	haveInfo   bool
	panelID    []byte
	countFault bool

	op      OperatingPoint
	refresh physic.Frequency
	opDirty bool

	enableReq bool
	hwEnabled bool
	forceOff  bool
	userGain  uint8
	ramp      int
	weight    uint8
	trigger   TriggerMode

	frameDirty bool
	pqDirty    bool

	halted  bool
	running bool

	sof      *frameSignal
	rewrites chan rewriteJob
	frames   atomic.Uint64
}

type rewriteJob struct {
	bank int
	id   int
	prog program
}

// New returns a correction context using ch for register access.
//
// opts can be nil to use defaults.
func New(ch Channel, opts *Opts) (*Dev, error) {
	if ch == nil {
		return nil, fmt.Errorf("overdrive: nil channel")
	}
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Profile
	if p == nil {
		dp := DefaultProfile
		p = &dp
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if opts.Trigger > TriggerNone {
		return nil, fmt.Errorf("overdrive: invalid trigger mode %d", opts.Trigger)
	}
	l := opts.Logger
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Dev{
		ch:        ch,
		profile:   p,
		log:       l,
		committer: opts.Committer,
		store:     NewStore(p),
		banks:     NewBankManager(ch, p),
		bw:        NewNegotiator(opts.Arbiter, p),
		userGain:  gaincurve.Max,
		trigger:   opts.Trigger,
		sof:       newFrameSignal(),
		rewrites:  make(chan rewriteJob, 1),
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("overdrive.Dev{%s}", d.profile.Name)
}

// State returns the lifecycle state.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// OperatingPoint returns a consistent copy of the operating point.
func (d *Dev) OperatingPoint() OperatingPoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.op
}

// SetPanelID records the identifier read from the panel. Table sets with an
// identity tag are only accepted when it matches.
func (d *Dev) SetPanelID(id []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panelID = append([]byte(nil), id...)
}

// LoadParam loads one parameter blob. The section is taken from the top
// byte of headID.
func (d *Dev) LoadParam(headID uint32, blob []byte) error {
	switch c := Category(headID >> 24); c {
	case CategoryBasicInfo:
		bi, err := DecodeBasicInfo(blob)
		if err != nil {
			return err
		}
		return d.LoadBasicInfo(bi)
	case CategoryTable:
		t, err := DecodeTable(blob)
		if err != nil {
			return err
		}
		return d.LoadTable(t)
	default:
		return fmt.Errorf("overdrive: unknown parameter category %d", c)
	}
}

// LoadBasicInfo starts a new table set. Previously loaded tables are
// dropped.
func (d *Dev) LoadBasicInfo(bi BasicInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.loadableLocked(); err != nil {
		return err
	}
	if bi.TableCount <= 0 {
		return fmt.Errorf("overdrive: basic info declares %d tables", bi.TableCount)
	}
	d.store.Reset()
	d.info = bi
	d.info.PanelID = append([]byte(nil), bi.PanelID...)
	d.haveInfo = true
	d.countFault = false
	d.state = TablesLoading
	if err := d.bw.OnModeChange(bi.Mode, bi.Scaling); err != nil {
		d.log.Printf("overdrive: %v", err)
	}
	return d.checkCompleteLocked()
}

// LoadTable validates and stores one table of the current set.
func (d *Dev) LoadTable(t Table) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.loadableLocked(); err != nil {
		return err
	}
	if d.countFault {
		return fmt.Errorf("%w: reload the basic info to retry", ErrTableCount)
	}
	if err := d.store.Load(t); err != nil {
		d.log.Printf("overdrive: rejected table %d: %v", t.ID, err)
		return err
	}
	if d.state == Uninitialized {
		d.state = TablesLoading
	}
	if d.haveInfo && d.store.Len() > d.info.TableCount {
		d.countFault = true
		d.state = TablesLoading
		d.log.Printf("overdrive: %d tables loaded, %d declared", d.store.Len(), d.info.TableCount)
		return fmt.Errorf("%w: %d loaded, %d declared", ErrTableCount, d.store.Len(), d.info.TableCount)
	}
	return d.checkCompleteLocked()
}

func (d *Dev) loadableLocked() error {
	if d.halted {
		return ErrHalted
	}
	if d.state >= Ready {
		return fmt.Errorf("%w: tables are in use", ErrAlreadyRunning)
	}
	return nil
}

func (d *Dev) checkCompleteLocked() error {
	if !d.haveInfo || !d.store.IsComplete(d.info.TableCount) {
		return nil
	}
	if !panelMatches(d.panelID, d.info.PanelID) {
		d.store.Reset()
		d.haveInfo = false
		d.state = Uninitialized
		return fmt.Errorf("%w: expected %X, panel reports %X", ErrPanelMismatch, d.info.PanelID, d.panelID)
	}
	d.state = TablesLoaded
	d.log.Printf("overdrive: %d tables loaded", d.store.Len())
	return nil
}

// Init brings up both staging banks. It requires a complete table set and a
// disabled correction. On failure the tables stay loaded and Init may be
// retried.
func (d *Dev) Init() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.halted {
		return ErrHalted
	}
	if d.state >= Ready || d.enableReq {
		return ErrAlreadyRunning
	}
	if d.countFault {
		return fmt.Errorf("%w: %w", ErrNotReady, ErrTableCount)
	}
	if d.state != TablesLoaded {
		return fmt.Errorf("%w: state %s", ErrNotReady, d.state)
	}
	if !panelMatches(d.panelID, d.info.PanelID) {
		return ErrPanelMismatch
	}
	if err := d.bringUpLocked(); err != nil {
		d.banks = NewBankManager(d.ch, d.profile)
		d.log.Printf("overdrive: bring-up failed: %v", err)
		return err
	}
	d.state = Ready
	d.log.Printf("overdrive: ready, bank %d reads table %d", d.banks.ReadBank(), d.banks.Active())
	return nil
}

// bringUpLocked loads the first table into bank 0 and the table of the
// current operating point into bank 1, then selects the matching bank.
func (d *Dev) bringUpLocked() error {
	ids := d.store.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("%w: no tables", ErrNotReady)
	}
	for _, id := range ids {
		t, _ := d.store.Table(id)
		d.banks.Prepare(t)
	}
	first := ids[0]
	target, err := d.store.Lookup(d.op.FPS, d.op.Brightness, -1)
	if err != nil {
		target = first
	}

	if d.profile.ForceClock {
		if err := d.ch.WriteRegister(regHandshake, 1); err != nil {
			return err
		}
	}
	if err := d.banks.selectRead(1); err != nil {
		return err
	}
	if err := d.banks.Assign(0, first); err != nil {
		return err
	}
	if err := d.banks.selectRead(0); err != nil {
		return err
	}
	if err := d.banks.Assign(1, target); err != nil {
		return err
	}
	if target != first {
		if err := d.banks.selectRead(1); err != nil {
			return err
		}
	}
	if err := d.applyPQLocked(d.banks.Active()); err != nil {
		return err
	}
	if d.profile.ForceClock {
		if err := d.ch.WriteRegister(regHandshake, 0); err != nil {
			return err
		}
	}
	d.opDirty = false
	return nil
}

func (d *Dev) applyPQLocked(id int) error {
	t, ok := d.store.Table(id)
	if !ok {
		return nil
	}
	for _, pq := range t.PQ {
		if err := d.ch.WriteRegister(pq.Reg, pq.Value); err != nil {
			return fmt.Errorf("overdrive: table %d pq: %w", id, err)
		}
	}
	return nil
}

// Enable turns the correction on or off and waits for the hardware to
// accept the request at a frame start. On timeout the previous state is
// restored and ErrHardwareTimeout is returned.
func (d *Dev) Enable(on bool) error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	d.mu.Lock()
	if d.halted {
		d.mu.Unlock()
		return ErrHalted
	}
	if d.state < Ready {
		s := d.state
		d.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrNotReady, s)
	}
	if on == d.enableReq {
		d.mu.Unlock()
		return nil
	}
	prevReq, prevHW := d.enableReq, d.hwEnabled
	d.enableReq = on
	if on {
		d.refreshForceOffLocked()
	}
	want := on && !d.forceOff
	if err := d.applyHWLocked(want); err != nil {
		d.enableReq = prevReq
		d.mu.Unlock()
		return err
	}
	timeout := time.Duration(d.profile.AckFrames) * d.periodLocked()
	d.mu.Unlock()

	err := d.ch.PollUntil(regStatus, func(v uint32) bool { return (v&1 != 0) == want }, timeout)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.enableReq = prevReq
		if rerr := d.applyHWLocked(prevHW); rerr != nil {
			d.log.Printf("overdrive: rollback failed: %v", rerr)
		}
		d.log.Printf("overdrive: enable %t not acknowledged: %v", on, err)
		return fmt.Errorf("overdrive: enable %t: %w", on, err)
	}
	d.syncBandwidthLocked()
	if want {
		d.tableChangeLocked()
	}
	return nil
}

// refreshForceOffLocked forces the correction off while no table covers
// the operating point.
func (d *Dev) refreshForceOffLocked() {
	_, err := d.store.Lookup(d.op.FPS, d.op.Brightness, d.banks.Active())
	d.forceOff = err != nil
}

// applyHWLocked programs the enable state. Enabling resets the datapath and
// starts a weight ramp at zero strength.
func (d *Dev) applyHWLocked(on bool) error {
	if on == d.hwEnabled {
		return nil
	}
	var seq []RegValue
	if on {
		seq = []RegValue{
			{regWeight, 0},
			{regSWReset, swResetPulse},
			{regSWReset, 0},
			{regTopBypass, 0},
		}
	} else {
		seq = []RegValue{
			{regTopBypass, 1},
			{regSWReset, swResetPulse},
		}
	}
	for _, w := range seq {
		if err := d.ch.WriteRegister(w.Reg, w.Value); err != nil {
			return fmt.Errorf("overdrive: enable %t: %w", on, err)
		}
	}
	var en uint32
	if on {
		en = 1
	}
	if err := d.ch.WriteRegisterMask(regCtrlEn, en, 1); err != nil {
		return fmt.Errorf("overdrive: enable %t: %w", on, err)
	}
	d.hwEnabled = on
	if on {
		d.weight = 0
		d.ramp = d.profile.RampFrames
		if d.ramp == 0 {
			d.writeWeightLocked()
		}
	}
	return nil
}

// periodLocked returns one refresh period of the current timing.
func (d *Dev) periodLocked() time.Duration {
	if d.refresh <= 0 {
		return 100 * time.Millisecond
	}
	return d.refresh.Period()
}

// tableChangeLocked moves the read bank to the table covering the
// operating point: stay, flip to the write bank, or rewrite the write bank
// in the background. It reports whether anything was written.
func (d *Dev) tableChangeLocked() bool {
	if d.state < Ready || !d.enableReq {
		return false
	}
	d.opDirty = false
	if d.state == Swapping {
		// Keep the current table until the write bank is loaded.
		return d.updateWeightLocked()
	}
	active := d.banks.Active()
	id, err := d.store.Lookup(d.op.FPS, d.op.Brightness, active)
	if err != nil {
		if !d.forceOff {
			d.log.Printf("overdrive: forced off: %v", err)
			d.forceOff = true
			if err := d.applyHWLocked(false); err != nil {
				d.log.Printf("overdrive: %v", err)
			}
			d.syncBandwidthLocked()
			return true
		}
		return false
	}
	changed := false
	if d.forceOff {
		d.forceOff = false
		if err := d.applyHWLocked(true); err != nil {
			d.log.Printf("overdrive: %v", err)
			d.forceOff = true
			return false
		}
		d.syncBandwidthLocked()
		changed = true
	}
	if id != active {
		wb := d.banks.WriteBank()
		if other := d.banks.Holds(wb); other >= 0 {
			if t, ok := d.store.Table(other); ok && t.Envelope.Contains(d.op.FPS, d.op.Brightness) {
				id = other
			}
		}
		if d.banks.Holds(wb) == id {
			if err := d.banks.Flip(); err != nil {
				d.log.Printf("overdrive: %v", err)
				d.opDirty = true
			} else {
				if err := d.applyPQLocked(id); err != nil {
					d.log.Printf("overdrive: %v", err)
				}
				changed = true
			}
		} else {
			d.scheduleRewriteLocked(id)
		}
	}
	return d.updateWeightLocked() || changed
}

func (d *Dev) syncBandwidthLocked() {
	if err := d.bw.OnEnableChange(d.hwEnabled); err != nil {
		d.log.Printf("overdrive: %v", err)
	}
}

// scheduleRewriteLocked queues the load of table id into the write bank.
func (d *Dev) scheduleRewriteLocked(id int) {
	bank := d.banks.WriteBank()
	prog, err := d.banks.program(bank, id)
	if err != nil {
		d.log.Printf("overdrive: %v", err)
		return
	}
	select {
	case d.rewrites <- rewriteJob{bank: bank, id: id, prog: prog}:
		d.banks.tables[bank] = -1
		d.state = Swapping
		d.log.Printf("overdrive: rewriting bank %d with table %d", bank, id)
	default:
		d.log.Printf("overdrive: rewrite queue full, table %d deferred", id)
		d.opDirty = true
	}
}

// rewrite runs a queued bank load. The staging writes only touch the write
// bank so they run without the pipe lock; the flip is left to the next
// frame start.
func (d *Dev) rewrite(job rewriteJob) {
	err := job.prog.run(d.ch)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Swapping {
		d.state = Ready
	}
	if err != nil {
		// The bank content is unknown; the next frame schedules the load
		// again.
		d.log.Printf("overdrive: rewriting bank %d with table %d: %v", job.bank, job.id, err)
		d.opDirty = true
		return
	}
	d.banks.tables[job.bank] = job.id
	d.opDirty = true
	d.log.Printf("overdrive: bank %d holds table %d", job.bank, job.id)
}

func (d *Dev) rewriteLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-d.rewrites:
			d.rewrite(job)
		}
	}
}

func (d *Dev) strengthLocked() uint8 {
	t, ok := d.store.Table(d.banks.Active())
	if !ok {
		return 0
	}
	return gaincurve.Strength(t.FPSCurve, t.BrightnessCurve, d.op.FPS, d.op.Brightness, d.userGain)
}

// updateWeightLocked writes the computed strength unless the hardware is
// off or a ramp is pending. It reports whether the register changed.
func (d *Dev) updateWeightLocked() bool {
	if !d.hwEnabled || d.ramp > 0 {
		return false
	}
	if d.strengthLocked() == d.weight {
		return false
	}
	d.writeWeightLocked()
	return true
}

func (d *Dev) writeWeightLocked() {
	w := d.strengthLocked()
	if err := d.ch.WriteRegister(regWeight, uint32(w)); err != nil {
		d.log.Printf("overdrive: weight %d: %v", w, err)
		return
	}
	d.weight = w
}

// SetUserGain sets the user strength scale, 255 being unity. The new
// strength is applied at the next frame start.
func (d *Dev) SetUserGain(g uint8) {
	d.mu.Lock()
	d.setUserGainLocked(g)
	c := d.committer
	if d.trigger == TriggerNone {
		c = nil
	}
	d.mu.Unlock()
	if c != nil && c.CommitSkippable() {
		if err := c.RequestCommit(false); err != nil {
			d.log.Printf("overdrive: commit: %v", err)
		}
	}
}

func (d *Dev) setUserGainLocked(g uint8) {
	d.userGain = g
	if d.hwEnabled && d.ramp == 0 {
		d.ramp = 1
	}
}

// OnBrightnessChange records a new brightness level.
func (d *Dev) OnBrightnessChange(level uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.op.Brightness != level {
		d.op.Brightness = level
		d.opDirty = true
	}
}

// OnTimingChange records a new display mode.
func (d *Dev) OnTimingChange(t Timing) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fps := uint32((t.Refresh + physic.Hertz/2) / physic.Hertz)
	if fps != d.op.FPS {
		d.opDirty = true
	}
	d.op.FPS = fps
	d.op.Width, d.op.Height = t.Width, t.Height
	d.op.Changes = t.Changes
	d.refresh = t.Refresh
	if t.Changes&ModeResolution != 0 && d.profile.PanelResolutionSwitch && d.hwEnabled {
		// The panel emits one stale frame; hold the strength at zero.
		if err := d.ch.WriteRegister(regWeight, 0); err != nil {
			d.log.Printf("overdrive: %v", err)
		} else {
			d.weight = 0
			d.ramp = max(d.profile.RampFrames, 1)
		}
	}
	if err := d.bw.OnTimingChange(t.Width, t.Height, fps); err != nil {
		d.log.Printf("overdrive: %v", err)
	}
}

// MarkFrameDirty reports that the pipeline has a frame update pending. A
// commit request of the frame worker is dropped when an update was marked
// since the last frame start.
func (d *Dev) MarkFrameDirty() {
	d.mu.Lock()
	d.frameDirty = true
	d.mu.Unlock()
}

// MarkPQDirty reports a pending picture quality update, see MarkFrameDirty.
func (d *Dev) MarkPQDirty() {
	d.mu.Lock()
	d.pqDirty = true
	d.mu.Unlock()
}

// StartOfFrame wakes the frame worker. It is meant to be called from the
// frame start interrupt path and never blocks on table work.
func (d *Dev) StartOfFrame() {
	d.sof.raise()
}

// onFrame is the per-frame work of the frame worker.
func (d *Dev) onFrame(ctx context.Context) {
	defer d.frames.Add(1)
	d.mu.Lock()
	if d.halted || d.state < Ready || !d.enableReq {
		d.mu.Unlock()
		return
	}
	// A ramp started by this frame's table change holds for a full frame.
	ramping := d.ramp > 0
	changed := false
	if d.opDirty {
		changed = d.tableChangeLocked()
	}
	if ramping && d.ramp > 0 && d.hwEnabled {
		d.ramp--
		if d.ramp == 0 {
			d.writeWeightLocked()
		}
		changed = true
	}
	// Updates marked before this frame start went out with it.
	d.frameDirty, d.pqDirty = false, false
	trig := d.trigger
	c := d.committer
	d.mu.Unlock()

	if !changed || trig == TriggerNone || c == nil {
		return
	}
	if lead := d.profile.TriggerLead; lead > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(lead):
		}
	}
	d.mu.Lock()
	pending := d.frameDirty || d.pqDirty
	d.mu.Unlock()
	if pending || !c.CommitSkippable() {
		return
	}
	if err := c.RequestCommit(trig == TriggerDelayed); err != nil {
		d.log.Printf("overdrive: commit: %v", err)
	}
}

// frameLoop returns ErrHalted when stopped by Halt so the other workers are
// canceled with it.
func (d *Dev) frameLoop(ctx context.Context) error {
	for d.sof.wait() {
		d.onFrame(ctx)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return nil
}

// Run runs the frame worker and the table rewrite queue until ctx is
// canceled or the device is halted.
func (d *Dev) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.halted {
		d.mu.Unlock()
		return ErrHalted
	}
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.sof.reopen()
	d.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.frameLoop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		d.sof.close()
		return nil
	})
	g.Go(func() error {
		return d.rewriteLoop(ctx)
	})
	err := g.Wait()
	if errors.Is(err, ErrHalted) {
		err = nil
	}

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	return err
}

// Status is a read-only snapshot of a Dev.
type Status struct {
	State      State
	Enabled    bool // requested by the user
	Active     bool // running in hardware
	ForcedOff  bool
	Table      int
	ReadBank   int
	Weight     uint8
	UserGain   uint8
	Brightness uint32
	FPS        uint32
	Width      int
	Height     int
	Bandwidth  Reservation
	Frames     uint64 // frame starts processed
}

// Status returns the current status.
func (d *Dev) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		State:      d.state,
		Enabled:    d.enableReq,
		Active:     d.hwEnabled,
		ForcedOff:  d.forceOff,
		Table:      d.banks.Active(),
		ReadBank:   d.banks.ReadBank(),
		Weight:     d.weight,
		UserGain:   d.userGain,
		Brightness: d.op.Brightness,
		FPS:        d.op.FPS,
		Width:      d.op.Width,
		Height:     d.op.Height,
		Bandwidth:  d.bw.Current(),
		Frames:     d.frames.Load(),
	}
}

// Halt bypasses the correction block and stops the frame worker. The read
// bank is left untouched.
func (d *Dev) Halt() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()
	d.mu.Lock()
	if d.halted {
		d.mu.Unlock()
		return nil
	}
	d.halted = true
	d.enableReq = false
	err := d.applyHWLocked(false)
	d.syncBandwidthLocked()
	d.mu.Unlock()
	d.sof.close()
	return err
}
