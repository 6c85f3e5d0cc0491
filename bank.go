package overdrive

import (
	"fmt"
)

// write is one staged register write.
type write struct {
	mask bool
	off  uint32
	val  uint32
	m    uint32
}

// program is the prepared write sequence loading one table into one bank.
type program []write

func (p program) run(ch Channel) error {
	for _, w := range p {
		var err error
		if w.mask {
			err = ch.WriteRegisterMask(w.off, w.val, w.m)
		} else {
			err = ch.WriteRegister(w.off, w.val)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// BankManager owns the two staging banks of the correction block.
//
// One bank is read by the display and the other is the write bank; the
// manager only stores the read bank so the two can never coincide. Methods
// are not synchronized, callers hold the pipe lock.
type BankManager struct {
	ch      Channel
	profile *Profile

	read   int
	tables [2]int // table loaded in each bank, -1 when empty

	// programs holds the backing write sequences per table, one per bank.
	programs map[int]*[2]program
}

// NewBankManager returns a manager with both banks empty and bank 0 read.
func NewBankManager(ch Channel, p *Profile) *BankManager {
	return &BankManager{
		ch:       ch,
		profile:  p,
		tables:   [2]int{-1, -1},
		programs: make(map[int]*[2]program),
	}
}

// ReadBank returns the bank the display reads.
func (b *BankManager) ReadBank() int { return b.read }

// WriteBank returns the bank staging writes go to.
func (b *BankManager) WriteBank() int { return 1 - b.read }

// Holds returns the ID of the table loaded in bank, or -1.
func (b *BankManager) Holds(bank int) int { return b.tables[bank&1] }

// Active returns the ID of the table in the read bank, or -1.
func (b *BankManager) Active() int { return b.tables[b.read] }

// Prepare builds the backing write sequences of t for both banks.
func (b *BankManager) Prepare(t *Table) {
	b.programs[t.ID] = &[2]program{
		b.buildProgram(t, 0),
		b.buildProgram(t, 1),
	}
}

// buildProgram encodes the byte-wide staging protocol for t into bank: per
// channel and sub-block, enable the channel IO, then for every entry write
// the data register and strobe its address.
func (b *BankManager) buildProgram(t *Table, bank int) program {
	p := b.profile
	sel := bankSel(1-bank, bank)
	prog := make(program, 0, p.TableSize()*2+p.Channels*len(p.Blocks)*2)
	idx := 0
	for c := 0; c < p.Channels; c++ {
		hc := p.hwChannel(c)
		for n, blk := range p.Blocks {
			prog = append(prog, write{
				mask: true,
				off:  regSRAMCtrl,
				val:  uint32(1)<<(hc+1) | sel,
				m:    sramIOEnMask | sramAutoInc | sramSelMask,
			})
			data := uint32(regSRAMData + n*sramBlockStride)
			addr := uint32(regSRAMAddr + n*sramBlockStride)
			for i := 0; i < blk.Rows*blk.Cols; i++ {
				prog = append(prog,
					write{off: data, val: uint32(t.Payload[idx])},
					write{off: addr, val: sramWrite | uint32(i)&sramAddrMask},
				)
				idx++
			}
			prog = append(prog, write{
				mask: true,
				off:  regSRAMCtrl,
				val:  sel,
				m:    sramIOEnMask | sramAutoInc | sramSelMask,
			})
		}
	}
	return prog
}

// Assign loads the table id into bank. It fails with ErrBankInUse when bank
// is the read bank. On error the bank content is unspecified and the bank
// is marked empty.
func (b *BankManager) Assign(bank, id int) error {
	if bank != 0 && bank != 1 {
		return fmt.Errorf("overdrive: invalid bank %d", bank)
	}
	if bank == b.read {
		return fmt.Errorf("%w: bank %d", ErrBankInUse, bank)
	}
	prog, err := b.program(bank, id)
	if err != nil {
		return err
	}
	b.tables[bank] = -1
	if err := prog.run(b.ch); err != nil {
		return fmt.Errorf("overdrive: loading table %d into bank %d: %w", id, bank, err)
	}
	b.tables[bank] = id
	return nil
}

func (b *BankManager) program(bank, id int) (program, error) {
	progs, ok := b.programs[id]
	if !ok {
		return nil, fmt.Errorf("overdrive: table %d is not prepared", id)
	}
	return progs[bank], nil
}

// Flip swaps the read and write banks with a single masked register write.
// The software state only changes once the write succeeded.
func (b *BankManager) Flip() error {
	next := 1 - b.read
	if err := b.ch.WriteRegisterMask(regSRAMCtrl, bankSel(next, b.read), sramSelMask); err != nil {
		return fmt.Errorf("overdrive: flip to bank %d: %w", next, err)
	}
	b.read = next
	return nil
}

// selectRead programs bank as the read bank directly. It is only used
// during bring-up, before the display reads either bank.
func (b *BankManager) selectRead(bank int) error {
	if err := b.ch.WriteRegister(regSRAMCtrl, bankSel(bank, 1-bank)); err != nil {
		return err
	}
	b.read = bank
	return nil
}

// decode splits a payload index into channel, sub-block and entry.
func (b *BankManager) decode(idx int) (hc, blk, entry int, ok bool) {
	p := b.profile
	if idx < 0 || idx >= p.TableSize() {
		return 0, 0, 0, false
	}
	cs := p.ChannelSize()
	c := idx / cs
	rem := idx % cs
	for n, bl := range p.Blocks {
		size := bl.Rows * bl.Cols
		if rem < size {
			return p.hwChannel(c), n, rem, true
		}
		rem -= size
	}
	return 0, 0, 0, false
}

// readEntry reads one staging entry of bank and restores the control
// register afterwards.
func (b *BankManager) readEntry(bank, idx int) (byte, error) {
	hc, n, entry, ok := b.decode(idx)
	if !ok {
		return 0, fmt.Errorf("overdrive: staging index %d out of range", idx)
	}
	ctl, err := b.ch.ReadRegister(regSRAMCtrl)
	if err != nil {
		return 0, err
	}
	sel := bankSel(b.read, bank)
	if err := b.ch.WriteRegisterMask(regSRAMCtrl, uint32(1)<<(hc+1)|sel, sramIOEnMask|sramAutoInc|sramSelMask); err != nil {
		return 0, err
	}
	if err := b.ch.WriteRegister(uint32(regSRAMAddr+n*sramBlockStride), sramRead|uint32(entry)&sramAddrMask); err != nil {
		return 0, err
	}
	v, err := b.ch.ReadRegister(uint32(regSRAMOut + n*sramBlockStride))
	if err != nil {
		return 0, err
	}
	return byte(v), b.ch.WriteRegister(regSRAMCtrl, ctl)
}

// writeEntry overwrites one staging entry of bank.
func (b *BankManager) writeEntry(bank, idx int, v byte) error {
	hc, n, entry, ok := b.decode(idx)
	if !ok {
		return fmt.Errorf("overdrive: staging index %d out of range", idx)
	}
	ctl, err := b.ch.ReadRegister(regSRAMCtrl)
	if err != nil {
		return err
	}
	sel := bankSel(b.read, bank)
	if err := b.ch.WriteRegisterMask(regSRAMCtrl, uint32(1)<<(hc+1)|sel, sramIOEnMask|sramAutoInc|sramSelMask); err != nil {
		return err
	}
	if err := b.ch.WriteRegister(uint32(regSRAMData+n*sramBlockStride), uint32(v)); err != nil {
		return err
	}
	if err := b.ch.WriteRegister(uint32(regSRAMAddr+n*sramBlockStride), sramWrite|uint32(entry)&sramAddrMask); err != nil {
		return err
	}
	return b.ch.WriteRegister(regSRAMCtrl, ctl)
}

// ReadBack reads the whole staging content of bank.
func (b *BankManager) ReadBack(bank int) ([]byte, error) {
	out := make([]byte, b.profile.TableSize())
	for i := range out {
		v, err := b.readEntry(bank&1, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
