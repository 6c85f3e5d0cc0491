package overdrive

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flavioheleno/overdrive/gaincurve"
)

// Envelope is the operating range a table is valid for. Bounds are
// inclusive.
type Envelope struct {
	MinFPS, MaxFPS               uint32
	MinBrightness, MaxBrightness uint32
}

// Contains reports whether the operating point lies inside e.
func (e Envelope) Contains(fps, brightness uint32) bool {
	return fps >= e.MinFPS && fps <= e.MaxFPS &&
		brightness >= e.MinBrightness && brightness <= e.MaxBrightness
}

func (e Envelope) String() string {
	return fmt.Sprintf("fps[%d,%d] bl[%d,%d]", e.MinFPS, e.MaxFPS, e.MinBrightness, e.MaxBrightness)
}

// Table is one correction table with its operating envelope.
//
// Tables are copied when loaded into a Store and never modified afterwards.
type Table struct {
	ID       int
	Envelope Envelope
	// Payload is the raw staging memory content, channel after channel.
	Payload []byte
	// FPSCurve and BrightnessCurve give the strength gain per axis.
	FPSCurve        gaincurve.Curve
	BrightnessCurve gaincurve.Curve
	// PQ is applied when the table becomes the one the display reads.
	PQ []RegValue
}

// Validate checks t against the payload layout of p.
func (t *Table) Validate(p *Profile) error {
	if t.ID < 0 {
		return fmt.Errorf("%w: negative id %d", ErrInvalidTable, t.ID)
	}
	e := t.Envelope
	if e.MinFPS > e.MaxFPS || e.MinBrightness > e.MaxBrightness {
		return fmt.Errorf("%w: table %d envelope %s", ErrInvalidTable, t.ID, e)
	}
	if err := t.FPSCurve.Validate(); err != nil {
		return fmt.Errorf("%w: table %d fps curve: %v", ErrInvalidTable, t.ID, err)
	}
	if err := t.BrightnessCurve.Validate(); err != nil {
		return fmt.Errorf("%w: table %d brightness curve: %v", ErrInvalidTable, t.ID, err)
	}
	if n := p.TableSize(); len(t.Payload) < n {
		return fmt.Errorf("%w: table %d payload is %d bytes, need %d", ErrInvalidTable, t.ID, len(t.Payload), n)
	}
	return nil
}

func (t *Table) clone() *Table {
	c := *t
	c.Payload = append([]byte(nil), t.Payload...)
	c.FPSCurve = t.FPSCurve.Clone()
	c.BrightnessCurve = t.BrightnessCurve.Clone()
	c.PQ = append([]RegValue(nil), t.PQ...)
	return &c
}

// Store holds the loaded correction tables.
type Store struct {
	profile *Profile

	mu     sync.RWMutex
	tables map[int]*Table
	ids    []int // ascending
}

// NewStore returns an empty store validating payloads against p.
func NewStore(p *Profile) *Store {
	return &Store{profile: p, tables: make(map[int]*Table)}
}

// Load validates t and stores a copy of it. Loading an ID again replaces
// the previous table.
func (s *Store) Load(t Table) error {
	if err := t.Validate(s.profile); err != nil {
		return err
	}
	c := t.clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[c.ID]; !ok {
		s.ids = append(s.ids, c.ID)
		sort.Ints(s.ids)
	}
	s.tables[c.ID] = c
	return nil
}

// Lookup returns the ID of the table whose envelope contains the operating
// point. When several tables match, active is preferred so the selection
// only moves once the point leaves the active envelope; otherwise the
// lowest ID wins. Pass a negative active when no table is in use.
func (s *Store) Lookup(fps, brightness uint32, active int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[active]; ok && t.Envelope.Contains(fps, brightness) {
		return active, nil
	}
	for _, id := range s.ids {
		if s.tables[id].Envelope.Contains(fps, brightness) {
			return id, nil
		}
	}
	return -1, fmt.Errorf("%w: fps %d brightness %d", ErrNoMatch, fps, brightness)
}

// Table returns the table with the given ID.
func (s *Store) Table(id int) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	return t, ok
}

// IDs returns the loaded table IDs in ascending order.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.ids...)
}

// Len returns the number of loaded tables.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IsComplete reports whether exactly expected tables are loaded.
func (s *Store) IsComplete(expected int) bool {
	return expected > 0 && s.Len() == expected
}

// Reset drops all tables.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[int]*Table)
	s.ids = nil
}

// panelMatches reports whether the identifier read from the panel satisfies
// the identity tag of a table set. An empty or all-zero tag matches any
// panel.
func panelMatches(read, expected []byte) bool {
	const maxLen = 16
	if len(expected) > maxLen {
		expected = expected[:maxLen]
	}
	zero := true
	for _, b := range expected {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return true
	}
	if len(read) > maxLen {
		read = read[:maxLen]
	}
	if len(read) < len(expected) {
		return false
	}
	for i, b := range expected {
		if read[i] != b {
			return false
		}
	}
	return true
}
