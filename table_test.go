package overdrive

import (
	"errors"
	"testing"

	"github.com/flavioheleno/overdrive/gaincurve"
)

func TestEnvelopeContains(t *testing.T) {
	e := Envelope{MinFPS: 60, MaxFPS: 90, MinBrightness: 100, MaxBrightness: 200}
	tests := []struct {
		fps, bl uint32
		want    bool
	}{
		{60, 100, true},
		{90, 200, true},
		{75, 150, true},
		{59, 150, false},
		{91, 150, false},
		{75, 99, false},
		{75, 201, false},
	}
	for _, tt := range tests {
		if got := e.Contains(tt.fps, tt.bl); got != tt.want {
			t.Errorf("Contains(%d, %d) = %t, want %t", tt.fps, tt.bl, got, tt.want)
		}
	}
}

func TestTableValidate(t *testing.T) {
	p := &DefaultProfile
	valid := testTables(p)[0]
	tests := []struct {
		name   string
		modify func(*Table)
		ok     bool
	}{
		{"valid", func(*Table) {}, true},
		{"oversized payload", func(t *Table) { t.Payload = append(t.Payload, 0, 0) }, true},
		{"negative id", func(t *Table) { t.ID = -1 }, false},
		{"inverted fps", func(t *Table) { t.Envelope.MinFPS, t.Envelope.MaxFPS = 90, 60 }, false},
		{"inverted brightness", func(t *Table) { t.Envelope.MinBrightness = 5000 }, false},
		{"short payload", func(t *Table) { t.Payload = t.Payload[:p.TableSize()-1] }, false},
		{"empty fps curve", func(t *Table) { t.FPSCurve = nil }, false},
		{"unsorted brightness curve", func(t *Table) {
			t.BrightnessCurve = gaincurve.Curve{{Key: 10, Gain: 1}, {Key: 5, Gain: 2}}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := valid
			tb.Payload = append([]byte(nil), valid.Payload...)
			tt.modify(&tb)
			err := tb.Validate(p)
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTable) {
				t.Errorf("Validate() = %v, want ErrInvalidTable", err)
			}
		})
	}
}

func TestStoreLookup(t *testing.T) {
	p := &DefaultProfile
	s := NewStore(p)
	tables := testTables(p)
	tables[0].Envelope.MaxFPS = 70
	tables[1].Envelope.MinFPS = 50
	third := tables[0]
	third.ID = 5
	third.Envelope = Envelope{MinFPS: 0, MaxFPS: 120, MinBrightness: 3000, MaxBrightness: 4095}
	for _, tb := range append(tables, third) {
		if err := s.Load(tb); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		fps, bl uint32
		active  int
		want    int
	}{
		{"single match", 40, 0, -1, 0},
		{"overlap prefers lowest id", 60, 0, -1, 0},
		{"overlap keeps active", 60, 0, 1, 1},
		{"active left", 40, 0, 1, 0},
		{"third table", 100, 3500, 0, 1},
		{"keep third", 100, 3500, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Lookup(tt.fps, tt.bl, tt.active)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Lookup() = %d, want %d", got, tt.want)
			}
		})
	}
	if _, err := s.Lookup(200, 0, 0); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Lookup(200) = %v, want ErrNoMatch", err)
	}
}

func TestStoreLookupScenarios(t *testing.T) {
	p := &DefaultProfile
	s := NewStore(p)
	for _, tb := range testTables(p) {
		if err := s.Load(tb); err != nil {
			t.Fatal(err)
		}
	}
	if got, err := s.Lookup(90, 2048, -1); err != nil || got != 1 {
		t.Errorf("Lookup(90, 2048) = %d, %v, want table 1", got, err)
	}

	overlap := testTables(p)[1]
	overlap.ID = 2
	overlap.Envelope.MinFPS = 60
	if err := s.Load(overlap); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Lookup(60, 2048, 0); got != 0 {
		t.Errorf("Lookup(60) with table 0 active = %d, want 0", got)
	}
	if got, _ := s.Lookup(60, 2048, 2); got != 2 {
		t.Errorf("Lookup(60) with table 2 active = %d, want 2", got)
	}
}

func TestStore(t *testing.T) {
	p := &DefaultProfile
	s := NewStore(p)
	tables := testTables(p)
	if s.IsComplete(2) {
		t.Error("empty store is complete")
	}
	if err := s.Load(tables[1]); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(tables[0]); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(tables[0]); err != nil {
		t.Fatal(err)
	}
	if got := s.IDs(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("IDs() = %v, want [0 1]", got)
	}
	if !s.IsComplete(2) || s.IsComplete(3) || s.IsComplete(0) {
		t.Error("IsComplete() mismatch")
	}

	// The store keeps its own copy.
	tables[0].Payload[0] ^= 0xFF
	got, ok := s.Table(0)
	if !ok {
		t.Fatal("Table(0) missing")
	}
	if got.Payload[0] == tables[0].Payload[0] {
		t.Error("stored payload aliases the caller's slice")
	}

	bad := tables[1]
	bad.ID = 3
	bad.Payload = nil
	if err := s.Load(bad); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("Load(bad) = %v, want ErrInvalidTable", err)
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d after rejected load, want 2", got)
	}

	s.Reset()
	if got := s.Len(); got != 0 {
		t.Errorf("Len() = %d after Reset, want 0", got)
	}
}

func TestPanelMatches(t *testing.T) {
	long := []byte("0123456789ABCDEFXYZ")
	tests := []struct {
		name           string
		read, expected []byte
		want           bool
	}{
		{"no tag", []byte("A"), nil, true},
		{"zero tag", nil, []byte{0, 0, 0}, true},
		{"equal", []byte("PANEL"), []byte("PANEL"), true},
		{"prefix", []byte("PANEL-2"), []byte("PANEL"), true},
		{"different", []byte("PANEL"), []byte("PANEX"), false},
		{"short read", []byte("PAN"), []byte("PANEL"), false},
		{"only 16 bytes compared", []byte("0123456789ABCDEF"), long, true},
	}
	for _, tt := range tests {
		if got := panelMatches(tt.read, tt.expected); got != tt.want {
			t.Errorf("%s: panelMatches() = %t, want %t", tt.name, got, tt.want)
		}
	}
}
