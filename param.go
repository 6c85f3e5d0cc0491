package overdrive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/flavioheleno/overdrive/gaincurve"
)

// Category is the parameter section carried in the top byte of a head id.
type Category uint8

// Parameter sections.
const (
	CategoryBasicInfo Category = 1
	CategoryTable     Category = 2
)

// HeadID builds the head id of a parameter blob.
func HeadID(c Category, index uint32) uint32 {
	return uint32(c)<<24 | index&0xFFFFFF
}

// BasicInfo is the header section of a table set.
type BasicInfo struct {
	// TableCount is the number of tables the set declares.
	TableCount int
	Mode       Mode
	Scaling    Scaling
	// PanelID is the identity tag the panel must report. Empty or all zero
	// matches any panel.
	PanelID []byte
}

// Limits keeping a corrupt blob from allocating unbounded memory.
const (
	maxPanelID    = 16
	maxCurvePts   = 64
	maxPQ         = 256
	maxPayloadLen = 1 << 20
)

// DecodeBasicInfo parses a basic info blob. All fields are little endian:
//
//	u32 table count
//	u32 mode
//	u32 scaling
//	u32 panel id length (at most 16)
//	[16]byte panel id
func DecodeBasicInfo(blob []byte) (BasicInfo, error) {
	var hdr struct {
		Count, Mode, Scaling, IDLen uint32
		ID                          [maxPanelID]byte
	}
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &hdr); err != nil {
		return BasicInfo{}, fmt.Errorf("overdrive: basic info: %w", err)
	}
	if hdr.IDLen > maxPanelID {
		return BasicInfo{}, fmt.Errorf("overdrive: basic info: panel id length %d", hdr.IDLen)
	}
	if hdr.Count == 0 {
		return BasicInfo{}, errors.New("overdrive: basic info: no tables declared")
	}
	return BasicInfo{
		TableCount: int(hdr.Count),
		Mode:       Mode(hdr.Mode),
		Scaling:    Scaling(hdr.Scaling),
		PanelID:    append([]byte(nil), hdr.ID[:hdr.IDLen]...),
	}, nil
}

// EncodeBasicInfo is the inverse of DecodeBasicInfo.
func EncodeBasicInfo(bi BasicInfo) []byte {
	var buf bytes.Buffer
	id := bi.PanelID
	if len(id) > maxPanelID {
		id = id[:maxPanelID]
	}
	var raw [maxPanelID]byte
	copy(raw[:], id)
	putU32(&buf, uint32(bi.TableCount), uint32(bi.Mode), uint32(bi.Scaling), uint32(len(id)))
	buf.Write(raw[:])
	return buf.Bytes()
}

// DecodeTable parses a table blob. All fields are little endian:
//
//	u32 id
//	u32 min fps, max fps, min brightness, max brightness
//	u32 fps points, brightness points, pq pairs
//	fps points × {u32 key, u32 gain}
//	brightness points × {u32 key, u32 gain}
//	pq pairs × {u32 reg, u32 value}
//	u32 payload length, payload bytes
//
// The result is not validated; Store.Load does that.
func DecodeTable(blob []byte) (Table, error) {
	r := bytes.NewReader(blob)
	var hdr struct {
		ID                   uint32
		MinFPS, MaxFPS       uint32
		MinBL, MaxBL         uint32
		FPSCnt, BLCnt, PQCnt uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Table{}, fmt.Errorf("overdrive: table header: %w", err)
	}
	if hdr.FPSCnt > maxCurvePts || hdr.BLCnt > maxCurvePts || hdr.PQCnt > maxPQ {
		return Table{}, fmt.Errorf("%w: table %d section counts %d/%d/%d", ErrInvalidTable, hdr.ID, hdr.FPSCnt, hdr.BLCnt, hdr.PQCnt)
	}
	t := Table{
		ID: int(hdr.ID),
		Envelope: Envelope{
			MinFPS: hdr.MinFPS, MaxFPS: hdr.MaxFPS,
			MinBrightness: hdr.MinBL, MaxBrightness: hdr.MaxBL,
		},
	}
	var err error
	if t.FPSCurve, err = readCurve(r, hdr.FPSCnt); err != nil {
		return Table{}, fmt.Errorf("overdrive: table %d fps curve: %w", hdr.ID, err)
	}
	if t.BrightnessCurve, err = readCurve(r, hdr.BLCnt); err != nil {
		return Table{}, fmt.Errorf("overdrive: table %d brightness curve: %w", hdr.ID, err)
	}
	if hdr.PQCnt > 0 {
		t.PQ = make([]RegValue, hdr.PQCnt)
		if err := binary.Read(r, binary.LittleEndian, t.PQ); err != nil {
			return Table{}, fmt.Errorf("overdrive: table %d pq: %w", hdr.ID, err)
		}
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return Table{}, fmt.Errorf("overdrive: table %d payload length: %w", hdr.ID, err)
	}
	if n > maxPayloadLen {
		return Table{}, fmt.Errorf("%w: table %d payload length %d", ErrInvalidTable, hdr.ID, n)
	}
	t.Payload = make([]byte, n)
	if _, err := io.ReadFull(r, t.Payload); err != nil {
		return Table{}, fmt.Errorf("overdrive: table %d payload: %w", hdr.ID, err)
	}
	return t, nil
}

// EncodeTable is the inverse of DecodeTable.
func EncodeTable(t Table) []byte {
	var buf bytes.Buffer
	e := t.Envelope
	putU32(&buf, uint32(t.ID), e.MinFPS, e.MaxFPS, e.MinBrightness, e.MaxBrightness,
		uint32(len(t.FPSCurve)), uint32(len(t.BrightnessCurve)), uint32(len(t.PQ)))
	for _, p := range t.FPSCurve {
		putU32(&buf, p.Key, p.Gain)
	}
	for _, p := range t.BrightnessCurve {
		putU32(&buf, p.Key, p.Gain)
	}
	for _, pq := range t.PQ {
		putU32(&buf, pq.Reg, pq.Value)
	}
	putU32(&buf, uint32(len(t.Payload)))
	buf.Write(t.Payload)
	return buf.Bytes()
}

func readCurve(r io.Reader, n uint32) (gaincurve.Curve, error) {
	if n == 0 {
		return nil, nil
	}
	c := make(gaincurve.Curve, n)
	if err := binary.Read(r, binary.LittleEndian, c); err != nil {
		return nil, err
	}
	return c, nil
}

func putU32(buf *bytes.Buffer, vs ...uint32) {
	var b [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
}
