// Package saffire implements Focusrite Saffire parameter codecs
// (spec.md component E): the Focusrite vendor-dependent AV/C
// control/status layout (grounded on
// libs/bebob/protocols/src/focusrite.rs), and the Pro 40 D3's
// routing-table commands over register writes (grounded on
// libs/dice/protocols/src/focusrite/spro40d3.rs).
package saffire

import (
	"fmt"

	"github.com/herlein/fwctl/pkg/avc"
)

// OUI is Focusrite's IEEE organizationally unique identifier, used to
// prefix every vendor-dependent AV/C command this package builds
// (spec.md §8 scenario S2).
var OUI = [3]byte{0x00, 0x13, 0x0e}

// MaxOffsetCount bounds a single vendor-dependent frame to at most this
// many (offset, value) pairs, matching the cap enforced in spec.md
// §4.E for variable-length vendor operand lists.
const MaxOffsetCount = 20

// ErrTooManyOffsets is returned when a caller asks for more than
// MaxOffsetCount offsets in one frame.
var ErrTooManyOffsets = fmt.Errorf("saffire: more than %d offsets in one vendor-dependent frame", MaxOffsetCount)

// Action codes occupying byte 0 of the Saffire vendor-dependent
// payload, spec.md §6: 0x01 for a control write, 0x03 for a status
// read.
const (
	ActionControl uint8 = 0x01
	ActionStatus  uint8 = 0x03
)

// Offset is one (register offset, value) pair addressed within a
// Saffire vendor-dependent AV/C frame. Reg is the byte offset; the
// wire form carries it divided by 4.
type Offset struct {
	Reg   uint32
	Value uint32
}

// BuildOperands lays out up to MaxOffsetCount offsets as Focusrite's
// vendor-dependent payload (everything after the 3-byte OUI, which
// avc.VendorOperands adds separately): the action byte, an offset
// count byte, then one 8-byte (reg/4, value) record per offset,
// big-endian (spec.md §8 scenario S2).
func BuildOperands(action uint8, offsets []Offset) ([]byte, error) {
	if len(offsets) > MaxOffsetCount {
		return nil, ErrTooManyOffsets
	}
	buf := make([]byte, 2+len(offsets)*8)
	buf[0] = action
	buf[1] = byte(len(offsets))
	for i, o := range offsets {
		off := 2 + i*8
		putU32(buf[off:off+4], o.Reg/4)
		putU32(buf[off+4:off+8], o.Value)
	}
	return buf, nil
}

// ParseOperands is the inverse of BuildOperands, used to decode a
// status response's payload (with the OUI already stripped by
// avc.SplitVendorOperands). It rejects a payload whose action byte
// doesn't match the expected one.
func ParseOperands(action uint8, buf []byte) ([]Offset, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("saffire: vendor payload too short for header")
	}
	if buf[0] != action {
		return nil, fmt.Errorf("saffire: vendor payload action 0x%02x, expected 0x%02x", buf[0], action)
	}
	count := int(buf[1])
	if count > MaxOffsetCount {
		return nil, ErrTooManyOffsets
	}
	need := 2 + count*8
	if len(buf) < need {
		return nil, fmt.Errorf("saffire: vendor payload too short for %d offsets", count)
	}
	out := make([]Offset, count)
	for i := range out {
		off := 2 + i*8
		out[i] = Offset{Reg: getU32(buf[off:off+4]) * 4, Value: getU32(buf[off+4 : off+8])}
	}
	return out, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// WriteOffsets issues a single Control command carrying the given
// offsets to the unit. Focusrite units never trigger the FireOne
// response-code quirk, so ControlOptions.FireOneQuirk is left false.
func WriteOffsets(t *avc.Transport, addr avc.Address, offsets []Offset) error {
	payload, err := BuildOperands(ActionControl, offsets)
	if err != nil {
		return err
	}
	cmd := avc.Command{Address: addr, Opcode: avc.VendorDependentOpcode, Operands: avc.VendorOperands(OUI, payload)}
	_, err = t.Control(cmd, avc.ControlOptions{})
	return err
}

// ReadOffsets issues a Status command and parses the returned offsets.
func ReadOffsets(t *avc.Transport, addr avc.Address, want []uint32) ([]Offset, error) {
	offsets := make([]Offset, len(want))
	for i, reg := range want {
		offsets[i] = Offset{Reg: reg}
	}
	payload, err := BuildOperands(ActionStatus, offsets)
	if err != nil {
		return nil, err
	}
	cmd := avc.Command{Address: addr, Opcode: avc.VendorDependentOpcode, Operands: avc.VendorOperands(OUI, payload)}
	resp, err := t.Status(cmd, avc.StatusOptions{})
	if err != nil {
		return nil, err
	}
	oui, respPayload, err := avc.SplitVendorOperands(resp)
	if err != nil {
		return nil, err
	}
	if oui != OUI {
		return nil, fmt.Errorf("saffire: vendor block missing Focusrite OUI")
	}
	return ParseOperands(ActionStatus, respPayload)
}
