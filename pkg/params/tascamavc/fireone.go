// Package tascamavc implements the TASCAM FireOne vendor-dependent
// AV/C command set (spec.md component E and §4.C's FireOne response-
// code quirk), grounded on spec.md §8 scenario S3 and the TEAC OUI
// named in spec.md §4.C.
package tascamavc

import (
	"fmt"

	"github.com/herlein/fwctl/pkg/avc"
)

// OUI is TEAC's IEEE organizationally unique identifier, prefixed to
// every FireOne vendor-dependent command.
var OUI = [3]byte{0x00, 0x02, 0x2e}

// ModelTag is the 3-byte ASCII model identifier ("FI1") FireOne
// prefixes its vendor payload with, ahead of the field id and value
// (spec.md §8 scenario S3).
var ModelTag = [3]byte{'F', 'I', '1'}

// Field identifies one single-byte FireOne control/status field.
type Field uint8

// DisplayMode selects what the unit's front-panel display shows
// (spec.md §8 scenario S3).
const DisplayMode Field = 0x10

// BuildPayload lays out the FireOne vendor payload: model tag, field
// id, value.
func BuildPayload(field Field, value uint8) []byte {
	return []byte{ModelTag[0], ModelTag[1], ModelTag[2], byte(field), value}
}

// ParsePayload is the inverse of BuildPayload.
func ParsePayload(payload []byte) (Field, uint8, error) {
	if len(payload) < 5 {
		return 0, 0, fmt.Errorf("tascamavc: vendor payload too short")
	}
	if payload[0] != ModelTag[0] || payload[1] != ModelTag[1] || payload[2] != ModelTag[2] {
		return 0, 0, fmt.Errorf("tascamavc: vendor payload missing FireOne model tag")
	}
	return Field(payload[3]), payload[4], nil
}

// SetDisplayMode issues a vendor-dependent Control command setting
// DisplayMode to value, applying the FireOne response-code quirk
// (spec.md §4.C: vendor-dependent control on this device responds
// ImplementedOrStable rather than Accepted).
func SetDisplayMode(t *avc.Transport, addr avc.Address, value uint8) error {
	operands := avc.VendorOperands(OUI, BuildPayload(DisplayMode, value))
	cmd := avc.Command{Address: addr, Opcode: avc.VendorDependentOpcode, Operands: operands}
	_, err := t.Control(cmd, avc.ControlOptions{FireOneQuirk: true})
	return err
}

// ReadDisplayMode issues a vendor-dependent Status command and parses
// the DisplayMode value out of the response.
func ReadDisplayMode(t *avc.Transport, addr avc.Address) (uint8, error) {
	operands := avc.VendorOperands(OUI, BuildPayload(DisplayMode, 0))
	cmd := avc.Command{Address: addr, Opcode: avc.VendorDependentOpcode, Operands: operands}
	resp, err := t.Status(cmd, avc.StatusOptions{})
	if err != nil {
		return 0, err
	}
	_, payload, err := avc.SplitVendorOperands(resp)
	if err != nil {
		return 0, err
	}
	field, value, err := ParsePayload(payload)
	if err != nil {
		return 0, err
	}
	if field != DisplayMode {
		return 0, fmt.Errorf("tascamavc: response field 0x%02x does not match requested DisplayMode", field)
	}
	return value, nil
}
