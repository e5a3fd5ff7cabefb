// Package avc implements the AV/C (Audio/Video Control) FCP
// request/response framing described in spec.md component C: command
// composition, synchronous transport via a pair of FCP register
// transactions, and response parsing including the TASCAM FireOne
// response-code quirk.
package avc

import (
	"errors"
	"fmt"
	"time"

	"github.com/herlein/fwctl/pkg/transaction"
)

// FCP command and response register addresses (IEC 61883-1).
const (
	FCPCommandAddress  uint64 = 0xfffff0000b00
	FCPResponseAddress uint64 = 0xfffff0000d00
)

// CmdType selects the AV/C command type byte.
type CmdType uint8

const (
	Control CmdType = iota
	Status
	SpecificInquiry
)

func (c CmdType) ctype() uint8 {
	switch c {
	case Control:
		return 0x00
	case Status:
		return 0x01
	case SpecificInquiry:
		return 0x02
	default:
		return 0xff
	}
}

// Address selects whether the command targets the unit or a subunit.
type Address struct {
	// Unit is true to address 0xff (the unit itself).
	Unit bool
	// SubunitType and SubunitID address a specific subunit when Unit is
	// false.
	SubunitType uint8
	SubunitID   uint8
}

func (a Address) encode() uint8 {
	if a.Unit {
		return 0xff
	}
	return (a.SubunitType << 3) | (a.SubunitID & 0x7)
}

// RespCode is the AV/C response code carried in byte 0 of a response
// frame.
type RespCode uint8

const (
	RespNotImplemented  RespCode = 0x08
	RespAccepted        RespCode = 0x09
	RespRejected        RespCode = 0x0a
	RespInTransition    RespCode = 0x0b
	RespImplementedOrStable RespCode = 0x0c
	RespChanged         RespCode = 0x0d
	RespInterim         RespCode = 0x0f
)

// Opcode identifies the AV/C command opcode.
type Opcode uint8

// VendorDependentOpcode is the opcode used for vendor-specific commands
// carrying a 3-byte OUI prefix (spec.md §4.C).
const VendorDependentOpcode Opcode = 0x00

// Command is a composed AV/C command ready to frame or already parsed
// from a response.
type Command struct {
	Type     CmdType
	Address  Address
	Opcode   Opcode
	Operands []byte
}

// Errors named in spec.md §4.C: the three terminal AV/C error variants.
var (
	ErrCmdBuild             = errors.New("avc: failed to build command operands")
	ErrCommunicationFailure = errors.New("avc: transport communication failure")
	ErrRespParse            = errors.New("avc: failed to parse response frame")
)

// Transport frames and exchanges AV/C commands over a pair of FCP
// register transactions on a single node.
type Transport struct {
	T    transaction.Transactor
	Node transaction.Handle
}

// FrameCommand serializes cmd into its wire form: ctype/addr/opcode
// followed by operands, matching IEC 61883-1 layout.
func FrameCommand(cmd Command) []byte {
	frame := make([]byte, 3+len(cmd.Operands))
	frame[0] = cmd.Type.ctype()
	frame[1] = cmd.Address.encode()
	frame[2] = uint8(cmd.Opcode)
	copy(frame[3:], cmd.Operands)
	return frame
}

// quadletPad rounds frame up to a multiple of 4 bytes for the
// underlying block-write transaction (spec.md invariant 1).
func quadletPad(frame []byte) []byte {
	n := len(frame)
	if rem := n % 4; rem != 0 {
		n += 4 - rem
	}
	out := make([]byte, n)
	copy(out, frame)
	return out
}

// Exchange composes cmd, writes it to the FCP command register, and
// reads the response from the FCP response register, returning the
// response code and parsed operands.
func (t *Transport) Exchange(cmd Command, timeout time.Duration) (RespCode, []byte, error) {
	frame := quadletPad(FrameCommand(cmd))
	if err := t.T.Write(t.Node, FCPCommandAddress, frame, timeout); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCommunicationFailure, err)
	}

	resp := make([]byte, len(frame))
	if err := t.T.Read(t.Node, FCPResponseAddress, resp, timeout); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCommunicationFailure, err)
	}
	if len(resp) < 3 {
		return 0, nil, fmt.Errorf("%w: short response frame", ErrRespParse)
	}

	rcode := RespCode(resp[0])
	operands := resp[3:]
	return rcode, operands, nil
}

// expectedRespCode returns the response code a well-formed device
// should return for a Control command with the given opcode, applying
// the TASCAM FireOne quirk (spec.md §4.C): vendor-dependent control
// commands on that device return ImplementedOrStable instead of the
// AV/C-specified Accepted.
func expectedRespCode(opcode Opcode, fireOneQuirk bool) RespCode {
	if fireOneQuirk && opcode == VendorDependentOpcode {
		return RespImplementedOrStable
	}
	return RespAccepted
}

// ControlOptions tunes a Control exchange.
type ControlOptions struct {
	// FireOneQuirk enables the TASCAM FireOne response-code exception.
	FireOneQuirk bool
	Timeout      time.Duration
}

// Control performs a Control-type exchange and validates the response
// code against the expected value for the opcode, applying the FireOne
// quirk when requested.
func (t *Transport) Control(cmd Command, opts ControlOptions) ([]byte, error) {
	cmd.Type = Control
	rcode, operands, err := t.Exchange(cmd, opts.Timeout)
	if err != nil {
		return nil, err
	}
	want := expectedRespCode(cmd.Opcode, opts.FireOneQuirk)
	if rcode != want {
		return nil, fmt.Errorf("%w: got response code 0x%02x, expected 0x%02x", ErrRespParse, rcode, want)
	}
	return operands, nil
}

// StatusOptions tunes a Status exchange.
type StatusOptions struct {
	Timeout time.Duration
}

// Status performs a Status-type exchange. It accepts an
// ImplementedOrStable, InTransition or Changed response code; the
// FireOne Accepted/ImplementedOrStable quirk affects only Control.
func (t *Transport) Status(cmd Command, opts StatusOptions) ([]byte, error) {
	cmd.Type = Status
	rcode, operands, err := t.Exchange(cmd, opts.Timeout)
	if err != nil {
		return nil, err
	}
	if rcode != RespImplementedOrStable && rcode != RespInTransition && rcode != RespChanged {
		return nil, fmt.Errorf("%w: got response code 0x%02x", ErrRespParse, rcode)
	}
	return operands, nil
}

// VendorOperands builds the operand block for a vendor-dependent
// command: a 3-byte OUI followed by the vendor payload.
func VendorOperands(oui [3]byte, payload []byte) []byte {
	out := make([]byte, 3+len(payload))
	copy(out[0:3], oui[:])
	copy(out[3:], payload)
	return out
}

// SplitVendorOperands splits a vendor-dependent response's operand
// block into its OUI and payload.
func SplitVendorOperands(operands []byte) (oui [3]byte, payload []byte, err error) {
	if len(operands) < 3 {
		return oui, nil, fmt.Errorf("%w: vendor operand block too short", ErrRespParse)
	}
	copy(oui[:], operands[0:3])
	return oui, operands[3:], nil
}
