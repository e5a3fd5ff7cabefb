package motu

import (
	"fmt"
	"time"

	"github.com/herlein/fwctl/pkg/transaction"
)

// resetFrameSize is the fixed width of a reset envelope (spec.md §4.I:
// "first byte 0x80, zero length").
const resetFrameSize = 16

// Envelope wraps outbound Command DSP messages in the fixed header
// spec.md §4.I describes: { marker, sequence_number, length u16 BE,
// payload }. The sequence number is an 8-bit wrapping counter the core
// owns; it advances on every frame sent, including reset frames, so a
// reset-then-retry cycle consumes three consecutive values (spec.md §8
// scenario S6: seq 0x00 command, 0x01 reset, 0x02 retry). The zero
// value starts counting from 0.
type Envelope struct {
	seq uint8
}

// frame builds a normal command frame and advances the sequence
// counter.
func (e *Envelope) frame(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	out[0] = 0x00
	out[1] = e.seq
	out[2] = byte(len(payload) >> 8)
	out[3] = byte(len(payload))
	copy(out[4:], payload)
	e.seq++
	return out
}

// resetFrame builds the fixed 16-byte reset envelope and advances the
// sequence counter.
func (e *Envelope) resetFrame() []byte {
	out := make([]byte, resetFrameSize)
	out[0] = 0x80
	out[1] = e.seq
	e.seq++
	return out
}

// SendFunc writes a framed message to the device and returns the
// status byte it reports (0 for success).
type SendFunc func(frame []byte) (status byte, err error)

// Transport drives the envelope send/reset/retry protocol over a
// SendFunc, keeping the sequence counter in Envelope.
type Transport struct {
	Envelope Envelope
	Send     SendFunc
}

// SendCommand frames payload, sends it, and on a nonzero status emits
// a reset frame followed by one retry of the original command (spec.md
// §4.I, reproduced exactly in scenario S6).
func (t *Transport) SendCommand(payload []byte) error {
	frame := t.Envelope.frame(payload)
	status, err := t.Send(frame)
	if err != nil {
		return fmt.Errorf("motu: send command: %w", err)
	}
	if status == 0 {
		return nil
	}

	if _, err := t.Send(t.Envelope.resetFrame()); err != nil {
		return fmt.Errorf("motu: send reset frame: %w", err)
	}
	retryFrame := t.Envelope.frame(payload)
	if _, err := t.Send(retryFrame); err != nil {
		return fmt.Errorf("motu: retry command after reset: %w", err)
	}
	return nil
}

// RegisterTransactor builds a SendFunc that writes frame to a fixed
// device register and reads back a one-byte status from a second
// register, for use by models whose register layout matches this
// shape.
func RegisterTransactor(t transaction.Transactor, node transaction.Handle, writeAddr, statusAddr uint64, timeout time.Duration) SendFunc {
	return func(frame []byte) (byte, error) {
		if err := t.Write(node, writeAddr, frame, timeout); err != nil {
			return 0, err
		}
		status := make([]byte, 4)
		if err := t.Read(node, statusAddr, status, timeout); err != nil {
			return 0, err
		}
		return status[0], nil
	}
}
