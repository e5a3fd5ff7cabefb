// Package motu implements the MOTU Command DSP engine (spec.md
// component I): envelope framing with a wrapping sequence number,
// reset-frame-then-retry-once on nonzero status, inbound command
// decode, and the message-handler session state machine. Grounded on
// spec.md §4.I (the wire-level protocol file this was distilled from
// was not retained in the reference pack) and the session lifecycle in
// runtime/motu/src/command_dsp_runtime.rs (begin_messaging /
// release_message_handler calls, one message handler per unit).
package motu

import (
	"fmt"

	"github.com/herlein/fwctl/pkg/transaction"
)

// SessionState names the Command DSP session's state machine states
// (spec.md §4 "State machine: MOTU Command DSP session").
type SessionState int

const (
	Idle SessionState = iota
	HandlerRegistered
	Messaging
	Cancelled
	Released
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case HandlerRegistered:
		return "HandlerRegistered"
	case Messaging:
		return "Messaging"
	case Cancelled:
		return "Cancelled"
	case Released:
		return "Released"
	default:
		return "Unknown"
	}
}

// ErrInvalidTransition is returned when a session method is called from
// a state that doesn't allow it.
var ErrInvalidTransition = fmt.Errorf("motu: invalid session state transition")

// messageWindowBase is the base of the 16-byte receive-address window
// named in spec.md §4.I step 1. Session does not allocate from it: the
// owner supplies the local address to RegisterAddress.
const messageWindowBase uint64 = 0x1000000000000

// Session drives one unit's Command DSP message-handler lifecycle:
// Idle -> HandlerRegistered -> Messaging -> Cancelled -> Released, with
// any state forced to Released on a bus reset with generation change.
type Session struct {
	T    transaction.Transactor
	Node transaction.Handle

	state      SessionState
	generation transaction.Generation
	localAddr  uint64
}

// NewSession returns a Session in the Idle state.
func NewSession(t transaction.Transactor, node transaction.Handle, generation transaction.Generation) *Session {
	return &Session{T: t, Node: node, generation: generation, state: Idle}
}

// State returns the session's current state.
func (s *Session) State() SessionState { return s.state }

// RegisterAddressFunc writes the core's local receive address into the
// device's two dedicated destination-address registers
// (model-specific, spec.md §4.I step 2).
type RegisterAddressFunc func(localAddr uint64) error

// RegisterAddress hands the caller-supplied local receive address to
// register, which writes it into the device, and records it. The
// address is not checked against the message window, and messaging
// itself starts only with BeginMessaging. Must be called from Idle.
func (s *Session) RegisterAddress(localAddr uint64, register RegisterAddressFunc) error {
	if s.state != Idle {
		return fmt.Errorf("%w: RegisterAddress from %s", ErrInvalidTransition, s.state)
	}
	if err := register(localAddr); err != nil {
		return err
	}
	s.localAddr = localAddr
	s.state = HandlerRegistered
	return nil
}

// BeginMessagingFunc issues the model-specific command requesting the
// device start emitting state (spec.md §4.I step 3).
type BeginMessagingFunc func() error

// BeginMessaging transitions HandlerRegistered -> Messaging.
func (s *Session) BeginMessaging(begin BeginMessagingFunc) error {
	if s.state != HandlerRegistered {
		return fmt.Errorf("%w: BeginMessaging from %s", ErrInvalidTransition, s.state)
	}
	if err := begin(); err != nil {
		return err
	}
	s.state = Messaging
	return nil
}

// CancelMessaging transitions Messaging -> Cancelled.
func (s *Session) CancelMessaging() error {
	if s.state != Messaging {
		return fmt.Errorf("%w: CancelMessaging from %s", ErrInvalidTransition, s.state)
	}
	s.state = Cancelled
	return nil
}

// ReleaseAddressFunc tells the device to stop sending to the local
// address.
type ReleaseAddressFunc func() error

// ReleaseAddress transitions Cancelled -> Released.
func (s *Session) ReleaseAddress(release ReleaseAddressFunc) error {
	if s.state != Cancelled {
		return fmt.Errorf("%w: ReleaseAddress from %s", ErrInvalidTransition, s.state)
	}
	if err := release(); err != nil {
		return err
	}
	s.state = Released
	return nil
}

// HandleBusReset forces the session to Released whenever the node's
// generation changes, regardless of prior state (spec.md: "Any state ->
// Released on bus-reset with generation change (caller must re-enter
// from Idle)"). It reports whether a transition occurred.
func (s *Session) HandleBusReset(newGeneration transaction.Generation) bool {
	if newGeneration == s.generation {
		return false
	}
	s.generation = newGeneration
	s.state = Released
	return true
}

// Reenter resets a Released session back to Idle so the owner can
// re-run the registration sequence.
func (s *Session) Reenter() error {
	if s.state != Released {
		return fmt.Errorf("%w: Reenter from %s", ErrInvalidTransition, s.state)
	}
	s.state = Idle
	return nil
}
