// Package tascam implements the TASCAM surface feedback sequencer
// (spec.md component J), grounded on
// runtime/tascam/src/fw1884_model.rs's SequencerCtlOperation
// (initialize_surface/feedback_to_surface/finalize_surface) and the
// FW1884 monitor-knob rotary-assign extension.
package tascam

import "fmt"

// MachineItem names one logical control on the console surface: bank
// select, a transport button, a fader, or an encoder (spec.md §4.J).
type MachineItem struct {
	Kind  MachineItemKind
	Index uint8
}

// MachineItemKind discriminates the families of surface control.
type MachineItemKind int

const (
	ItemBank MachineItemKind = iota
	ItemTransport
	ItemFader
	ItemEncoder
	ItemButton
)

// ItemValue is the logical value carried by a machine-event, shared
// across every MachineItemKind (booleans use 0/1, faders use the full
// range).
type ItemValue int32

// Event pairs a machine item with its new value, the unit of work
// feedback_to_surface consumes (spec.md §4.J).
type Event struct {
	Item  MachineItem
	Value ItemValue
}

// WriteFunc issues one write transaction updating a single LED,
// segment, or motor-fader position on the surface.
type WriteFunc func(item MachineItem, value ItemValue) error

// FaderJitterThreshold bounds how much a motor fader's commanded
// position must change before the sequencer re-drives the motor,
// avoiding motor chatter on near-identical repeated values (spec.md
// §4.J: "for motor faders, only if the new value differs by more than
// the jitter threshold").
const FaderJitterThreshold ItemValue = 4

// SurfaceState holds the sequencer's view of every control's
// last-driven value, keyed by (kind, index).
type SurfaceState struct {
	Bank uint8
	last map[MachineItem]ItemValue
}

// NewSurfaceState returns an empty SurfaceState.
func NewSurfaceState() *SurfaceState {
	return &SurfaceState{last: make(map[MachineItem]ItemValue)}
}

// Sequencer drives one unit's surface feedback state machine.
type Sequencer struct {
	State *SurfaceState
	Write WriteFunc
}

// NewSequencer returns a Sequencer over a fresh SurfaceState.
func NewSequencer(write WriteFunc) *Sequencer {
	return &Sequencer{State: NewSurfaceState(), Write: write}
}

// InitializeSurface sets initial LEDs to match the supplied machine
// values, restricted to bank and transport items (spec.md §4.J /
// fw1884_model.rs's initialize_surface filter).
func (s *Sequencer) InitializeSurface(values []Event) error {
	for _, ev := range values {
		if ev.Item.Kind != ItemBank && ev.Item.Kind != ItemTransport {
			continue
		}
		if err := s.FeedbackToSurface(ev); err != nil {
			return fmt.Errorf("tascam: initialize surface: %w", err)
		}
	}
	return nil
}

// FeedbackToSurface issues a write transaction updating the surface for
// one logical event, applying the motor-fader jitter threshold and
// otherwise always re-driving the control (spec.md §4.J).
func (s *Sequencer) FeedbackToSurface(ev Event) error {
	if ev.Item.Kind == ItemFader {
		prev, known := s.State.last[ev.Item]
		if known && absItemValue(ev.Value-prev) <= FaderJitterThreshold {
			return nil
		}
	}
	if err := s.Write(ev.Item, ev.Value); err != nil {
		return fmt.Errorf("tascam: feedback to surface: %w", err)
	}
	s.State.last[ev.Item] = ev.Value
	if ev.Item.Kind == ItemBank {
		s.State.Bank = uint8(ev.Value)
	}
	return nil
}

func absItemValue(v ItemValue) ItemValue {
	if v < 0 {
		return -v
	}
	return v
}

// FinalizeSurface blanks every previously-driven LED/segment and
// releases motor control (spec.md §4.J).
func (s *Sequencer) FinalizeSurface() error {
	for item := range s.State.last {
		if err := s.Write(item, 0); err != nil {
			return fmt.Errorf("tascam: finalize surface: %w", err)
		}
	}
	s.State.last = make(map[MachineItem]ItemValue)
	return nil
}
