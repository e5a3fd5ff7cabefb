package motu

import "fmt"

// CommandKind discriminates the closed set of inbound Command DSP
// commands (spec.md §4.I: "Mixer{set/get level, pan, mute}, Monitor*,
// Reverb*, Input{gain, equalizer, dynamics}, Output*, MeterUpdate,
// Resource*").
type CommandKind int

const (
	CmdMixerLevel CommandKind = iota
	CmdMixerPan
	CmdMixerMute
	CmdMonitor
	CmdReverb
	CmdInputGain
	CmdInputEqualizer
	CmdInputDynamics
	CmdOutput
	CmdMeterUpdate
	CmdResource
)

// commandKindTable maps the wire opcode byte to a CommandKind. Models
// share this set; vendor-specific variants select among these kinds by
// target index, carried in Command.Target.
var commandKindTable = map[byte]CommandKind{
	0x01: CmdMixerLevel,
	0x02: CmdMixerPan,
	0x03: CmdMixerMute,
	0x10: CmdMonitor,
	0x20: CmdReverb,
	0x30: CmdInputGain,
	0x31: CmdInputEqualizer,
	0x32: CmdInputDynamics,
	0x40: CmdOutput,
	0x50: CmdMeterUpdate,
	0x60: CmdResource,
}

// Command is one decoded inbound Command DSP message: its kind, the
// target index the kind applies to (channel, bus, or resource id), and
// the raw value bytes the owner's control shadow needs.
type Command struct {
	Kind   CommandKind
	Target uint8
	Value  []byte
}

// ErrUnknownCommand is returned when an inbound frame's opcode byte
// isn't in the closed set this decoder recognizes.
var ErrUnknownCommand = fmt.Errorf("motu: unrecognized inbound command opcode")

// DecodeCommand parses one complete inbound frame payload (as handed
// back by notify.FrameBuffer.Next) into a Command: byte 0 is the
// opcode, byte 1 the target index, the remainder the value.
func DecodeCommand(payload []byte) (Command, error) {
	if len(payload) < 2 {
		return Command{}, fmt.Errorf("motu: inbound frame too short")
	}
	kind, ok := commandKindTable[payload[0]]
	if !ok {
		return Command{}, ErrUnknownCommand
	}
	value := make([]byte, len(payload)-2)
	copy(value, payload[2:])
	return Command{Kind: kind, Target: payload[1], Value: value}, nil
}

// CommandQueue accumulates decoded commands for the owner to pull in
// batches (spec.md §4.I: "The decoder maintains a queue; the owner
// pulls batches and applies them to its control shadow").
type CommandQueue struct {
	pending []Command
}

// Push decodes and appends one inbound frame, dropping it silently if
// its opcode is unrecognized — an unknown command is a forward-
// compatibility signal, not a fatal error, so the dispatcher thread
// keeps running (spec.md §7: "Background threads ... log-and-continue").
// Any other decode error, such as a short frame, is returned.
func (q *CommandQueue) Push(payload []byte) error {
	cmd, err := DecodeCommand(payload)
	if err == ErrUnknownCommand {
		return nil
	}
	if err != nil {
		return err
	}
	q.pending = append(q.pending, cmd)
	return nil
}

// Drain returns and clears every command queued so far.
func (q *CommandQueue) Drain() []Command {
	out := q.pending
	q.pending = nil
	return out
}
