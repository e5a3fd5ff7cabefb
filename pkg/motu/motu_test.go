package motu_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/herlein/fwctl/pkg/motu"
	"github.com/herlein/fwctl/pkg/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSendCommandScenarioS6 reproduces spec.md §8 scenario S6 exactly:
// first send (seq=0x00) returns status 0x01, triggering a 16-byte reset
// frame (seq=0x01), then a retry of the original command (seq=0x02).
func TestSendCommandScenarioS6(t *testing.T) {
	var sent [][]byte
	call := 0
	send := func(frame []byte) (byte, error) {
		sent = append(sent, append([]byte(nil), frame...))
		call++
		if call == 1 {
			return 0x01, nil
		}
		return 0x00, nil
	}

	tr := &motu.Transport{Send: send}
	require.NoError(t, tr.SendCommand([]byte{0xaa}))

	require.Len(t, sent, 3)
	assert.Equal(t, byte(0x00), sent[0][0]) // marker: normal command
	assert.Equal(t, byte(0x00), sent[0][1]) // seq=0x00

	assert.Equal(t, byte(0x80), sent[1][0]) // marker: reset
	assert.Equal(t, byte(0x01), sent[1][1]) // seq=0x01
	assert.Len(t, sent[1], 16)

	assert.Equal(t, byte(0x00), sent[2][0]) // marker: retry of original
	assert.Equal(t, byte(0x02), sent[2][1]) // seq=0x02
}

func TestSendCommandNoRetryOnSuccess(t *testing.T) {
	calls := 0
	send := func(frame []byte) (byte, error) {
		calls++
		return 0x00, nil
	}
	tr := &motu.Transport{Send: send}
	require.NoError(t, tr.SendCommand([]byte{0x01}))
	assert.Equal(t, 1, calls)
}

func TestRegisterTransactorReadsStatus(t *testing.T) {
	mem := transaction.NewMemTransactor()
	mem.Seed(0x2000, []byte{0x00, 0x00, 0x00, 0x00})
	h := transaction.Handle{NodeID: 1}
	send := motu.RegisterTransactor(mem, h, 0x1000, 0x2000, 0)
	status, err := send([]byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, byte(0), status)
}

func TestDecodeCommandKindsAndUnknown(t *testing.T) {
	cmd, err := motu.DecodeCommand([]byte{0x01, 0x02, 0x00, 0x00, 0x10, 0x00})
	require.NoError(t, err)
	assert.Equal(t, motu.CmdMixerLevel, cmd.Kind)
	assert.Equal(t, uint8(0x02), cmd.Target)
	assert.Equal(t, []byte{0x00, 0x00, 0x10, 0x00}, cmd.Value)

	_, err = motu.DecodeCommand([]byte{0xff, 0x00})
	assert.ErrorIs(t, err, motu.ErrUnknownCommand)
}

func TestCommandQueueDrain(t *testing.T) {
	var q motu.CommandQueue
	require.NoError(t, q.Push([]byte{0x50, 0x00}))
	require.NoError(t, q.Push([]byte{0x03, 0x01, 0x01}))
	cmds := q.Drain()
	require.Len(t, cmds, 2)
	assert.Equal(t, motu.CmdMeterUpdate, cmds[0].Kind)
	assert.Equal(t, motu.CmdMixerMute, cmds[1].Kind)
	assert.Empty(t, q.Drain())
}

func TestDecodeMeterStateRoundTrip(t *testing.T) {
	buf := make([]byte, motu.MeterFloatCount*4)
	m, err := motu.DecodeMeterState(buf)
	require.NoError(t, err)
	assert.Equal(t, float32(0), m.Values[0])
}

func TestDecodeMeterStateRejectsShortBuffer(t *testing.T) {
	_, err := motu.DecodeMeterState(make([]byte, 10))
	assert.Error(t, err)
}

// TestDecodeMeterStateReadsNativeEndianFloats confirms a non-zero
// sample round-trips using the host's native byte order rather than
// a hardcoded endianness.
func TestDecodeMeterStateReadsNativeEndianFloats(t *testing.T) {
	buf := make([]byte, motu.MeterFloatCount*4)
	want := float32(0.5)
	binary.NativeEndian.PutUint32(buf[4:8], math.Float32bits(want))

	m, err := motu.DecodeMeterState(buf)
	require.NoError(t, err)
	assert.Equal(t, want, m.Values[1])
}

func TestSessionLifecycle(t *testing.T) {
	mem := transaction.NewMemTransactor()
	h := transaction.Handle{NodeID: 1}
	s := motu.NewSession(mem, h, transaction.Generation(1))
	assert.Equal(t, motu.Idle, s.State())

	require.NoError(t, s.RegisterAddress(0x1000000000010, func(uint64) error { return nil }))
	assert.Equal(t, motu.HandlerRegistered, s.State())

	require.NoError(t, s.BeginMessaging(func() error { return nil }))
	assert.Equal(t, motu.Messaging, s.State())

	require.NoError(t, s.CancelMessaging())
	assert.Equal(t, motu.Cancelled, s.State())

	require.NoError(t, s.ReleaseAddress(func() error { return nil }))
	assert.Equal(t, motu.Released, s.State())

	require.NoError(t, s.Reenter())
	assert.Equal(t, motu.Idle, s.State())
}

func TestSessionBusResetForcesReleased(t *testing.T) {
	mem := transaction.NewMemTransactor()
	h := transaction.Handle{NodeID: 1}
	s := motu.NewSession(mem, h, transaction.Generation(1))
	require.NoError(t, s.RegisterAddress(0x10, func(uint64) error { return nil }))

	changed := s.HandleBusReset(transaction.Generation(2))
	assert.True(t, changed)
	assert.Equal(t, motu.Released, s.State())
}

func TestSessionRejectsOutOfOrderTransitions(t *testing.T) {
	mem := transaction.NewMemTransactor()
	h := transaction.Handle{NodeID: 1}
	s := motu.NewSession(mem, h, transaction.Generation(1))
	err := s.BeginMessaging(func() error { return nil })
	assert.ErrorIs(t, err, motu.ErrInvalidTransition)
}

func v3Spec() motu.ClockSpec {
	return motu.ClockSpec{
		Srcs:   []motu.ClkSrc{motu.ClkInternal, motu.ClkSpdifCoax, motu.ClkWordClk},
		HasLCD: true,
	}
}

func TestReadClockSourceUpdatesDisplayOnHasLCDModels(t *testing.T) {
	read := func() (uint32, error) { return 1, nil }
	var displayed string
	update := func(label string) error {
		displayed = label
		return nil
	}

	idx, err := motu.ReadClockSource(v3Spec(), read, update)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)
	assert.Equal(t, "S/PDIF-on-coax", displayed)
}

func TestReadClockSourceIgnoresDisplayFailure(t *testing.T) {
	read := func() (uint32, error) { return 0, nil }
	update := func(string) error { return fmt.Errorf("display busy") }

	idx, err := motu.ReadClockSource(v3Spec(), read, update)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)
}

func TestReadClockSourceSkipsDisplayWithoutLCD(t *testing.T) {
	spec := motu.ClockSpec{Srcs: []motu.ClkSrc{motu.ClkInternal}, HasLCD: false}
	called := false
	update := func(string) error {
		called = true
		return nil
	}
	_, err := motu.ReadClockSource(spec, func() (uint32, error) { return 0, nil }, update)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestWriteClockSourceUpdatesDisplay(t *testing.T) {
	var written uint32
	var displayed string
	write := func(idx uint32) error { written = idx; return nil }
	update := func(label string) error { displayed = label; return nil }

	err := motu.WriteClockSource(v3Spec(), 2, func() (uint32, error) { return 0, nil }, write, update)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), written)
	assert.Equal(t, "Word-clk-on-BNC", displayed)
}

func TestWriteClockSourceRollsBackOnDisplayFailure(t *testing.T) {
	var writes []uint32
	write := func(idx uint32) error {
		writes = append(writes, idx)
		return nil
	}
	update := func(string) error { return fmt.Errorf("display busy") }

	err := motu.WriteClockSource(v3Spec(), 1, func() (uint32, error) { return 0, nil }, write, update)
	require.Error(t, err)
	require.Len(t, writes, 2)
	assert.Equal(t, uint32(1), writes[0])
	assert.Equal(t, uint32(0), writes[1])
}

func TestWriteClockSourceRejectsOutOfRangeIndex(t *testing.T) {
	err := motu.WriteClockSource(v3Spec(), 99, func() (uint32, error) { return 0, nil }, func(uint32) error { return nil }, func(string) error { return nil })
	assert.ErrorIs(t, err, motu.ErrClkSrcOutOfRange)
}
