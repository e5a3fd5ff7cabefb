package saffire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOperandsLayout(t *testing.T) {
	buf, err := BuildOperands(ActionControl, []Offset{{Reg: 0x10, Value: 0x01}, {Reg: 0x14, Value: 0x00}})
	require.NoError(t, err)
	assert.Equal(t, ActionControl, buf[0])
	assert.Equal(t, byte(2), buf[1])
	assert.Equal(t, uint32(0x10/4), getU32(buf[2:6]))
	assert.Equal(t, uint32(0x01), getU32(buf[6:10]))
}

func TestBuildOperandsRejectsOverCapacity(t *testing.T) {
	offsets := make([]Offset, MaxOffsetCount+1)
	_, err := BuildOperands(ActionControl, offsets)
	assert.ErrorIs(t, err, ErrTooManyOffsets)
}

func TestParseOperandsRoundTrip(t *testing.T) {
	want := []Offset{{Reg: 4, Value: 2}, {Reg: 8, Value: 4}}
	buf, err := BuildOperands(ActionStatus, want)
	require.NoError(t, err)
	got, err := ParseOperands(ActionStatus, buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseOperandsRejectsWrongAction(t *testing.T) {
	buf := []byte{ActionControl, 0x00}
	_, err := ParseOperands(ActionStatus, buf)
	assert.Error(t, err)
}

// TestBuildOperandsScenarioS2 reproduces spec.md §8 scenario S2
// literally: offsets=[0x40, 0x400] with values 0x01234567/0x76543210
// serialize to the exact 21-byte OUI-prefixed control frame.
func TestBuildOperandsScenarioS2(t *testing.T) {
	payload, err := BuildOperands(ActionControl, []Offset{
		{Reg: 0x40, Value: 0x01234567},
		{Reg: 0x400, Value: 0x76543210},
	})
	require.NoError(t, err)

	want := []byte{
		0x00, 0x13, 0x0e,
		0x01, 0x02,
		0x00, 0x00, 0x00, 0x10, 0x01, 0x23, 0x45, 0x67,
		0x00, 0x00, 0x01, 0x00, 0x76, 0x54, 0x32, 0x10,
	}
	got := append(append([]byte{}, OUI[:]...), payload...)
	require.Len(t, got, 21)
	assert.Equal(t, want, got)
}
