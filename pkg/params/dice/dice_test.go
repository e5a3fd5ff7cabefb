package dice_test

import (
	"testing"

	"github.com/herlein/fwctl/pkg/params/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaClockRoundTrip(t *testing.T) {
	c := dice.MediaClockCodec{}
	buf := make([]byte, c.Size())
	want := dice.MediaClock{FreqIdx: 3}
	require.NoError(t, c.Serialize(&want, buf))
	var got dice.MediaClock
	require.NoError(t, c.Deserialize(&got, buf))
	assert.Equal(t, want, got)
}

func TestRouterEntryRoundTrip(t *testing.T) {
	e := dice.RouterEntry{
		Dst: dice.DstBlk{ID: dice.DstAvs0, Ch: 2},
		Src: dice.SrcBlk{ID: dice.SrcIns0, Ch: 5},
	}
	buf := make([]byte, 4)
	require.NoError(t, dice.EncodeRouterEntry(e, buf))
	got, err := dice.DecodeRouterEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, e.Dst, got.Dst)
	assert.Equal(t, e.Src, got.Src)
}

func TestRouterEntriesCodecRoundTrip(t *testing.T) {
	codec := dice.RouterEntriesCodec{MaxEntries: 4}
	params := dice.RouterEntries{Entries: []dice.RouterEntry{
		{Dst: dice.DstBlk{ID: dice.DstAes, Ch: 0}, Src: dice.SrcBlk{ID: dice.SrcAvs0, Ch: 0}},
		{Dst: dice.DstBlk{ID: dice.DstAes, Ch: 1}, Src: dice.SrcBlk{ID: dice.SrcAvs0, Ch: 1}},
	}}
	buf := make([]byte, codec.Size())
	require.NoError(t, codec.Serialize(&params, buf))

	var got dice.RouterEntries
	require.NoError(t, codec.Deserialize(&got, buf))
	assert.Equal(t, params.Entries, got.Entries)
}

func TestRouterEntriesCodecRejectsOverCapacity(t *testing.T) {
	codec := dice.RouterEntriesCodec{MaxEntries: 1}
	params := dice.RouterEntries{Entries: make([]dice.RouterEntry, 2)}
	buf := make([]byte, codec.Size())
	err := codec.Serialize(&params, buf)
	assert.Error(t, err)
}

func TestMixerCoefficientsRoundTrip(t *testing.T) {
	codec := dice.MixerCoefficientsCodec{Inputs: 2, Outputs: 2}
	m := dice.NewMixerCoefficients(2, 2)
	m.Set(0, 0, 100)
	m.Set(1, 1, -50)

	buf := make([]byte, codec.Size())
	require.NoError(t, codec.Serialize(&m, buf))

	var got dice.MixerCoefficients
	require.NoError(t, codec.Deserialize(&got, buf))
	assert.Equal(t, int32(100), got.Get(0, 0))
	assert.Equal(t, int32(-50), got.Get(1, 1))
}

func TestRateModeADATAndMixerTables(t *testing.T) {
	assert.Equal(t, uint8(8), dice.ADATChannelCount(dice.RateLow))
	assert.Equal(t, uint8(4), dice.ADATChannelCount(dice.RateMiddle))
	assert.Equal(t, uint8(2), dice.ADATChannelCount(dice.RateHigh))

	assert.Equal(t, uint8(16), dice.MixerOutPortCount(dice.RateLow))
	assert.Equal(t, uint8(8), dice.MixerOutPortCount(dice.RateHigh))

	assert.Equal(t, dice.RateLow, dice.RateModeFromFreq(48000))
	assert.Equal(t, dice.RateMiddle, dice.RateModeFromFreq(96000))
	assert.Equal(t, dice.RateHigh, dice.RateModeFromFreq(192000))
}
