package dice_test

import (
	"testing"

	"github.com/herlein/fwctl/pkg/dice"
	paramsdice "github.com/herlein/fwctl/pkg/params/dice"
	"github.com/herlein/fwctl/pkg/section"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() dice.Spec {
	return dice.Spec{
		Inputs: []dice.Input{
			{ID: paramsdice.SrcIns0, Offset: 0, Count: 2},
			{ID: paramsdice.SrcAdat, Offset: 0, Count: 0},
		},
		Outputs: []dice.Output{
			{ID: paramsdice.DstIns0, Offset: 0, Count: 2},
		},
		Fixed: []paramsdice.SrcBlk{
			{ID: paramsdice.SrcIns0, Ch: 0},
		},
	}
}

func TestComputeAvailRealBlkPairSubstitutesADATCount(t *testing.T) {
	spec := testSpec()
	srcs, dsts := spec.ComputeAvailRealBlkPair(paramsdice.RateLow)

	adatCount := 0
	for _, s := range srcs {
		if s.ID == paramsdice.SrcAdat {
			adatCount++
		}
	}
	assert.Equal(t, 8, adatCount)
	assert.Len(t, dsts, 2)
}

func TestComputeAvailMixerBlkPairCapsToPortCounts(t *testing.T) {
	caps := section.ExtensionCaps{Mixer: section.MixerCaps{InputCount: 4, OutputCount: 8}}
	srcs, dsts := dice.ComputeAvailMixerBlkPair(caps, paramsdice.RateHigh)
	assert.Len(t, srcs, 8)
	assert.Len(t, dsts, 4)
}

func TestRefineRouterEntriesDropsUnavailableAndFixesIndex(t *testing.T) {
	spec := testSpec()
	avail := []paramsdice.SrcBlk{{ID: paramsdice.SrcIns0, Ch: 0}, {ID: paramsdice.SrcIns0, Ch: 1}}
	availDst := []paramsdice.DstBlk{{ID: paramsdice.DstIns0, Ch: 0}}

	entries := []paramsdice.RouterEntry{
		{Src: paramsdice.SrcBlk{ID: paramsdice.SrcMute, Ch: 0}, Dst: paramsdice.DstBlk{ID: paramsdice.DstIns0, Ch: 0}},
		{Src: paramsdice.SrcBlk{ID: paramsdice.SrcIns0, Ch: 1}, Dst: paramsdice.DstBlk{ID: paramsdice.DstIns0, Ch: 0}},
	}
	refined := spec.RefineRouterEntries(entries, avail, availDst)

	// the entry whose source (SrcMute) is not in avail is dropped even
	// though its destination is available; the fixed source SrcIns0/ch0
	// must occupy index 0 even though it wasn't requested.
	require.NotEmpty(t, refined)
	assert.Equal(t, paramsdice.SrcIns0, refined[0].Src.ID)
	assert.Equal(t, uint8(0), refined[0].Src.Ch)
}

func TestUpdateRouterEntriesSkipsWriteWhenUnchanged(t *testing.T) {
	spec := dice.Spec{}
	e := &dice.Engine{Spec: spec}
	caps := section.ExtensionCaps{Router: section.RouterCaps{MaximumEntryCount: 16}}

	writeCalls := 0
	loadCalls := 0
	writeRouter := func(paramsdice.RouterEntries) error { writeCalls++; return nil }
	loadRouter := func(paramsdice.RateMode) error { loadCalls++; return nil }

	require.NoError(t, e.UpdateRouterEntries(nil, caps, paramsdice.RateLow, writeRouter, loadRouter))
	assert.Equal(t, 0, writeCalls)
	assert.Equal(t, 0, loadCalls)
}

func TestUpdateRouterEntriesRejectsOverCapacity(t *testing.T) {
	spec := dice.Spec{Fixed: []paramsdice.SrcBlk{{ID: paramsdice.SrcIns0, Ch: 0}}}
	e := &dice.Engine{Spec: spec}
	e.Recache(paramsdice.RateLow, section.ExtensionCaps{}, nil, nil)
	caps := section.ExtensionCaps{Router: section.RouterCaps{MaximumEntryCount: 0}}

	err := e.UpdateRouterEntries(nil, caps, paramsdice.RateLow,
		func(paramsdice.RouterEntries) error { return nil },
		func(paramsdice.RateMode) error { return nil })
	assert.Error(t, err)
}

func TestUpdateMixerCoefWritesOnlyDifferingCells(t *testing.T) {
	e := &dice.Engine{}
	newCoef := paramsdice.NewMixerCoefficients(2, 2)
	newCoef.Set(0, 0, 10)
	newCoef.Set(1, 1, 20)

	var writes [][2]int
	err := e.UpdateMixerCoef(newCoef, func(out, in int, value int32) error {
		writes = append(writes, [2]int{out, in})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, writes, 2)

	// A second call with the same matrix should write nothing.
	writes = nil
	require.NoError(t, e.UpdateMixerCoef(newCoef, func(out, in int, value int32) error {
		writes = append(writes, [2]int{out, in})
		return nil
	}))
	assert.Empty(t, writes)
}
