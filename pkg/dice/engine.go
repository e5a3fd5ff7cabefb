// Package dice implements the TCD22xx router/mixer engine (spec.md
// component H), grounded on
// protocols/dice/src/tcat/tcd22xx_spec.rs's
// Tcd22xxSpecification/Tcd22xxOperation trait pair, translated from
// Rust's trait-with-associated-consts pattern into a Go Spec struct
// per spec.md §9's design note.
package dice

import (
	"fmt"

	paramsdice "github.com/herlein/fwctl/pkg/params/dice"
	"github.com/herlein/fwctl/pkg/section"
)

// Spec is a model's fixed block layout: the Go equivalent of the
// Tcd22xxSpecification trait's associated consts.
type Spec struct {
	Inputs  []Input
	Outputs []Output
	// Fixed lists sources that must occupy their own index slot in the
	// router entry list regardless of what the owner requests.
	Fixed []paramsdice.SrcBlk
}

// Input is one source block entry in a model's fixed layout.
type Input struct {
	ID     paramsdice.SrcBlkId
	Offset uint8
	Count  uint8
}

// Output is one destination block entry in a model's fixed layout.
type Output struct {
	ID     paramsdice.DstBlkId
	Offset uint8
	Count  uint8
}

// FormatEntry carries the PCM channel count of one stream-format entry
// (spec.md §4.H "Stream blocks: ... pcm_count per stream").
type FormatEntry struct {
	PCMCount uint8
}

// ComputeAvailRealBlkPair concatenates the model's fixed INPUTS/OUTPUTS
// tables with the ADAT entry's channel count substituted by the
// rate-mode's value from paramsdice.ADATChannels (spec.md §4.H "Real
// blocks").
func (s Spec) ComputeAvailRealBlkPair(rateMode paramsdice.RateMode) (srcs []paramsdice.SrcBlk, dsts []paramsdice.DstBlk) {
	adatCount := paramsdice.ADATChannelCount(rateMode)
	for _, in := range s.Inputs {
		offset := in.Offset
		count := in.Count
		if in.ID == paramsdice.SrcAdat {
			offset = countSrcBlk(srcs, in.ID)
			count = adatCount
		}
		for ch := offset; ch < offset+count; ch++ {
			srcs = append(srcs, paramsdice.SrcBlk{ID: in.ID, Ch: ch})
		}
	}
	for _, out := range s.Outputs {
		offset := out.Offset
		count := out.Count
		if out.ID == paramsdice.DstAdat {
			offset = countDstBlk(dsts, out.ID)
			count = adatCount
		}
		for ch := offset; ch < offset+count; ch++ {
			dsts = append(dsts, paramsdice.DstBlk{ID: out.ID, Ch: ch})
		}
	}
	return srcs, dsts
}

func countSrcBlk(srcs []paramsdice.SrcBlk, id paramsdice.SrcBlkId) uint8 {
	var n uint8
	for _, s := range srcs {
		if s.ID == id {
			n++
		}
	}
	return n
}

func countDstBlk(dsts []paramsdice.DstBlk, id paramsdice.DstBlkId) uint8 {
	var n uint8
	for _, d := range dsts {
		if d.ID == id {
			n++
		}
	}
	return n
}

// ComputeAvailStreamBlkPair derives stream source/destination blocks
// from the current tx/rx stream-format entries, Avs0 carrying the
// first entry's channels and Avs1 the second's (spec.md §4.H "Stream
// blocks").
func ComputeAvailStreamBlkPair(txEntries, rxEntries []FormatEntry) (srcs []paramsdice.SrcBlk, dsts []paramsdice.DstBlk) {
	avsDstIDs := [2]paramsdice.DstBlkId{paramsdice.DstAvs0, paramsdice.DstAvs1}
	for i, entry := range txEntries {
		if i >= len(avsDstIDs) {
			break
		}
		for ch := uint8(0); ch < entry.PCMCount; ch++ {
			dsts = append(dsts, paramsdice.DstBlk{ID: avsDstIDs[i], Ch: ch})
		}
	}
	avsSrcIDs := [2]paramsdice.SrcBlkId{paramsdice.SrcAvs0, paramsdice.SrcAvs1}
	for i, entry := range rxEntries {
		if i >= len(avsSrcIDs) {
			break
		}
		for ch := uint8(0); ch < entry.PCMCount; ch++ {
			srcs = append(srcs, paramsdice.SrcBlk{ID: avsSrcIDs[i], Ch: ch})
		}
	}
	return srcs, dsts
}

// ComputeAvailMixerBlkPair derives mixer source/destination blocks,
// capped by the caps section's input/output counts (spec.md §4.H
// "Mixer blocks").
func ComputeAvailMixerBlkPair(caps section.ExtensionCaps, rateMode paramsdice.RateMode) (srcs []paramsdice.SrcBlk, dsts []paramsdice.DstBlk) {
	portCount := paramsdice.MixerOutPortCount(rateMode)
	if caps.Mixer.OutputCount < uint32(portCount) {
		portCount = uint8(caps.Mixer.OutputCount)
	}
	for ch := uint8(0); ch < portCount; ch++ {
		srcs = append(srcs, paramsdice.SrcBlk{ID: paramsdice.SrcMixer, Ch: ch})
	}

	mixerInPorts := []struct {
		ID    paramsdice.DstBlkId
		Count uint8
	}{
		{paramsdice.DstMixerTx0, 16},
		{paramsdice.DstMixerTx1, 2},
	}
	var total uint32
	for _, p := range mixerInPorts {
		for ch := uint8(0); ch < p.Count; ch++ {
			if total >= caps.Mixer.InputCount {
				return srcs, dsts
			}
			dsts = append(dsts, paramsdice.DstBlk{ID: p.ID, Ch: ch})
			total++
		}
	}
	return srcs, dsts
}

// RefineRouterEntries implements spec.md §4.H's router-entry refinement:
// drop entries referring to unavailable src/dst, then ensure every
// entry in s.Fixed occupies its own index slot, swapping an existing
// entry into place or inserting a reserved placeholder.
func (s Spec) RefineRouterEntries(entries []paramsdice.RouterEntry, availSrcs []paramsdice.SrcBlk, availDsts []paramsdice.DstBlk) []paramsdice.RouterEntry {
	filtered := make([]paramsdice.RouterEntry, 0, len(entries))
	for _, e := range entries {
		if !containsSrc(availSrcs, e.Src) {
			continue
		}
		if !containsDst(availDsts, e.Dst) {
			continue
		}
		filtered = append(filtered, e)
	}

	for i, fixedSrc := range s.Fixed {
		pos := -1
		for j, e := range filtered {
			if e.Src == fixedSrc {
				pos = j
				break
			}
		}
		if pos >= 0 {
			if pos != i && i < len(filtered) {
				filtered[i], filtered[pos] = filtered[pos], filtered[i]
			}
			continue
		}
		placeholder := paramsdice.RouterEntry{
			Src: fixedSrc,
			Dst: paramsdice.DstBlk{ID: paramsdice.DstReserved, Ch: 0xff},
		}
		if i >= len(filtered) {
			filtered = append(filtered, placeholder)
		} else {
			filtered = append(filtered, paramsdice.RouterEntry{})
			copy(filtered[i+1:], filtered[i:])
			filtered[i] = placeholder
		}
	}
	return filtered
}

func containsSrc(list []paramsdice.SrcBlk, s paramsdice.SrcBlk) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsDst(list []paramsdice.DstBlk, d paramsdice.DstBlk) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}

// LoadRouterFunc issues the command-section LoadRouter(rateMode)
// operation after the router section has been overwritten.
type LoadRouterFunc func(rateMode paramsdice.RateMode) error

// WriteRouterFunc overwrites the device's router section with entries.
type WriteRouterFunc func(entries paramsdice.RouterEntries) error

// Engine holds a model's Spec plus the currently cached router/mixer
// state (spec.md's Tcd22xxState).
type Engine struct {
	Spec Spec

	RouterEntries []paramsdice.RouterEntry
	MixerCoef     paramsdice.MixerCoefficients

	realSrcs, mixerSrcs, streamSrcs []paramsdice.SrcBlk
	realDsts, mixerDsts, streamDsts []paramsdice.DstBlk
}

// Recache recomputes the available real/stream/mixer block lists for
// the given rate mode (spec.md §4.H "cache_router_entries").
func (e *Engine) Recache(rateMode paramsdice.RateMode, caps section.ExtensionCaps, txEntries, rxEntries []FormatEntry) {
	e.realSrcs, e.realDsts = e.Spec.ComputeAvailRealBlkPair(rateMode)
	e.streamSrcs, e.streamDsts = ComputeAvailStreamBlkPair(txEntries, rxEntries)
	e.mixerSrcs, e.mixerDsts = ComputeAvailMixerBlkPair(caps, rateMode)
}

// UpdateRouterEntries refines entries against the engine's currently
// cached available blocks, rejects the result if it exceeds
// caps.Router.MaximumEntryCount, and — if the refined list differs from
// what's cached — writes the whole router section and issues
// LoadRouter (spec.md §4.H "update_router_entries").
func (e *Engine) UpdateRouterEntries(entries []paramsdice.RouterEntry, caps section.ExtensionCaps, rateMode paramsdice.RateMode, writeRouter WriteRouterFunc, loadRouter LoadRouterFunc) error {
	srcs := concatSrcs(e.realSrcs, e.streamSrcs, e.mixerSrcs)
	dsts := concatDsts(e.realDsts, e.streamDsts, e.mixerDsts)

	refined := e.Spec.RefineRouterEntries(entries, srcs, dsts)
	if uint32(len(refined)) > caps.Router.MaximumEntryCount {
		return fmt.Errorf("dice: %d router entries exceeds section capacity %d", len(refined), caps.Router.MaximumEntryCount)
	}

	if routerEntriesEqual(refined, e.RouterEntries) {
		return nil
	}
	if err := writeRouter(paramsdice.RouterEntries{Entries: refined}); err != nil {
		return fmt.Errorf("dice: write router section: %w", err)
	}
	if err := loadRouter(rateMode); err != nil {
		return fmt.Errorf("dice: issue LoadRouter: %w", err)
	}
	e.RouterEntries = refined
	return nil
}

func concatSrcs(lists ...[]paramsdice.SrcBlk) []paramsdice.SrcBlk {
	var out []paramsdice.SrcBlk
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func concatDsts(lists ...[]paramsdice.DstBlk) []paramsdice.DstBlk {
	var out []paramsdice.DstBlk
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func routerEntriesEqual(a, b []paramsdice.RouterEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WriteCoefFunc writes one mixer coefficient cell to the device.
type WriteCoefFunc func(out, in int, value int32) error

// UpdateMixerCoef writes only the cells whose value differs between
// new and the engine's cached matrix, one coefficient per transaction
// (spec.md §4.H "update_mixer_coef writes only cells whose new value
// differs").
func (e *Engine) UpdateMixerCoef(newCoef paramsdice.MixerCoefficients, write WriteCoefFunc) error {
	if e.MixerCoef.Cells == nil {
		e.MixerCoef = paramsdice.NewMixerCoefficients(newCoef.Inputs, newCoef.Outputs)
	}
	for out := 0; out < newCoef.Outputs; out++ {
		for in := 0; in < newCoef.Inputs; in++ {
			v := newCoef.Get(out, in)
			if v == e.MixerCoef.Get(out, in) {
				continue
			}
			if err := write(out, in, v); err != nil {
				return fmt.Errorf("dice: write mixer coefficient (%d,%d): %w", out, in, err)
			}
			e.MixerCoef.Set(out, in, v)
		}
	}
	return nil
}
