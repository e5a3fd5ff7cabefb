// Package dice implements the DICE (TCAT) parameter codecs of spec.md
// component E: media/sampling clock, router entries, and mixer
// coefficients, grounded on
// protocols/dice/src/tcat/{tcd22xx_spec,extension,extension/caps_section}.rs.
package dice

import "github.com/herlein/fwctl/pkg/quadlet"

// MediaClock holds the software view of the DICE "global" section's
// clock-rate field (spec.md §3 "media-clock").
type MediaClock struct {
	FreqIdx uint32
}

// MediaClockCodec implements cache.Codec[MediaClock] over a single
// quadlet.
type MediaClockCodec struct{}

func (MediaClockCodec) Size() int { return quadlet.Size }

func (MediaClockCodec) Serialize(p *MediaClock, buf []byte) error {
	return quadlet.PutU32(buf, p.FreqIdx)
}

func (MediaClockCodec) Deserialize(p *MediaClock, buf []byte) error {
	v, err := quadlet.GetU32(buf)
	if err != nil {
		return err
	}
	p.FreqIdx = v
	return nil
}

// SamplingClock holds the software view of the current clock source
// selection (spec.md §3 "sampling-clock").
type SamplingClock struct {
	SrcIdx uint32
}

// SamplingClockCodec implements cache.Codec[SamplingClock].
type SamplingClockCodec struct{}

func (SamplingClockCodec) Size() int { return quadlet.Size }

func (SamplingClockCodec) Serialize(p *SamplingClock, buf []byte) error {
	return quadlet.PutU32(buf, p.SrcIdx)
}

func (SamplingClockCodec) Deserialize(p *SamplingClock, buf []byte) error {
	v, err := quadlet.GetU32(buf)
	if err != nil {
		return err
	}
	p.SrcIdx = v
	return nil
}

// RateMode is the discrete sample-rate bucket selecting which of three
// channel-count tables apply (spec.md §3).
type RateMode int

const (
	RateLow RateMode = iota
	RateMiddle
	RateHigh
)

// index returns RateMode's position in the fixed 3-entry tables
// ([8,4,2] ADAT channels, [16,16,8] mixer outputs).
func (r RateMode) index() int {
	switch r {
	case RateLow:
		return 0
	case RateMiddle:
		return 1
	case RateHigh:
		return 2
	default:
		return 0
	}
}

// RateModeFromFreq derives a RateMode from a sample rate in Hz,
// matching the contiguous-range buckets named in spec.md's glossary.
func RateModeFromFreq(hz uint32) RateMode {
	switch {
	case hz <= 48000:
		return RateLow
	case hz <= 96000:
		return RateMiddle
	default:
		return RateHigh
	}
}

// ADATChannels is the fixed per-rate-mode ADAT channel-count table
// (spec.md §4.H).
var ADATChannels = [3]uint8{8, 4, 2}

// ADATChannelCount returns the ADAT channel count for rateMode.
func ADATChannelCount(rateMode RateMode) uint8 {
	return ADATChannels[rateMode.index()]
}

// MixerOutPorts is the fixed per-rate-mode mixer output count table
// (spec.md §4.H).
var MixerOutPorts = [3]uint8{16, 16, 8}

// MixerOutPortCount returns the mixer output port count for rateMode.
func MixerOutPortCount(rateMode RateMode) uint8 {
	return MixerOutPorts[rateMode.index()]
}
