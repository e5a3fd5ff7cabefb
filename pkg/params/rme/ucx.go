// Package rme implements the RME Fireface UCX configuration register
// flag map (spec.md component E, §6), grounded on
// libs/ff/protocols/src/latter/ucx.rs.
package rme

import (
	"fmt"

	"github.com/herlein/fwctl/pkg/quadlet"
)

// UCXConfigOffset is the configuration register's byte offset from the
// unit's 0xffff00000000 base address.
const UCXConfigOffset uint64 = 0x14

const (
	cfgWordInputTerminateMask  uint32 = 0x00000008
	cfgWordOutSingleMask       uint32 = 0x00000010
	cfgSpdifOutProMask         uint32 = 0x00000020
	cfgDSPEffectOnInputMask    uint32 = 0x00000040
	cfgSpdifOutToOptMask       uint32 = 0x00000100
	cfgClkSrcMask              uint32 = 0x00000c00
	cfgClkSrcInternal          uint32 = 0x00000000
	cfgClkSrcCoax              uint32 = 0x00000400
	cfgClkSrcOpt               uint32 = 0x00000800
	cfgClkSrcWordClk           uint32 = 0x00000c00
)

// ClkSrc enumerates the UCX's sampling-clock sources.
type ClkSrc int

const (
	ClkInternal ClkSrc = iota
	ClkCoax
	ClkOpt
	ClkWordClk
)

// ErrUnexpectedValue is returned when the clock-source nibble carries a
// bit pattern outside the four documented values. The upstream parser
// this is grounded on has a dead match arm that silently drops an
// unrecognized value instead of reporting it; this codec always
// reports it (spec.md §9 open question decision).
var ErrUnexpectedValue = fmt.Errorf("rme: clock-source register holds an unrecognized bit pattern")

// UCXConfig is the Fireface UCX's configuration register (spec.md §6).
type UCXConfig struct {
	ClkSrc          ClkSrc
	OptOutIsSpdif   bool
	WordOutSingle   bool
	EffectOnInputs  bool
	WordInTerminate bool
	SpdifOutPro     bool
}

// EncodeUCXConfig packs p into the 32-bit register value.
func EncodeUCXConfig(p UCXConfig) uint32 {
	var quad uint32
	switch p.ClkSrc {
	case ClkWordClk:
		quad |= cfgClkSrcWordClk
	case ClkOpt:
		quad |= cfgClkSrcOpt
	case ClkCoax:
		quad |= cfgClkSrcCoax
	case ClkInternal:
		quad |= cfgClkSrcInternal
	}
	if p.OptOutIsSpdif {
		quad |= cfgSpdifOutToOptMask
	}
	if p.WordOutSingle {
		quad |= cfgWordOutSingleMask
	}
	if p.EffectOnInputs {
		quad |= cfgDSPEffectOnInputMask
	}
	if p.WordInTerminate {
		quad |= cfgWordInputTerminateMask
	}
	if p.SpdifOutPro {
		quad |= cfgSpdifOutProMask
	}
	return quad
}

// DecodeUCXConfig unpacks a 32-bit register value into p. It returns
// ErrUnexpectedValue if the clock-source nibble doesn't match one of
// the four documented flags.
func DecodeUCXConfig(quad uint32) (UCXConfig, error) {
	var p UCXConfig
	switch quad & cfgClkSrcMask {
	case cfgClkSrcWordClk:
		p.ClkSrc = ClkWordClk
	case cfgClkSrcOpt:
		p.ClkSrc = ClkOpt
	case cfgClkSrcCoax:
		p.ClkSrc = ClkCoax
	case cfgClkSrcInternal:
		p.ClkSrc = ClkInternal
	default:
		return UCXConfig{}, ErrUnexpectedValue
	}
	p.OptOutIsSpdif = quad&cfgSpdifOutToOptMask != 0
	p.WordOutSingle = quad&cfgWordOutSingleMask != 0
	p.EffectOnInputs = quad&cfgDSPEffectOnInputMask != 0
	p.WordInTerminate = quad&cfgWordInputTerminateMask != 0
	p.SpdifOutPro = quad&cfgSpdifOutProMask != 0
	return p, nil
}

// UCXConfigCodec implements cache.Codec[UCXConfig] over the single
// configuration quadlet.
type UCXConfigCodec struct{}

func (UCXConfigCodec) Size() int { return quadlet.Size }

func (UCXConfigCodec) Serialize(p *UCXConfig, buf []byte) error {
	return quadlet.PutU32(buf, EncodeUCXConfig(*p))
}

func (UCXConfigCodec) Deserialize(p *UCXConfig, buf []byte) error {
	quad, err := quadlet.GetU32(buf)
	if err != nil {
		return err
	}
	decoded, err := DecodeUCXConfig(quad)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
