// Package tcelectronic implements TC Electronic / TC Konnekt parameter
// codecs (spec.md component E), grounded on
// libs/dice/protocols/src/tcelectronic/desktop.rs and
// libs/dice/protocols/src/tcelectronic/shell/k24d.rs.
package tcelectronic

import "github.com/herlein/fwctl/pkg/quadlet"

// Notification bits shared by every TC Konnekt segment (spec.md §4.G):
// hardware-state, config, mixer, panel, in that bit order.
const (
	NotifyHardwareState uint32 = 0x00010000
	NotifyConfig        uint32 = 0x00020000
	NotifyMixerState    uint32 = 0x00040000
	NotifyPanel         uint32 = 0x00080000
)

// MeterTarget selects which point in the signal path a meter segment
// reports (spec.md §8 scenario S4).
type MeterTarget int

const (
	MeterInput MeterTarget = iota
	MeterPre
	MeterPost
)

var meterTargetTable = quadlet.NewEnumTable(MeterInput, MeterPre, MeterPost)

// InputScene selects the Desktop Konnekt 6 front-panel input
// configuration.
type InputScene int

const (
	SceneMicInst InputScene = iota
	SceneDualInst
	SceneStereoIn
)

var inputSceneTable = quadlet.NewEnumTable(SceneMicInst, SceneDualInst, SceneStereoIn)

// DesktopHwState is the Desktop Konnekt 6 hardware-state segment
// (spec.md §8 scenario S4), a 144-byte (36-quadlet) frame with fields
// at the fixed byte offsets named below — offsets are part of the wire
// contract, not an implementation detail (spec.md §4.E).
type DesktopHwState struct {
	MeterTarget           MeterTarget
	MixerOutputMonaural   bool
	KnobAssignToHp        bool
	MixerOutputDimEnabled bool
	MixerOutputDimVolume  int32
	InputScene            InputScene
	ReverbToMaster        bool
	ReverbToHp            bool
	MasterKnobBacklight   bool
	Mic0Phantom           bool
	Mic0Boost             bool
}

// DesktopHwStateSize is the segment's fixed byte width.
const DesktopHwStateSize = 144

const (
	reverbToMasterMask uint32 = 0x00000001
	reverbToHpMask     uint32 = 0x00000002
)

// DesktopHwStateCodec implements cache.Codec[DesktopHwState].
type DesktopHwStateCodec struct{}

func (DesktopHwStateCodec) Size() int { return DesktopHwStateSize }

func (DesktopHwStateCodec) Serialize(p *DesktopHwState, raw []byte) error {
	if len(raw) < DesktopHwStateSize {
		return quadlet.ErrShortBuffer
	}
	if err := meterTargetTable.PutEnum(raw[0:4], p.MeterTarget); err != nil {
		return err
	}
	if err := quadlet.PutBool(raw[4:8], p.MixerOutputMonaural); err != nil {
		return err
	}
	if err := quadlet.PutBool(raw[8:12], p.KnobAssignToHp); err != nil {
		return err
	}
	if err := quadlet.PutBool(raw[12:16], p.MixerOutputDimEnabled); err != nil {
		return err
	}
	if err := quadlet.PutI32(raw[16:20], p.MixerOutputDimVolume); err != nil {
		return err
	}
	if err := inputSceneTable.PutEnum(raw[20:24], p.InputScene); err != nil {
		return err
	}

	var reverb uint32
	if p.ReverbToMaster {
		reverb |= reverbToMasterMask
	}
	if p.ReverbToHp {
		reverb |= reverbToHpMask
	}
	if err := quadlet.PutU32(raw[28:32], reverb); err != nil {
		return err
	}

	if err := quadlet.PutBool(raw[32:36], p.MasterKnobBacklight); err != nil {
		return err
	}
	if err := quadlet.PutBool(raw[52:56], p.Mic0Phantom); err != nil {
		return err
	}
	return quadlet.PutBool(raw[56:60], p.Mic0Boost)
}

func (DesktopHwStateCodec) Deserialize(p *DesktopHwState, raw []byte) error {
	if len(raw) < DesktopHwStateSize {
		return quadlet.ErrShortBuffer
	}
	var err error
	if p.MeterTarget, err = meterTargetTable.GetEnum(raw[0:4]); err != nil {
		return err
	}
	if p.MixerOutputMonaural, err = quadlet.GetBool(raw[4:8]); err != nil {
		return err
	}
	if p.KnobAssignToHp, err = quadlet.GetBool(raw[8:12]); err != nil {
		return err
	}
	if p.MixerOutputDimEnabled, err = quadlet.GetBool(raw[12:16]); err != nil {
		return err
	}
	if p.MixerOutputDimVolume, err = quadlet.GetI32(raw[16:20]); err != nil {
		return err
	}
	if p.InputScene, err = inputSceneTable.GetEnum(raw[20:24]); err != nil {
		return err
	}

	reverb, err := quadlet.GetU32(raw[28:32])
	if err != nil {
		return err
	}
	p.ReverbToMaster = reverb&reverbToMasterMask != 0
	p.ReverbToHp = reverb&reverbToHpMask != 0

	if p.MasterKnobBacklight, err = quadlet.GetBool(raw[32:36]); err != nil {
		return err
	}
	if p.Mic0Phantom, err = quadlet.GetBool(raw[52:56]); err != nil {
		return err
	}
	if p.Mic0Boost, err = quadlet.GetBool(raw[56:60]); err != nil {
		return err
	}
	return nil
}

// K24dMixerStateByteOffset is the shell K24d model's mixer-state
// segment byte offset (spec.md §8 scenario S5: "0x0074..").
const K24dMixerStateByteOffset uint32 = 0x0074
