package tascam

import "github.com/herlein/fwctl/pkg/quadlet"

// MonitorKnobTarget is the FW1884's 3-way monitor-knob rotary assign
// (spec.md §4.J: "a model-specific extension: a 3-way selector ...
// encoded as an enum-as-quadlet in a dedicated command register"),
// grounded on runtime/tascam/src/fw1884_model.rs's
// Fw1884MonitorKnobTarget.
type MonitorKnobTarget int

const (
	AnalogOutputPair0 MonitorKnobTarget = iota
	AnalogOutput3Pairs
	AnalogOutput4Pairs
)

var monitorKnobTargetTable = quadlet.NewEnumTable(
	AnalogOutputPair0, AnalogOutput3Pairs, AnalogOutput4Pairs,
)

// MonitorKnobTargetRegister is the dedicated command register the
// FW1884 reads its monitor-knob rotary assign from.
const MonitorKnobTargetRegister uint64 = 0xffff00000100

// EncodeMonitorKnobTarget packs t as an enum-as-quadlet value.
func EncodeMonitorKnobTarget(t MonitorKnobTarget, buf []byte) error {
	return monitorKnobTargetTable.PutEnum(buf, t)
}

// DecodeMonitorKnobTarget is the inverse of EncodeMonitorKnobTarget.
func DecodeMonitorKnobTarget(buf []byte) (MonitorKnobTarget, error) {
	return monitorKnobTargetTable.GetEnum(buf)
}
