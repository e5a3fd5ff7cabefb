package motu

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MeterFloatCount is the fixed width of the out-of-band meter DMA
// window (spec.md §4.I: "Meter frames arrive out-of-band via a
// parallel hardware DMA window (400 floats)").
const MeterFloatCount = 400

// MeterState is a non-blocking snapshot of the device's meter DMA
// window, native-endian IEEE-754 float32 values (spec.md's "mixed-
// endianness caveat": MOTU meter DMA uses native-endian containers).
type MeterState struct {
	Values [MeterFloatCount]float32
}

// DecodeMeterState copies buf's 1600 native-endian float32 bytes into a
// MeterState, returning a fresh snapshot each call so the caller can
// read it without blocking the DMA producer.
func DecodeMeterState(buf []byte) (MeterState, error) {
	var m MeterState
	need := MeterFloatCount * 4
	if len(buf) < need {
		return m, fmt.Errorf("motu: meter buffer too short: have %d bytes, need %d", len(buf), need)
	}
	for i := 0; i < MeterFloatCount; i++ {
		bits := binary.NativeEndian.Uint32(buf[i*4 : i*4+4])
		m.Values[i] = math.Float32frombits(bits)
	}
	return m, nil
}

// ReadDSPMeter is the non-blocking accessor named in spec.md §4.I: it
// copies the current DMA snapshot out of buf without issuing a
// transaction, since the DMA window is already mapped into local
// memory by the transport layer.
func ReadDSPMeter(buf []byte) (MeterState, error) {
	return DecodeMeterState(buf)
}
