package dice

import (
	"fmt"

	"github.com/herlein/fwctl/pkg/quadlet"
)

// MixerCoefficients is the 2-D i32 coefficient matrix cached by the
// router/mixer engine (spec.md §4.H: "Mixer coefficients (i32) are
// cached two-dimensionally").
type MixerCoefficients struct {
	Inputs  int
	Outputs int
	Cells   []int32 // row-major: Cells[out*Inputs+in]
}

// NewMixerCoefficients allocates a zeroed matrix of the given shape.
func NewMixerCoefficients(inputs, outputs int) MixerCoefficients {
	return MixerCoefficients{Inputs: inputs, Outputs: outputs, Cells: make([]int32, inputs*outputs)}
}

// Get returns the coefficient for (out, in).
func (m MixerCoefficients) Get(out, in int) int32 {
	return m.Cells[out*m.Inputs+in]
}

// Set stores the coefficient for (out, in).
func (m MixerCoefficients) Set(out, in int, v int32) {
	m.Cells[out*m.Inputs+in] = v
}

// CoefficientAddress returns the byte offset of cell (out, in) within
// the mixer section, one quadlet per cell in row-major order.
func (m MixerCoefficients) CoefficientAddress(out, in int) uint64 {
	return uint64((out*m.Inputs + in) * quadlet.Size)
}

// MixerCoefficientsCodec implements cache.Codec[MixerCoefficients] over
// the whole matrix, used for whole_cache; per-cell partial writes are
// issued directly by the router/mixer engine (component H) rather than
// through PartialUpdate, since the engine already knows exactly which
// cells changed.
type MixerCoefficientsCodec struct {
	Inputs, Outputs int
}

func (c MixerCoefficientsCodec) Size() int { return c.Inputs * c.Outputs * quadlet.Size }

func (c MixerCoefficientsCodec) Serialize(p *MixerCoefficients, buf []byte) error {
	if p.Inputs != c.Inputs || p.Outputs != c.Outputs {
		return fmt.Errorf("dice: mixer shape mismatch: have %dx%d, codec expects %dx%d", p.Outputs, p.Inputs, c.Outputs, c.Inputs)
	}
	for i, v := range p.Cells {
		if err := quadlet.PutI32(buf[i*quadlet.Size:(i+1)*quadlet.Size], v); err != nil {
			return err
		}
	}
	return nil
}

func (c MixerCoefficientsCodec) Deserialize(p *MixerCoefficients, buf []byte) error {
	*p = NewMixerCoefficients(c.Inputs, c.Outputs)
	for i := range p.Cells {
		v, err := quadlet.GetI32(buf[i*quadlet.Size : (i+1)*quadlet.Size])
		if err != nil {
			return err
		}
		p.Cells[i] = v
	}
	return nil
}
