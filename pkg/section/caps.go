package section

import "github.com/herlein/fwctl/pkg/quadlet"

// MixerCaps describes the mixer's port-count limits, part of the DICE
// extension caps section (SPEC_FULL.md supplemented feature 1, grounded
// on protocols/dice/src/tcat/extension/caps_section.rs).
type MixerCaps struct {
	InputCount  uint32
	OutputCount uint32
}

// RouterCaps bounds the router-entry table (spec.md §3 invariant 4).
type RouterCaps struct {
	MaximumEntryCount uint32
}

// ExtensionCaps is the parsed content of the DICE extension "caps"
// section: the capability limits the router/mixer engine (component H)
// must respect.
type ExtensionCaps struct {
	Mixer  MixerCaps
	Router RouterCaps
}

// ExtensionCapsSize is the fixed byte width of the caps section: mixer in/out counts
// plus the router entry-count limit, one quadlet each.
const ExtensionCapsSize = 3 * quadlet.Size

// Serialize writes c into a 12-byte buffer.
func (c ExtensionCaps) Serialize(buf []byte) error {
	if len(buf) < ExtensionCapsSize {
		return quadlet.ErrShortBuffer
	}
	if err := quadlet.PutU32(buf[0:4], c.Mixer.InputCount); err != nil {
		return err
	}
	if err := quadlet.PutU32(buf[4:8], c.Mixer.OutputCount); err != nil {
		return err
	}
	return quadlet.PutU32(buf[8:12], c.Router.MaximumEntryCount)
}

// Deserialize reads c from a 12-byte buffer.
func (c *ExtensionCaps) Deserialize(buf []byte) error {
	if len(buf) < ExtensionCapsSize {
		return quadlet.ErrShortBuffer
	}
	v, err := quadlet.GetU32(buf[0:4])
	if err != nil {
		return err
	}
	c.Mixer.InputCount = v
	if v, err = quadlet.GetU32(buf[4:8]); err != nil {
		return err
	}
	c.Mixer.OutputCount = v
	if v, err = quadlet.GetU32(buf[8:12]); err != nil {
		return err
	}
	c.Router.MaximumEntryCount = v
	return nil
}
