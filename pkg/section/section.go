// Package section implements the table-of-contents structures that
// name parameter blocks in device memory (spec.md component D): DICE
// general and extension sections, and TC Konnekt fixed-offset
// segments. All offsets here are measured in quadlets; callers multiply
// by 4 to get byte addresses, per spec.md §3.
package section

import (
	"fmt"
	"time"

	"github.com/herlein/fwctl/pkg/transaction"
)

// Wire address bases named in spec.md §6.
const (
	DiceGeneralBase   uint64 = 0xffffe0000000
	DiceExtensionBase uint64 = DiceGeneralBase + 0x00200000
)

// Descriptor names one fixed-layout parameter block: its quadlet
// offset and quadlet count within a family's base address.
type Descriptor struct {
	Name           string
	OffsetQuadlets uint32
	SizeQuadlets   uint32
}

// ByteOffset returns the descriptor's offset in bytes.
func (d Descriptor) ByteOffset() uint64 { return uint64(d.OffsetQuadlets) * 4 }

// ByteSize returns the descriptor's size in bytes.
func (d Descriptor) ByteSize() int { return int(d.SizeQuadlets) * 4 }

// Address returns the absolute byte address of the descriptor within
// base.
func (d Descriptor) Address(base uint64) uint64 { return base + d.ByteOffset() }

// ErrShortTOC is returned when a table-of-contents read returns fewer
// bytes than the fixed TOC shape requires.
var ErrShortTOC = fmt.Errorf("section: short table-of-contents read")

// GeneralTOCEntries is the fixed 4-entry table-of-contents shape of the
// DICE "general" section (spec.md §4.D): global, tx stream format,
// rx stream format, ext sync, in that order.
var GeneralTOCEntries = []string{"global", "tx_stream_format", "rx_stream_format", "ext_sync"}

// ExtensionTOCEntries is the fixed 9-entry table-of-contents shape of
// the DICE "extension" section.
var ExtensionTOCEntries = []string{
	"caps", "cmd", "mixer", "peak", "router",
	"stream_format", "current_config", "standalone", "application",
}

// ReadTOC reads a fixed-shape table of (offset, size) quadlet pairs
// starting at base and returns one Descriptor per name in names, in
// order. This implements "read_general_sections"/"read extension
// sections" (spec.md §3 lifecycle, §4.D).
func ReadTOC(t transaction.Transactor, h transaction.Handle, base uint64, names []string, timeout time.Duration) ([]Descriptor, error) {
	buf := make([]byte, len(names)*8)
	if err := t.Read(h, base, buf, timeout); err != nil {
		return nil, err
	}
	out := make([]Descriptor, len(names))
	for i, name := range names {
		off := i * 8
		offsetQ := be32(buf[off : off+4])
		sizeQ := be32(buf[off+4 : off+8])
		out[i] = Descriptor{Name: name, OffsetQuadlets: offsetQ, SizeQuadlets: sizeQ}
	}
	return out, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Table is a named lookup of Descriptors, as returned by ReadTOC and
// consumed by cache/update operations (component F).
type Table struct {
	Base    uint64
	entries map[string]Descriptor
	order   []string
}

// NewTable builds a Table from a slice of Descriptors.
func NewTable(base uint64, descs []Descriptor) *Table {
	tb := &Table{Base: base, entries: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		tb.entries[d.Name] = d
		tb.order = append(tb.order, d.Name)
	}
	return tb
}

// Get returns the named descriptor, or false if it is not present.
func (t *Table) Get(name string) (Descriptor, bool) {
	d, ok := t.entries[name]
	return d, ok
}

// Names returns descriptor names in table-of-contents order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Segment is a TC Konnekt-style fixed OFFSET+SIZE constant pair,
// declared per model rather than discovered from a runtime TOC
// (spec.md §4.D).
type Segment struct {
	Name           string
	OffsetQuadlets uint32
	SizeQuadlets   uint32
}

// ByteOffset returns the segment's offset in bytes.
func (s Segment) ByteOffset() uint64 { return uint64(s.OffsetQuadlets) * 4 }

// ByteSize returns the segment's size in bytes.
func (s Segment) ByteSize() int { return int(s.SizeQuadlets) * 4 }

// Address returns the absolute address of the segment. TC Konnekt
// segment addresses are raw absolute addresses (spec.md §4.D), so base
// is typically zero and the caller's device handle already targets the
// right node.
func (s Segment) Address(base uint64) uint64 { return base + s.ByteOffset() }
