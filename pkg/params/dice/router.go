package dice

import (
	"fmt"

	"github.com/herlein/fwctl/pkg/quadlet"
)

// SrcBlkId enumerates source block kinds (spec.md §3 "Router entry").
type SrcBlkId int

const (
	SrcAes SrcBlkId = iota
	SrcAdat
	SrcMixer
	SrcIns0
	SrcIns1
	SrcAvs0
	SrcAvs1
	SrcMixerTx0
	SrcMixerTx1
	SrcMute
	SrcReserved
)

// DstBlkId enumerates destination block kinds.
type DstBlkId int

const (
	DstAes DstBlkId = iota
	DstAdat
	DstMixer
	DstIns0
	DstIns1
	DstAvs0
	DstAvs1
	DstMixerTx0
	DstMixerTx1
	DstMute
	DstReserved
)

// srcBlkTable and dstBlkTable are the enum-as-quadlet position tables
// for the 4-bit block selector nibble (spec.md §4.E "Variable-length
// container": "block-id byte split into a 4-bit block selector and
// ch").
var srcBlkTable = quadlet.NewEnumTable(
	SrcAes, SrcAdat, SrcMixer, SrcIns0, SrcIns1, SrcAvs0, SrcAvs1,
	SrcMixerTx0, SrcMixerTx1, SrcMute, SrcReserved,
)

var dstBlkTable = quadlet.NewEnumTable(
	DstAes, DstAdat, DstMixer, DstIns0, DstIns1, DstAvs0, DstAvs1,
	DstMixerTx0, DstMixerTx1, DstMute, DstReserved,
)

// SrcBlk names one channel of a source block.
type SrcBlk struct {
	ID SrcBlkId
	Ch uint8
}

// DstBlk names one channel of a destination block.
type DstBlk struct {
	ID DstBlkId
	Ch uint8
}

// RouterEntry is one cross-point in the router's switch matrix
// (spec.md §3).
type RouterEntry struct {
	Dst  DstBlk
	Src  SrcBlk
	Peak uint16
}

// routerEntrySize is the fixed 4-byte record layout named in spec.md
// §4.E: { dst_byte, dst_ch, src_byte, src_ch }, with the block id byte
// split into a 4-bit selector and reserved nibble.
const routerEntrySize = 4

// EncodeRouterEntry writes e into a 4-byte record.
func EncodeRouterEntry(e RouterEntry, buf []byte) error {
	if len(buf) < routerEntrySize {
		return quadlet.ErrShortBuffer
	}
	dstIdx, err := dstBlkTable.Index(e.Dst.ID)
	if err != nil {
		return fmt.Errorf("router entry dst: %w", err)
	}
	srcIdx, err := srcBlkTable.Index(e.Src.ID)
	if err != nil {
		return fmt.Errorf("router entry src: %w", err)
	}
	buf[0] = uint8(dstIdx) << 4
	buf[1] = e.Dst.Ch
	buf[2] = uint8(srcIdx) << 4
	buf[3] = e.Src.Ch
	return nil
}

// DecodeRouterEntry reads a 4-byte record into a RouterEntry. Peak is
// not carried in the 4-byte on-wire record; callers that need peak
// metering read it from the peak section separately and merge it in.
func DecodeRouterEntry(buf []byte) (RouterEntry, error) {
	var e RouterEntry
	if len(buf) < routerEntrySize {
		return e, quadlet.ErrShortBuffer
	}
	dstID, err := dstBlkTable.Variant(uint32(buf[0] >> 4))
	if err != nil {
		return e, fmt.Errorf("router entry dst: %w", err)
	}
	srcID, err := srcBlkTable.Variant(uint32(buf[2] >> 4))
	if err != nil {
		return e, fmt.Errorf("router entry src: %w", err)
	}
	e.Dst = DstBlk{ID: dstID, Ch: buf[1]}
	e.Src = SrcBlk{ID: srcID, Ch: buf[3]}
	return e, nil
}

// RouterEntries is the parameter record for a whole router section: a
// quadlet entry-count field followed by that many 4-byte records
// (spec.md §4.E "Variable-length container").
type RouterEntries struct {
	Entries []RouterEntry
}

// RouterEntriesCodec implements cache.Codec[RouterEntries] for a
// section of capacity maxEntries 4-byte records plus a leading count
// quadlet.
type RouterEntriesCodec struct {
	MaxEntries int
}

func (c RouterEntriesCodec) Size() int {
	return quadlet.Size + c.MaxEntries*routerEntrySize
}

func (c RouterEntriesCodec) Serialize(p *RouterEntries, buf []byte) error {
	if len(p.Entries) > c.MaxEntries {
		return fmt.Errorf("dice: %d router entries exceeds section capacity %d", len(p.Entries), c.MaxEntries)
	}
	if err := quadlet.PutU32(buf[0:4], uint32(len(p.Entries))); err != nil {
		return err
	}
	for i, e := range p.Entries {
		off := quadlet.Size + i*routerEntrySize
		if err := EncodeRouterEntry(e, buf[off:off+routerEntrySize]); err != nil {
			return err
		}
	}
	return nil
}

func (c RouterEntriesCodec) Deserialize(p *RouterEntries, buf []byte) error {
	count, err := quadlet.GetU32(buf[0:4])
	if err != nil {
		return err
	}
	if int(count) > c.MaxEntries {
		return fmt.Errorf("dice: TOC reports %d router entries, section holds at most %d", count, c.MaxEntries)
	}
	entries := make([]RouterEntry, count)
	for i := range entries {
		off := quadlet.Size + i*routerEntrySize
		e, err := DecodeRouterEntry(buf[off : off+routerEntrySize])
		if err != nil {
			return err
		}
		entries[i] = e
	}
	p.Entries = entries
	return nil
}
