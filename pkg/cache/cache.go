// Package cache implements the three generic cache/update operations
// of spec.md component F: whole_cache (device -> memory), whole_update
// (memory -> device, overwrite), and partial_update (memory -> device,
// diff against last known).
package cache

import (
	"bytes"
	"fmt"
	"time"

	"github.com/herlein/fwctl/pkg/transaction"
)

// Codec is the bidirectional mapping a parameter group supplies between
// its typed record and its fixed-width wire frame (component E).
type Codec[T any] interface {
	// Size is the fixed byte width of the wire frame.
	Size() int
	// Serialize writes params into a Size()-byte buf.
	Serialize(params *T, buf []byte) error
	// Deserialize reads params from a Size()-byte buf.
	Deserialize(params *T, buf []byte) error
}

// Target names where a section's bytes live: an absolute device
// address and the transactor/node to reach it through.
type Target struct {
	Transactor transaction.Transactor
	Node       transaction.Handle
	Address    uint64
}

// WholeCache reads the full section and deserializes it into params,
// implementing spec.md's "cache" contract: "read the full section
// bytes; deserialize into params". On a transport error, params is left
// untouched (spec.md §4.I failure semantics generalize to every cache
// path).
func WholeCache[T any](target Target, codec Codec[T], params *T, timeout time.Duration) error {
	buf := make([]byte, codec.Size())
	if err := target.Transactor.Read(target.Node, target.Address, buf, timeout); err != nil {
		return err
	}
	return codec.Deserialize(params, buf)
}

// WholeUpdate serializes params and overwrites the full section,
// implementing spec.md's "update_wholly" contract.
func WholeUpdate[T any](target Target, codec Codec[T], params *T, timeout time.Duration) error {
	buf := make([]byte, codec.Size())
	if err := codec.Serialize(params, buf); err != nil {
		return err
	}
	return target.Transactor.Write(target.Node, target.Address, buf, timeout)
}

// quadletRange is a half-open [Start, End) byte range, quadlet-aligned,
// where two serialized frames differ.
type quadletRange struct {
	Start, End int
}

// diffRanges computes the minimal set of quadlet-aligned sub-ranges
// where a and b differ. Contiguous differing quadlets are coalesced
// into a single range so that partial_update issues one transaction per
// contiguous run rather than one per quadlet.
func diffRanges(a, b []byte) []quadletRange {
	var ranges []quadletRange
	n := len(a) / 4
	var cur *quadletRange
	for i := 0; i < n; i++ {
		start := i * 4
		end := start + 4
		if !bytes.Equal(a[start:end], b[start:end]) {
			if cur != nil && cur.End == start {
				cur.End = end
			} else {
				ranges = append(ranges, quadletRange{Start: start, End: end})
				cur = &ranges[len(ranges)-1]
			}
		} else {
			cur = nil
		}
	}
	return ranges
}

// PartialUpdate computes the quadlet-aligned byte ranges where
// serialize(new) differs from serialize(prev), writes only those
// ranges, and on success copies new into *prev, implementing spec.md's
// "update_partially" contract and invariant 3. When new and prev
// serialize identically it issues zero transactions (spec.md §8
// property 3).
func PartialUpdate[T any](target Target, codec Codec[T], newParams, prevParams *T, timeout time.Duration) error {
	size := codec.Size()
	newBuf := make([]byte, size)
	prevBuf := make([]byte, size)
	if err := codec.Serialize(newParams, newBuf); err != nil {
		return fmt.Errorf("partial_update: serialize new: %w", err)
	}
	if err := codec.Serialize(prevParams, prevBuf); err != nil {
		return fmt.Errorf("partial_update: serialize prev: %w", err)
	}

	ranges := diffRanges(newBuf, prevBuf)
	for _, r := range ranges {
		addr := target.Address + uint64(r.Start)
		if err := target.Transactor.Write(target.Node, addr, newBuf[r.Start:r.End], timeout); err != nil {
			return err
		}
	}

	*prevParams = *newParams
	return nil
}

// RangeCount reports how many quadlet-aligned ranges PartialUpdate
// would write for new vs. prev, without issuing any transaction. Used
// to assert spec.md §8 property 3's "equals the number of differing
// quadlet-aligned ranges" half directly.
func RangeCount[T any](codec Codec[T], newParams, prevParams *T) (int, error) {
	size := codec.Size()
	newBuf := make([]byte, size)
	prevBuf := make([]byte, size)
	if err := codec.Serialize(newParams, newBuf); err != nil {
		return 0, err
	}
	if err := codec.Serialize(prevParams, prevBuf); err != nil {
		return 0, err
	}
	return len(diffRanges(newBuf, prevBuf)), nil
}
