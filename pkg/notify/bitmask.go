// Package notify implements the two notification dispatch families of
// spec.md component G: bitmask notifications (DICE, MOTU, TC Konnekt,
// Digi00x) and MOTU Command DSP message-frame notifications, plus the
// streaming-lock debounce timer shared by both.
package notify

import "fmt"

// Section is one bitmask-gated entry in a dispatch table: a name for
// diagnostics, the bit that signals it changed, and the recache
// callback to invoke when that bit is set (spec.md §4.G: "the core
// iterates known sections and re-caches those whose bit matches").
type Section struct {
	Name    string
	Bit     uint32
	Recache func() error
}

// BitmaskTable dispatches a single notification mask across a fixed
// set of sections, used by DICE, MOTU, TC Konnekt, and Digi00x alike —
// only the bit assignments differ per family (spec.md §4.G).
type BitmaskTable struct {
	Sections []Section
}

// Dispatch re-caches every section whose bit is set in mask, returning
// the names re-cached and the first error encountered (subsequent
// sections are still attempted so one bad recache doesn't mask
// others).
func (t BitmaskTable) Dispatch(mask uint32) ([]string, error) {
	var recached []string
	var firstErr error
	for _, s := range t.Sections {
		if mask&s.Bit == 0 {
			continue
		}
		if err := s.Recache(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("notify: recache %q: %w", s.Name, err)
			}
			continue
		}
		recached = append(recached, s.Name)
	}
	return recached, firstErr
}
