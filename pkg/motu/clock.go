package motu

import "fmt"

// ClkSrc enumerates the MOTU v3 family's clock-source selector
// (spec.md §9 design note: "Some MOTU v3 families include a HAS_LCD
// flag in their clock source ops").
type ClkSrc int

const (
	ClkInternal ClkSrc = iota
	ClkSpdifCoax
	ClkWordClk
	ClkSignalOptA
	ClkSignalOptB
)

func (c ClkSrc) label() string {
	switch c {
	case ClkInternal:
		return "Internal"
	case ClkSpdifCoax:
		return "S/PDIF-on-coax"
	case ClkWordClk:
		return "Word-clk-on-BNC"
	case ClkSignalOptA:
		return "Signal-on-opt-A"
	case ClkSignalOptB:
		return "Signal-on-opt-B"
	default:
		return "Unknown"
	}
}

// ErrClkSrcOutOfRange is returned when a clock-source index falls
// outside a model's declared source table.
var ErrClkSrcOutOfRange = fmt.Errorf("motu: clock source index out of range")

// ClockSpec names one model's available clock sources and whether it
// carries a front-panel LCD that mirrors the active source.
type ClockSpec struct {
	Srcs   []ClkSrc
	HasLCD bool
}

func (s ClockSpec) label(idx uint32) (string, error) {
	if int(idx) >= len(s.Srcs) {
		return "", ErrClkSrcOutOfRange
	}
	return s.Srcs[idx].label(), nil
}

// ReadClkSrcFunc performs the underlying node transaction reading the
// current clock-source index.
type ReadClkSrcFunc func() (uint32, error)

// WriteClkSrcFunc performs the underlying node transaction selecting a
// new clock-source index.
type WriteClkSrcFunc func(idx uint32) error

// UpdateDisplayFunc writes a label string to the unit's front-panel
// LCD.
type UpdateDisplayFunc func(label string) error

// ReadClockSource reads the active clock-source index and, on models
// declaring HasLCD, mirrors its label to the display as a side effect
// of the read itself (spec.md §9: "the intent of updating the LCD on
// status read ... is retained verbatim"). A display-update failure
// does not fail the read — the original discards its result too.
func ReadClockSource(spec ClockSpec, read ReadClkSrcFunc, updateDisplay UpdateDisplayFunc) (uint32, error) {
	idx, err := read()
	if err != nil {
		return 0, fmt.Errorf("motu: read clock source: %w", err)
	}
	if spec.HasLCD {
		if label, err := spec.label(idx); err == nil {
			_ = updateDisplay(label)
		}
	}
	return idx, nil
}

// WriteClockSource selects a new clock source and, on HasLCD models,
// updates the display to match; if the display update fails the
// source selection is rolled back to its previous value, mirroring the
// original's rollback-on-display-failure behavior.
func WriteClockSource(spec ClockSpec, idx uint32, read ReadClkSrcFunc, write WriteClkSrcFunc, updateDisplay UpdateDisplayFunc) error {
	label, err := spec.label(idx)
	if err != nil {
		return err
	}

	prev, err := read()
	if err != nil {
		return fmt.Errorf("motu: read previous clock source: %w", err)
	}

	if err := write(idx); err != nil {
		return fmt.Errorf("motu: write clock source: %w", err)
	}

	if !spec.HasLCD {
		return nil
	}

	if err := updateDisplay(label); err != nil {
		_ = write(prev)
		return fmt.Errorf("motu: update clock display: %w", err)
	}
	return nil
}
