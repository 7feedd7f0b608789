package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths. Layout works in
// pixels; the canvas backend measures in millimeters and fonts are sized in points.

// Unit represents the original unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as pixels
	UnitPX               // CSS pixels (96 per inch)
	UnitPT               // points
	UnitMM               // millimeters
)

// Conversion constants between px, pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96.0
	MmToPx = 1.0 / PxToMm
	PtToPx = 96.0 / 72.0
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts this length to target unit.
func (l Length) To(target Unit) float64 {
	mm := l.toMM()
	switch target {
	case UnitMM:
		return mm
	case UnitPT:
		return mm * MmToPt
	default:
		return mm * MmToPx
	}
}

func (l Length) toMM() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value * PxToMm
	}
}

func (l Length) ToPX() float64 { return l.To(UnitPX) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }
func (l Length) ToMM() float64 { return l.To(UnitMM) }

// ParseLength parses a length string such as "16pt", "800px" or "4.5mm",
// preserving its unit. Invalid input yields a zero Length.
func ParseLength(value string) Length {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}

// Px converts a canvas length in millimeters to pixels.
func Px(mm float64) float64 { return mm * MmToPx }

// Mm converts pixels to millimeters for the canvas backend.
func Mm(px float64) float64 { return px * PxToMm }
