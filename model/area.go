package model

import (
	"encoding/json"
	"strconv"
)

// AreaResult is the outcome of a footprint-area derivation. It is either
// Known with a non-negative value in square metres, or Unknown. Known(0) and
// Unknown are deliberately distinct: a zero-footprint match is a fact, a
// missing area is not.
type AreaResult struct {
	value float64
	known bool
}

// KnownArea wraps a derived area value. Negative inputs are clamped to zero;
// the derivation paths never produce them, but the invariant holds anyway.
func KnownArea(v float64) AreaResult {
	if v < 0 {
		v = 0
	}
	return AreaResult{value: v, known: true}
}

// UnknownArea reports that no area could be determined.
func UnknownArea() AreaResult {
	return AreaResult{}
}

// Value returns the area in square metres and whether it is known.
func (a AreaResult) Value() (float64, bool) {
	return a.value, a.known
}

// OrZero returns the area, treating Unknown as 0. This is the summation
// behaviour the parking rule requires.
func (a AreaResult) OrZero() float64 {
	return a.value
}

// Known reports whether an area was determined.
func (a AreaResult) Known() bool {
	return a.known
}

// MarshalJSON encodes Unknown as null so consumers can tell it apart from a
// genuine zero.
func (a AreaResult) MarshalJSON() ([]byte, error) {
	if !a.known {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(a.value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts null or a number.
func (a *AreaResult) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = UnknownArea()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = KnownArea(v)
	return nil
}
