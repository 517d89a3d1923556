package model

// LengthUnit is the declared project length unit as reported by the model
// backend: a unit name plus an optional SI prefix, both already lower-cased.
type LengthUnit struct {
	Name   string // e.g. "metre", "foot"
	Prefix string // e.g. "milli", "" for none
}

// UnitSystem normalizes model lengths to metres. It is derived once per
// model load and immutable afterwards.
type UnitSystem struct {
	// MetersPerModelUnit is strictly positive. When the model's unit
	// assignment cannot be resolved it defaults to 1.0, never zero.
	MetersPerModelUnit float64

	// Defaulted records that the scale fell back to 1.0 because the unit
	// lookup failed or the combination was unrecognized. A soft warning,
	// not an error.
	Defaulted bool
}
