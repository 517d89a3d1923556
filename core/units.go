package core

import (
	"strings"

	"github.com/planfoundry/compliance-checker/model"
)

// lengthScales maps a normalized (unit name, prefix) pair to a metres
// multiplier. Anything not in this table defaults to 1.0.
var lengthScales = map[model.LengthUnit]float64{
	{Name: "metre", Prefix: ""}:      1.0,
	{Name: "metre", Prefix: "milli"}: 0.001,
	{Name: "metre", Prefix: "centi"}: 0.01,
	{Name: "metre", Prefix: "deci"}:  0.1,
	{Name: "foot", Prefix: ""}:       0.3048,
}

// ResolveScale derives the model's unit system from its declared length
// unit. An unrecognized combination, a missing unit assignment, or a failed
// lookup yields scale 1.0 with Defaulted set; that is a soft warning, never
// an error, and the scale is always strictly positive.
func ResolveScale(acc ModelAccessor) model.UnitSystem {
	unit, ok := acc.LengthUnit()
	if !ok {
		return model.UnitSystem{MetersPerModelUnit: 1.0, Defaulted: true}
	}
	if scale, ok := lengthScales[normalizeLengthUnit(unit)]; ok {
		return model.UnitSystem{MetersPerModelUnit: scale}
	}
	return model.UnitSystem{MetersPerModelUnit: 1.0, Defaulted: true}
}

// normalizeLengthUnit collapses the spelling variants different authoring
// tools emit (METER/METRES/FEET, prefix "UNIT" for none).
func normalizeLengthUnit(u model.LengthUnit) model.LengthUnit {
	name := strings.ToLower(strings.TrimSpace(u.Name))
	switch name {
	case "metre", "metres", "meter", "meters":
		name = "metre"
	case "foot", "feet":
		name = "foot"
	}

	prefix := strings.ToLower(strings.TrimSpace(u.Prefix))
	if prefix == "unit" {
		prefix = ""
	}
	return model.LengthUnit{Name: name, Prefix: prefix}
}
