package model

// LookupState is the tri-state outcome of an optional-field lookup on an
// externally-owned entity: the field can be present with a usable value,
// present but unusable (wrong type, non-positive), or absent entirely.
// Callers must never conflate the last two with a silent default.
type LookupState int

const (
	LookupAbsent LookupState = iota
	LookupInvalid
	LookupValid
)

// Lookup is a resolved optional numeric field.
type Lookup struct {
	State LookupState
	Value float64 // meaningful only when State == LookupValid
}

// AbsentLookup reports that the field does not exist on the entity.
func AbsentLookup() Lookup { return Lookup{State: LookupAbsent} }

// InvalidLookup reports a field that exists but holds no usable value.
func InvalidLookup() Lookup { return Lookup{State: LookupInvalid} }

// ValidLookup wraps a usable field value.
func ValidLookup(v float64) Lookup { return Lookup{State: LookupValid, Value: v} }
