package model

// Category is the regulatory classification of a space, assigned by name
// matching against the regulated room terms.
type Category int

const (
	CategoryOther Category = iota
	CategoryClassroom
	CategoryParking
)

func (c Category) String() string {
	switch c {
	case CategoryClassroom:
		return "classroom"
	case CategoryParking:
		return "parking"
	default:
		return "other"
	}
}

// MarshalJSON renders the category as its lower-case name.
func (c Category) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// SpaceRecord is one classified space with its derived facts. Records are
// rebuilt from scratch on every model load; nothing in them survives a
// reload.
type SpaceRecord struct {
	ID       EntityID   `json:"id"`
	GlobalID string     `json:"global_id"`
	Name     string     `json:"name"`
	Category Category   `json:"category"`
	Storey   string     `json:"storey"`
	Area     AreaResult `json:"area"`

	// ClassroomTermInName is the looser substring match the
	// floor-distribution rule uses; Category stays exact-match based.
	ClassroomTermInName bool `json:"-"`
}
