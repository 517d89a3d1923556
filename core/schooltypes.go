package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/planfoundry/compliance-checker/model"
)

// DefaultSchoolTypes returns the built-in school-type catalog with the
// permitted classroom counts from the regulation tables.
func DefaultSchoolTypes() []model.SchoolType {
	return []model.SchoolType{
		{ID: "1", Label: "first 3-year school", PermittedCounts: []int{6, 9, 12, 15}},
		{ID: "2", Label: "second 3-year school", PermittedCounts: []int{6, 9, 12, 15}},
		{ID: "3", Label: "mixed type", PermittedCounts: []int{6, 12, 18}},
	}
}

// internal JSON shape – kept unexported so we're free to evolve it.
type schoolTypesJSON struct {
	SchoolTypes []schoolTypeJSON `json:"school_types"`
}

type schoolTypeJSON struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	PermittedCounts []int  `json:"permitted_counts"`
}

// LoadSchoolTypes reads a school-type catalog from JSON, replacing the
// built-in defaults. It fails on structural errors only; an empty catalog
// is rejected because every deployment needs at least one selectable type.
func LoadSchoolTypes(r io.Reader) ([]model.SchoolType, error) {
	var payload schoolTypesJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadSchoolTypes: decode failed: %w", err)
	}
	if len(payload.SchoolTypes) == 0 {
		return nil, fmt.Errorf("LoadSchoolTypes: catalog contains no school types")
	}

	types := make([]model.SchoolType, 0, len(payload.SchoolTypes))
	for _, st := range payload.SchoolTypes {
		if st.ID == "" {
			return nil, fmt.Errorf("LoadSchoolTypes: school type with empty id")
		}
		if len(st.PermittedCounts) == 0 {
			return nil, fmt.Errorf("LoadSchoolTypes: school type %q has no permitted counts", st.ID)
		}
		types = append(types, model.SchoolType{
			ID:              st.ID,
			Label:           st.Label,
			PermittedCounts: append([]int(nil), st.PermittedCounts...),
		})
	}
	return types, nil
}

// SchoolTypeByID finds a catalog entry by its identifier.
func SchoolTypeByID(types []model.SchoolType, id string) (model.SchoolType, bool) {
	for _, st := range types {
		if st.ID == id {
			return st, true
		}
	}
	return model.SchoolType{}, false
}
