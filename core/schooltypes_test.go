package core

import (
	"strings"
	"testing"
)

func TestDefaultSchoolTypes(t *testing.T) {
	types := DefaultSchoolTypes()
	if len(types) != 3 {
		t.Fatalf("DefaultSchoolTypes returned %d entries, want 3", len(types))
	}
	mixed, ok := SchoolTypeByID(types, "3")
	if !ok {
		t.Fatalf("school type 3 missing from defaults")
	}
	want := []int{6, 12, 18}
	for i, v := range want {
		if mixed.PermittedCounts[i] != v {
			t.Fatalf("mixed type counts = %v, want %v", mixed.PermittedCounts, want)
		}
	}
}

func TestLoadSchoolTypes(t *testing.T) {
	payload := `{
		"school_types": [
			{"id": "a", "label": "type A", "permitted_counts": [4, 8]},
			{"id": "b", "label": "type B", "permitted_counts": [10]}
		]
	}`
	types, err := LoadSchoolTypes(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("LoadSchoolTypes: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("loaded %d types, want 2", len(types))
	}
	if _, ok := SchoolTypeByID(types, "b"); !ok {
		t.Fatalf("type b not found after load")
	}
}

func TestLoadSchoolTypesRejectsBadCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty catalog": `{"school_types": []}`,
		"missing id":    `{"school_types": [{"label": "x", "permitted_counts": [1]}]}`,
		"no counts":     `{"school_types": [{"id": "x", "label": "x"}]}`,
		"not json":      `school_types: []`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadSchoolTypes(strings.NewReader(payload)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}
