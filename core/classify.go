package core

import (
	"strings"

	"github.com/planfoundry/compliance-checker/model"
)

// Regulated room terms. Matching is a simple string predicate: case and
// surrounding whitespace are normalized, nothing more.
const (
	classroomTerm = "classroom"
	parkingTerm   = "parking"
)

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Classify assigns a category by exact normalized match of the space's
// long name, short name, or object type against the regulated terms.
func Classify(node *model.SpatialNode) model.Category {
	if node == nil {
		return model.CategoryOther
	}
	for _, field := range []string{node.LongName, node.Name, node.ObjectType} {
		switch normalizeName(field) {
		case classroomTerm:
			return model.CategoryClassroom
		case parkingTerm:
			return model.CategoryParking
		}
	}
	return model.CategoryOther
}

// NameContainsClassroom is the looser substring predicate the
// floor-distribution rule matches with: "Classroom 101" counts even though
// it is not an exact match.
func NameContainsClassroom(node *model.SpatialNode) bool {
	if node == nil {
		return false
	}
	return strings.Contains(normalizeName(node.DisplayName()), classroomTerm)
}
