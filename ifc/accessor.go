package ifc

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/planfoundry/compliance-checker/model"
)

// Spatial entity types with a fixed role in the hierarchy walk.
const (
	typeSpace          = "IFCSPACE"
	typeStorey         = "IFCBUILDINGSTOREY"
	typeUnitAssignment = "IFCUNITASSIGNMENT"
)

// Model is one loaded IFC file. It owns the parsed entity graph and
// implements the evaluation core's ModelAccessor. A Model is immutable
// after Load, so concurrent reads need no locking.
type Model struct {
	entities map[int64]*entity
	byType   map[string][]int64

	// Parent edges, child → parent. Decomposition comes from
	// IfcRelAggregates, containment from
	// IfcRelContainedInSpatialStructure; models populate the two
	// inconsistently, which is why the core walks both.
	decompParent  map[int64]int64
	containParent map[int64]int64

	// quantitySets maps an object to its attached IfcElementQuantity
	// definitions via IfcRelDefinesByProperties.
	quantitySets map[int64][]int64
}

// Load reads a STEP model from r and builds the traversal indexes.
func Load(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ifc: read model: %w", err)
	}
	entities, err := parseStep(data)
	if err != nil {
		return nil, fmt.Errorf("ifc: %w", err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("ifc: no instance lines found")
	}

	m := &Model{
		entities:      entities,
		byType:        make(map[string][]int64),
		decompParent:  make(map[int64]int64),
		containParent: make(map[int64]int64),
		quantitySets:  make(map[int64][]int64),
	}
	for id, ent := range entities {
		m.byType[ent.typ] = append(m.byType[ent.typ], id)
	}
	for _, ids := range m.byType {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	m.indexRelationships()
	return m, nil
}

// LoadFile reads a STEP model from disk.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ifc: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func (m *Model) indexRelationships() {
	// IfcRelAggregates: (GlobalId, OwnerHistory, Name, Description,
	// RelatingObject, RelatedObjects).
	for _, id := range m.byType["IFCRELAGGREGATES"] {
		rel := m.entities[id]
		parent := rel.arg(4)
		if parent.kind != argRef {
			continue
		}
		for _, child := range rel.arg(5).list {
			if child.kind != argRef {
				continue
			}
			// First relationship wins when a child is aggregated twice.
			if _, dup := m.decompParent[child.ref]; !dup {
				m.decompParent[child.ref] = parent.ref
			}
		}
	}

	// IfcRelContainedInSpatialStructure: (GlobalId, OwnerHistory, Name,
	// Description, RelatedElements, RelatingStructure).
	for _, id := range m.byType["IFCRELCONTAINEDINSPATIALSTRUCTURE"] {
		rel := m.entities[id]
		parent := rel.arg(5)
		if parent.kind != argRef {
			continue
		}
		for _, elem := range rel.arg(4).list {
			if elem.kind != argRef {
				continue
			}
			if _, dup := m.containParent[elem.ref]; !dup {
				m.containParent[elem.ref] = parent.ref
			}
		}
	}

	// IfcRelDefinesByProperties: (GlobalId, OwnerHistory, Name,
	// Description, RelatedObjects, RelatingPropertyDefinition).
	for _, id := range m.byType["IFCRELDEFINESBYPROPERTIES"] {
		rel := m.entities[id]
		def := rel.arg(5)
		if def.kind != argRef {
			continue
		}
		defEnt, ok := m.entities[def.ref]
		if !ok || defEnt.typ != "IFCELEMENTQUANTITY" {
			continue
		}
		for _, obj := range rel.arg(4).list {
			if obj.kind == argRef {
				m.quantitySets[obj.ref] = append(m.quantitySets[obj.ref], def.ref)
			}
		}
	}
}

// node builds the read-only spatial view of an entity.
func (m *Model) node(id int64) (*model.SpatialNode, bool) {
	ent, ok := m.entities[id]
	if !ok {
		return nil, false
	}

	kind := model.KindOther
	switch ent.typ {
	case typeSpace:
		kind = model.KindSpace
	case typeStorey:
		kind = model.KindStorey
	}

	// IfcRoot: GlobalId(0), OwnerHistory(1), Name(2), Description(3);
	// IfcObject adds ObjectType(4); spatial structure elements carry
	// LongName at index 7.
	return &model.SpatialNode{
		ID:         model.EntityID(id),
		GlobalID:   ent.arg(0).text(),
		Name:       ent.arg(2).text(),
		ObjectType: ent.arg(4).text(),
		LongName:   ent.arg(7).text(),
		Kind:       kind,
	}, true
}

// EntitiesByType enumerates entities of the given type in ascending ID
// order, so results are deterministic for a given model.
func (m *Model) EntitiesByType(typeName string) ([]*model.SpatialNode, error) {
	ids := m.byType[strings.ToUpper(typeName)]
	nodes := make([]*model.SpatialNode, 0, len(ids))
	for _, id := range ids {
		if n, ok := m.node(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// DecompositionParent follows the aggregation edge one step up.
func (m *Model) DecompositionParent(id model.EntityID) (*model.SpatialNode, bool) {
	pid, ok := m.decompParent[int64(id)]
	if !ok {
		return nil, false
	}
	return m.node(pid)
}

// ContainmentParent follows the spatial-containment edge one step up.
func (m *Model) ContainmentParent(id model.EntityID) (*model.SpatialNode, bool) {
	pid, ok := m.containParent[int64(id)]
	if !ok {
		return nil, false
	}
	return m.node(pid)
}

// LengthUnit reports the project's declared length unit from the first unit
// assignment in the file. ok is false when no length unit can be resolved;
// the core then defaults the scale to 1.0.
func (m *Model) LengthUnit() (model.LengthUnit, bool) {
	assignments := m.byType[typeUnitAssignment]
	if len(assignments) == 0 {
		return model.LengthUnit{}, false
	}
	ua := m.entities[assignments[0]]

	for _, unitRef := range ua.arg(0).list {
		if unitRef.kind != argRef {
			continue
		}
		unit, ok := m.entities[unitRef.ref]
		if !ok {
			continue
		}
		switch unit.typ {
		case "IFCSIUNIT":
			// (Dimensions, UnitType, Prefix, Name).
			if unit.arg(1).enum() != "LENGTHUNIT" {
				continue
			}
			return model.LengthUnit{
				Name:   strings.ToLower(unit.arg(3).enum()),
				Prefix: strings.ToLower(unit.arg(2).enum()),
			}, true
		case "IFCCONVERSIONBASEDUNIT":
			// (Dimensions, UnitType, Name, ConversionFactor).
			if unit.arg(1).enum() != "LENGTHUNIT" {
				continue
			}
			return model.LengthUnit{
				Name: strings.ToLower(unit.arg(2).text()),
			}, true
		}
	}
	return model.LengthUnit{}, false
}

// AreaQuantity scans the entity's quantity sets for the first
// strictly-positive area quantity. A set that exists but holds no positive
// area reports found-invalid rather than absent.
func (m *Model) AreaQuantity(id model.EntityID) model.Lookup {
	found := false
	for _, setID := range m.quantitySets[int64(id)] {
		set := m.entities[setID]
		// IfcElementQuantity: (GlobalId, OwnerHistory, Name, Description,
		// MethodOfMeasurement, Quantities).
		for _, qRef := range set.arg(5).list {
			if qRef.kind != argRef {
				continue
			}
			q, ok := m.entities[qRef.ref]
			if !ok || q.typ != "IFCQUANTITYAREA" {
				continue
			}
			found = true
			// IfcQuantityArea: (Name, Description, Unit, AreaValue).
			if v, ok := q.arg(3).number(); ok && v > 0 {
				return model.ValidLookup(v)
			}
		}
	}
	if found {
		return model.InvalidLookup()
	}
	return model.AbsentLookup()
}

// attributeNames maps an entity type to its explicit attribute order, for
// by-name scalar lookups. Only the types the checker inspects are listed.
var attributeNames = map[string][]string{
	typeSpace: {
		"GlobalId", "OwnerHistory", "Name", "Description", "ObjectType",
		"ObjectPlacement", "Representation", "LongName", "CompositionType",
		"InteriorOrExteriorSpace", "ElevationWithFlooring",
	},
	typeStorey: {
		"GlobalId", "OwnerHistory", "Name", "Description", "ObjectType",
		"ObjectPlacement", "Representation", "LongName", "CompositionType",
		"Elevation",
	},
}

// AttributeValue resolves a direct scalar attribute by name. The tri-state
// result distinguishes a numeric value, an attribute that exists but is not
// numeric (or unset), and an attribute the entity type does not declare.
func (m *Model) AttributeValue(id model.EntityID, name string) model.Lookup {
	ent, ok := m.entities[int64(id)]
	if !ok {
		return model.AbsentLookup()
	}
	names, ok := attributeNames[ent.typ]
	if !ok {
		return model.AbsentLookup()
	}
	for i, n := range names {
		if !strings.EqualFold(n, name) {
			continue
		}
		if v, ok := ent.arg(i).number(); ok {
			return model.ValidLookup(v)
		}
		return model.InvalidLookup()
	}
	return model.AbsentLookup()
}
