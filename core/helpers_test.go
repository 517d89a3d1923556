package core

import (
	"github.com/planfoundry/compliance-checker/model"
)

// fakeAccessor is an in-memory ModelAccessor for exercising the derivation
// pipeline without a parsed model file.
type fakeAccessor struct {
	spaces     []*model.SpatialNode
	enumErr    error
	decomp     map[model.EntityID]*model.SpatialNode
	contain    map[model.EntityID]*model.SpatialNode
	unit       *model.LengthUnit
	meshes     map[model.EntityID]*model.Mesh
	meshErrs   map[model.EntityID]error
	quantities map[model.EntityID]model.Lookup
	attrs      map[model.EntityID]map[string]model.Lookup
}

func (f *fakeAccessor) EntitiesByType(typeName string) ([]*model.SpatialNode, error) {
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	return f.spaces, nil
}

func (f *fakeAccessor) DecompositionParent(id model.EntityID) (*model.SpatialNode, bool) {
	n, ok := f.decomp[id]
	return n, ok
}

func (f *fakeAccessor) ContainmentParent(id model.EntityID) (*model.SpatialNode, bool) {
	n, ok := f.contain[id]
	return n, ok
}

func (f *fakeAccessor) LengthUnit() (model.LengthUnit, bool) {
	if f.unit == nil {
		return model.LengthUnit{}, false
	}
	return *f.unit, true
}

func (f *fakeAccessor) AreaQuantity(id model.EntityID) model.Lookup {
	if q, ok := f.quantities[id]; ok {
		return q
	}
	return model.AbsentLookup()
}

func (f *fakeAccessor) AttributeValue(id model.EntityID, name string) model.Lookup {
	if attrs, ok := f.attrs[id]; ok {
		if l, ok := attrs[name]; ok {
			return l
		}
	}
	return model.AbsentLookup()
}

func (f *fakeAccessor) Mesh(id model.EntityID) (*model.Mesh, error) {
	if err, ok := f.meshErrs[id]; ok {
		return nil, err
	}
	if m, ok := f.meshes[id]; ok {
		return m, nil
	}
	return nil, errNoMesh
}

var errNoMesh = errNoMeshType{}

type errNoMeshType struct{}

func (errNoMeshType) Error() string { return "no mesh available" }

// quadMesh builds a flat axis-aligned rectangle at height z from two
// triangles.
func quadMesh(w, h, z float64) *model.Mesh {
	return &model.Mesh{
		Vertices: []model.Vec3{
			{X: 0, Y: 0, Z: z},
			{X: w, Y: 0, Z: z},
			{X: w, Y: h, Z: z},
			{X: 0, Y: h, Z: z},
		},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

// spaceNode is a shorthand for building test spaces.
func spaceNode(id model.EntityID, name, longName string) *model.SpatialNode {
	return &model.SpatialNode{
		ID:       id,
		GlobalID: "gid-" + name,
		Name:     name,
		LongName: longName,
		Kind:     model.KindSpace,
	}
}

func storeyNode(id model.EntityID, name string) *model.SpatialNode {
	return &model.SpatialNode{
		ID:       id,
		GlobalID: "gid-" + name,
		Name:     name,
		Kind:     model.KindStorey,
	}
}

func otherNode(id model.EntityID, name string) *model.SpatialNode {
	return &model.SpatialNode{
		ID:       id,
		GlobalID: "gid-" + name,
		Name:     name,
		Kind:     model.KindOther,
	}
}
