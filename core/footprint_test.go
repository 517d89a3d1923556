package core

import (
	"errors"
	"testing"

	"github.com/planfoundry/compliance-checker/model"
)

func TestAreaOfGeometricPath(t *testing.T) {
	acc := &fakeAccessor{
		meshes: map[model.EntityID]*model.Mesh{
			1: quadMesh(4, 3, 0),
		},
	}
	est := NewAreaEstimator(acc, 1.0)

	got := est.AreaOf(1)
	v, ok := got.Value()
	if !ok {
		t.Fatalf("AreaOf = Unknown, want Known(12)")
	}
	if !almostEqual(v, 12.0) {
		t.Fatalf("AreaOf = %v, want 12.0", v)
	}
	if est.WasFallback(1) {
		t.Fatalf("geometric result reported as fallback")
	}
}

func TestAreaOfAppliesScale(t *testing.T) {
	// 4000mm x 3000mm quad with a millimetre model: 12 m².
	acc := &fakeAccessor{
		meshes: map[model.EntityID]*model.Mesh{
			1: quadMesh(4000, 3000, 0),
		},
	}
	est := NewAreaEstimator(acc, 0.001)

	v, ok := est.AreaOf(1).Value()
	if !ok || !almostEqual(v, 12.0) {
		t.Fatalf("AreaOf = %v, %v; want Known(12.0)", v, ok)
	}
}

func TestAreaOfDeduplicatesCoincidentFaces(t *testing.T) {
	// Top and bottom faces of a thin slab project to the same rectangle;
	// the union must not double-count.
	bottom := quadMesh(5, 4, 0)
	top := quadMesh(5, 4, 0.3)
	mesh := &model.Mesh{
		Vertices:  append(append([]model.Vec3{}, bottom.Vertices...), top.Vertices...),
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}, {4, 5, 6}, {4, 6, 7}},
	}
	acc := &fakeAccessor{meshes: map[model.EntityID]*model.Mesh{1: mesh}}
	est := NewAreaEstimator(acc, 1.0)

	v, ok := est.AreaOf(1).Value()
	if !ok || !almostEqual(v, 20.0) {
		t.Fatalf("AreaOf(slab) = %v, %v; want Known(20.0)", v, ok)
	}
}

func TestAreaOfGeometryWinsOverFallback(t *testing.T) {
	acc := &fakeAccessor{
		meshes:     map[model.EntityID]*model.Mesh{1: quadMesh(2, 2, 0)},
		quantities: map[model.EntityID]model.Lookup{1: model.ValidLookup(99.0)},
	}
	est := NewAreaEstimator(acc, 1.0)

	v, ok := est.AreaOf(1).Value()
	if !ok || !almostEqual(v, 4.0) {
		t.Fatalf("AreaOf = %v, %v; want geometric 4.0 over attribute 99.0", v, ok)
	}
}

func TestAreaOfFallsBackOnMeshError(t *testing.T) {
	acc := &fakeAccessor{
		meshErrs:   map[model.EntityID]error{1: errors.New("mesh generation failed")},
		quantities: map[model.EntityID]model.Lookup{1: model.ValidLookup(42.5)},
	}
	est := NewAreaEstimator(acc, 1.0)

	v, ok := est.AreaOf(1).Value()
	if !ok || v != 42.5 {
		t.Fatalf("AreaOf = %v, %v; want quantity fallback 42.5", v, ok)
	}
	if !est.WasFallback(1) {
		t.Fatalf("fallback result not reported as fallback")
	}
}

func TestAreaOfFallsBackOnDegenerateMesh(t *testing.T) {
	// A mesh whose every triangle is degenerate yields zero valid
	// polygons, which must trigger the fallback, not Known(0).
	mesh := &model.Mesh{
		Vertices:  []model.Vec3{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	acc := &fakeAccessor{
		meshes:     map[model.EntityID]*model.Mesh{1: mesh},
		quantities: map[model.EntityID]model.Lookup{1: model.ValidLookup(7.0)},
	}
	est := NewAreaEstimator(acc, 1.0)

	v, ok := est.AreaOf(1).Value()
	if !ok || v != 7.0 {
		t.Fatalf("AreaOf = %v, %v; want fallback 7.0", v, ok)
	}
}

func TestAreaOfAttributeFallbackAfterQuantities(t *testing.T) {
	acc := &fakeAccessor{
		quantities: map[model.EntityID]model.Lookup{1: model.InvalidLookup()},
		attrs: map[model.EntityID]map[string]model.Lookup{
			1: {"Area": model.ValidLookup(15.5)},
		},
	}
	est := NewAreaEstimator(acc, 1.0)

	v, ok := est.AreaOf(1).Value()
	if !ok || v != 15.5 {
		t.Fatalf("AreaOf = %v, %v; want attribute fallback 15.5", v, ok)
	}
}

func TestAreaOfAllSourcesExhausted(t *testing.T) {
	est := NewAreaEstimator(&fakeAccessor{}, 1.0)

	got := est.AreaOf(1)
	if got.Known() {
		t.Fatalf("AreaOf = %v, want Unknown", got)
	}
	if got.OrZero() != 0 {
		t.Fatalf("Unknown.OrZero() = %v, want 0", got.OrZero())
	}
}

func TestAreaOfUnknownDistinctFromZero(t *testing.T) {
	if model.KnownArea(0).Known() == model.UnknownArea().Known() {
		t.Fatalf("Known(0) and Unknown must be distinguishable")
	}
}

func TestAreaOfMemoizes(t *testing.T) {
	calls := 0
	acc := &countingAccessor{
		fakeAccessor: fakeAccessor{
			meshes: map[model.EntityID]*model.Mesh{1: quadMesh(2, 3, 0)},
		},
		meshCalls: &calls,
	}
	est := NewAreaEstimator(acc, 1.0)

	for range 5 {
		if v, ok := est.AreaOf(1).Value(); !ok || !almostEqual(v, 6.0) {
			t.Fatalf("AreaOf = %v, %v; want Known(6.0)", v, ok)
		}
	}
	if calls != 1 {
		t.Fatalf("mesh generated %d times, want 1 (memoized)", calls)
	}
}

type countingAccessor struct {
	fakeAccessor
	meshCalls *int
}

func (c *countingAccessor) Mesh(id model.EntityID) (*model.Mesh, error) {
	*c.meshCalls++
	return c.fakeAccessor.Mesh(id)
}
