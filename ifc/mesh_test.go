package ifc

import (
	"math"
	"testing"

	"github.com/planfoundry/compliance-checker/core"
)

const areaTolerance = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= areaTolerance
}

const extrusionFixture = `#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCLOCALPLACEMENT($,#2);
#4=IFCCARTESIANPOINT((2000.,1500.));
#5=IFCAXIS2PLACEMENT2D(#4,$);
#6=IFCRECTANGLEPROFILEDEF(.AREA.,$,#5,4000.,3000.);
#7=IFCDIRECTION((0.,0.,1.));
#8=IFCEXTRUDEDAREASOLID(#6,#2,#7,3000.);
#9=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#8));
#10=IFCPRODUCTDEFINITIONSHAPE($,$,(#9));
#11=IFCSPACE('room-1',$,'Room',$,$,#3,#10,$,.ELEMENT.,.INTERNAL.,$);
`

func TestMeshExtrudedRectangle(t *testing.T) {
	m := loadFixture(t, extrusionFixture)

	mesh, err := m.Mesh(11)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	// 2 cap triangles top and bottom plus 2 per side wall.
	if mesh.TriangleCount() != 12 {
		t.Fatalf("triangles = %d, want 12", mesh.TriangleCount())
	}

	// A 4000mm x 3000mm rectangle projects to 12 m² at milli scale. The
	// union must not double-count the coincident top and bottom caps.
	est := core.NewAreaEstimator(m, 0.001)
	area := est.AreaOf(11)
	if v, ok := area.Value(); !ok || !almostEqual(v, 12.0) {
		t.Fatalf("footprint = %v, %v; want 12.0", v, ok)
	}
	if est.WasFallback(11) {
		t.Fatalf("extrusion footprint should come from geometry")
	}
}

const polylineFixture = `#1=IFCCARTESIANPOINT((0.,0.));
#2=IFCCARTESIANPOINT((6000.,0.));
#3=IFCCARTESIANPOINT((0.,4000.));
#4=IFCPOLYLINE((#1,#2,#3,#1));
#5=IFCARBITRARYCLOSEDPROFILEDEF(.AREA.,$,#4);
#6=IFCDIRECTION((0.,0.,1.));
#7=IFCCARTESIANPOINT((0.,0.,0.));
#8=IFCAXIS2PLACEMENT3D(#7,$,$);
#9=IFCEXTRUDEDAREASOLID(#5,#8,#6,2500.);
#10=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#9));
#11=IFCPRODUCTDEFINITIONSHAPE($,$,(#10));
#12=IFCSPACE('room-2',$,'Room',$,$,$,#11,$,.ELEMENT.,.INTERNAL.,$);
`

func TestMeshExtrudedPolylineProfile(t *testing.T) {
	m := loadFixture(t, polylineFixture)

	if _, err := m.Mesh(12); err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	// Right triangle 6m x 4m gives 12 m².
	est := core.NewAreaEstimator(m, 0.001)
	if v, ok := est.AreaOf(12).Value(); !ok || !almostEqual(v, 12.0) {
		t.Fatalf("footprint = %v, %v; want 12.0", v, ok)
	}
}

const faceSetFixture = `#1=IFCCARTESIANPOINTLIST3D(((0.,0.,0.),(10000.,0.,0.),(10000.,8400.,0.),(0.,8400.,0.),(0.,0.,3000.),(10000.,0.,3000.),(10000.,8400.,3000.),(0.,8400.,3000.)));
#2=IFCTRIANGULATEDFACESET(#1,$,.T.,((1,2,3),(1,3,4),(5,6,7),(5,7,8)),$);
#3=IFCSHAPEREPRESENTATION($,'Body','Tessellation',(#2));
#4=IFCPRODUCTDEFINITIONSHAPE($,$,(#3));
#5=IFCSPACE('lot-1',$,'parking',$,$,$,#4,$,.ELEMENT.,.INTERNAL.,$);
`

func TestMeshTriangulatedFaceSet(t *testing.T) {
	m := loadFixture(t, faceSetFixture)

	mesh, err := m.Mesh(5)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if mesh.TriangleCount() != 4 {
		t.Fatalf("triangles = %d, want 4", mesh.TriangleCount())
	}

	// The top face duplicates the bottom in plan view; the union keeps the
	// footprint at 10m x 8.4m = 84 m².
	est := core.NewAreaEstimator(m, 0.001)
	if v, ok := est.AreaOf(5).Value(); !ok || !almostEqual(v, 84.0) {
		t.Fatalf("footprint = %v, %v; want 84.0", v, ok)
	}
}

func TestMeshWithoutRepresentation(t *testing.T) {
	fixture := `#1=IFCSPACE('bare',$,'Room',$,$,$,$,$,.ELEMENT.,.INTERNAL.,$);`
	m := loadFixture(t, fixture)
	if _, err := m.Mesh(1); err == nil {
		t.Fatalf("expected error for entity without representation")
	}
	if _, err := m.Mesh(99); err == nil {
		t.Fatalf("expected error for unknown entity")
	}
}

func TestMeshSkipsUnsupportedItems(t *testing.T) {
	fixture := `#1=IFCBOUNDINGBOX(#2,1000.,1000.,1000.);
#2=IFCCARTESIANPOINT((0.,0.,0.));
#3=IFCSHAPEREPRESENTATION($,'Box','BoundingBox',(#1));
#4=IFCPRODUCTDEFINITIONSHAPE($,$,(#3));
#5=IFCSPACE('box-1',$,'Room',$,$,$,#4,$,.ELEMENT.,.INTERNAL.,$);
`
	m := loadFixture(t, fixture)
	if _, err := m.Mesh(5); err == nil {
		t.Fatalf("bounding-box-only representation should yield no mesh")
	}
}

func TestPlacementChainOffset(t *testing.T) {
	// The space sits 5m from the site origin via two chained placements;
	// the footprint area is translation-invariant.
	fixture := `#1=IFCCARTESIANPOINT((3000.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCLOCALPLACEMENT($,#2);
#4=IFCCARTESIANPOINT((2000.,0.,0.));
#5=IFCAXIS2PLACEMENT3D(#4,$,$);
#6=IFCLOCALPLACEMENT(#3,#5);
#7=IFCCARTESIANPOINT((1000.,1000.));
#8=IFCAXIS2PLACEMENT2D(#7,$);
#9=IFCRECTANGLEPROFILEDEF(.AREA.,$,#8,2000.,2000.);
#10=IFCDIRECTION((0.,0.,1.));
#11=IFCCARTESIANPOINT((0.,0.,0.));
#12=IFCAXIS2PLACEMENT3D(#11,$,$);
#13=IFCEXTRUDEDAREASOLID(#9,#12,#10,2500.);
#14=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#13));
#15=IFCPRODUCTDEFINITIONSHAPE($,$,(#14));
#16=IFCSPACE('off-1',$,'Room',$,$,#6,#15,$,.ELEMENT.,.INTERNAL.,$);
`
	m := loadFixture(t, fixture)
	mesh, err := m.Mesh(16)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}

	// Chained offsets 3000 + 2000 shift the profile origin to x=5000.
	minX := math.Inf(1)
	for _, v := range mesh.Vertices {
		minX = math.Min(minX, v.X)
	}
	if !almostEqual(minX, 5000.0) {
		t.Fatalf("min X = %v, want 5000 after placement composition", minX)
	}

	est := core.NewAreaEstimator(m, 0.001)
	if v, ok := est.AreaOf(16).Value(); !ok || !almostEqual(v, 4.0) {
		t.Fatalf("footprint = %v, %v; want 4.0", v, ok)
	}
}
