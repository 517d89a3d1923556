package ifc

import (
	"fmt"
	"math"

	"github.com/planfoundry/compliance-checker/core"
	"github.com/planfoundry/compliance-checker/model"
)

// maxPlacementDepth bounds the local-placement chain walk. Exported models
// occasionally contain placement cycles; past this depth the remaining chain
// is ignored.
const maxPlacementDepth = 64

func dot(a, b model.Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func crossV(a, b model.Vec3) model.Vec3 {
	return model.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func normalize(v model.Vec3) (model.Vec3, bool) {
	n := math.Sqrt(dot(v, v))
	if n == 0 {
		return model.Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// basis is a rigid placement: an origin plus an orthonormal frame.
type basis struct {
	origin  model.Vec3
	x, y, z model.Vec3
}

func identityBasis() basis {
	return basis{
		x: model.Vec3{X: 1},
		y: model.Vec3{Y: 1},
		z: model.Vec3{Z: 1},
	}
}

// apply maps a point from the basis's local frame into its parent frame.
func (b basis) apply(p model.Vec3) model.Vec3 {
	return b.origin.
		Add(b.x.Scale(p.X)).
		Add(b.y.Scale(p.Y)).
		Add(b.z.Scale(p.Z))
}

// rotate maps a direction, ignoring the origin.
func (b basis) rotate(v model.Vec3) model.Vec3 {
	return b.x.Scale(v.X).Add(b.y.Scale(v.Y)).Add(b.z.Scale(v.Z))
}

// compose chains child under parent so that composed.apply(p) equals
// parent.apply(child.apply(p)).
func (parent basis) compose(child basis) basis {
	return basis{
		origin: parent.apply(child.origin),
		x:      parent.rotate(child.x),
		y:      parent.rotate(child.y),
		z:      parent.rotate(child.z),
	}
}

// direction reads an IfcDirection's ratios. Missing components default to 0.
func (m *Model) direction(a arg) (model.Vec3, bool) {
	if a.kind != argRef {
		return model.Vec3{}, false
	}
	ent, ok := m.entities[a.ref]
	if !ok || ent.typ != "IFCDIRECTION" {
		return model.Vec3{}, false
	}
	return vecFromList(ent.arg(0)), true
}

// point reads an IfcCartesianPoint.
func (m *Model) point(a arg) (model.Vec3, bool) {
	if a.kind != argRef {
		return model.Vec3{}, false
	}
	ent, ok := m.entities[a.ref]
	if !ok || ent.typ != "IFCCARTESIANPOINT" {
		return model.Vec3{}, false
	}
	return vecFromList(ent.arg(0)), true
}

func vecFromList(a arg) model.Vec3 {
	var v model.Vec3
	coords := a.list
	if len(coords) > 0 {
		v.X, _ = coords[0].number()
	}
	if len(coords) > 1 {
		v.Y, _ = coords[1].number()
	}
	if len(coords) > 2 {
		v.Z, _ = coords[2].number()
	}
	return v
}

// axis2Placement3D builds an orthonormal basis from an IfcAxis2Placement3D:
// (Location, Axis, RefDirection). The frame is re-orthogonalized so sloppy
// exporter output still yields a rigid placement.
func (m *Model) axis2Placement3D(a arg) basis {
	b := identityBasis()
	if a.kind != argRef {
		return b
	}
	ent, ok := m.entities[a.ref]
	if !ok {
		return b
	}
	switch ent.typ {
	case "IFCAXIS2PLACEMENT3D":
		if loc, ok := m.point(ent.arg(0)); ok {
			b.origin = loc
		}
		z := model.Vec3{Z: 1}
		if axis, ok := m.direction(ent.arg(1)); ok {
			if n, ok := normalize(axis); ok {
				z = n
			}
		}
		xref := model.Vec3{X: 1}
		if ref, ok := m.direction(ent.arg(2)); ok {
			xref = ref
		}
		// Project the reference direction onto the plane normal to z.
		x := xref.Add(z.Scale(-dot(xref, z)))
		xn, ok := normalize(x)
		if !ok {
			// RefDirection parallel to the axis; pick any perpendicular.
			alt := model.Vec3{X: 1}
			if math.Abs(z.X) > 0.9 {
				alt = model.Vec3{Y: 1}
			}
			xn, _ = normalize(alt.Add(z.Scale(-dot(alt, z))))
		}
		b.x = xn
		b.z = z
		b.y = crossV(z, xn)
	case "IFCAXIS2PLACEMENT2D":
		// (Location, RefDirection). The 2D frame lives in the XY plane.
		if loc, ok := m.point(ent.arg(0)); ok {
			b.origin = loc
		}
		if ref, ok := m.direction(ent.arg(1)); ok {
			if xn, ok := normalize(model.Vec3{X: ref.X, Y: ref.Y}); ok {
				b.x = xn
				b.y = model.Vec3{X: -xn.Y, Y: xn.X}
			}
		}
	}
	return b
}

// placementBasis resolves an object placement to a world-frame basis by
// composing the relative-placement chain root first.
func (m *Model) placementBasis(a arg) basis {
	var chain []basis
	cur := a
	for depth := 0; depth < maxPlacementDepth; depth++ {
		if cur.kind != argRef {
			break
		}
		ent, ok := m.entities[cur.ref]
		if !ok || ent.typ != "IFCLOCALPLACEMENT" {
			break
		}
		// IfcLocalPlacement: (PlacementRelTo, RelativePlacement).
		chain = append(chain, m.axis2Placement3D(ent.arg(1)))
		cur = ent.arg(0)
	}

	world := identityBasis()
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.compose(chain[i])
	}
	return world
}

// meshBuilder accumulates transformed vertices and triangle indexes.
type meshBuilder struct {
	mesh model.Mesh
}

func (mb *meshBuilder) vertex(v model.Vec3) int {
	mb.mesh.Vertices = append(mb.mesh.Vertices, v)
	return len(mb.mesh.Vertices) - 1
}

func (mb *meshBuilder) triangle(a, b, c int) {
	mb.mesh.Triangles = append(mb.mesh.Triangles, [3]int{a, b, c})
}

// Mesh generates a triangle mesh for the entity from its shape
// representation, with placements resolved to the world frame. Coordinates
// stay in model units; the caller applies unit scaling. An entity without a
// usable representation is an error so the caller can fall back to stored
// quantities.
func (m *Model) Mesh(id model.EntityID) (*model.Mesh, error) {
	ent, ok := m.entities[int64(id)]
	if !ok {
		return nil, fmt.Errorf("ifc: entity #%d not found", id)
	}

	// IfcProduct: ObjectPlacement(5), Representation(6).
	rep := ent.arg(6)
	if rep.kind != argRef {
		return nil, fmt.Errorf("ifc: #%d has no shape representation", id)
	}
	shape, ok := m.entities[rep.ref]
	if !ok || shape.typ != "IFCPRODUCTDEFINITIONSHAPE" {
		return nil, fmt.Errorf("ifc: #%d representation is not a product shape", id)
	}

	world := m.placementBasis(ent.arg(5))

	mb := &meshBuilder{}
	// IfcProductDefinitionShape: (Name, Description, Representations).
	for _, repRef := range shape.arg(2).list {
		if repRef.kind != argRef {
			continue
		}
		sr, ok := m.entities[repRef.ref]
		if !ok || sr.typ != "IFCSHAPEREPRESENTATION" {
			continue
		}
		// IfcShapeRepresentation: (ContextOfItems, RepresentationIdentifier,
		// RepresentationType, Items).
		for _, itemRef := range sr.arg(3).list {
			if itemRef.kind != argRef {
				continue
			}
			item, ok := m.entities[itemRef.ref]
			if !ok {
				continue
			}
			switch item.typ {
			case "IFCTRIANGULATEDFACESET":
				m.appendFaceSet(mb, world, item)
			case "IFCEXTRUDEDAREASOLID":
				m.appendExtrusion(mb, world, item)
			}
			// Other representation item types carry no footprint the
			// checker can use and are skipped.
		}
	}

	if mb.mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("ifc: #%d yielded no triangles", id)
	}
	return &mb.mesh, nil
}

// appendFaceSet adds the triangles of an IfcTriangulatedFaceSet:
// (Coordinates, Normals, Closed, CoordIndex, PnIndex). CoordIndex is 1-based.
func (m *Model) appendFaceSet(mb *meshBuilder, world basis, item *entity) {
	coords := item.arg(0)
	if coords.kind != argRef {
		return
	}
	pointList, ok := m.entities[coords.ref]
	if !ok || pointList.typ != "IFCCARTESIANPOINTLIST3D" {
		return
	}

	base := len(mb.mesh.Vertices)
	for _, pt := range pointList.arg(0).list {
		mb.vertex(world.apply(vecFromList(pt)))
	}
	count := len(mb.mesh.Vertices) - base

	for _, face := range item.arg(3).list {
		if len(face.list) != 3 {
			continue
		}
		var idx [3]int
		usable := true
		for i, f := range face.list {
			n, ok := f.number()
			if !ok {
				usable = false
				break
			}
			vi := int(n) - 1
			if vi < 0 || vi >= count {
				usable = false
				break
			}
			idx[i] = base + vi
		}
		if usable {
			mb.triangle(idx[0], idx[1], idx[2])
		}
	}
}

// appendExtrusion adds an IfcExtrudedAreaSolid: (SweptArea, Position,
// ExtrudedDirection, Depth). The profile is triangulated for the end caps
// and its outline swept for the side walls.
func (m *Model) appendExtrusion(mb *meshBuilder, world basis, item *entity) {
	ring := m.profileRing(item.arg(0))
	if len(ring) < 3 {
		return
	}

	depth, ok := item.arg(3).number()
	if !ok || depth <= 0 {
		return
	}
	dir := model.Vec3{Z: 1}
	if d, ok := m.direction(item.arg(2)); ok {
		if n, ok := normalize(d); ok {
			dir = n
		}
	}

	frame := world.compose(m.axis2Placement3D(item.arg(1)))
	offset := frame.rotate(dir.Scale(depth))

	lift := func(p core.Vec2) model.Vec3 {
		return frame.apply(model.Vec3{X: p.X, Y: p.Y})
	}

	// End caps.
	for _, t := range core.Triangulate(ring) {
		a := mb.vertex(lift(t[0]))
		b := mb.vertex(lift(t[1]))
		c := mb.vertex(lift(t[2]))
		mb.triangle(a, b, c)

		at := mb.vertex(lift(t[0]).Add(offset))
		bt := mb.vertex(lift(t[1]).Add(offset))
		ct := mb.vertex(lift(t[2]).Add(offset))
		mb.triangle(at, ct, bt)
	}

	// Side walls, one quad per outline edge.
	for i := range ring {
		p := lift(ring[i])
		q := lift(ring[(i+1)%len(ring)])
		a := mb.vertex(p)
		b := mb.vertex(q)
		c := mb.vertex(q.Add(offset))
		d := mb.vertex(p.Add(offset))
		mb.triangle(a, b, c)
		mb.triangle(a, c, d)
	}
}

// profileRing resolves a swept-area profile to its outline in the profile's
// own XY frame.
func (m *Model) profileRing(a arg) []core.Vec2 {
	if a.kind != argRef {
		return nil
	}
	prof, ok := m.entities[a.ref]
	if !ok {
		return nil
	}
	switch prof.typ {
	case "IFCRECTANGLEPROFILEDEF":
		// (ProfileType, ProfileName, Position, XDim, YDim), centered on the
		// profile position.
		xd, okX := prof.arg(3).number()
		yd, okY := prof.arg(4).number()
		if !okX || !okY || xd <= 0 || yd <= 0 {
			return nil
		}
		pos := m.axis2Placement3D(prof.arg(2))
		hx, hy := xd/2, yd/2
		corners := []model.Vec3{
			{X: -hx, Y: -hy}, {X: hx, Y: -hy}, {X: hx, Y: hy}, {X: -hx, Y: hy},
		}
		ring := make([]core.Vec2, 0, 4)
		for _, c := range corners {
			p := pos.apply(c)
			ring = append(ring, core.Vec2{X: p.X, Y: p.Y})
		}
		return ring
	case "IFCARBITRARYCLOSEDPROFILEDEF":
		// (ProfileType, ProfileName, OuterCurve).
		curve := prof.arg(2)
		if curve.kind != argRef {
			return nil
		}
		poly, ok := m.entities[curve.ref]
		if !ok || poly.typ != "IFCPOLYLINE" {
			return nil
		}
		var ring []core.Vec2
		for _, ptRef := range poly.arg(0).list {
			p, ok := m.point(ptRef)
			if !ok {
				return nil
			}
			ring = append(ring, core.Vec2{X: p.X, Y: p.Y})
		}
		return ring
	}
	return nil
}
