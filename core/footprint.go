package core

import (
	"sync"

	"github.com/planfoundry/compliance-checker/model"
)

// areaSource records which derivation path produced a memoized result.
type areaSource int

const (
	sourceNone areaSource = iota
	sourceGeometric
	sourceFallback
)

// AreaEstimator derives planar footprint areas for spaces, memoized per
// entity ID. The cache belongs to one evaluation session over one model
// snapshot: it is keyed by identities that are only meaningful within that
// model's lifetime and must be discarded, never merged, on model reload.
type AreaEstimator struct {
	acc   ModelAccessor
	scale float64

	mu      sync.Mutex
	cache   map[model.EntityID]model.AreaResult
	sources map[model.EntityID]areaSource
}

// NewAreaEstimator builds an estimator for one evaluation session. scale is
// the metres-per-model-unit factor from ResolveScale.
func NewAreaEstimator(acc ModelAccessor, scale float64) *AreaEstimator {
	if scale <= 0 {
		scale = 1.0
	}
	return &AreaEstimator{
		acc:     acc,
		scale:   scale,
		cache:   make(map[model.EntityID]model.AreaResult),
		sources: make(map[model.EntityID]areaSource),
	}
}

// AreaOf returns the footprint area of the entity. The geometric path wins
// whenever it yields any valid triangle; the attribute fallback is consulted
// only when mesh generation fails or produces no usable polygons. When every
// source is exhausted the result is Unknown, which is distinct from a known
// zero footprint.
func (e *AreaEstimator) AreaOf(id model.EntityID) model.AreaResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, ok := e.cache[id]; ok {
		return cached
	}
	res, src := e.derive(id)
	e.cache[id] = res
	e.sources[id] = src
	return res
}

// WasFallback reports whether a previously derived area came from the
// attribute fallback rather than geometry.
func (e *AreaEstimator) WasFallback(id model.EntityID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sources[id] == sourceFallback
}

func (e *AreaEstimator) derive(id model.EntityID) (model.AreaResult, areaSource) {
	if area, ok := e.geometricArea(id); ok {
		return model.KnownArea(area), sourceGeometric
	}
	if area, ok := e.fallbackArea(id); ok {
		return model.KnownArea(area), sourceFallback
	}
	return model.UnknownArea(), sourceNone
}

// geometricArea projects the entity's mesh onto the horizontal plane and
// computes the deduplicated union area of its triangles. ok is false when
// the mesh is unavailable or contains no valid polygon.
func (e *AreaEstimator) geometricArea(id model.EntityID) (float64, bool) {
	mesh, err := e.acc.Mesh(id)
	if err != nil || mesh == nil {
		return 0, false
	}

	tris := make([][3]Vec2, 0, len(mesh.Triangles))
	for _, t := range mesh.Triangles {
		var flat [3]Vec2
		usable := true
		for i, vi := range t {
			if vi < 0 || vi >= len(mesh.Vertices) {
				usable = false
				break
			}
			v := mesh.Vertices[vi]
			// Drop the vertical coordinate, scale the rest to metres.
			flat[i] = Vec2{X: v.X * e.scale, Y: v.Y * e.scale}
		}
		if usable {
			tris = append(tris, flat)
		}
	}

	if ValidTriangles(tris) == 0 {
		return 0, false
	}
	return UnionArea(tris), true
}

// fallbackArea consults the entity's quantity sets and then its direct area
// attribute. Values are used as stored, matching how authoring tools write
// quantity areas.
func (e *AreaEstimator) fallbackArea(id model.EntityID) (float64, bool) {
	if q := e.acc.AreaQuantity(id); q.State == model.LookupValid {
		return q.Value, true
	}
	if a := e.acc.AttributeValue(id, "Area"); a.State == model.LookupValid && a.Value > 0 {
		return a.Value, true
	}
	return 0, false
}
