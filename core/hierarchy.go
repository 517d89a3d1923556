package core

import "github.com/planfoundry/compliance-checker/model"

// maxWalkDepth bounds a hierarchy walk independently of cycle detection, so
// a pathological graph can never stall an evaluation.
const maxWalkDepth = 64

// parentEdge is one of the two parent-traversal primitives the backend
// exposes.
type parentEdge func(model.EntityID) (*model.SpatialNode, bool)

// StoreyOf resolves the storey that owns a space. Models populate the two
// parent-edge kinds inconsistently, so the decomposition hierarchy is tried
// first and, only if it yields no storey, the containment assignment is
// retried independently. Both walks failing means "no storey"; per-entity,
// never fatal. The result is a pure function of the graph.
func StoreyOf(space *model.SpatialNode, acc ModelAccessor) (*model.SpatialNode, bool) {
	if space == nil || acc == nil {
		return nil, false
	}
	if st, ok := walkToStorey(space, acc.DecompositionParent); ok {
		return st, true
	}
	return walkToStorey(space, acc.ContainmentParent)
}

// walkToStorey follows one parent-edge kind upward until it reaches a
// storey, runs out of parents, revisits a node (cycle), or exhausts the
// depth budget.
func walkToStorey(start *model.SpatialNode, parent parentEdge) (*model.SpatialNode, bool) {
	visited := map[model.EntityID]struct{}{start.ID: {}}

	cur := start
	for depth := 0; depth < maxWalkDepth; depth++ {
		next, ok := parent(cur.ID)
		if !ok || next == nil {
			return nil, false
		}
		if _, seen := visited[next.ID]; seen {
			// Cycle: terminate this walk with "not found".
			return nil, false
		}
		visited[next.ID] = struct{}{}

		if next.Kind == model.KindStorey {
			return next, true
		}
		cur = next
	}
	return nil, false
}
