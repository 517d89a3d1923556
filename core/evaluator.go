package core

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/planfoundry/compliance-checker/model"
)

// ErrNoModel is returned when an evaluation is requested before any model
// has been loaded. Consumers report "no result available" rather than
// crashing.
var ErrNoModel = errors.New("no model loaded")

// ModelAccessor is the read-only surface the evaluation core needs from a
// building-model backend. Implementations own the entities; the core only
// holds references and derived data.
type ModelAccessor interface {
	// EntitiesByType enumerates entities of the given type name (for
	// example "IfcSpace"). The order must be deterministic for a given
	// model. A failed enumeration is reported as an error; callers treat
	// the result set as empty and continue.
	EntitiesByType(typeName string) ([]*model.SpatialNode, error)

	// DecompositionParent follows the aggregation-hierarchy edge
	// ("is part of assembly") one step up.
	DecompositionParent(id model.EntityID) (*model.SpatialNode, bool)

	// ContainmentParent follows the spatial-structure assignment edge
	// ("is physically located within") one step up. This is a distinct
	// edge kind from decomposition; models populate the two
	// inconsistently.
	ContainmentParent(id model.EntityID) (*model.SpatialNode, bool)

	// LengthUnit reports the project's declared length unit, if any.
	LengthUnit() (model.LengthUnit, bool)

	// AreaQuantity searches the entity's attached quantity sets for the
	// first strictly-positive area quantity.
	AreaQuantity(id model.EntityID) model.Lookup

	// AttributeValue resolves a direct scalar attribute on the entity by
	// name.
	AttributeValue(id model.EntityID, name string) model.Lookup

	// Mesh generates a world-coordinate triangulated mesh for the entity.
	Mesh(id model.EntityID) (*model.Mesh, error)
}

// spaceTypeName is the entity type enumerated for classification.
const spaceTypeName = "IfcSpace"

// Evaluation is the result of one evaluation session over one loaded model
// snapshot. All derived data is recomputed from scratch per load; nothing is
// carried across models.
type Evaluation struct {
	// RunID tags one evaluation session in logs and API responses.
	RunID string `json:"run_id"`

	Units   model.UnitSystem    `json:"-"`
	Scale   float64             `json:"scale"`
	Records []model.SpaceRecord `json:"records"`

	// Derivation counters, for observability only.
	SpacesSeen     int `json:"spaces_seen"`
	GeometricAreas int `json:"geometric_areas"`
	FallbackAreas  int `json:"fallback_areas"`
	UnknownAreas   int `json:"unknown_areas"`
}

// StoreyLevels returns the distinct storey labels among records matching the
// looser classroom term, sorted for deterministic output. Spaces without a
// resolved storey count as one shared "(No storey)" level.
func (ev *Evaluation) StoreyLevels() []string {
	seen := make(map[string]struct{})
	for _, r := range ev.Records {
		if !r.ClassroomTermInName {
			continue
		}
		seen[r.Storey] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for s := range seen {
		levels = append(levels, s)
	}
	sort.Strings(levels)
	return levels
}

// Evaluate runs one full fact-derivation pass: resolve the unit scale,
// enumerate spaces, classify them, resolve their storeys, and derive their
// footprint areas. Failures are scoped to the smallest unit; a single
// entity never aborts the batch.
func Evaluate(acc ModelAccessor) (*Evaluation, error) {
	if acc == nil {
		return nil, ErrNoModel
	}

	units := ResolveScale(acc)
	est := NewAreaEstimator(acc, units.MetersPerModelUnit)

	// A failed enumeration yields an empty result set, not an error.
	spaces, err := acc.EntitiesByType(spaceTypeName)
	if err != nil {
		spaces = nil
	}

	ev := &Evaluation{
		RunID:      uuid.NewString(),
		Units:      units,
		Scale:      units.MetersPerModelUnit,
		SpacesSeen: len(spaces),
	}

	for _, sp := range spaces {
		category := Classify(sp)
		loose := NameContainsClassroom(sp)
		if category == model.CategoryOther && !loose {
			continue
		}

		storey := model.NoStoreyLabel
		if st, ok := StoreyOf(sp, acc); ok {
			storey = st.StoreyLabel()
		}

		area := est.AreaOf(sp.ID)
		switch {
		case !area.Known():
			ev.UnknownAreas++
		case est.WasFallback(sp.ID):
			ev.FallbackAreas++
		default:
			ev.GeometricAreas++
		}

		ev.Records = append(ev.Records, model.SpaceRecord{
			ID:                  sp.ID,
			GlobalID:            sp.GlobalID,
			Name:                sp.DisplayName(),
			Category:            category,
			Storey:              storey,
			Area:                area,
			ClassroomTermInName: loose,
		})
	}

	return ev, nil
}
