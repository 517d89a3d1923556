package model

// EntityID identifies one entity inside a loaded building model. IDs are
// assigned by the model backend and are only meaningful for the lifetime of
// that model; they must never be compared across model loads.
type EntityID int64

// NodeKind discriminates the spatial-hierarchy participants we care about.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindSpace
	KindStorey
)

func (k NodeKind) String() string {
	switch k {
	case KindSpace:
		return "space"
	case KindStorey:
		return "storey"
	default:
		return "other"
	}
}

// SpatialNode is a read-only view of a hierarchy participant owned by the
// model backend: a space, a storey, or any other element that can appear on
// a decomposition or containment chain.
type SpatialNode struct {
	ID         EntityID
	GlobalID   string
	Name       string
	LongName   string
	ObjectType string
	Kind       NodeKind
}

// DisplayName prefers the long-form name over the short one.
func (n *SpatialNode) DisplayName() string {
	if n == nil {
		return ""
	}
	if n.LongName != "" {
		return n.LongName
	}
	return n.Name
}

// NoStoreyLabel is reported when neither hierarchy walk reaches a storey.
const NoStoreyLabel = "(No storey)"

// StoreyLabel returns a stable human-readable label for a storey node.
// Unnamed storeys are labelled by their global ID so distinct storeys never
// collapse into one level in the floor-distribution rule.
func (n *SpatialNode) StoreyLabel() string {
	if n == nil {
		return NoStoreyLabel
	}
	if name := n.DisplayName(); name != "" {
		return name
	}
	gid := n.GlobalID
	if gid == "" {
		gid = "NO-ID"
	}
	return "Unnamed Storey (" + gid + ")"
}
