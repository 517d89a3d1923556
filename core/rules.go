package core

import (
	"math"
	"slices"

	"github.com/planfoundry/compliance-checker/model"
)

// Rule identifiers exposed to the presentation layer.
const (
	RuleClassroomCount    = "classroom-count"
	RuleFloorDistribution = "floor-distribution"
	RuleParkingCapacity   = "parking-capacity"
)

// Parking regulation constants: one slot's area allotment and the required
// slots per staff member.
const (
	SlotArea              = 21.0
	RequiredSlotsPerStaff = 1.0 / 3.0
)

// DefaultMaxClassroomStoreys is the default ceiling for the
// floor-distribution rule.
const DefaultMaxClassroomStoreys = 3

// Each rule evaluator is a pure function from a record snapshot plus its
// parameters to a RuleResult. Nothing here mutates shared state.

// ClassroomCountRule passes when the number of classroom spaces is one of
// the counts the school type permits. The full permitted set is reported
// either way.
func ClassroomCountRule(ev *Evaluation, schoolType model.SchoolType) model.RuleResult {
	count := 0
	for _, r := range ev.Records {
		if r.Category == model.CategoryClassroom {
			count++
		}
	}
	permitted := append([]int(nil), schoolType.PermittedCounts...)
	return model.RuleResult{
		RuleID:          RuleClassroomCount,
		Passed:          slices.Contains(permitted, count),
		Measured:        float64(count),
		PermittedCounts: permitted,
	}
}

// FloorDistributionRule passes when classrooms are spread over at most
// maxAllowed distinct storeys. Spaces whose storey could not be resolved
// share one "(No storey)" level rather than disappearing from the count.
func FloorDistributionRule(ev *Evaluation, maxAllowed int) model.RuleResult {
	levels := ev.StoreyLevels()
	excess := len(levels) - maxAllowed
	if excess < 0 {
		excess = 0
	}
	return model.RuleResult{
		RuleID:    RuleFloorDistribution,
		Passed:    len(levels) <= maxAllowed,
		Measured:  float64(len(levels)),
		Threshold: float64(maxAllowed),
		Diagnostics: map[string]float64{
			"excess_levels": float64(excess),
		},
	}
}

// ParkingCapacityRule compares the continuous slot capacity of the total
// parking area against the staff-derived requirement. The pass decision
// uses the continuous value, not the floor-rounded one; the whole-slot and
// area shortfalls are reported regardless of the verdict. Unknown areas sum
// as zero.
func ParkingCapacityRule(ev *Evaluation, staffCount int) model.RuleResult {
	totalArea := 0.0
	for _, r := range ev.Records {
		if r.Category == model.CategoryParking {
			totalArea += r.Area.OrZero()
		}
	}

	slotsContinuous := totalArea / SlotArea
	usableSlots := int(math.Floor(slotsContinuous))
	requiredSlots := int(math.Ceil(float64(staffCount) * RequiredSlotsPerStaff))

	shortfallSlots := requiredSlots - usableSlots
	if shortfallSlots < 0 {
		shortfallSlots = 0
	}
	shortfallArea := float64(requiredSlots)*SlotArea - totalArea
	if shortfallArea < 0 {
		shortfallArea = 0
	}

	return model.RuleResult{
		RuleID:    RuleParkingCapacity,
		Passed:    slotsContinuous >= float64(requiredSlots),
		Measured:  slotsContinuous,
		Threshold: float64(requiredSlots),
		Diagnostics: map[string]float64{
			"total_area_m2":     totalArea,
			"required_slots":    float64(requiredSlots),
			"usable_slots":      float64(usableSlots),
			"shortfall_slots":   float64(shortfallSlots),
			"shortfall_area_m2": shortfallArea,
		},
	}
}

// RuleParams bundles the per-request rule parameters.
type RuleParams struct {
	SchoolType model.SchoolType
	MaxStoreys int
	StaffCount int
}

// EvaluateRules runs all three rules against one evaluation snapshot.
func EvaluateRules(ev *Evaluation, params RuleParams) []model.RuleResult {
	return []model.RuleResult{
		ClassroomCountRule(ev, params.SchoolType),
		FloorDistributionRule(ev, params.MaxStoreys),
		ParkingCapacityRule(ev, params.StaffCount),
	}
}
