package model

// SchoolType selects the permitted classroom counts for the classroom-count
// rule. The catalog ships with built-in defaults and can be overridden from
// a JSON config file.
type SchoolType struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	PermittedCounts []int  `json:"permitted_counts"`
}

// RuleResult is the outcome of one compliance rule evaluation. Results are
// produced fresh on every evaluation and never persisted.
type RuleResult struct {
	RuleID   string  `json:"rule_id"`
	Passed   bool    `json:"passed"`
	Measured float64 `json:"measured"`

	// Threshold is set for threshold-style rules (floor distribution,
	// parking capacity); PermittedCounts for set-membership rules
	// (classroom count). Exactly one of the two is populated.
	Threshold       float64 `json:"threshold,omitempty"`
	PermittedCounts []int   `json:"permitted_counts,omitempty"`

	// Diagnostics carries the shortfall figures that are reported
	// regardless of pass/fail.
	Diagnostics map[string]float64 `json:"diagnostics,omitempty"`
}
