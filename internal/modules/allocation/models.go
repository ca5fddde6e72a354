// Package allocation computes target-versus-current allocation per geography and industry
// bucket and stores allocation policy.
package allocation

import "context"

// Allocation categories.
const (
	CategoryCountry  = "country"
	CategoryIndustry = "industry"
)

// OtherGroup collects members that are not assigned to any configured group.
const OtherGroup = "OTHER"

// AllocationStatus reports one bucket's position against its target.
// Deviation is CurrentPct - TargetPct: positive means overweight.
type AllocationStatus struct {
	Category     string  `json:"category"`
	Name         string  `json:"name"`
	TargetPct    float64 `json:"target_pct"`
	CurrentPct   float64 `json:"current_pct"`
	CurrentValue float64 `json:"current_value"`
	Deviation    float64 `json:"deviation"`
}

// TargetSource provides the allocation policy as group name -> target fraction.
type TargetSource interface {
	GetCountryGroupTargets(ctx context.Context) (map[string]float64, error)
	GetIndustryGroupTargets(ctx context.Context) (map[string]float64, error)
}

// GroupSource provides group membership as group name -> members.
// An empty mapping means members are their own groups.
type GroupSource interface {
	GetCountryGroups(ctx context.Context) (map[string][]string, error)
	GetIndustryGroups(ctx context.Context) (map[string][]string, error)
}
