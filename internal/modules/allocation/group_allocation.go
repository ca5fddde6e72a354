package allocation

import (
	"math"
	"sort"
)

// GroupResolver maps a member (country or industry) to the group it is allocated under.
type GroupResolver struct {
	memberToGroups map[string][]string
}

// NewGroupResolver builds a resolver from group -> members.
func NewGroupResolver(groups map[string][]string) *GroupResolver {
	return &GroupResolver{memberToGroups: buildMultiGroupMapping(groups)}
}

// Resolve returns the group for a member. Without configured groups the member is its own
// group; with groups configured, unassigned members fall into OTHER. A member listed in
// several groups resolves to the alphabetically first one.
func (r *GroupResolver) Resolve(member string) string {
	if member == "" {
		return ""
	}
	if r == nil || len(r.memberToGroups) == 0 {
		return member
	}
	groups := r.memberToGroups[member]
	if len(groups) == 0 {
		return OtherGroup
	}
	return groups[0]
}

// CalculateGroupAllocation aggregates member values into groups and reports each group
// against its target. A member in several groups has its value split equally among them.
func CalculateGroupAllocation(
	category string,
	memberValues map[string]float64,
	groups map[string][]string,
	groupTargets map[string]float64,
	totalValue float64,
) []AllocationStatus {
	memberToGroups := buildMultiGroupMapping(groups)
	groupValues := aggregateByGroupMulti(memberValues, memberToGroups)

	names := make(map[string]bool)
	for name := range groupValues {
		names[name] = true
	}
	for name := range groupTargets {
		names[name] = true
	}

	statuses := make([]AllocationStatus, 0, len(names))
	for name := range names {
		currentValue := groupValues[name]
		var currentPct float64
		if totalValue > 0 {
			currentPct = currentValue / totalValue
		}
		statuses = append(statuses, CalculateAllocationStatus(
			category, name, groupTargets[name], round(currentPct, 4), round(currentValue, 2),
		))
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	return statuses
}

// buildMultiGroupMapping creates a map from member to the sorted list of its groups.
// e.g., {"Tech": ["Technology"], "Growth": ["Technology", "Healthcare"]}
//
//	-> {"Technology": ["Growth", "Tech"], "Healthcare": ["Growth"]}
func buildMultiGroupMapping(groups map[string][]string) map[string][]string {
	result := make(map[string][]string)
	for groupName, members := range groups {
		for _, member := range members {
			result[member] = append(result[member], groupName)
		}
	}
	for member := range result {
		sort.Strings(result[member])
	}
	return result
}

// aggregateByGroupMulti sums member values by group.
// Members without a group are counted as OTHER when groups exist, or as themselves otherwise.
func aggregateByGroupMulti(
	memberValues map[string]float64,
	memberToGroups map[string][]string,
) map[string]float64 {
	groupValues := make(map[string]float64)

	for member, value := range memberValues {
		groups := memberToGroups[member]
		if len(groups) == 0 {
			if len(memberToGroups) == 0 {
				groupValues[member] += value
			} else {
				groupValues[OtherGroup] += value
			}
			continue
		}

		splitValue := value / float64(len(groups))
		for _, group := range groups {
			groupValues[group] += splitValue
		}
	}

	return groupValues
}

// round rounds a float64 to n decimal places
func round(val float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(val*multiplier) / multiplier
}
