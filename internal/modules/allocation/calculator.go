package allocation

import "sort"

// CalculateAllocationDeviation returns current - target.
// No special casing: zero and negative targets (short exposure) are handled linearly.
func CalculateAllocationDeviation(target, current float64) float64 {
	return current - target
}

// CalculateAllocationStatus packages a bucket's target and current weight.
// currentValue is carried through unmodified for reporting.
func CalculateAllocationStatus(category, name string, target, current, currentValue float64) AllocationStatus {
	return AllocationStatus{
		Category:     category,
		Name:         name,
		TargetPct:    target,
		CurrentPct:   current,
		CurrentValue: currentValue,
		Deviation:    CalculateAllocationDeviation(target, current),
	}
}

// CalculateCurrentAllocations aggregates position values by bucket.
// Positions whose symbol has no bucket are skipped. Returns fractions of totalValue and
// absolute values per bucket. A non-positive totalValue yields zero fractions.
func CalculateCurrentAllocations(
	positionValues map[string]float64,
	symbolBuckets map[string]string,
	totalValue float64,
) (map[string]float64, map[string]float64) {
	values := make(map[string]float64)
	for symbol, value := range positionValues {
		bucket, ok := symbolBuckets[symbol]
		if !ok || bucket == "" {
			continue
		}
		values[bucket] += value
	}

	fractions := make(map[string]float64, len(values))
	for bucket, value := range values {
		if totalValue > 0 {
			fractions[bucket] = value / totalValue
		} else {
			fractions[bucket] = 0
		}
	}

	return fractions, values
}

// BuildAllocationStatuses creates a status for every bucket that has a target or a current
// weight, sorted by name for consistent output.
func BuildAllocationStatuses(
	category string,
	targets map[string]float64,
	currents map[string]float64,
	values map[string]float64,
) []AllocationStatus {
	names := make(map[string]bool, len(targets)+len(currents))
	for name := range targets {
		names[name] = true
	}
	for name := range currents {
		names[name] = true
	}

	statuses := make([]AllocationStatus, 0, len(names))
	for name := range names {
		statuses = append(statuses, CalculateAllocationStatus(
			category, name, targets[name], currents[name], values[name],
		))
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	return statuses
}
