package llm

import "strings"

// Reasoning budget levels accepted on requests.
const (
	BudgetLow    = "low"
	BudgetMedium = "medium"
	BudgetHigh   = "high"
)

// thinkingBudgets maps (model family, requested budget level) to the
// provider's thinking-budget token count. Values are empirical.
var thinkingBudgets = map[string]map[string]int32{
	"2.5-pro": {
		BudgetLow:    128,
		BudgetMedium: 2500,
		BudgetHigh:   10000,
	},
	"2.5-flash": {
		BudgetLow:    0,
		BudgetMedium: 2500,
		BudgetHigh:   10000,
	},
}

// ResolveThinkingBudget returns the thinking-budget tokens for the given
// model and level. The second return is false when either the model family
// or the level is unknown; callers then leave the provider default in place.
func ResolveThinkingBudget(modelName, level string) (int32, bool) {
	for family, levels := range thinkingBudgets {
		if !strings.Contains(modelName, family) {
			continue
		}
		budget, ok := levels[level]
		return budget, ok
	}
	return 0, false
}
