package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/analyst-9000/server/internal/agent/model"
)

func TestResolveThinkingBudget(t *testing.T) {
	tests := []struct {
		model  string
		level  string
		want   int32
		wantOK bool
	}{
		{"gemini-2.5-pro", BudgetLow, 128, true},
		{"gemini-2.5-pro", BudgetMedium, 2500, true},
		{"gemini-2.5-pro", BudgetHigh, 10000, true},
		{"gemini-2.5-flash", BudgetLow, 0, true},
		{"gemini-2.5-flash", BudgetMedium, 2500, true},
		{"gemini-2.5-flash", BudgetHigh, 10000, true},
		{"gemini-1.5-pro", BudgetLow, 0, false},
		{"gemini-2.5-pro", "extreme", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.model+"/"+tt.level, func(t *testing.T) {
			got, ok := ResolveThinkingBudget(tt.model, tt.level)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleSettingsApply_PinnedTemperatureWins(t *testing.T) {
	pinned := roleSettings{model: "gemini-2.5-flash", temperature: 0, pinTemperature: true}
	temp := float32(0.9)

	got := pinned.apply(model.Overrides{Temperature: &temp})
	assert.Equal(t, float32(0), got.temperature)

	free := roleSettings{model: "gemini-2.5-flash", temperature: 0.4}
	got = free.apply(model.Overrides{Temperature: &temp})
	assert.Equal(t, float32(0.9), got.temperature)
}

func TestRoleSettingsApply_ModelAndBudget(t *testing.T) {
	base := roleSettings{model: "gemini-2.5-flash", temperature: 0.4}

	got := base.apply(model.Overrides{Model: "gemini-2.5-pro", ReasoningBudget: BudgetMedium})
	assert.Equal(t, "gemini-2.5-pro", got.model)
	if assert.NotNil(t, got.thinkingBudget) {
		assert.Equal(t, int32(2500), *got.thinkingBudget)
	}

	// Overrides leave the base settings untouched.
	assert.Equal(t, "gemini-2.5-flash", base.model)
	assert.Nil(t, base.thinkingBudget)
	assert.False(t, got.equal(base))
	assert.True(t, base.equal(base.apply(model.Overrides{})))
}
