package prompts

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analyst-9000/server/internal/agent/model"
)

func TestFormatAttemptHistory_Empty(t *testing.T) {
	assert.Equal(t, "No previous attempts. This is the first run.", FormatAttemptHistory(nil))
}

func TestFormatAttemptHistory_NumbersAttempts(t *testing.T) {
	got := FormatAttemptHistory([]model.Attempt{
		{SQL: "SELECT revnue FROM thelook.order_items", Error: `column "revnue" does not exist`},
		{SQL: "SELECT revenue FROM thelook.order_items", Error: `column "revenue" does not exist`},
	})

	assert.Contains(t, got, "--- Attempt #1 ---")
	assert.Contains(t, got, "--- Attempt #2 ---")
	assert.Contains(t, got, `column "revnue" does not exist`)
	assert.Contains(t, got, "SELECT revenue FROM thelook.order_items")
}

func TestRenderRouterMessages(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("Sales in 2023"),
		schema.AssistantMessage("Total sales in 2023 were $4.1M.", nil),
	}

	messages, err := RenderRouterMessages(context.Background(), history, "and by month?")
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, schema.System, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Intent Classifier")
	assert.Equal(t, "Sales in 2023", messages[1].Content)
	assert.Equal(t, schema.User, messages[3].Role)
	assert.Equal(t, "and by month?", messages[3].Content)
}

func TestRenderQAMessages_IncludesCurrentTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	messages, err := RenderQAMessages(context.Background(), nil, "What is ROAS?", now)
	require.NoError(t, err)
	require.NotEmpty(t, messages)

	assert.Contains(t, messages[0].Content, "2024-06-01 12:30:00 UTC")
	assert.Equal(t, "What is ROAS?", messages[len(messages)-1].Content)
}

func TestRenderSQLGeneratorMessages(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	attempts := []model.Attempt{{SQL: "SELECT bogus", Error: "syntax error"}}

	messages, err := RenderSQLGeneratorMessages(context.Background(), "Total revenue in 2023", attempts, now)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	system := messages[0].Content
	assert.Contains(t, system, "--- Attempt #1 ---")
	assert.Contains(t, system, "syntax error")
	assert.Contains(t, system, DatasetSchema)
	assert.Contains(t, system, "2024-06-01")
	assert.Contains(t, system, "Table: order_items")
	assert.Equal(t, "Total revenue in 2023", messages[1].Content)
}

func TestRenderSQLGeneratorMessages_FirstRun(t *testing.T) {
	messages, err := RenderSQLGeneratorMessages(context.Background(), "orders per day", nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, messages[0].Content, "No previous attempts")
}

func TestRenderSynthesizerMessages(t *testing.T) {
	messages, err := RenderSynthesizerMessages(context.Background(), "Total revenue in 2023", `[{"revenue": 4100000}]`)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Contains(t, messages[1].Content, "Total revenue in 2023")
	assert.Contains(t, messages[1].Content, `[{"revenue": 4100000}]`)
}
