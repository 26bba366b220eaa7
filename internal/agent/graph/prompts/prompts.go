// Package prompts renders the chat templates for every model role in the
// analysis graph. Templates are embedded so the binary ships self-contained.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/analyst-9000/server/internal/agent/model"
)

// DatasetSchema is the warehouse schema holding the TheLook eCommerce tables.
const DatasetSchema = "thelook"

//go:embed template/router_prompt.txt
var routerTemplate string

//go:embed template/qa_prompt.txt
var qaTemplate string

//go:embed template/sql_generator_prompt.txt
var sqlGeneratorTemplate string

//go:embed template/synthesizer_prompt.txt
var synthesizerTemplate string

//go:embed template/tables_description.txt
var tablesDescription string

// RenderRouterMessages builds the intent classification request: the static
// router instructions, the prior conversation, then the user's latest message.
func RenderRouterMessages(ctx context.Context, history []*schema.Message, query string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(routerTemplate),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{{.query}}"),
	)

	return tpl.Format(ctx, map[string]any{
		"history": history,
		"query":   query,
	})
}

// RenderQAMessages builds the general assistant request with the full
// conversation history attached.
func RenderQAMessages(ctx context.Context, history []*schema.Message, query string, now time.Time) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(qaTemplate),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{{.query}}"),
	)

	return tpl.Format(ctx, map[string]any{
		"CurrentTime": now.Format("2006-01-02 15:04:05 MST"),
		"history":     history,
		"query":       query,
	})
}

// RenderSQLGeneratorMessages builds the SQL generation request. History is
// intentionally absent: the router already folded the conversation into the
// reformed query, and prior failed attempts arrive via the failures context.
func RenderSQLGeneratorMessages(ctx context.Context, reformedQuery string, attempts []model.Attempt, now time.Time) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(sqlGeneratorTemplate),
		schema.UserMessage("{{.query}}"),
	)

	return tpl.Format(ctx, map[string]any{
		"FailuresContext":   FormatAttemptHistory(attempts),
		"DatasetSchema":     DatasetSchema,
		"CurrentDate":       now.Format("2006-01-02"),
		"TablesDescription": tablesDescription,
		"query":             reformedQuery,
	})
}

// RenderSynthesizerMessages builds the final answer request from the user's
// question and the raw result rows serialized as JSON.
func RenderSynthesizerMessages(ctx context.Context, question, rowsJSON string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(synthesizerTemplate),
		schema.UserMessage("User Question: {{.question}}\n\nRaw Data Rows:\n{{.rows}}"),
	)

	return tpl.Format(ctx, map[string]any{
		"question": question,
		"rows":     rowsJSON,
	})
}

// FormatAttemptHistory turns prior failed attempts into the failures context
// block the SQL generator reads before writing a new query.
func FormatAttemptHistory(attempts []model.Attempt) string {
	if len(attempts) == 0 {
		return "No previous attempts. This is the first run."
	}

	var sb strings.Builder
	for i, a := range attempts {
		fmt.Fprintf(&sb, "--- Attempt #%d ---\n", i+1)
		fmt.Fprintf(&sb, "SQL QUERY GENERATED:\n%s\n", a.SQL)
		fmt.Fprintf(&sb, "ERROR RECEIVED:\n%s\n\n", a.Error)
	}

	return strings.TrimRight(sb.String(), "\n")
}
