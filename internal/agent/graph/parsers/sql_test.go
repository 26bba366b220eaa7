package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSQLOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"sql fence", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"surrounding whitespace", "  SELECT 1  \n", "SELECT 1"},
		{"multiline", "```sql\nSELECT a,\n  b\nFROM t\n```", "SELECT a,\n  b\nFROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSQLOutput(tt.in))
		})
	}
}

func TestCleanSQLOutput_Idempotent(t *testing.T) {
	once := CleanSQLOutput("```sql\nSELECT 1\n```")
	assert.Equal(t, once, CleanSQLOutput(once))
}
