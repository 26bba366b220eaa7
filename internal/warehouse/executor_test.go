package warehouse

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsQueryError(t *testing.T) {
	pqErr := &pq.Error{Code: "42703", Message: `column "revnue" does not exist`}
	assert.True(t, isQueryError(pqErr))
	assert.True(t, isQueryError(fmt.Errorf("query failed: %w", pqErr)))

	assert.False(t, isQueryError(errors.New("dial tcp: connection refused")))
	assert.False(t, isQueryError(nil))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "2024-01-01", normalize([]byte("2024-01-01")))
	assert.Equal(t, int64(42), normalize(int64(42)))
	assert.Nil(t, normalize(nil))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 10))
	assert.Equal(t, "abcde", preview("abcdefgh", 5))
}
