package random

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntnStaysInRange(t *testing.T) {
	r := New()
	for range 200 {
		n := r.Intn(10)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 10)
	}
	assert.Equal(t, 0, r.Intn(0))
}

func TestStringUsesAlphabet(t *testing.T) {
	s := New().String(12, "AB")
	assert.Len(t, s, 12)
	assert.Empty(t, strings.Trim(s, "AB"))
}

func TestTokenIsPrefixedAndUnique(t *testing.T) {
	r := New()
	a, b := r.Token("rt_"), r.Token("rt_")
	assert.True(t, strings.HasPrefix(a, "rt_"))
	assert.NotEqual(t, a, b)
}

func TestUUIDParses(t *testing.T) {
	_, err := uuid.Parse(New().UUID())
	require.NoError(t, err)
}
