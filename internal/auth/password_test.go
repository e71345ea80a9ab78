package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "s3cret-pass")

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
	assert.False(t, CheckPassword("", "s3cret-pass"))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same-input")
	require.NoError(t, err)
	second, err := HashPassword("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNormalizeEmail(t *testing.T) {
	tests := map[string]string{
		"A@X.com":          "a@x.com",
		"  user@host.io  ": "user@host.io",
		"MiXeD@CaSe.Org":   "mixed@case.org",
		"":                 "",
	}
	for input, want := range tests {
		assert.Equal(t, want, NormalizeEmail(input))
	}
}
