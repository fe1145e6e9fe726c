package token_test

import (
	"regexp"
	"testing"

	"github.com/ErlanBelekov/charon/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{24}$`)

func TestGenerate_ShapeAndUniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		tok, err := token.Generate(token.DefaultLength)
		require.NoError(t, err)
		require.Regexp(t, tokenPattern, tok)

		_, dup := seen[tok]
		require.False(t, dup, "collision after %d tokens", i)
		seen[tok] = struct{}{}
	}
}

func TestGenerate_ExactLength(t *testing.T) {
	for _, length := range []int{1, 7, 24, 64} {
		tok, err := token.Generate(length)
		require.NoError(t, err)
		assert.Len(t, tok, length)
	}
}

func TestGenerate_NonPositiveLength(t *testing.T) {
	for _, length := range []int{0, -1} {
		_, err := token.Generate(length)
		require.Error(t, err)
	}
}

// Sampling is uniform over all 62 symbols rather than picking a character
// class first, so digits show up roughly 10/62 of the time instead of 1/3.
func TestGenerate_UniformOverAlphabet(t *testing.T) {
	const draws = 62000
	tok, err := token.Generate(draws)
	require.NoError(t, err)

	var digitCount int
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}

	share := float64(digitCount) / draws
	assert.InDelta(t, 10.0/62.0, share, 0.02)
}
