package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := newCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)

		for _, r := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q in code %q", r, code)
		}

		seen[code] = true
	}

	// 100 draws from a 36^6 space colliding down to a handful would
	// mean the generator is broken.
	require.Greater(t, len(seen), 90)
}

func TestNewCode_UniformAlphabet(t *testing.T) {
	// A byte-modulo draw over a 36-char alphabet would weight A-D and
	// 0-3 by 8/256 instead of 7/256, putting their counts ~12% above
	// the rest. Draw enough characters that such a skew sits far
	// outside the tolerance while uniform noise sits far inside it.
	const draws = 100_000

	counts := make(map[byte]int, len(codeAlphabet))
	for d := 0; d < draws; d++ {
		code, err := newCode()
		require.NoError(t, err)
		for i := 0; i < len(code); i++ {
			counts[code[i]]++
		}
	}

	expected := float64(draws*codeLength) / float64(len(codeAlphabet))
	for i := 0; i < len(codeAlphabet); i++ {
		c := counts[codeAlphabet[i]]
		require.InDelta(t, expected, float64(c), expected*0.05,
			"character %q drawn %d times, expected ~%.0f", codeAlphabet[i], c, expected)
	}
}
