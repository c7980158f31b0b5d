package generation_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/random"
	"github.com/stretchr/testify/require"
)

const (
	consonants = "bcdfghjklmnpqrstvwxyz"
	vowels     = "aeiou"
)

func TestGenerateUsername_Deterministic(t *testing.T) {
	src := random.NewFixed([]int{4, 7}, []float64{0.1, 0.9, 0.2})
	require.Equal(t, "bababababab7", generation.GenerateUsername(src))
}

func TestGenerateUsername_NoSuffixCapitalised(t *testing.T) {
	// length 8, vowel start, capitalised, no suffix
	src := random.NewFixed([]int{0, 1, 1}, []float64{0.7, 0.3, 0.8})
	name := generation.GenerateUsername(src)
	require.Len(t, name, 8)
	require.Equal(t, "Ec", name[:2])
}

func TestGenerateUsername_Properties(t *testing.T) {
	src := random.New(42)
	for i := 0; i < 500; i++ {
		name := generation.GenerateUsername(src)
		require.GreaterOrEqual(t, len(name), generation.MinUsernameLength, name)
		require.LessOrEqual(t, len(name), generation.MaxUsernameLength, name)

		letters := strings.ToLower(strings.TrimRightFunc(name, unicode.IsDigit))
		require.NotEmpty(t, letters)
		require.LessOrEqual(t, len(name)-len(letters), 2, name)
		for j := 1; j < len(letters); j++ {
			prev := strings.ContainsRune(consonants, rune(letters[j-1]))
			cur := strings.ContainsRune(consonants, rune(letters[j]))
			require.NotEqual(t, prev, cur, "classes must alternate in %q", name)
			if !cur {
				require.True(t, strings.ContainsRune(vowels, rune(letters[j])), name)
			}
		}
	}
}

func TestGeneratePassword(t *testing.T) {
	src := random.New(7)
	for i := 0; i < 100; i++ {
		pw := generation.GeneratePassword(src)
		require.Len(t, pw, generation.PasswordLength)
		for _, c := range pw {
			require.True(t, strings.ContainsRune(generation.PasswordAlphabet, c), "unexpected %q", c)
		}
	}

	fixed := random.NewFixed([]int{0, 1, 2}, nil)
	require.Equal(t, "ABCAAAAAAAAA", generation.GeneratePassword(fixed))
}
