package generation

import (
	"strconv"
	"strings"

	"github.com/ganot/quotagate/internal/random"
)

const (
	consonants = "bcdfghjklmnpqrstvwxyz"
	vowels     = "aeiou"

	// PasswordAlphabet excludes visually ambiguous characters.
	PasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789!@#"
	PasswordLength   = 12

	MinUsernameLength = 8
	MaxUsernameLength = 12
)

// GenerateUsername returns a pronounceable name whose total length is drawn
// uniformly from [MinUsernameLength, MaxUsernameLength]. Letters alternate
// between consonants and vowels from a random starting class; the first
// letter may be capitalised and a 0-99 suffix may take the tail of the name.
func GenerateUsername(src random.Source) string {
	length := MinUsernameLength + src.IntN(MaxUsernameLength-MinUsernameLength+1)
	consonant := src.Float64() < 0.5
	capitalize := src.Float64() < 0.5

	suffix := ""
	if src.Float64() < 0.5 {
		suffix = strconv.Itoa(src.IntN(100))
	}

	var b strings.Builder
	for i := 0; i < length-len(suffix); i++ {
		if consonant {
			b.WriteByte(consonants[src.IntN(len(consonants))])
		} else {
			b.WriteByte(vowels[src.IntN(len(vowels))])
		}
		consonant = !consonant
	}

	name := b.String()
	if capitalize {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return name + suffix
}

// GeneratePassword draws PasswordLength characters from PasswordAlphabet.
func GeneratePassword(src random.Source) string {
	buf := make([]byte, PasswordLength)
	for i := range buf {
		buf[i] = PasswordAlphabet[src.IntN(len(PasswordAlphabet))]
	}
	return string(buf)
}
