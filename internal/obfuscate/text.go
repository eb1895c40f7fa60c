package obfuscate

import (
	"math/rand"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"
)

// obfuscateText substitutes every alphanumeric rune while keeping
// length, case class, digit positions and all punctuation/whitespace
// exactly where they were.
func obfuscateText(r *rand.Rand, s string) string {
	out := make([]rune, 0, len(s))
	for _, ch := range s {
		switch {
		case unicode.IsLower(ch):
			out = append(out, rune('a'+r.Intn(26)))
		case unicode.IsUpper(ch):
			out = append(out, rune('A'+r.Intn(26)))
		case unicode.IsDigit(ch):
			out = append(out, rune('0'+r.Intn(10)))
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// fakeValue produces a realistic replacement for columns with a
// recognized meaning. Seeded per value, so it stays deterministic
// within the run like the character-level transform.
func (e *Engine) fakeValue(table, column, value, meaning string, maxLen int) (string, bool) {
	switch meaning {
	case "name", "email", "phone", "address":
	default:
		return "", false
	}
	out := e.cache.GetOrCompute(table, column, value, func(v string) string {
		f := gofakeit.New(e.seed(table, column, v))
		var fake string
		switch meaning {
		case "name":
			fake = f.Name()
		case "email":
			fake = f.Email()
		case "phone":
			fake = f.Phone()
		case "address":
			fake = f.Address().Address
		}
		return truncate(fake, maxLen)
	})
	return out, true
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
