package obfuscate

import (
	"math/rand"
	"strings"
)

// parseableNumber reports whether s looks like a plain decimal number:
// optional sign, digits, optional fractional digits. Scientific
// notation and anything else fall through unobfuscated.
func parseableNumber(s string) bool {
	rest := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	intPart, decPart, hasDec := strings.Cut(rest, ".")
	if intPart == "" {
		return false
	}
	if hasDec && decPart == "" {
		return false
	}
	return allDigits(intPart) && allDigits(decPart)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// obfuscateNumber substitutes digits while keeping sign, integer digit
// count, decimal digit count and any leading-zero padding. The first
// significant integer digit stays nonzero so the magnitude never
// shrinks. Callers have already verified the value parses.
func obfuscateNumber(r *rand.Rand, s string) string {
	rest := s
	sign := ""
	if strings.HasPrefix(rest, "-") || strings.HasPrefix(rest, "+") {
		sign, rest = rest[:1], rest[1:]
	}
	intPart, decPart, hasDec := strings.Cut(rest, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(perturbInteger(r, intPart))
	if hasDec {
		b.WriteByte('.')
		b.WriteString(perturbDigits(r, decPart))
	}
	return b.String()
}

// perturbInteger keeps any zero-padding prefix verbatim and substitutes
// the significant digits, first one from 1-9.
func perturbInteger(r *rand.Rand, digits string) string {
	leading := 0
	for leading < len(digits)-1 && digits[leading] == '0' {
		leading++
	}

	out := []byte(digits[:leading])
	for i := leading; i < len(digits); i++ {
		if i == leading && digits[i] != '0' {
			out = append(out, byte('1'+r.Intn(9)))
			continue
		}
		out = append(out, byte('0'+r.Intn(10)))
	}
	return string(out)
}

func perturbDigits(r *rand.Rand, digits string) string {
	out := make([]byte, len(digits))
	for i := range out {
		out[i] = byte('0' + r.Intn(10))
	}
	return string(out)
}
