package obfuscate

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"

	maxDayShift = 180
)

// splitDate detects the value's layout and splits off any fractional
// seconds, which are carried over verbatim. MySQL renders DATE as
// "2006-01-02" and DATETIME/TIMESTAMP as "2006-01-02 15:04:05[.ffffff]".
func splitDate(s string) (t time.Time, frac string, err error) {
	base := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		base, frac = s[:i], s[i:]
	}
	layout := layoutDate
	if strings.ContainsRune(base, ':') {
		layout = layoutDateTime
	}
	if frac != "" && layout == layoutDate {
		return time.Time{}, "", fmt.Errorf("unexpected fractional part in date value %q", s)
	}
	t, err = time.Parse(layout, base)
	if err != nil {
		return time.Time{}, "", err
	}
	return t, frac, nil
}

// obfuscateDate shifts a date by a uniform number of days in
// [-180, +180], preserving layout, time-of-day and fractional
// precision. Callers have already verified the value parses.
func obfuscateDate(r *rand.Rand, s string) string {
	t, frac, err := splitDate(s)
	if err != nil {
		return s
	}
	shift := r.Intn(2*maxDayShift+1) - maxDayShift

	layout := layoutDate
	if strings.ContainsRune(s, ':') {
		layout = layoutDateTime
	}
	return t.AddDate(0, 0, shift).Format(layout) + frac
}
