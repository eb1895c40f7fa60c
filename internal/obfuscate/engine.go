package obfuscate

import (
	"hash/fnv"
	"math/rand"
	"time"

	"db-cloak/internal/schema"
)

// Engine applies type-aware, format-preserving transforms to values.
// All randomness is derived from a keyed hash of (table, column, value)
// XORed with a per-run salt: identical values in the same column always
// obfuscate identically within a run, while a fresh run (fresh salt)
// produces a different but self-consistent mapping. Pinning the salt
// makes obfuscation reproducible across runs.
type Engine struct {
	cache     *Cache
	salt      uint64
	realistic bool
}

type Option func(*Engine)

// WithSalt pins the run salt instead of drawing one from the clock.
func WithSalt(salt uint64) Option {
	return func(e *Engine) { e.salt = salt }
}

// WithRealistic enables faker-backed replacement for text columns whose
// meaning (name, email, phone, address) was recognized from the schema.
func WithRealistic(enabled bool) Option {
	return func(e *Engine) { e.realistic = enabled }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		cache: NewCache(),
		salt:  uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CacheSize returns the number of distinct values obfuscated so far.
func (e *Engine) CacheSize() int {
	return e.cache.Len()
}

// Obfuscate transforms value according to its semantic class. The
// second result is false when a Text/Date/Numeric-classified value
// could not be parsed and was passed through unchanged; callers record
// that as a row warning. Empty values and Opaque classes pass through
// with true (expected pass-through, never cached).
func (e *Engine) Obfuscate(table, column, value string, st schema.SemanticType, meaning string, maxLen int) (string, bool) {
	if value == "" || st == schema.Opaque {
		return value, true
	}

	switch st {
	case schema.Text:
		if e.realistic && meaning != "" {
			if out, ok := e.fakeValue(table, column, value, meaning, maxLen); ok {
				return out, true
			}
		}
		return e.cache.GetOrCompute(table, column, value, func(v string) string {
			return obfuscateText(e.rng(table, column, v), v)
		}), true

	case schema.Date:
		if _, _, err := splitDate(value); err != nil {
			return value, false
		}
		return e.cache.GetOrCompute(table, column, value, func(v string) string {
			return obfuscateDate(e.rng(table, column, v), v)
		}), true

	case schema.Numeric:
		if !parseableNumber(value) {
			return value, false
		}
		return e.cache.GetOrCompute(table, column, value, func(v string) string {
			return obfuscateNumber(e.rng(table, column, v), v)
		}), true
	}
	return value, true
}

// rng builds the deterministic per-value generator. The cache
// short-circuits repeated values before this is ever re-invoked for
// the same triple.
func (e *Engine) rng(table, column, value string) *rand.Rand {
	return rand.New(rand.NewSource(e.seed(table, column, value)))
}

func (e *Engine) seed(table, column, value string) int64 {
	h := fnv.New64a()
	h.Write([]byte(table))
	h.Write([]byte{0})
	h.Write([]byte(column))
	h.Write([]byte{0})
	h.Write([]byte(value))
	return int64(h.Sum64() ^ e.salt)
}
